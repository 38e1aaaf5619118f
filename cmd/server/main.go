// Command server wires the stores, services and HTTP surface together and
// runs the process lifecycle. Stores are Postgres/Redis backed when
// configured and in-memory otherwise, so a bare `go run` serves a fully
// working dev instance.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"golang.org/x/sync/errgroup"

	"vitrina/internal/audit"
	documenthandler "vitrina/internal/document/handler"
	documentmetrics "vitrina/internal/document/metrics"
	"vitrina/internal/document/objectstore"
	documentservice "vitrina/internal/document/service"
	documentstore "vitrina/internal/document/store"
	httpapi "vitrina/internal/http"
	"vitrina/internal/lockout"
	onboardinghandler "vitrina/internal/onboarding/handler"
	onboardingmetrics "vitrina/internal/onboarding/metrics"
	onboardingservice "vitrina/internal/onboarding/service"
	onboardingstore "vitrina/internal/onboarding/store"
	"vitrina/internal/platform/config"
	"vitrina/internal/platform/httpserver"
	"vitrina/internal/platform/logger"
	platformredis "vitrina/internal/platform/redis"
	providerhandler "vitrina/internal/provider/handler"
	providermetrics "vitrina/internal/provider/metrics"
	providerservice "vitrina/internal/provider/service"
	providerstore "vitrina/internal/provider/store"
	registrycache "vitrina/internal/registry/cache"
	registryclient "vitrina/internal/registry/client"
	registrymetrics "vitrina/internal/registry/metrics"
	registryservice "vitrina/internal/registry/service"
	subjecthandler "vitrina/internal/subject/handler"
	subjectservice "vitrina/internal/subject/service"
	subjectstore "vitrina/internal/subject/store"
	"vitrina/internal/token"
	"vitrina/internal/verification/delivery"
	verificationhandler "vitrina/internal/verification/handler"
	verificationmetrics "vitrina/internal/verification/metrics"
	verificationservice "vitrina/internal/verification/service"
	verificationstore "vitrina/internal/verification/store"
)

const (
	shutdownTimeout = 10 * time.Second
	draftTTL        = 7 * 24 * time.Hour
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var db *sql.DB
	if cfg.Postgres.URL != "" {
		var err error
		db, err = sql.Open("pgx", cfg.Postgres.URL)
		if err != nil {
			log.Error("failed to open postgres", "error", err.Error())
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			log.Error("postgres ping failed", "error", err.Error())
			os.Exit(1)
		}
	}

	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("failed to connect to redis", "error", err.Error())
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	auditStore := audit.NewInMemory()
	var (
		auditSinks  []audit.Sink
		auditWorker *audit.Worker
	)
	if len(cfg.Kafka.Brokers) > 0 {
		kafka, err := audit.NewKafka(ctx, cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("failed to connect to kafka", "error", err.Error())
			os.Exit(1)
		}
		defer kafka.Close()
		// Kafka produces synchronously; a pipe plus worker keeps that
		// latency out of the request path.
		pipe := audit.NewPipe(256)
		auditWorker = audit.NewWorker(kafka, pipe, log)
		auditSinks = append(auditSinks, pipe)
	}
	auditPublisher := audit.NewPublisher(auditStore, auditSinks...)

	// Stores: Postgres when configured, in-memory otherwise.
	var (
		subjects  subjectservice.Store          = subjectstore.NewInMemory()
		codes     verificationservice.CodeStore = verificationstore.NewInMemory()
		attempts  lockout.Store                 = lockout.NewInMemory(cfg.Verification.LockoutWindow)
		providers providerservice.Store         = providerstore.NewInMemory()
		documents documentservice.Store         = documentstore.NewInMemory()
		drafts    onboardingservice.DraftStore  = onboardingstore.NewInMemory()
	)
	if db != nil {
		subjects = subjectstore.NewPostgres(db)
		codes = verificationstore.NewPostgres(db)
		attempts = lockout.NewPostgres(db, cfg.Verification.LockoutWindow)
		providers = providerstore.NewPostgres(db)
		documents = documentstore.NewPostgres(db)
	}
	if redisClient != nil {
		drafts = onboardingstore.NewRedis(redisClient.Client, draftTTL)
	}

	var registryCache registryservice.Cache = registrycache.NewMemory(cfg.Registry.CacheTTL)
	if redisClient != nil {
		registryCache = registrycache.NewRedis(redisClient.Client, cfg.Registry.CacheTTL)
	}

	subjectSvc := subjectservice.New(subjects)

	registryResolver := registryservice.New(
		registryclient.New(cfg.Registry.BaseURL, cfg.Registry.APIKey, cfg.Registry.Timeout),
		registryservice.WithLogger(log),
		registryservice.WithCache(registryCache),
		registryservice.WithMetrics(registrymetrics.New()),
	)

	lockoutPolicy := lockout.NewPolicy(attempts, cfg.Verification.MaxAttempts, cfg.Verification.LockoutWindow)
	verificationSvc := verificationservice.New(
		codes,
		subjectSvc,
		delivery.NewLog(log),
		lockoutPolicy,
		verificationservice.WithLogger(log),
		verificationservice.WithAuditPublisher(auditPublisher),
		verificationservice.WithMetrics(verificationmetrics.New()),
		verificationservice.WithCodeTTL(cfg.Verification.CodeTTL),
	)

	providerSvc := providerservice.New(
		providers,
		providerservice.WithLogger(log),
		providerservice.WithAuditPublisher(auditPublisher),
		providerservice.WithMetrics(providermetrics.New()),
	)

	documentSvc := documentservice.New(
		documents,
		objectstore.NewInMemory(),
		providerSvc,
		documentservice.WithLogger(log),
		documentservice.WithAuditPublisher(auditPublisher),
		documentservice.WithMetrics(documentmetrics.New()),
		documentservice.WithMaxUploadSize(cfg.Document.MaxUploadBytes),
	)

	onboardingSvc := onboardingservice.New(
		drafts,
		registryResolver,
		documentSvc,
		providerSvc,
		onboardingservice.WithLogger(log),
		onboardingservice.WithAuditPublisher(auditPublisher),
		onboardingservice.WithMetrics(onboardingmetrics.New()),
	)

	tokens := token.NewService(cfg.Server.JWTSigningKey, "vitrina")

	health := []httpapi.HealthCheck{}
	if db != nil {
		health = append(health, httpapi.HealthCheck{Name: "postgres", Check: db.PingContext})
	}
	if redisClient != nil {
		health = append(health, httpapi.HealthCheck{Name: "redis", Check: redisClient.Health})
	}

	router := httpapi.NewRouter(httpapi.Deps{
		Logger:       log,
		Tokens:       tokens,
		Subjects:     subjecthandler.New(subjectSvc, tokens, log),
		Verification: verificationhandler.New(verificationSvc, log),
		Onboarding:   onboardinghandler.New(onboardingSvc, log),
		Documents:    documenthandler.New(documentSvc, providerSvc, log),
		Providers:    providerhandler.New(providerSvc, log),
		Health:       health,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	sweeper := verificationservice.NewSweeper(verificationSvc, cfg.Verification.SweepInterval, log)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		log.Info("starting server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		return sweeper.Run(groupCtx)
	})
	if auditWorker != nil {
		group.Go(func() error {
			return auditWorker.Run(groupCtx)
		})
	}
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited with error", "error", err.Error())
		os.Exit(1)
	}
	log.Info("server stopped")
}
