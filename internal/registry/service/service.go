// Package service implements the registry resolver: textual key in,
// classified canonical record out.
package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"vitrina/internal/identity"
	"vitrina/internal/registry/metrics"
	"vitrina/internal/registry/models"
	dErrors "vitrina/pkg/domain-errors"
	"vitrina/pkg/platform/sentinel"
	"vitrina/pkg/requestcontext"
)

// LookupClient is the outbound registry collaborator.
type LookupClient interface {
	Lookup(ctx context.Context, identityNumber string) (*models.Record, error)
}

// Cache is the session-scoped result cache.
type Cache interface {
	Find(ctx context.Context, identityNumber string) (*models.Record, error)
	Save(ctx context.Context, identityNumber string, record *models.Record) error
}

// Resolver resolves business identification numbers against the external
// registry with a session-scoped cache in front.
type Resolver struct {
	client  LookupClient
	cache   Cache
	logger  *slog.Logger
	metrics *metrics.Metrics
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

func WithCache(cache Cache) Option {
	return func(r *Resolver) {
		r.cache = cache
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Resolver) {
		r.metrics = m
	}
}

// New constructs a Resolver.
func New(client LookupClient, opts ...Option) *Resolver {
	r := &Resolver{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve maps a business identification number to a classified outcome.
// The number must pass local checksum validation before the network is
// touched; a number that fails here is a validation error, not an outcome.
func (r *Resolver) Resolve(ctx context.Context, rawNumber string) (models.Outcome, error) {
	start := time.Now()
	defer func() {
		r.metrics.ObserveLookupDuration(time.Since(start).Seconds())
	}()

	validated := identity.ValidateBusiness(rawNumber)
	if !validated.IsValid() {
		return models.Outcome{}, dErrors.New(dErrors.CodeValidation, "identity number failed local validation")
	}
	number := validated.Digits

	if record := r.findCached(ctx, number); record != nil {
		r.metrics.RecordLookup(string(models.OutcomeResolved))
		return models.Resolved(record), nil
	}

	record, err := r.client.Lookup(ctx, number)
	switch {
	case err == nil:
		r.saveCached(ctx, number, record)
		r.metrics.RecordLookup(string(models.OutcomeResolved))
		if !record.IsActive() {
			r.logger.InfoContext(ctx, "registry record not active",
				"request_id", requestcontext.RequestID(ctx),
				"status", record.Status,
			)
		}
		return models.Resolved(record), nil

	case errors.Is(err, sentinel.ErrNotFound):
		r.metrics.RecordLookup(string(models.OutcomeNotFound))
		return models.NotFound(), nil

	case errors.Is(err, sentinel.ErrUnavailable):
		r.metrics.RecordLookup(string(models.OutcomeTransientError))
		r.logger.WarnContext(ctx, "registry lookup failed transiently",
			"request_id", requestcontext.RequestID(ctx),
			"error", err.Error(),
		)
		return models.TransientError(err), nil

	default:
		return models.Outcome{}, dErrors.Wrap(err, dErrors.CodeInternal, "registry lookup failed")
	}
}

func (r *Resolver) findCached(ctx context.Context, number string) *models.Record {
	if r.cache == nil {
		return nil
	}
	record, err := r.cache.Find(ctx, number)
	if err != nil {
		if !errors.Is(err, sentinel.ErrNotFound) {
			r.logger.WarnContext(ctx, "registry cache read failed", "error", err.Error())
		}
		r.metrics.RecordCacheMiss()
		return nil
	}
	r.metrics.RecordCacheHit()
	return record
}

func (r *Resolver) saveCached(ctx context.Context, number string, record *models.Record) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Save(ctx, number, record); err != nil {
		// Cache writes are best-effort; the next step re-resolves.
		r.logger.WarnContext(ctx, "registry cache write failed", "error", err.Error())
	}
}
