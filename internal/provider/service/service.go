package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"vitrina/internal/audit"
	"vitrina/internal/provider/metrics"
	"vitrina/internal/provider/models"
	registrymodels "vitrina/internal/registry/models"
	"vitrina/pkg/attrs"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
	"vitrina/pkg/platform/sentinel"
	"vitrina/pkg/requestcontext"
)

// Store persists provider aggregates. Execute must run validate and mutate
// atomically on a fresh copy of the row.
type Store interface {
	Create(ctx context.Context, provider *models.Provider) error
	FindByID(ctx context.Context, providerID id.ProviderID) (*models.Provider, error)
	FindBySubject(ctx context.Context, subjectID id.SubjectID) (*models.Provider, error)
	ListByStatus(ctx context.Context, status models.Status) ([]*models.Provider, error)
	Execute(ctx context.Context, providerID id.ProviderID, validate func(*models.Provider) error, mutate func(*models.Provider) error) (*models.Provider, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service owns the provider aggregate and its verification state machine.
type Service struct {
	providers      Store
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs a Service.
func New(providers Store, opts ...Option) *Service {
	s := &Service{providers: providers}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateParams carries everything an onboarding submission contributes to
// the new aggregate. The identity number arrives already validated;
// RequiredDocumentsMissing reflects what the submission attached.
type CreateParams struct {
	SubjectID                id.SubjectID
	Kind                     models.Kind
	IdentityNumber           string
	LegalName                string
	TradeName                string
	ContactEmail             string
	ContactPhone             string
	Registry                 *registrymodels.Record
	Representative           *models.Representative
	RequiredDocumentsMissing bool
}

// Create builds the aggregate and computes its initial status: incomplete
// profile parks it at pending_profile, missing required documents at
// pending_documents, otherwise it goes straight into review.
func (s *Service) Create(ctx context.Context, params CreateParams) (*models.Provider, error) {
	if params.SubjectID.IsZero() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "subject id is required")
	}
	if params.IdentityNumber == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "identity number is required")
	}

	now := requestcontext.Now(ctx)
	provider := &models.Provider{
		ID:             id.NewProviderID(),
		SubjectID:      params.SubjectID,
		Kind:           params.Kind,
		IdentityNumber: params.IdentityNumber,
		LegalName:      strings.TrimSpace(params.LegalName),
		TradeName:      strings.TrimSpace(params.TradeName),
		ContactEmail:   strings.TrimSpace(params.ContactEmail),
		ContactPhone:   strings.TrimSpace(params.ContactPhone),
		Registry:       params.Registry,
		Representative: params.Representative,
		Status:         models.InitialStatus(profileComplete(params), params.RequiredDocumentsMissing),
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.providers.Create(ctx, provider); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "subject already registered a provider")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create provider")
	}

	s.metrics.RecordCreated(string(provider.Kind), string(provider.Status))
	s.logAudit(ctx, string(audit.EventProviderCreated),
		"subject_id", provider.SubjectID.String(),
		"provider_id", provider.ID.String(),
		"kind", string(provider.Kind),
		"result", string(provider.Status))
	return provider, nil
}

// profileComplete checks the required profile fields for the kind.
func profileComplete(params CreateParams) bool {
	if strings.TrimSpace(params.LegalName) == "" ||
		strings.TrimSpace(params.ContactEmail) == "" ||
		strings.TrimSpace(params.ContactPhone) == "" {
		return false
	}
	if params.Kind == models.KindBusiness {
		if params.Registry == nil || params.Representative == nil {
			return false
		}
		if strings.TrimSpace(params.Representative.Name) == "" || params.Representative.IdentityNumber == "" {
			return false
		}
	}
	return true
}

// Get returns one provider aggregate.
func (s *Service) Get(ctx context.Context, providerID id.ProviderID) (*models.Provider, error) {
	provider, err := s.providers.FindByID(ctx, providerID)
	if err != nil {
		return nil, translateLoadErr(err)
	}
	return provider, nil
}

// GetBySubject returns the provider registered by a subject.
func (s *Service) GetBySubject(ctx context.Context, subjectID id.SubjectID) (*models.Provider, error) {
	provider, err := s.providers.FindBySubject(ctx, subjectID)
	if err != nil {
		return nil, translateLoadErr(err)
	}
	return provider, nil
}

// ListUnderReview returns the review queue.
func (s *Service) ListUnderReview(ctx context.Context) ([]*models.Provider, error) {
	providers, err := s.providers.ListByStatus(ctx, models.StatusUnderReview)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list providers")
	}
	return providers, nil
}

// OnDocumentsUpdated reacts to a fresh upload: a rejected provider
// re-enters pending_documents, and completing the last required type
// auto-advances into review. All other statuses are left untouched, so
// verified can never regress through an upload.
func (s *Service) OnDocumentsUpdated(ctx context.Context, providerID id.ProviderID, requiredComplete bool) error {
	now := requestcontext.Now(ctx)
	var from, to models.Status
	_, err := s.providers.Execute(ctx, providerID, nil, func(provider *models.Provider) error {
		from = provider.Status
		if provider.CanReenterDocuments() {
			if err := provider.ApplyDocumentResubmission(now); err != nil {
				return err
			}
		}
		if requiredComplete && provider.CanAdvanceToReview() {
			if err := provider.ApplyAdvanceToReview(now); err != nil {
				return err
			}
		}
		to = provider.Status
		return nil
	})
	if err != nil {
		return translateLoadErr(err)
	}
	if from != to {
		s.recordTransition(ctx, providerID, from, to)
	}
	return nil
}

// ApplyReview records the review decision on a provider under review.
func (s *Service) ApplyReview(ctx context.Context, providerID id.ProviderID, decision models.ReviewDecision, reason string) (*models.Provider, error) {
	now := requestcontext.Now(ctx)
	var from models.Status
	provider, err := s.providers.Execute(ctx, providerID,
		func(provider *models.Provider) error {
			from = provider.Status
			if !provider.CanApplyReview() {
				return dErrors.Newf(dErrors.CodeConflict, "provider is not under review (status %s)", provider.Status)
			}
			return nil
		},
		func(provider *models.Provider) error {
			return provider.ApplyReview(decision, reason, now)
		})
	if err != nil {
		return nil, translateLoadErr(err)
	}

	s.recordTransition(ctx, providerID, from, provider.Status)
	return provider, nil
}

// SetActive flips administrative activation without touching verification.
func (s *Service) SetActive(ctx context.Context, providerID id.ProviderID, active bool) (*models.Provider, error) {
	now := requestcontext.Now(ctx)
	provider, err := s.providers.Execute(ctx, providerID, nil, func(provider *models.Provider) error {
		provider.ApplyActivation(active, now)
		return nil
	})
	if err != nil {
		return nil, translateLoadErr(err)
	}
	return provider, nil
}

func (s *Service) recordTransition(ctx context.Context, providerID id.ProviderID, from, to models.Status) {
	s.metrics.RecordTransition(string(from), string(to))
	s.logAudit(ctx, string(audit.EventProviderStatusChanged),
		"provider_id", providerID.String(),
		"from", string(from),
		"result", string(to))
}

func translateLoadErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "provider not found")
	}
	var coded *dErrors.Error
	if errors.As(err, &coded) {
		return err
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "provider store failure")
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		SubjectID: attrs.ExtractString(attributes, "subject_id"),
		Actor:     attrs.ExtractString(attributes, "subject_id"),
		Action:    event,
		Resource:  attrs.ExtractString(attributes, "provider_id"),
		Outcome:   attrs.ExtractString(attributes, "result"),
	})
}
