// Package service orchestrates the onboarding wizard. Step gating is
// enforced here against the server-persisted draft: a client can never
// skip ahead by fabricating local state.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"vitrina/internal/audit"
	documentmodels "vitrina/internal/document/models"
	documentservice "vitrina/internal/document/service"
	"vitrina/internal/identity"
	"vitrina/internal/onboarding/metrics"
	"vitrina/internal/onboarding/models"
	providermodels "vitrina/internal/provider/models"
	providerservice "vitrina/internal/provider/service"
	registrymodels "vitrina/internal/registry/models"
	"vitrina/pkg/attrs"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
	"vitrina/pkg/platform/sentinel"
	"vitrina/pkg/requestcontext"
)

// DraftStore persists in-progress drafts keyed by subject.
type DraftStore interface {
	Save(ctx context.Context, draft *models.Draft) error
	Find(ctx context.Context, subjectID id.SubjectID) (*models.Draft, error)
	Delete(ctx context.Context, subjectID id.SubjectID) error
}

// RegistryResolver resolves a business number against the external
// registry, returning the classified outcome.
type RegistryResolver interface {
	Resolve(ctx context.Context, rawNumber string) (registrymodels.Outcome, error)
}

// DocumentStager stages uploads during the wizard and materializes them
// once the provider exists.
type DocumentStager interface {
	StageUpload(ctx context.Context, kind providermodels.Kind, docType documentmodels.Type, upload *documentmodels.Upload) (*documentservice.DraftDocument, error)
	AttachDrafts(ctx context.Context, providerID id.ProviderID, drafts []documentservice.DraftDocument) error
}

// ProviderCreator creates the aggregate at final submission.
type ProviderCreator interface {
	Create(ctx context.Context, params providerservice.CreateParams) (*providermodels.Provider, error)
	GetBySubject(ctx context.Context, subjectID id.SubjectID) (*providermodels.Provider, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service is the onboarding orchestrator.
type Service struct {
	drafts         DraftStore
	registry       RegistryResolver
	documents      DocumentStager
	providers      ProviderCreator
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
func New(drafts DraftStore, registry RegistryResolver, documents DocumentStager, providers ProviderCreator, opts ...Option) *Service {
	s := &Service{drafts: drafts, registry: registry, documents: documents, providers: providers}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start opens a fresh draft for the subject. Restarting replaces any
// existing draft; a subject who already registered a provider is refused.
func (s *Service) Start(ctx context.Context, subjectID id.SubjectID, kind providermodels.Kind) (*models.Draft, error) {
	if _, err := s.providers.GetBySubject(ctx, subjectID); err == nil {
		return nil, dErrors.New(dErrors.CodeConflict, "subject already registered a provider")
	} else if !dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, err
	}

	draft := models.NewDraft(subjectID, kind, requestcontext.Now(ctx))
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}

	s.metrics.RecordDraftStarted(string(kind))
	s.logAudit(ctx, string(audit.EventOnboardingStarted),
		"subject_id", subjectID.String(), "kind", string(kind))
	return draft, nil
}

// Get returns the subject's draft.
func (s *Service) Get(ctx context.Context, subjectID id.SubjectID) (*models.Draft, error) {
	return s.loadDraft(ctx, subjectID)
}

// IdentityResult reports step one's outcome. Warning is set when the
// registry confirmed the number but its registration status is not active;
// progression is still allowed and the raw record retained for audit.
type IdentityResult struct {
	Draft   *models.Draft
	Warning string
}

// SetIdentity runs step one. The individual path validates the personal
// number locally; the business path additionally resolves the number
// against the registry, blocking on not-found and surfacing transient
// failures as retryable.
func (s *Service) SetIdentity(ctx context.Context, subjectID id.SubjectID, rawNumber string) (*IdentityResult, error) {
	draft, err := s.loadDraft(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	result := &IdentityResult{}
	switch draft.Kind {
	case providermodels.KindIndividual:
		outcome := identity.ValidatePersonal(rawNumber)
		if !outcome.IsValid() {
			return nil, validationOutcomeError(outcome)
		}
		draft.IdentityNumber = outcome.Digits
		draft.Registry = nil
	case providermodels.KindBusiness:
		outcome := identity.ValidateBusiness(rawNumber)
		if !outcome.IsValid() {
			return nil, validationOutcomeError(outcome)
		}
		resolved, err := s.registry.Resolve(ctx, rawNumber)
		if err != nil {
			return nil, err
		}
		switch resolved.Status {
		case registrymodels.OutcomeResolved:
			draft.IdentityNumber = outcome.Digits
			draft.Registry = resolved.Record
			if !resolved.Record.IsActive() {
				result.Warning = "registration status is " + resolved.Record.Status
			}
		case registrymodels.OutcomeNotFound:
			return nil, dErrors.New(dErrors.CodeValidation, "identity number not found in the company registry")
		case registrymodels.OutcomeTransientError:
			return nil, dErrors.Wrap(resolved.Err, dErrors.CodeUnavailable, "registry temporarily unavailable, retry")
		}
	}

	draft.UpdatedAt = requestcontext.Now(ctx)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}

	s.metrics.RecordStepPassed(string(models.StepIdentity))
	result.Draft = draft
	return result, nil
}

// ProfileParams carries step two's fields.
type ProfileParams struct {
	LegalName              string
	TradeName              string
	ContactEmail           string
	ContactPhone           string
	RepresentativeName     string
	RepresentativeIdentity string
}

// SetProfile runs step two. Gated on step one; the business path validates
// the legal representative's personal number.
func (s *Service) SetProfile(ctx context.Context, subjectID id.SubjectID, params ProfileParams) (*models.Draft, error) {
	draft, err := s.loadDraft(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if !draft.IdentityComplete() {
		return nil, dErrors.New(dErrors.CodeConflict, "identity step must be completed first")
	}

	profile := &models.Profile{
		LegalName:    strings.TrimSpace(params.LegalName),
		TradeName:    strings.TrimSpace(params.TradeName),
		ContactEmail: strings.TrimSpace(params.ContactEmail),
		ContactPhone: strings.TrimSpace(params.ContactPhone),
	}
	if profile.LegalName == "" || profile.ContactEmail == "" || profile.ContactPhone == "" {
		return nil, dErrors.New(dErrors.CodeValidation, "legal name, contact email and contact phone are required")
	}

	if draft.Kind == providermodels.KindBusiness {
		outcome := identity.ValidatePersonal(params.RepresentativeIdentity)
		if !outcome.IsValid() {
			return nil, dErrors.New(dErrors.CodeValidation, "legal representative identity number is invalid")
		}
		name := strings.TrimSpace(params.RepresentativeName)
		if name == "" {
			return nil, dErrors.New(dErrors.CodeValidation, "legal representative name is required")
		}
		profile.Representative = &providermodels.Representative{
			Name:           name,
			IdentityNumber: outcome.Digits,
		}
	}

	draft.Profile = profile
	draft.UpdatedAt = requestcontext.Now(ctx)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}

	s.metrics.RecordStepPassed(string(models.StepProfile))
	return draft, nil
}

// StageDocument runs step three: validate and stage one upload on the
// draft. Gated on the profile step. Staging the same type again supersedes
// the earlier staged upload.
func (s *Service) StageDocument(ctx context.Context, subjectID id.SubjectID, docType documentmodels.Type, upload *documentmodels.Upload) (*models.Draft, error) {
	draft, err := s.loadDraft(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if !draft.ProfileComplete() {
		return nil, dErrors.New(dErrors.CodeConflict, "profile step must be completed first")
	}

	staged, err := s.documents.StageUpload(ctx, draft.Kind, docType, upload)
	if err != nil {
		return nil, err
	}

	now := requestcontext.Now(ctx)
	draft.StageDocument(models.StagedDocument{
		Type:        staged.Type,
		StorageRef:  staged.StorageRef,
		Size:        staged.Size,
		ContentType: staged.ContentType,
		StagedAt:    now,
	}, now)
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}
	return draft, nil
}

// AcceptConsent records one clause acceptance on an individual-path draft.
func (s *Service) AcceptConsent(ctx context.Context, subjectID id.SubjectID, clause models.ConsentClause) (*models.Draft, error) {
	draft, err := s.loadDraft(ctx, subjectID)
	if err != nil {
		return nil, err
	}
	if draft.Kind != providermodels.KindIndividual {
		return nil, dErrors.New(dErrors.CodeValidation, "consent clauses apply to individual providers only")
	}

	draft.AcceptConsent(clause, requestcontext.Now(ctx))
	if err := s.drafts.Save(ctx, draft); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to save draft")
	}

	s.logAudit(ctx, string(audit.EventConsentRecorded),
		"subject_id", subjectID.String(), "result", string(clause))
	return draft, nil
}

// Submit runs the final step: re-check every gate, create the provider
// aggregate with its computed initial status, materialize staged documents
// and drop the draft. Unmet requirements come back as structured field
// errors, never a generic failure.
func (s *Service) Submit(ctx context.Context, subjectID id.SubjectID) (*providermodels.Provider, error) {
	draft, err := s.loadDraft(ctx, subjectID)
	if err != nil {
		return nil, err
	}

	if missing := draft.MissingForSubmission(); len(missing) > 0 {
		s.metrics.RecordSubmission(string(draft.Kind), "incomplete")
		return nil, dErrors.Wrap(&models.IncompleteError{Missing: missing},
			dErrors.CodeValidation, "submission requirements not met")
	}

	staged := draft.StagedTypes()
	missingDocs := documentmodels.MissingRequired(draft.Kind, staged)

	params := providerservice.CreateParams{
		SubjectID:                subjectID,
		Kind:                     draft.Kind,
		IdentityNumber:           draft.IdentityNumber,
		LegalName:                draft.Profile.LegalName,
		TradeName:                draft.Profile.TradeName,
		ContactEmail:             draft.Profile.ContactEmail,
		ContactPhone:             draft.Profile.ContactPhone,
		Registry:                 draft.Registry,
		Representative:           draft.Profile.Representative,
		RequiredDocumentsMissing: len(missingDocs) > 0,
	}
	provider, err := s.providers.Create(ctx, params)
	if err != nil {
		s.metrics.RecordSubmission(string(draft.Kind), "failed")
		return nil, err
	}

	if len(draft.Documents) > 0 {
		drafts := make([]documentservice.DraftDocument, 0, len(draft.Documents))
		for _, doc := range draft.Documents {
			drafts = append(drafts, documentservice.DraftDocument{
				Type:        doc.Type,
				StorageRef:  doc.StorageRef,
				Size:        doc.Size,
				ContentType: doc.ContentType,
			})
		}
		if err := s.documents.AttachDrafts(ctx, provider.ID, drafts); err != nil {
			return nil, err
		}
	}

	if err := s.drafts.Delete(ctx, subjectID); err != nil && s.logger != nil {
		s.logger.WarnContext(ctx, "failed to delete submitted draft",
			"subject_id", subjectID.String(), "error", err)
	}

	s.metrics.RecordSubmission(string(draft.Kind), string(provider.Status))
	s.logAudit(ctx, string(audit.EventOnboardingSubmitted),
		"subject_id", subjectID.String(),
		"provider_id", provider.ID.String(),
		"result", string(provider.Status))
	return provider, nil
}

func (s *Service) loadDraft(ctx context.Context, subjectID id.SubjectID) (*models.Draft, error) {
	draft, err := s.drafts.Find(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "no onboarding draft in progress")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load draft")
	}
	return draft, nil
}

// validationOutcomeError maps a local validation outcome to a specific,
// actionable message.
func validationOutcomeError(outcome identity.Outcome) error {
	switch outcome.Status {
	case identity.StatusMalformed:
		return dErrors.New(dErrors.CodeValidation, "identity number is malformed")
	case identity.StatusChecksumFailed:
		return dErrors.New(dErrors.CodeValidation, "identity number failed checksum validation")
	default:
		return dErrors.New(dErrors.CodeValidation, "identity number is invalid")
	}
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
	subjectID := attrs.ExtractString(attributes, "subject_id")
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		SubjectID: subjectID,
		Actor:     subjectID,
		Action:    event,
		Resource:  attrs.ExtractString(attributes, "provider_id"),
		Outcome:   attrs.ExtractString(attributes, "result"),
	})
}
