package service

import (
	"context"
	"errors"
	"log/slog"

	"vitrina/internal/audit"
	"vitrina/internal/document/metrics"
	"vitrina/internal/document/models"
	"vitrina/internal/document/objectstore"
	providermodels "vitrina/internal/provider/models"
	"vitrina/pkg/attrs"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
	"vitrina/pkg/platform/sentinel"
	"vitrina/pkg/requestcontext"
)

// Store persists document records. Uploads append; only review fields are
// updated in place.
type Store interface {
	Append(ctx context.Context, document *models.Document) error
	FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error)
	ListByProvider(ctx context.Context, providerID id.ProviderID) ([]*models.Document, error)
	LatestByProvider(ctx context.Context, providerID id.ProviderID) (map[models.Type]*models.Document, error)
	LatestOfTypes(ctx context.Context, providerID id.ProviderID, types []models.Type) (map[models.Type]*models.Document, error)
	Update(ctx context.Context, document *models.Document) error
}

// ProviderGate is the slice of the provider vertical intake depends on:
// kind lookup before accepting an upload, and the status reaction after
// one. requiredComplete reports whether every required type now has a
// current document.
type ProviderGate interface {
	Get(ctx context.Context, providerID id.ProviderID) (*providermodels.Provider, error)
	OnDocumentsUpdated(ctx context.Context, providerID id.ProviderID, requiredComplete bool) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service handles document intake and review.
type Service struct {
	documents      Store
	objects        objectstore.Store
	providers      ProviderGate
	maxUpload      int64
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

// WithMaxUploadSize overrides the default upload size cap.
func WithMaxUploadSize(maxBytes int64) Option {
	return func(s *Service) {
		if maxBytes > 0 {
			s.maxUpload = maxBytes
		}
	}
}

// New constructs a Service.
func New(documents Store, objects objectstore.Store, providers ProviderGate, opts ...Option) *Service {
	s := &Service{documents: documents, objects: objects, providers: providers, maxUpload: models.MaxUploadSize}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Submit validates and stores one upload, then lets the provider vertical
// react: a rejected provider re-enters the queue, and completing the last
// required type advances into review. Size and MIME checks run before the
// object store is touched.
func (s *Service) Submit(ctx context.Context, providerID id.ProviderID, docType models.Type, upload *models.Upload) (*models.Document, error) {
	provider, err := s.providers.Get(ctx, providerID)
	if err != nil {
		return nil, err
	}
	if !models.AllowedFor(docType, provider.Kind) {
		s.metrics.RecordRejected("type_not_allowed")
		return nil, dErrors.Newf(dErrors.CodeValidation, "document type %s is not accepted for %s providers", docType, provider.Kind)
	}
	if err := upload.Validate(s.maxUpload); err != nil {
		s.metrics.RecordRejected("invalid_upload")
		return nil, err
	}

	ref, err := s.objects.Put(ctx, upload.Content, upload.ContentType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store document")
	}

	now := requestcontext.Now(ctx)
	document := models.New(providerID, docType, ref, upload, now)
	if err := s.documents.Append(ctx, document); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record document")
	}

	required := models.RequiredTypes(provider.Kind)
	latest, err := s.documents.LatestOfTypes(ctx, providerID, required)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive document completeness")
	}
	missing := models.MissingRequired(provider.Kind, latest)
	if err := s.providers.OnDocumentsUpdated(ctx, providerID, len(missing) == 0); err != nil {
		return nil, err
	}

	s.metrics.RecordSubmitted(string(docType), document.Size)
	s.logAudit(ctx, string(audit.EventDocumentSubmitted),
		"subject_id", provider.SubjectID.String(),
		"provider_id", providerID.String(),
		"document_id", document.ID.String(),
		"document_type", string(docType))
	return document, nil
}

// DraftDocument is an upload already sitting in the object store, staged
// on an onboarding draft before the provider exists.
type DraftDocument struct {
	Type        models.Type
	StorageRef  string
	Size        int64
	ContentType string
}

// AttachDrafts materializes staged draft uploads as document records once
// the provider aggregate exists. No gating callback fires: the creation
// path already computed the initial status from the same set.
func (s *Service) AttachDrafts(ctx context.Context, providerID id.ProviderID, drafts []DraftDocument) error {
	now := requestcontext.Now(ctx)
	for _, draft := range drafts {
		document := &models.Document{
			ID:          id.NewDocumentID(),
			ProviderID:  providerID,
			Type:        draft.Type,
			StorageRef:  draft.StorageRef,
			Size:        draft.Size,
			ContentType: draft.ContentType,
			UploadedAt:  now,
		}
		if err := s.documents.Append(ctx, document); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record drafted document")
		}
	}
	return nil
}

// StageUpload validates a draft upload and writes it to the object store
// without touching document records. The onboarding wizard stages files
// this way before the provider aggregate exists.
func (s *Service) StageUpload(ctx context.Context, kind providermodels.Kind, docType models.Type, upload *models.Upload) (*DraftDocument, error) {
	if !models.AllowedFor(docType, kind) {
		s.metrics.RecordRejected("type_not_allowed")
		return nil, dErrors.Newf(dErrors.CodeValidation, "document type %s is not accepted for %s providers", docType, kind)
	}
	if err := upload.Validate(s.maxUpload); err != nil {
		s.metrics.RecordRejected("invalid_upload")
		return nil, err
	}
	ref, err := s.objects.Put(ctx, upload.Content, upload.ContentType)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to store document")
	}
	return &DraftDocument{
		Type:        docType,
		StorageRef:  ref,
		Size:        int64(len(upload.Content)),
		ContentType: upload.ContentType,
	}, nil
}

// Review records a verify/reject decision on one document record.
func (s *Service) Review(ctx context.Context, documentID id.DocumentID, decision providermodels.ReviewDecision, reason string) (*models.Document, error) {
	document, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}

	now := requestcontext.Now(ctx)
	switch decision {
	case providermodels.DecisionVerify:
		err = document.ApplyVerify(now)
	case providermodels.DecisionReject:
		err = document.ApplyReject(reason, now)
	default:
		return nil, dErrors.Newf(dErrors.CodeInvalidInput, "unknown review decision %q", decision)
	}
	if err != nil {
		return nil, err
	}

	if err := s.documents.Update(ctx, document); err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record review decision")
	}

	s.metrics.RecordReview(string(decision))
	s.logAudit(ctx, string(audit.EventDocumentReviewed),
		"provider_id", document.ProviderID.String(),
		"document_id", documentID.String(),
		"result", string(decision))
	return document, nil
}

// List returns the full upload history for a provider, superseded records
// included.
func (s *Service) List(ctx context.Context, providerID id.ProviderID) ([]*models.Document, error) {
	documents, err := s.documents.ListByProvider(ctx, providerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list documents")
	}
	return documents, nil
}

// Latest returns the current record per type.
func (s *Service) Latest(ctx context.Context, providerID id.ProviderID) (map[models.Type]*models.Document, error) {
	latest, err := s.documents.LatestByProvider(ctx, providerID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive latest documents")
	}
	return latest, nil
}

// MissingRequired returns the required types the provider has not yet
// covered with a current document.
func (s *Service) MissingRequired(ctx context.Context, providerID id.ProviderID, kind providermodels.Kind) ([]models.Type, error) {
	latest, err := s.documents.LatestOfTypes(ctx, providerID, models.RequiredTypes(kind))
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to derive document completeness")
	}
	return models.MissingRequired(kind, latest), nil
}

// Fetch retrieves a document record together with its stored binary. The
// record is returned so callers can resolve the owning provider before
// releasing the content.
func (s *Service) Fetch(ctx context.Context, documentID id.DocumentID) (*models.Document, []byte, string, error) {
	document, err := s.documents.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, nil, "", dErrors.New(dErrors.CodeNotFound, "document not found")
		}
		return nil, nil, "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load document")
	}
	content, contentType, err := s.objects.Get(ctx, document.StorageRef)
	if err != nil {
		return nil, nil, "", dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to fetch document content")
	}
	return document, content, contentType, nil
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
		Resource:  attrs.ExtractString(attributes, "document_id"),
		Outcome:   attrs.ExtractString(attributes, "result"),
	})
}
