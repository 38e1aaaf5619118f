// Package handler exposes the onboarding wizard over HTTP.
package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	documentmodels "vitrina/internal/document/models"
	"vitrina/internal/onboarding/models"
	"vitrina/internal/onboarding/service"
	providermodels "vitrina/internal/provider/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/httputil"
	"vitrina/pkg/requestcontext"
)

// Service is the slice of the onboarding service this handler uses.
type Service interface {
	Start(ctx context.Context, subjectID id.SubjectID, kind providermodels.Kind) (*models.Draft, error)
	Get(ctx context.Context, subjectID id.SubjectID) (*models.Draft, error)
	SetIdentity(ctx context.Context, subjectID id.SubjectID, rawNumber string) (*service.IdentityResult, error)
	SetProfile(ctx context.Context, subjectID id.SubjectID, params service.ProfileParams) (*models.Draft, error)
	StageDocument(ctx context.Context, subjectID id.SubjectID, docType documentmodels.Type, upload *documentmodels.Upload) (*models.Draft, error)
	AcceptConsent(ctx context.Context, subjectID id.SubjectID, clause models.ConsentClause) (*models.Draft, error)
	Submit(ctx context.Context, subjectID id.SubjectID) (*providermodels.Provider, error)
}

// Handler serves the onboarding wizard endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the onboarding routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/onboarding", h.Start)
	r.Get("/onboarding", h.Get)
	r.Put("/onboarding/identity", h.SetIdentity)
	r.Put("/onboarding/profile", h.SetProfile)
	r.Post("/onboarding/documents", h.StageDocument)
	r.Post("/onboarding/consents", h.AcceptConsent)
	r.Post("/onboarding/submit", h.Submit)
}

// Start handles POST /onboarding.
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subjectID := requestcontext.SubjectID(ctx)

	req, ok := httputil.DecodeAndPrepare[StartRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	draft, err := h.service.Start(ctx, subjectID, req.ParsedKind())
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to start onboarding",
			"request_id", requestID, "subject_id", subjectID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, draftResponse{Draft: draft})
}

// Get handles GET /onboarding.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := requestcontext.SubjectID(ctx)

	draft, err := h.service.Get(ctx, subjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, draftResponse{Draft: draft})
}

// SetIdentity handles PUT /onboarding/identity.
func (h *Handler) SetIdentity(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subjectID := requestcontext.SubjectID(ctx)

	req, ok := httputil.DecodeAndPrepare[IdentityRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.SetIdentity(ctx, subjectID, req.IdentityNumber)
	if err != nil {
		h.logger.ErrorContext(ctx, "onboarding identity step failed",
			"request_id", requestID, "subject_id", subjectID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, draftResponse{Draft: result.Draft, Warning: result.Warning})
}

// SetProfile handles PUT /onboarding/profile.
func (h *Handler) SetProfile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subjectID := requestcontext.SubjectID(ctx)

	req, ok := httputil.DecodeAndPrepare[ProfileRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	draft, err := h.service.SetProfile(ctx, subjectID, service.ProfileParams{
		LegalName:              req.LegalName,
		TradeName:              req.TradeName,
		ContactEmail:           req.ContactEmail,
		ContactPhone:           req.ContactPhone,
		RepresentativeName:     req.RepresentativeName,
		RepresentativeIdentity: req.RepresentativeIdentity,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "onboarding profile step failed",
			"request_id", requestID, "subject_id", subjectID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, draftResponse{Draft: draft})
}

// StageDocument handles POST /onboarding/documents.
func (h *Handler) StageDocument(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subjectID := requestcontext.SubjectID(ctx)

	req, ok := httputil.DecodeAndPrepare[StageDocumentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	draft, err := h.service.StageDocument(ctx, subjectID, req.ParsedType(), &documentmodels.Upload{
		Content:     req.Content,
		ContentType: req.ContentType,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "onboarding document staging failed",
			"request_id", requestID, "subject_id", subjectID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, draftResponse{Draft: draft})
}

// AcceptConsent handles POST /onboarding/consents.
func (h *Handler) AcceptConsent(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subjectID := requestcontext.SubjectID(ctx)

	req, ok := httputil.DecodeAndPrepare[ConsentRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	draft, err := h.service.AcceptConsent(ctx, subjectID, req.ParsedClause())
	if err != nil {
		h.logger.ErrorContext(ctx, "onboarding consent step failed",
			"request_id", requestID, "subject_id", subjectID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, draftResponse{Draft: draft})
}

// Submit handles POST /onboarding/submit. An incomplete draft produces a
// 422 with one entry per missing field so clients can annotate their forms.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subjectID := requestcontext.SubjectID(ctx)

	provider, err := h.service.Submit(ctx, subjectID)
	if err != nil {
		var incomplete *models.IncompleteError
		if errors.As(err, &incomplete) {
			httputil.WriteJSON(w, http.StatusUnprocessableEntity, incompleteResponse{
				Error:            "validation",
				ErrorDescription: "submission requirements not met",
				Missing:          incomplete.Missing,
			})
			return
		}
		h.logger.ErrorContext(ctx, "onboarding submission failed",
			"request_id", requestID, "subject_id", subjectID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, provider)
}

type draftResponse struct {
	Draft   *models.Draft `json:"draft"`
	Warning string        `json:"warning,omitempty"`
}

type incompleteResponse struct {
	Error            string                `json:"error"`
	ErrorDescription string                `json:"error_description"`
	Missing          []models.MissingField `json:"missing"`
}
