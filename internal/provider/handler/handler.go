// Package handler exposes provider profiles and the admin review queue
// over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vitrina/internal/provider/models"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
	"vitrina/pkg/platform/httputil"
	"vitrina/pkg/requestcontext"
)

// Service is the slice of the provider service this handler uses.
type Service interface {
	Get(ctx context.Context, providerID id.ProviderID) (*models.Provider, error)
	GetBySubject(ctx context.Context, subjectID id.SubjectID) (*models.Provider, error)
	ListUnderReview(ctx context.Context) ([]*models.Provider, error)
	ApplyReview(ctx context.Context, providerID id.ProviderID, decision models.ReviewDecision, reason string) (*models.Provider, error)
	SetActive(ctx context.Context, providerID id.ProviderID, active bool) (*models.Provider, error)
}

// Handler serves the provider endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the subject-facing provider routes.
func (h *Handler) Register(r chi.Router) {
	r.Get("/providers/me", h.GetOwn)
	r.Get("/providers/{providerID}", h.Get)
}

// RegisterAdmin mounts the review-queue routes; callers gate them on the
// admin role.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Get("/providers/review-queue", h.ReviewQueue)
	r.Post("/providers/{providerID}/review", h.Review)
	r.Post("/providers/{providerID}/activation", h.SetActivation)
}

// GetOwn handles GET /providers/me.
func (h *Handler) GetOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := requestcontext.SubjectID(ctx)

	provider, err := h.service.GetBySubject(ctx, subjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, provider)
}

// Get handles GET /providers/{providerID}. Non-admin callers only see
// their own provider.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	providerID, err := id.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid provider id"))
		return
	}

	provider, err := h.service.Get(ctx, providerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !requestcontext.IsAdmin(ctx) && provider.SubjectID != requestcontext.SubjectID(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "provider does not belong to the authenticated subject"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, provider)
}

// ReviewQueue handles GET /admin/providers/review-queue.
func (h *Handler) ReviewQueue(w http.ResponseWriter, r *http.Request) {
	providers, err := h.service.ListUnderReview(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, queueResponse{Providers: providers})
}

// Review handles POST /admin/providers/{providerID}/review.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	providerID, err := id.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid provider id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	provider, err := h.service.ApplyReview(ctx, providerID, req.ParsedDecision(), req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "provider review failed",
			"request_id", requestID, "provider_id", providerID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, provider)
}

// SetActivation handles POST /admin/providers/{providerID}/activation.
// Activation is operational visibility, independent of verification.
func (h *Handler) SetActivation(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	providerID, err := id.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid provider id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ActivationRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	provider, err := h.service.SetActive(ctx, providerID, *req.Active)
	if err != nil {
		h.logger.ErrorContext(ctx, "provider activation change failed",
			"request_id", requestID, "provider_id", providerID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, provider)
}

type queueResponse struct {
	Providers []*models.Provider `json:"providers"`
}
