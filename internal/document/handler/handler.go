// Package handler exposes document intake and review over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"vitrina/internal/document/models"
	providermodels "vitrina/internal/provider/models"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
	"vitrina/pkg/platform/httputil"
	"vitrina/pkg/requestcontext"
)

// Service is the slice of the document service this handler uses.
type Service interface {
	Submit(ctx context.Context, providerID id.ProviderID, docType models.Type, upload *models.Upload) (*models.Document, error)
	Review(ctx context.Context, documentID id.DocumentID, decision providermodels.ReviewDecision, reason string) (*models.Document, error)
	List(ctx context.Context, providerID id.ProviderID) ([]*models.Document, error)
	Fetch(ctx context.Context, documentID id.DocumentID) (*models.Document, []byte, string, error)
}

// Providers resolves ownership so a subject can only touch their own
// provider's documents.
type Providers interface {
	Get(ctx context.Context, providerID id.ProviderID) (*providermodels.Provider, error)
}

// Handler serves the document endpoints.
type Handler struct {
	service   Service
	providers Providers
	logger    *slog.Logger
}

// New constructs a Handler.
func New(service Service, providers Providers, logger *slog.Logger) *Handler {
	return &Handler{service: service, providers: providers, logger: logger}
}

// Register mounts the subject-facing document routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/providers/{providerID}/documents", h.Submit)
	r.Get("/providers/{providerID}/documents", h.List)
	r.Get("/documents/{documentID}/content", h.Fetch)
}

// RegisterAdmin mounts the review routes; callers gate them on the admin
// role.
func (h *Handler) RegisterAdmin(r chi.Router) {
	r.Post("/documents/{documentID}/review", h.Review)
}

// Submit handles POST /providers/{providerID}/documents.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	providerID, ok := h.authorizeProvider(w, r)
	if !ok {
		return
	}

	req, ok := httputil.DecodeAndPrepare[SubmitRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.service.Submit(ctx, providerID, req.ParsedType(), &models.Upload{
		Content:     req.Content,
		ContentType: req.ContentType,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "document submission failed",
			"request_id", requestID, "provider_id", providerID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, doc)
}

// List handles GET /providers/{providerID}/documents.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	providerID, ok := h.authorizeProvider(w, r)
	if !ok {
		return
	}

	docs, err := h.service.List(ctx, providerID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, listResponse{Documents: docs})
}

// Fetch handles GET /documents/{documentID}/content, streaming the stored
// bytes back with their original content type. The record's provider gates
// access: only its owner or an admin may read the content.
func (h *Handler) Fetch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return
	}

	document, content, contentType, err := h.service.Fetch(ctx, documentID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	provider, err := h.providers.Get(ctx, document.ProviderID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if !requestcontext.IsAdmin(ctx) && provider.SubjectID != requestcontext.SubjectID(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "document does not belong to the authenticated subject"))
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(content)
}

// Review handles POST /admin/documents/{documentID}/review.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	documentID, err := id.ParseDocumentID(chi.URLParam(r, "documentID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid document id"))
		return
	}

	req, ok := httputil.DecodeAndPrepare[ReviewRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	doc, err := h.service.Review(ctx, documentID, req.ParsedDecision(), req.Reason)
	if err != nil {
		h.logger.ErrorContext(ctx, "document review failed",
			"request_id", requestID, "document_id", documentID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, doc)
}

// authorizeProvider parses the provider ID from the path and checks the
// caller owns it (admins bypass). Writes the error response itself.
func (h *Handler) authorizeProvider(w http.ResponseWriter, r *http.Request) (id.ProviderID, bool) {
	ctx := r.Context()

	providerID, err := id.ParseProviderID(chi.URLParam(r, "providerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid provider id"))
		return id.ProviderID{}, false
	}

	provider, err := h.providers.Get(ctx, providerID)
	if err != nil {
		httputil.WriteError(w, err)
		return id.ProviderID{}, false
	}
	if !requestcontext.IsAdmin(ctx) && provider.SubjectID != requestcontext.SubjectID(ctx) {
		httputil.WriteError(w, dErrors.New(dErrors.CodeForbidden, "provider does not belong to the authenticated subject"))
		return id.ProviderID{}, false
	}
	return providerID, true
}

type listResponse struct {
	Documents []*models.Document `json:"documents"`
}
