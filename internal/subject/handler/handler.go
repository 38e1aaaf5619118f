// Package handler exposes account registration and the subject profile
// over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"vitrina/internal/subject/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/httputil"
	"vitrina/pkg/requestcontext"
)

const accessTokenTTL = 24 * time.Hour

// Service is the slice of the subject service this handler uses.
type Service interface {
	Register(ctx context.Context, subjectID id.SubjectID, email, password string) (*models.Subject, error)
	Get(ctx context.Context, subjectID id.SubjectID) (*models.Subject, error)
}

// TokenIssuer signs access tokens for freshly registered subjects.
type TokenIssuer interface {
	GenerateAccessToken(subjectID id.SubjectID, admin bool, expiresIn time.Duration) (string, error)
}

// Handler serves the subject endpoints.
type Handler struct {
	service Service
	tokens  TokenIssuer
	logger  *slog.Logger
}

// New constructs a Handler.
func New(service Service, tokens TokenIssuer, logger *slog.Logger) *Handler {
	return &Handler{service: service, tokens: tokens, logger: logger}
}

// RegisterPublic mounts the unauthenticated registration route.
func (h *Handler) RegisterPublic(r chi.Router) {
	r.Post("/subjects", h.Create)
}

// Register mounts the authenticated profile route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/subjects/me", h.GetOwn)
}

// Create handles POST /subjects.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[RegisterRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	subject, err := h.service.Register(ctx, id.NewSubjectID(), req.Email, req.Password)
	if err != nil {
		h.logger.ErrorContext(ctx, "subject registration failed",
			"request_id", requestID, "error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	accessToken, err := h.tokens.GenerateAccessToken(subject.ID, false, accessTokenTTL)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to sign access token",
			"request_id", requestID, "subject_id", subject.ID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, registerResponse{
		Subject:     subject,
		AccessToken: accessToken,
	})
}

// GetOwn handles GET /subjects/me.
func (h *Handler) GetOwn(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := requestcontext.SubjectID(ctx)

	subject, err := h.service.Get(ctx, subjectID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, subject)
}

type registerResponse struct {
	Subject     *models.Subject `json:"subject"`
	AccessToken string          `json:"access_token"`
}
