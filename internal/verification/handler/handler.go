// Package handler exposes the verification code workflow over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"vitrina/internal/verification/models"
	"vitrina/internal/verification/service"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/httputil"
	"vitrina/pkg/requestcontext"
)

// Service is the slice of the verification service this handler uses.
type Service interface {
	IssuePhoneCode(ctx context.Context, subjectID id.SubjectID, phone string) error
	IssueEmailCode(ctx context.Context, subjectID id.SubjectID, newEmail, currentPassword string) error
	Verify(ctx context.Context, subjectID id.SubjectID, channel models.Channel, target, code string) (service.Result, error)
	Cancel(ctx context.Context, subjectID id.SubjectID, channel models.Channel) error
}

// Handler serves the verification endpoints.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a Handler.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

// Register mounts the verification routes.
func (h *Handler) Register(r chi.Router) {
	r.Post("/verification/phone", h.IssuePhone)
	r.Post("/verification/email", h.IssueEmail)
	r.Post("/verification/verify", h.Verify)
	r.Delete("/verification/{channel}", h.Cancel)
}

// IssuePhone handles POST /verification/phone.
func (h *Handler) IssuePhone(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subjectID := requestcontext.SubjectID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssuePhoneRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.IssuePhoneCode(ctx, subjectID, req.Phone); err != nil {
		h.logger.ErrorContext(ctx, "failed to issue phone code",
			"request_id", requestID, "subject_id", subjectID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, issueResponse{Channel: string(models.ChannelPhone)})
}

// IssueEmail handles POST /verification/email.
func (h *Handler) IssueEmail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subjectID := requestcontext.SubjectID(ctx)

	req, ok := httputil.DecodeAndPrepare[IssueEmailRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	if err := h.service.IssueEmailCode(ctx, subjectID, req.NewEmail, req.CurrentPassword); err != nil {
		h.logger.ErrorContext(ctx, "failed to issue email code",
			"request_id", requestID, "subject_id", subjectID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusAccepted, issueResponse{Channel: string(models.ChannelEmail)})
}

// Verify handles POST /verification/verify.
func (h *Handler) Verify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subjectID := requestcontext.SubjectID(ctx)

	req, ok := httputil.DecodeAndPrepare[VerifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	result, err := h.service.Verify(ctx, subjectID, req.ParsedChannel(), req.Target, req.Code)
	if err != nil {
		h.logger.ErrorContext(ctx, "verification attempt failed",
			"request_id", requestID, "subject_id", subjectID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}

	resp := verifyResponse{Status: string(result.Status)}
	switch result.Status {
	case models.VerifySuccess:
		httputil.WriteJSON(w, http.StatusOK, resp)
	case models.VerifyLocked:
		retryAfter := int(result.RetryAfter.Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		resp.RetryAfterSeconds = retryAfter
		w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
		httputil.WriteJSON(w, http.StatusTooManyRequests, resp)
	default:
		httputil.WriteJSON(w, http.StatusUnprocessableEntity, resp)
	}
}

// Cancel handles DELETE /verification/{channel}.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	subjectID := requestcontext.SubjectID(ctx)

	channel, err := models.ParseChannel(chi.URLParam(r, "channel"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	if err := h.service.Cancel(ctx, subjectID, channel); err != nil {
		h.logger.ErrorContext(ctx, "failed to cancel verification code",
			"request_id", requestID, "subject_id", subjectID.String(), "error", err.Error())
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type issueResponse struct {
	Channel string `json:"channel"`
}

type verifyResponse struct {
	Status            string `json:"status"`
	RetryAfterSeconds int    `json:"retry_after_seconds,omitempty"`
}
