package handler

import (
	"strings"

	"vitrina/internal/provider/models"
	dErrors "vitrina/pkg/domain-errors"
)

// ReviewRequest is the HTTP request body for POST
// /admin/providers/{providerID}/review.
type ReviewRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`

	parsedDecision models.ReviewDecision
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *ReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	decision, err := models.ParseReviewDecision(strings.TrimSpace(r.Decision))
	if err != nil {
		return err
	}
	r.parsedDecision = decision
	r.Reason = strings.TrimSpace(r.Reason)
	if decision == models.DecisionReject && r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required when rejecting")
	}
	return nil
}

// ParsedDecision returns the validated review decision.
func (r *ReviewRequest) ParsedDecision() models.ReviewDecision {
	return r.parsedDecision
}

// ActivationRequest is the HTTP request body for POST
// /admin/providers/{providerID}/activation.
type ActivationRequest struct {
	Active *bool `json:"active"`
}

func (r *ActivationRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Active == nil {
		return dErrors.New(dErrors.CodeValidation, "active is required")
	}
	return nil
}
