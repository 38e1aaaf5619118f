package handler

import (
	"strings"

	"vitrina/internal/document/models"
	providermodels "vitrina/internal/provider/models"
	dErrors "vitrina/pkg/domain-errors"
)

// SubmitRequest is the HTTP request body for POST
// /providers/{providerID}/documents. Content is base64 on the wire.
type SubmitRequest struct {
	Type        string `json:"type"`
	Content     []byte `json:"content"`
	ContentType string `json:"content_type"`

	parsedType models.Type
}

// Validate implements the Validatable interface for httputil.DecodeAndPrepare.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	docType, err := models.ParseType(strings.TrimSpace(r.Type))
	if err != nil {
		return err
	}
	r.parsedType = docType
	if len(r.Content) == 0 {
		return dErrors.New(dErrors.CodeValidation, "content is required")
	}
	if strings.TrimSpace(r.ContentType) == "" {
		return dErrors.New(dErrors.CodeValidation, "content_type is required")
	}
	return nil
}

// ParsedType returns the validated document type.
func (r *SubmitRequest) ParsedType() models.Type {
	return r.parsedType
}

// ReviewRequest is the HTTP request body for POST
// /admin/documents/{documentID}/review.
type ReviewRequest struct {
	Decision string `json:"decision"`
	Reason   string `json:"reason"`

	parsedDecision providermodels.ReviewDecision
}

func (r *ReviewRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	decision, err := providermodels.ParseReviewDecision(strings.TrimSpace(r.Decision))
	if err != nil {
		return err
	}
	r.parsedDecision = decision
	r.Reason = strings.TrimSpace(r.Reason)
	if decision == providermodels.DecisionReject && r.Reason == "" {
		return dErrors.New(dErrors.CodeValidation, "reason is required when rejecting")
	}
	return nil
}

// ParsedDecision returns the validated review decision.
func (r *ReviewRequest) ParsedDecision() providermodels.ReviewDecision {
	return r.parsedDecision
}
