// Package models defines the provider aggregate and its verification state
// machine.
package models

import (
	"time"

	registrymodels "vitrina/internal/registry/models"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
)

// Kind distinguishes the two provider shapes.
type Kind string

const (
	KindBusiness   Kind = "business"
	KindIndividual Kind = "individual"
)

// ParseKind validates a raw kind string.
func ParseKind(raw string) (Kind, error) {
	switch Kind(raw) {
	case KindBusiness:
		return KindBusiness, nil
	case KindIndividual:
		return KindIndividual, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown provider kind %q", raw)
	}
}

// Status is the verification state of a provider.
//
// Allowed transitions:
//
//	pending_profile   -> pending_documents (profile completed)
//	pending_documents -> under_review      (all required documents present)
//	under_review      -> verified | rejected (review decision)
//	rejected          -> pending_documents (new document upload)
//
// verified never regresses; pending_profile and under_review are never
// re-entered from a later state except under_review via resubmission.
type Status string

const (
	StatusPendingProfile   Status = "pending_profile"
	StatusPendingDocuments Status = "pending_documents"
	StatusUnderReview      Status = "under_review"
	StatusVerified         Status = "verified"
	StatusRejected         Status = "rejected"
)

// ParseStatus validates a raw status string.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case StatusPendingProfile, StatusPendingDocuments, StatusUnderReview, StatusVerified, StatusRejected:
		return Status(raw), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown verification status %q", raw)
	}
}

// ReviewDecision is the outcome an administrator applies to a provider
// under review.
type ReviewDecision string

const (
	DecisionVerify ReviewDecision = "verify"
	DecisionReject ReviewDecision = "reject"
)

// ParseReviewDecision validates a raw decision string.
func ParseReviewDecision(raw string) (ReviewDecision, error) {
	switch ReviewDecision(raw) {
	case DecisionVerify, DecisionReject:
		return ReviewDecision(raw), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown review decision %q", raw)
	}
}

// Representative is the legal representative of a business provider. The
// identity number is the validated personal form.
type Representative struct {
	Name           string `json:"name"`
	IdentityNumber string `json:"identity_number"`
}

// Provider is the aggregate root created by an onboarding submission.
// IsActive is administrative and independent of verification: a verified
// provider may be deactivated without touching its status.
type Provider struct {
	ID              id.ProviderID          `json:"id"`
	SubjectID       id.SubjectID           `json:"subject_id"`
	Kind            Kind                   `json:"kind"`
	IdentityNumber  string                 `json:"identity_number"`
	LegalName       string                 `json:"legal_name"`
	TradeName       string                 `json:"trade_name,omitempty"`
	ContactEmail    string                 `json:"contact_email"`
	ContactPhone    string                 `json:"contact_phone"`
	Registry        *registrymodels.Record `json:"registry,omitempty"`
	Representative  *Representative        `json:"representative,omitempty"`
	Status          Status                 `json:"verification_status"`
	RejectionReason string                 `json:"rejection_reason,omitempty"`
	IsActive        bool                   `json:"is_active"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// InitialStatus computes the status a freshly created provider enters,
// based on what the submission already carries.
func InitialStatus(profileComplete, requiredDocumentsMissing bool) Status {
	switch {
	case !profileComplete:
		return StatusPendingProfile
	case requiredDocumentsMissing:
		return StatusPendingDocuments
	default:
		return StatusUnderReview
	}
}

// CanAdvanceToReview reports whether document completion may move the
// provider into review.
func (p *Provider) CanAdvanceToReview() bool {
	return p.Status == StatusPendingDocuments
}

// ApplyAdvanceToReview moves pending_documents into under_review.
func (p *Provider) ApplyAdvanceToReview(now time.Time) error {
	if !p.CanAdvanceToReview() {
		return dErrors.Newf(dErrors.CodeConflict, "cannot enter review from status %s", p.Status)
	}
	p.Status = StatusUnderReview
	p.UpdatedAt = now
	return nil
}

// CanApplyReview reports whether a review decision is acceptable.
func (p *Provider) CanApplyReview() bool {
	return p.Status == StatusUnderReview
}

// ApplyReview records the review outcome. The reason is persisted only for
// rejections; a verify decision clears any prior reason.
func (p *Provider) ApplyReview(decision ReviewDecision, reason string, now time.Time) error {
	if !p.CanApplyReview() {
		return dErrors.Newf(dErrors.CodeConflict, "cannot review provider in status %s", p.Status)
	}
	switch decision {
	case DecisionVerify:
		p.Status = StatusVerified
		p.RejectionReason = ""
	case DecisionReject:
		p.Status = StatusRejected
		p.RejectionReason = reason
	default:
		return dErrors.Newf(dErrors.CodeInvalidInput, "unknown review decision %q", decision)
	}
	p.UpdatedAt = now
	return nil
}

// CanReenterDocuments reports whether a new upload re-queues a rejected
// provider.
func (p *Provider) CanReenterDocuments() bool {
	return p.Status == StatusRejected
}

// ApplyDocumentResubmission moves rejected back to pending_documents after
// a fresh upload. Any other status is left untouched by uploads; verified
// in particular never regresses.
func (p *Provider) ApplyDocumentResubmission(now time.Time) error {
	if !p.CanReenterDocuments() {
		return dErrors.Newf(dErrors.CodeConflict, "cannot resubmit documents from status %s", p.Status)
	}
	p.Status = StatusPendingDocuments
	p.RejectionReason = ""
	p.UpdatedAt = now
	return nil
}

// ApplyActivation flips the administrative activation flag.
func (p *Provider) ApplyActivation(active bool, now time.Time) {
	p.IsActive = active
	p.UpdatedAt = now
}
