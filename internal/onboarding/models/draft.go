// Package models defines the server-persisted onboarding draft. The draft
// replaces client-held wizard state: every step gate is checked against it
// on the server, never trusted from the caller.
package models

import (
	"encoding/json"
	"time"

	documentmodels "vitrina/internal/document/models"
	providermodels "vitrina/internal/provider/models"
	registrymodels "vitrina/internal/registry/models"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
)

// Step names the wizard stages, in order.
type Step string

const (
	StepIdentity   Step = "identity"
	StepProfile    Step = "profile"
	StepDocuments  Step = "documents"
	StepSubmission Step = "submission"
)

// ConsentClause enumerates the acceptances the individual path requires at
// submission.
type ConsentClause string

const (
	ConsentTermsOfUse           ConsentClause = "terms_of_use"
	ConsentLiabilityDeclaration ConsentClause = "liability_declaration"
	ConsentDataProcessing       ConsentClause = "data_processing"
)

// ParseConsentClause validates a raw clause string.
func ParseConsentClause(raw string) (ConsentClause, error) {
	switch ConsentClause(raw) {
	case ConsentTermsOfUse, ConsentLiabilityDeclaration, ConsentDataProcessing:
		return ConsentClause(raw), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown consent clause %q", raw)
	}
}

// RequiredConsents lists every clause the individual path must accept.
func RequiredConsents() []ConsentClause {
	return []ConsentClause{ConsentTermsOfUse, ConsentLiabilityDeclaration, ConsentDataProcessing}
}

// StagedDocument is an upload already written to the object store, waiting
// on the draft until submission creates the provider.
type StagedDocument struct {
	Type        documentmodels.Type `json:"type"`
	StorageRef  string              `json:"storage_ref"`
	Size        int64               `json:"size"`
	ContentType string              `json:"content_type"`
	StagedAt    time.Time           `json:"staged_at"`
}

// Profile carries the confirmed/extended profile fields of step two.
type Profile struct {
	LegalName      string                         `json:"legal_name"`
	TradeName      string                         `json:"trade_name,omitempty"`
	ContactEmail   string                         `json:"contact_email"`
	ContactPhone   string                         `json:"contact_phone"`
	Representative *providermodels.Representative `json:"representative,omitempty"`
}

// Draft is one subject's in-progress onboarding, keyed by subject id.
type Draft struct {
	SubjectID      id.SubjectID                      `json:"subject_id"`
	Kind           providermodels.Kind               `json:"kind"`
	IdentityNumber string                            `json:"identity_number,omitempty"`
	Registry       *registrymodels.Record            `json:"registry,omitempty"`
	Profile        *Profile                          `json:"profile,omitempty"`
	Documents      []StagedDocument                  `json:"documents,omitempty"`
	Consents       map[ConsentClause]time.Time       `json:"consents,omitempty"`
	CreatedAt      time.Time                         `json:"created_at"`
	UpdatedAt      time.Time                         `json:"updated_at"`
}

// NewDraft starts a fresh draft for the subject.
func NewDraft(subjectID id.SubjectID, kind providermodels.Kind, now time.Time) *Draft {
	return &Draft{
		SubjectID: subjectID,
		Kind:      kind,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// IdentityComplete reports whether step one has passed: a validated number
// and, for the business path, a registry snapshot.
func (d *Draft) IdentityComplete() bool {
	if d.IdentityNumber == "" {
		return false
	}
	if d.Kind == providermodels.KindBusiness {
		return d.Registry != nil
	}
	return true
}

// ProfileComplete reports whether step two has passed.
func (d *Draft) ProfileComplete() bool {
	if d.Profile == nil {
		return false
	}
	if d.Profile.LegalName == "" || d.Profile.ContactEmail == "" || d.Profile.ContactPhone == "" {
		return false
	}
	if d.Kind == providermodels.KindBusiness {
		rep := d.Profile.Representative
		return rep != nil && rep.Name != "" && rep.IdentityNumber != ""
	}
	return true
}

// StageDocument records a staged upload, superseding any staged upload of
// the same type.
func (d *Draft) StageDocument(staged StagedDocument, now time.Time) {
	for i, existing := range d.Documents {
		if existing.Type == staged.Type {
			d.Documents[i] = staged
			d.UpdatedAt = now
			return
		}
	}
	d.Documents = append(d.Documents, staged)
	d.UpdatedAt = now
}

// StagedTypes returns the latest staged document per type.
func (d *Draft) StagedTypes() map[documentmodels.Type]*documentmodels.Document {
	out := make(map[documentmodels.Type]*documentmodels.Document, len(d.Documents))
	for i := range d.Documents {
		staged := &d.Documents[i]
		out[staged.Type] = &documentmodels.Document{Type: staged.Type}
	}
	return out
}

// AcceptConsent records one clause acceptance.
func (d *Draft) AcceptConsent(clause ConsentClause, now time.Time) {
	if d.Consents == nil {
		d.Consents = make(map[ConsentClause]time.Time)
	}
	d.Consents[clause] = now
	d.UpdatedAt = now
}

// MissingField names one unmet submission requirement.
type MissingField struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// IncompleteError carries the structured list of unmet requirements so
// transports can render specific, actionable messages instead of a generic
// failure.
type IncompleteError struct {
	Missing []MissingField `json:"missing"`
}

func (e *IncompleteError) Error() string {
	data, _ := json.Marshal(e.Missing)
	return "submission requirements not met: " + string(data)
}

// MissingForSubmission returns everything the final submission still
// lacks. The business path may skip required documents (they slow review,
// not submission); the individual path may not, and additionally needs all
// three consent clauses.
func (d *Draft) MissingForSubmission() []MissingField {
	var missing []MissingField
	if !d.IdentityComplete() {
		missing = append(missing, MissingField{Field: "identity_number", Reason: "identity step not completed"})
	}
	if !d.ProfileComplete() {
		missing = append(missing, MissingField{Field: "profile", Reason: "profile step not completed"})
	}
	if d.Kind == providermodels.KindIndividual {
		staged := d.StagedTypes()
		for _, docType := range documentmodels.MissingRequired(d.Kind, staged) {
			missing = append(missing, MissingField{
				Field:  "documents." + string(docType),
				Reason: "required document not uploaded",
			})
		}
		for _, clause := range RequiredConsents() {
			if _, ok := d.Consents[clause]; !ok {
				missing = append(missing, MissingField{
					Field:  "consents." + string(clause),
					Reason: "consent not accepted",
				})
			}
		}
	}
	return missing
}
