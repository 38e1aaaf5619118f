package handler

import (
	"strings"

	documentmodels "vitrina/internal/document/models"
	"vitrina/internal/onboarding/models"
	providermodels "vitrina/internal/provider/models"
	dErrors "vitrina/pkg/domain-errors"
)

// StartRequest is the HTTP request body for POST /onboarding.
type StartRequest struct {
	Kind string `json:"kind"`

	parsedKind providermodels.Kind
}

func (r *StartRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	kind, err := providermodels.ParseKind(strings.TrimSpace(r.Kind))
	if err != nil {
		return err
	}
	r.parsedKind = kind
	return nil
}

// ParsedKind returns the validated provider kind.
func (r *StartRequest) ParsedKind() providermodels.Kind {
	return r.parsedKind
}

// IdentityRequest is the HTTP request body for PUT /onboarding/identity.
// The number is passed through as typed; formatting and checksum rules
// live in the identity package.
type IdentityRequest struct {
	IdentityNumber string `json:"identity_number"`
}

func (r *IdentityRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.IdentityNumber = strings.TrimSpace(r.IdentityNumber)
	if r.IdentityNumber == "" {
		return dErrors.New(dErrors.CodeValidation, "identity_number is required")
	}
	return nil
}

// ProfileRequest is the HTTP request body for PUT /onboarding/profile.
// Representative fields are required for the business path only; the
// service enforces that, the handler just trims.
type ProfileRequest struct {
	LegalName              string `json:"legal_name"`
	TradeName              string `json:"trade_name"`
	ContactEmail           string `json:"contact_email"`
	ContactPhone           string `json:"contact_phone"`
	RepresentativeName     string `json:"representative_name"`
	RepresentativeIdentity string `json:"representative_identity"`
}

func (r *ProfileRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	r.LegalName = strings.TrimSpace(r.LegalName)
	r.TradeName = strings.TrimSpace(r.TradeName)
	r.ContactEmail = strings.TrimSpace(r.ContactEmail)
	r.ContactPhone = strings.TrimSpace(r.ContactPhone)
	r.RepresentativeName = strings.TrimSpace(r.RepresentativeName)
	r.RepresentativeIdentity = strings.TrimSpace(r.RepresentativeIdentity)
	if r.LegalName == "" {
		return dErrors.New(dErrors.CodeValidation, "legal_name is required")
	}
	if r.ContactEmail == "" || !strings.Contains(r.ContactEmail, "@") {
		return dErrors.New(dErrors.CodeValidation, "a valid contact_email is required")
	}
	if r.ContactPhone == "" {
		return dErrors.New(dErrors.CodeValidation, "contact_phone is required")
	}
	return nil
}

// StageDocumentRequest is the HTTP request body for POST
// /onboarding/documents. Content is base64 in the JSON wire form and
// decodes into raw bytes.
type StageDocumentRequest struct {
	Type        string `json:"type"`
	Content     []byte `json:"content"`
	ContentType string `json:"content_type"`

	parsedType documentmodels.Type
}

func (r *StageDocumentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	docType, err := documentmodels.ParseType(strings.TrimSpace(r.Type))
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
func (r *StageDocumentRequest) ParsedType() documentmodels.Type {
	return r.parsedType
}

// ConsentRequest is the HTTP request body for POST /onboarding/consents.
type ConsentRequest struct {
	Clause string `json:"clause"`

	parsedClause models.ConsentClause
}

func (r *ConsentRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	clause, err := models.ParseConsentClause(strings.TrimSpace(r.Clause))
	if err != nil {
		return err
	}
	r.parsedClause = clause
	return nil
}

// ParsedClause returns the validated consent clause.
func (r *ConsentRequest) ParsedClause() models.ConsentClause {
	return r.parsedClause
}
