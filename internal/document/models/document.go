// Package models defines document records and the per-kind document-type
// requirements that gate provider verification.
package models

import (
	"time"

	providermodels "vitrina/internal/provider/models"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
)

// Type enumerates the accepted document types.
type Type string

const (
	TypeIdentityCard        Type = "identity_card"
	TypeSelfieWithDocument  Type = "selfie_with_document"
	TypeCompanyRegistration Type = "company_registration"
	TypeRepresentativeID    Type = "representative_identity"
	TypeProofOfAddress      Type = "proof_of_address"
)

// ParseType validates a raw document type string.
func ParseType(raw string) (Type, error) {
	switch Type(raw) {
	case TypeIdentityCard, TypeSelfieWithDocument, TypeCompanyRegistration,
		TypeRepresentativeID, TypeProofOfAddress:
		return Type(raw), nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown document type %q", raw)
	}
}

// RequiredTypes returns the document types a provider of the given kind
// must present before review. Proof of address is optional for both kinds.
func RequiredTypes(kind providermodels.Kind) []Type {
	switch kind {
	case providermodels.KindIndividual:
		return []Type{TypeIdentityCard, TypeSelfieWithDocument}
	case providermodels.KindBusiness:
		return []Type{TypeCompanyRegistration, TypeRepresentativeID}
	default:
		return nil
	}
}

// AllowedFor reports whether a document type makes sense for a provider
// kind at all.
func AllowedFor(docType Type, kind providermodels.Kind) bool {
	if docType == TypeProofOfAddress {
		return true
	}
	for _, required := range RequiredTypes(kind) {
		if docType == required {
			return true
		}
	}
	return false
}

// MaxUploadSize is the default cap on accepted document size.
const MaxUploadSize int64 = 5 << 20

// allowedMIMETypes is the image/PDF allowlist enforced before the object
// store is touched.
var allowedMIMETypes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"image/webp":      {},
	"application/pdf": {},
}

// Upload is the caller-supplied file content and declared content type.
type Upload struct {
	Content     []byte
	ContentType string
}

// Validate enforces the size ceiling and MIME allowlist.
func (u *Upload) Validate(maxSize int64) error {
	if len(u.Content) == 0 {
		return dErrors.New(dErrors.CodeValidation, "document content is required")
	}
	if int64(len(u.Content)) > maxSize {
		return dErrors.Newf(dErrors.CodeValidation, "document exceeds the %d byte limit", maxSize)
	}
	if _, ok := allowedMIMETypes[u.ContentType]; !ok {
		return dErrors.Newf(dErrors.CodeValidation, "unsupported content type %q", u.ContentType)
	}
	return nil
}

// Document is one uploaded file. Records are append-only: a re-upload of
// the same type creates a new record that supersedes the prior one for
// gating, while the old record stays for audit.
type Document struct {
	ID              id.DocumentID `json:"id"`
	ProviderID      id.ProviderID `json:"provider_id"`
	Type            Type          `json:"type"`
	StorageRef      string        `json:"storage_ref"`
	Size            int64         `json:"size"`
	ContentType     string        `json:"content_type"`
	Verified        bool          `json:"verified"`
	RejectionReason string        `json:"rejection_reason,omitempty"`
	UploadedAt      time.Time     `json:"uploaded_at"`
	ReviewedAt      *time.Time    `json:"reviewed_at,omitempty"`
}

// New constructs a document record for a stored upload.
func New(providerID id.ProviderID, docType Type, storageRef string, upload *Upload, now time.Time) *Document {
	return &Document{
		ID:          id.NewDocumentID(),
		ProviderID:  providerID,
		Type:        docType,
		StorageRef:  storageRef,
		Size:        int64(len(upload.Content)),
		ContentType: upload.ContentType,
		UploadedAt:  now,
	}
}

// CanReview reports whether a review decision may still be recorded.
func (d *Document) CanReview() bool {
	return d.ReviewedAt == nil
}

// ApplyVerify marks the document as accepted by review.
func (d *Document) ApplyVerify(now time.Time) error {
	if !d.CanReview() {
		return dErrors.New(dErrors.CodeConflict, "document already reviewed")
	}
	d.Verified = true
	d.RejectionReason = ""
	d.ReviewedAt = &now
	return nil
}

// ApplyReject records a rejection with its reason.
func (d *Document) ApplyReject(reason string, now time.Time) error {
	if !d.CanReview() {
		return dErrors.New(dErrors.CodeConflict, "document already reviewed")
	}
	d.Verified = false
	d.RejectionReason = reason
	d.ReviewedAt = &now
	return nil
}

// MissingRequired returns the required types for kind that have no current
// document in latest.
func MissingRequired(kind providermodels.Kind, latest map[Type]*Document) []Type {
	var missing []Type
	for _, required := range RequiredTypes(kind) {
		if _, ok := latest[required]; !ok {
			missing = append(missing, required)
		}
	}
	return missing
}
