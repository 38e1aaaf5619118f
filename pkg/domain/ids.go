// Package domain defines typed identifiers shared across verticals.
//
// Each aggregate gets its own UUID-backed type so the compiler rejects
// cross-type assignment (a SubjectID can never be passed where a
// ProviderID is expected). Parse functions enforce the trust-boundary
// invariant: IDs must be valid, non-empty, non-nil UUIDs.
package domain

import (
	"github.com/google/uuid"

	dErrors "vitrina/pkg/domain-errors"
)

// SubjectID identifies the authenticated account driving the workflow.
type SubjectID uuid.UUID

// ProviderID identifies a provider aggregate.
type ProviderID uuid.UUID

// DocumentID identifies a single uploaded document record.
type DocumentID uuid.UUID

func (id SubjectID) String() string  { return uuid.UUID(id).String() }
func (id ProviderID) String() string { return uuid.UUID(id).String() }
func (id DocumentID) String() string { return uuid.UUID(id).String() }

func (id SubjectID) IsZero() bool  { return uuid.UUID(id) == uuid.Nil }
func (id ProviderID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id DocumentID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// Text marshalling keeps the canonical string form on the wire and in
// JSON documents; defined types do not inherit it from uuid.UUID.

func (id SubjectID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }
func (id ProviderID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id DocumentID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *SubjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseSubjectID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ProviderID) UnmarshalText(text []byte) error {
	parsed, err := ParseProviderID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *DocumentID) UnmarshalText(text []byte) error {
	parsed, err := ParseDocumentID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// NewSubjectID generates a fresh subject ID.
func NewSubjectID() SubjectID { return SubjectID(uuid.New()) }

// NewProviderID generates a fresh provider ID.
func NewProviderID() ProviderID { return ProviderID(uuid.New()) }

// NewDocumentID generates a fresh document ID.
func NewDocumentID() DocumentID { return DocumentID(uuid.New()) }

// ParseSubjectID parses and validates a subject ID from its string form.
func ParseSubjectID(raw string) (SubjectID, error) {
	parsed, err := parseUUID(raw, "subject id")
	return SubjectID(parsed), err
}

// ParseProviderID parses and validates a provider ID from its string form.
func ParseProviderID(raw string) (ProviderID, error) {
	parsed, err := parseUUID(raw, "provider id")
	return ProviderID(parsed), err
}

// ParseDocumentID parses and validates a document ID from its string form.
func ParseDocumentID(raw string) (DocumentID, error) {
	parsed, err := parseUUID(raw, "document id")
	return DocumentID(parsed), err
}

func parseUUID(raw, what string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is required", what)
	}
	parsed, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s is not a valid UUID", what)
	}
	if parsed == uuid.Nil {
		return uuid.Nil, dErrors.Newf(dErrors.CodeInvalidInput, "%s must not be the nil UUID", what)
	}
	return parsed, nil
}
