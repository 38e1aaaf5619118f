// Package models defines the registry resolver's data shapes.
package models

import "time"

// Registration statuses reported by the external registry. Anything other
// than active is surfaced as a non-fatal warning downstream; transitional
// states (re-registration) still allow wizard progression.
const (
	RegistrationActive   = "active"
	RegistrationInactive = "inactive"
)

// Record is a point-in-time snapshot of the canonical registry data for a
// business identification number. It is owned by the onboarding session
// until submission, when it is copied onto the Provider aggregate; it is
// never a live reference.
type Record struct {
	IdentityNumber string    `json:"identity_number"`
	LegalName      string    `json:"legal_name"`
	TradeName      string    `json:"trade_name"`
	ActivityCode   string    `json:"activity_code"`
	Status         string    `json:"status"`
	Street         string    `json:"street"`
	Number         string    `json:"number"`
	District       string    `json:"district"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	PostalCode     string    `json:"postal_code"`
	CheckedAt      time.Time `json:"checked_at"`
}

// IsActive reports whether the registration status unblocks progression
// without a warning.
func (r *Record) IsActive() bool {
	return r.Status == RegistrationActive
}

// OutcomeStatus tags the classified result of a registry resolution.
type OutcomeStatus string

const (
	// OutcomeResolved means the registry confirmed the number; branch
	// further on Record.Status.
	OutcomeResolved OutcomeStatus = "resolved"
	// OutcomeNotFound is fatal and non-retryable for the current number.
	OutcomeNotFound OutcomeStatus = "not_found"
	// OutcomeTransientError is retryable without re-entering the number.
	OutcomeTransientError OutcomeStatus = "transient_error"
)

// Outcome is the tagged variant returned by the resolver. Record is set
// only for OutcomeResolved; Err only for OutcomeTransientError.
type Outcome struct {
	Status OutcomeStatus
	Record *Record
	Err    error
}

// Resolved constructs a successful outcome.
func Resolved(record *Record) Outcome {
	return Outcome{Status: OutcomeResolved, Record: record}
}

// NotFound constructs the fatal not-found outcome.
func NotFound() Outcome {
	return Outcome{Status: OutcomeNotFound}
}

// TransientError constructs a retryable failure outcome.
func TransientError(err error) Outcome {
	return Outcome{Status: OutcomeTransientError, Err: err}
}
