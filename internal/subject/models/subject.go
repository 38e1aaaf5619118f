// Package models defines the subject profile record: the account that
// drives onboarding and owns the contact attributes confirmed by
// verification codes.
package models

import (
	"time"

	id "vitrina/pkg/domain"
)

// Subject is the persisted profile for one account. Email doubles as the
// recovery channel, which is why changing it demands re-authentication
// before a code is even issued.
type Subject struct {
	ID            id.SubjectID `json:"id"`
	Email         string       `json:"email"`
	PasswordHash  string       `json:"-"`
	Phone         string       `json:"phone"`
	PhoneVerified bool         `json:"phone_verified"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
}

// ApplyPhoneVerified records a confirmed phone number.
func (s *Subject) ApplyPhoneVerified(phone string, now time.Time) {
	s.Phone = phone
	s.PhoneVerified = true
	s.UpdatedAt = now
}

// ApplyEmailChange swaps the credential email for a confirmed new address.
func (s *Subject) ApplyEmailChange(newEmail string, now time.Time) {
	s.Email = newEmail
	s.UpdatedAt = now
}
