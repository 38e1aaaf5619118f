// Package models defines the one-time verification code domain.
package models

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
)

// Channel identifies which contact attribute a code confirms.
type Channel string

const (
	ChannelPhone Channel = "phone"
	ChannelEmail Channel = "email"
)

// ParseChannel validates a raw channel string.
func ParseChannel(raw string) (Channel, error) {
	switch Channel(raw) {
	case ChannelPhone:
		return ChannelPhone, nil
	case ChannelEmail:
		return ChannelEmail, nil
	default:
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown verification channel %q", raw)
	}
}

// CodeTTL is the default lifetime of an issued code.
const CodeTTL = 10 * time.Minute

// VerifyStatus classifies a consumption attempt. The checks short-circuit
// in declaration order: a stale target is reported before expiry, expiry
// before a wrong code.
type VerifyStatus string

const (
	VerifyNotFound       VerifyStatus = "not_found"
	VerifyTargetMismatch VerifyStatus = "target_mismatch"
	VerifyExpired        VerifyStatus = "expired"
	VerifyMismatch       VerifyStatus = "mismatch"
	VerifySuccess        VerifyStatus = "success"
	// VerifyLocked is reported by the service layer when the attempt cap
	// for the pair has been reached; the stored code is left untouched.
	VerifyLocked VerifyStatus = "locked"
)

// VerificationCode is the transient record scoped to one subject and one
// channel. At most one outstanding code exists per (subject, channel) pair;
// issuing a new code unconditionally replaces the previous one.
type VerificationCode struct {
	SubjectID     id.SubjectID
	Channel       Channel
	Code          string
	PendingTarget string
	IssuedAt      time.Time
	ExpiresAt     time.Time
}

// New issues a fresh code record for the pair, expiring ttl after now. The
// code value itself comes from GenerateCode so tests can construct records
// with known codes.
func New(subjectID id.SubjectID, channel Channel, code, pendingTarget string, now time.Time, ttl time.Duration) *VerificationCode {
	return &VerificationCode{
		SubjectID:     subjectID,
		Channel:       channel,
		Code:          code,
		PendingTarget: pendingTarget,
		IssuedAt:      now,
		ExpiresAt:     now.Add(ttl),
	}
}

// ClassifyAttempt runs the ordered consumption checks against a supplied
// target and code. It does not mutate the record; the store decides whether
// to clear it based on the returned status.
func (c *VerificationCode) ClassifyAttempt(suppliedTarget, suppliedCode string, now time.Time) VerifyStatus {
	if suppliedTarget != c.PendingTarget {
		return VerifyTargetMismatch
	}
	if now.After(c.ExpiresAt) {
		return VerifyExpired
	}
	if suppliedCode != c.Code {
		return VerifyMismatch
	}
	return VerifySuccess
}

// GenerateCode returns a uniformly random 6-digit code, left-zero-padded.
// Leading zeros are allowed; the space is the full 000000-999999 range.
func GenerateCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}
