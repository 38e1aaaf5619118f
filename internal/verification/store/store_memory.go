package store

import (
	"context"
	"fmt"
	"sync"
	"time"

	"vitrina/internal/verification/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
)

// Error Contract:
// - Find returns ErrNotFound when no code is outstanding for the pair
// - Consume returns a classified VerifyStatus; the error is reserved for
//   infrastructure failures
// - Replace and Delete are unconditional and idempotent
// - DeleteMatching clears the pair only while it still holds the given code

type pairKey struct {
	subject id.SubjectID
	channel models.Channel
}

// InMemory stores verification codes in memory for tests/dev. A single
// mutex guards the whole map so Replace and Consume are atomic with
// respect to each other, matching the production store's row locking.
type InMemory struct {
	mu    sync.Mutex
	codes map[pairKey]*models.VerificationCode
}

// NewInMemory constructs an empty in-memory verification code store.
func NewInMemory() *InMemory {
	return &InMemory{codes: make(map[pairKey]*models.VerificationCode)}
}

// Replace stores the code for its (subject, channel) pair, unconditionally
// overwriting any outstanding code.
func (s *InMemory) Replace(_ context.Context, code *models.VerificationCode) error {
	if code == nil {
		return fmt.Errorf("verification code is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.codes[pairKey{subject: code.SubjectID, channel: code.Channel}] = code
	return nil
}

// Find returns the outstanding code for the pair.
func (s *InMemory) Find(_ context.Context, subjectID id.SubjectID, channel models.Channel) (*models.VerificationCode, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	code, ok := s.codes[pairKey{subject: subjectID, channel: channel}]
	if !ok {
		return nil, fmt.Errorf("verification code not found: %w", sentinel.ErrNotFound)
	}
	copied := *code
	return &copied, nil
}

// Delete clears any outstanding code for the pair. Used for explicit
// cancellation; deleting a missing code is a no-op.
func (s *InMemory) Delete(_ context.Context, subjectID id.SubjectID, channel models.Channel) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, pairKey{subject: subjectID, channel: channel})
	return nil
}

// DeleteMatching clears the outstanding code for the pair only when it
// still holds the given value. Delivery rollback uses this so it cannot
// erase a code a concurrent re-issue stored in the meantime.
func (s *InMemory) DeleteMatching(_ context.Context, subjectID id.SubjectID, channel models.Channel, code string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{subject: subjectID, channel: channel}
	if stored, ok := s.codes[key]; ok && stored.Code == code {
		delete(s.codes, key)
	}
	return nil
}

// Consume atomically classifies the attempt and clears the stored code only
// on success. Failed attempts leave the record untouched so the caller may
// retry until expiry. Two concurrent successful attempts cannot both
// observe VerifySuccess: the first deletes the record under the lock.
func (s *InMemory) Consume(_ context.Context, subjectID id.SubjectID, channel models.Channel, suppliedTarget, suppliedCode string, now time.Time) (models.VerifyStatus, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey{subject: subjectID, channel: channel}
	code, ok := s.codes[key]
	if !ok {
		return models.VerifyNotFound, nil
	}

	status := code.ClassifyAttempt(suppliedTarget, suppliedCode, now)
	if status == models.VerifySuccess {
		delete(s.codes, key)
	}
	return status, nil
}

// DeleteExpired removes all codes expired as of now. The time parameter is
// injected for testability.
func (s *InMemory) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	deleted := 0
	for key, code := range s.codes {
		if code.ExpiresAt.Before(now) {
			delete(s.codes, key)
			deleted++
		}
	}
	return deleted, nil
}
