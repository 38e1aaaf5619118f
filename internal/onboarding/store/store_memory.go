package store

import (
	"context"
	"fmt"
	"sync"

	"vitrina/internal/onboarding/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
)

// InMemory stores drafts in memory for tests/dev.
type InMemory struct {
	mu     sync.RWMutex
	drafts map[id.SubjectID]*models.Draft
}

// NewInMemory constructs an empty in-memory draft store.
func NewInMemory() *InMemory {
	return &InMemory{drafts: make(map[id.SubjectID]*models.Draft)}
}

// Save stores the draft, replacing any existing one for the subject.
func (s *InMemory) Save(_ context.Context, draft *models.Draft) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *draft
	s.drafts[draft.SubjectID] = &copied
	return nil
}

// Find returns the subject's draft.
func (s *InMemory) Find(_ context.Context, subjectID id.SubjectID) (*models.Draft, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	draft, ok := s.drafts[subjectID]
	if !ok {
		return nil, fmt.Errorf("draft not found: %w", sentinel.ErrNotFound)
	}
	copied := *draft
	return &copied, nil
}

// Delete removes the draft; deleting a missing draft is a no-op.
func (s *InMemory) Delete(_ context.Context, subjectID id.SubjectID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.drafts, subjectID)
	return nil
}
