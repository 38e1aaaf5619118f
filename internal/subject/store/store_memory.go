package store

import (
	"context"
	"fmt"
	"sync"

	"vitrina/internal/subject/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
)

// InMemory stores subject profiles in memory for tests/dev.
type InMemory struct {
	mu       sync.RWMutex
	subjects map[id.SubjectID]*models.Subject
}

// NewInMemory constructs an empty in-memory subject store.
func NewInMemory() *InMemory {
	return &InMemory{subjects: make(map[id.SubjectID]*models.Subject)}
}

func (s *InMemory) Create(_ context.Context, subject *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.subjects[subject.ID]; exists {
		return fmt.Errorf("subject already exists: %w", sentinel.ErrConflict)
	}
	copied := *subject
	s.subjects[subject.ID] = &copied
	return nil
}

func (s *InMemory) FindByID(_ context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	subject, ok := s.subjects[subjectID]
	if !ok {
		return nil, fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
	}
	copied := *subject
	return &copied, nil
}

func (s *InMemory) Update(_ context.Context, subject *models.Subject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subjects[subject.ID]; !ok {
		return fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
	}
	copied := *subject
	s.subjects[subject.ID] = &copied
	return nil
}

// Execute runs validate then mutate under the store lock so concurrent
// profile updates cannot interleave.
func (s *InMemory) Execute(_ context.Context, subjectID id.SubjectID, validate func(*models.Subject) error, mutate func(*models.Subject)) (*models.Subject, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	subject, ok := s.subjects[subjectID]
	if !ok {
		return nil, fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
	}
	if validate != nil {
		if err := validate(subject); err != nil {
			return nil, err
		}
	}
	mutate(subject)
	copied := *subject
	return &copied, nil
}
