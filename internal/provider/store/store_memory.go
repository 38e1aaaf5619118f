package store

import (
	"context"
	"fmt"
	"sync"

	"vitrina/internal/provider/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
)

// Error Contract:
// - FindByID / FindBySubject return ErrNotFound when absent
// - Create returns ErrConflict when the subject already has a provider
// - Execute runs validate then mutate atomically and returns the copy

// InMemory stores provider aggregates in memory for tests/dev.
type InMemory struct {
	mu        sync.Mutex
	providers map[id.ProviderID]*models.Provider
	bySubject map[id.SubjectID]id.ProviderID
}

// NewInMemory constructs an empty in-memory provider store.
func NewInMemory() *InMemory {
	return &InMemory{
		providers: make(map[id.ProviderID]*models.Provider),
		bySubject: make(map[id.SubjectID]id.ProviderID),
	}
}

// Create stores a new aggregate. One provider per subject.
func (s *InMemory) Create(_ context.Context, provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.bySubject[provider.SubjectID]; exists {
		return fmt.Errorf("subject already has a provider: %w", sentinel.ErrConflict)
	}
	copied := *provider
	s.providers[provider.ID] = &copied
	s.bySubject[provider.SubjectID] = provider.ID
	return nil
}

func (s *InMemory) FindByID(_ context.Context, providerID id.ProviderID) (*models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	provider, ok := s.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %w", sentinel.ErrNotFound)
	}
	copied := *provider
	return &copied, nil
}

func (s *InMemory) FindBySubject(_ context.Context, subjectID id.SubjectID) (*models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	providerID, ok := s.bySubject[subjectID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %w", sentinel.ErrNotFound)
	}
	copied := *s.providers[providerID]
	return &copied, nil
}

// ListByStatus returns providers currently in the given status, for the
// review queue.
func (s *InMemory) ListByStatus(_ context.Context, status models.Status) ([]*models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Provider
	for _, provider := range s.providers {
		if provider.Status == status {
			copied := *provider
			out = append(out, &copied)
		}
	}
	return out, nil
}

// Execute runs validate then mutate under the store lock so concurrent
// status transitions cannot interleave.
func (s *InMemory) Execute(_ context.Context, providerID id.ProviderID, validate func(*models.Provider) error, mutate func(*models.Provider) error) (*models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	provider, ok := s.providers[providerID]
	if !ok {
		return nil, fmt.Errorf("provider not found: %w", sentinel.ErrNotFound)
	}
	if validate != nil {
		if err := validate(provider); err != nil {
			return nil, err
		}
	}
	if err := mutate(provider); err != nil {
		return nil, err
	}
	copied := *provider
	return &copied, nil
}
