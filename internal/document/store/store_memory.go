package store

import (
	"context"
	"fmt"
	"sync"

	"vitrina/internal/document/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
)

// Error Contract:
// - FindByID returns ErrNotFound when the document does not exist
// - Append is unconditional: records are never replaced in place
// - Latest views are derived from upload order, newest per type wins

// InMemory stores document records in memory for tests/dev.
type InMemory struct {
	mu        sync.RWMutex
	documents []*models.Document
}

// NewInMemory constructs an empty in-memory document store.
func NewInMemory() *InMemory {
	return &InMemory{}
}

// Append adds a record. Append-only: superseding is derived, not applied.
func (s *InMemory) Append(_ context.Context, document *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *document
	s.documents = append(s.documents, &copied)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, documentID id.DocumentID) (*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, document := range s.documents {
		if document.ID == documentID {
			copied := *document
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
}

// ListByProvider returns every record for the provider in upload order,
// including superseded ones.
func (s *InMemory) ListByProvider(_ context.Context, providerID id.ProviderID) ([]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Document
	for _, document := range s.documents {
		if document.ProviderID == providerID {
			copied := *document
			out = append(out, &copied)
		}
	}
	return out, nil
}

// LatestByProvider returns the current record per type: the most recently
// uploaded one.
func (s *InMemory) LatestByProvider(_ context.Context, providerID id.ProviderID) (map[models.Type]*models.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	latest := make(map[models.Type]*models.Document)
	for _, document := range s.documents {
		if document.ProviderID != providerID {
			continue
		}
		current, ok := latest[document.Type]
		if !ok || !document.UploadedAt.Before(current.UploadedAt) {
			copied := *document
			latest[document.Type] = &copied
		}
	}
	return latest, nil
}

// LatestOfTypes is LatestByProvider restricted to the given types.
func (s *InMemory) LatestOfTypes(ctx context.Context, providerID id.ProviderID, types []models.Type) (map[models.Type]*models.Document, error) {
	latest, err := s.LatestByProvider(ctx, providerID)
	if err != nil {
		return nil, err
	}
	filtered := make(map[models.Type]*models.Document, len(types))
	for _, t := range types {
		if document, ok := latest[t]; ok {
			filtered[t] = document
		}
	}
	return filtered, nil
}

// Update persists a review decision on an existing record.
func (s *InMemory) Update(_ context.Context, document *models.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.documents {
		if existing.ID == document.ID {
			copied := *document
			s.documents[i] = &copied
			return nil
		}
	}
	return fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
}
