// Package objectstore abstracts binary storage for uploaded documents.
package objectstore

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"vitrina/pkg/platform/sentinel"
)

// Store writes and reads document binaries. References are opaque to
// callers; only this package knows their shape.
type Store interface {
	Put(ctx context.Context, content []byte, contentType string) (string, error)
	Get(ctx context.Context, ref string) ([]byte, string, error)
}

type object struct {
	content     []byte
	contentType string
}

// InMemory holds objects in memory for tests/dev.
type InMemory struct {
	mu      sync.RWMutex
	objects map[string]object
}

func NewInMemory() *InMemory {
	return &InMemory{objects: make(map[string]object)}
}

func (s *InMemory) Put(_ context.Context, content []byte, contentType string) (string, error) {
	ref := "mem://" + uuid.NewString()
	copied := make([]byte, len(content))
	copy(copied, content)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[ref] = object{content: copied, contentType: contentType}
	return ref, nil
}

func (s *InMemory) Get(_ context.Context, ref string) ([]byte, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	obj, ok := s.objects[ref]
	if !ok {
		return nil, "", fmt.Errorf("object not found: %w", sentinel.ErrNotFound)
	}
	copied := make([]byte, len(obj.content))
	copy(copied, obj.content)
	return copied, obj.contentType, nil
}
