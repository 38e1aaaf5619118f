//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"vitrina/internal/subject/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
	"vitrina/pkg/testutil/containers"
)

func TestPostgresSubjectRoundTrip(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	store := NewPostgres(pg.DB)
	subjectID := id.NewSubjectID()
	subject := &models.Subject{
		ID:           subjectID,
		Email:        "owner@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := store.Create(ctx, subject); err != nil {
		t.Fatalf("failed to create subject: %v", err)
	}

	found, err := store.FindByID(ctx, subjectID)
	if err != nil {
		t.Fatalf("failed to find subject: %v", err)
	}
	if found.Email != "owner@example.com" {
		t.Fatalf("expected email to round-trip, got %q", found.Email)
	}
}

func TestPostgresSubjectDuplicateEmailConflicts(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	store := NewPostgres(pg.DB)
	if err := store.Create(ctx, &models.Subject{
		ID:           id.NewSubjectID(),
		Email:        "owner@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}); err != nil {
		t.Fatalf("failed to create subject: %v", err)
	}

	err := store.Create(ctx, &models.Subject{
		ID:           id.NewSubjectID(),
		Email:        "owner@example.com",
		PasswordHash: "hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if !errors.Is(err, sentinel.ErrConflict) {
		t.Fatalf("expected conflict for a duplicate email, got %v", err)
	}
}
