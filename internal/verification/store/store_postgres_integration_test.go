//go:build integration

package store

import (
	"context"
	"testing"
	"time"

	subjectmodels "vitrina/internal/subject/models"
	subjectstore "vitrina/internal/subject/store"
	"vitrina/internal/verification/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/testutil/containers"
)

func TestPostgresCodeLifecycle(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	subjectID := seedSubject(t, pg, now)
	store := NewPostgres(pg.DB)

	code := models.New(subjectID, models.ChannelPhone, "123456", "+5511999990000", now, models.CodeTTL)
	if err := store.Replace(ctx, code); err != nil {
		t.Fatalf("failed to store code: %v", err)
	}

	// Replace overwrites the outstanding code for the pair.
	replacement := models.New(subjectID, models.ChannelPhone, "654321", "+5511999990000", now, models.CodeTTL)
	if err := store.Replace(ctx, replacement); err != nil {
		t.Fatalf("failed to replace code: %v", err)
	}

	status, err := store.Consume(ctx, subjectID, models.ChannelPhone, "+5511999990000", "123456", now)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if status != models.VerifyMismatch {
		t.Fatalf("expected mismatch against the replaced code, got %s", status)
	}

	status, err = store.Consume(ctx, subjectID, models.ChannelPhone, "+5511999990000", "654321", now)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if status != models.VerifySuccess {
		t.Fatalf("expected success, got %s", status)
	}

	// Success clears the record; a replay finds nothing.
	status, err = store.Consume(ctx, subjectID, models.ChannelPhone, "+5511999990000", "654321", now)
	if err != nil {
		t.Fatalf("consume failed: %v", err)
	}
	if status != models.VerifyNotFound {
		t.Fatalf("expected not_found after consumption, got %s", status)
	}
}

func TestPostgresDeleteExpired(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	subjectID := seedSubject(t, pg, now)
	store := NewPostgres(pg.DB)

	stale := models.New(subjectID, models.ChannelPhone, "111111", "+5511888880000", now.Add(-time.Hour), models.CodeTTL)
	fresh := models.New(subjectID, models.ChannelEmail, "222222", "new@example.com", now, models.CodeTTL)
	if err := store.Replace(ctx, stale); err != nil {
		t.Fatalf("failed to store stale code: %v", err)
	}
	if err := store.Replace(ctx, fresh); err != nil {
		t.Fatalf("failed to store fresh code: %v", err)
	}

	deleted, err := store.DeleteExpired(ctx, now)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if deleted != 1 {
		t.Fatalf("expected 1 expired code deleted, got %d", deleted)
	}
	if _, err := store.Find(ctx, subjectID, models.ChannelEmail); err != nil {
		t.Fatalf("expected fresh code to survive the sweep: %v", err)
	}
}

func TestPostgresDeleteMatching(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	subjectID := seedSubject(t, pg, now)
	store := NewPostgres(pg.DB)

	code := models.New(subjectID, models.ChannelPhone, "123456", "+5511999990000", now, models.CodeTTL)
	if err := store.Replace(ctx, code); err != nil {
		t.Fatalf("failed to store code: %v", err)
	}

	// A stale value leaves the stored code untouched.
	if err := store.DeleteMatching(ctx, subjectID, models.ChannelPhone, "999999"); err != nil {
		t.Fatalf("delete matching failed: %v", err)
	}
	if _, err := store.Find(ctx, subjectID, models.ChannelPhone); err != nil {
		t.Fatalf("expected the code to survive a stale delete: %v", err)
	}

	if err := store.DeleteMatching(ctx, subjectID, models.ChannelPhone, "123456"); err != nil {
		t.Fatalf("delete matching failed: %v", err)
	}
	if _, err := store.Find(ctx, subjectID, models.ChannelPhone); err == nil {
		t.Fatalf("expected the matching delete to clear the code")
	}
}

func seedSubject(t *testing.T, pg *containers.PostgresContainer, now time.Time) id.SubjectID {
	t.Helper()
	subjects := subjectstore.NewPostgres(pg.DB)
	subjectID := id.NewSubjectID()
	err := subjects.Create(context.Background(), &subjectmodels.Subject{
		ID:           subjectID,
		Email:        "owner@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to seed subject: %v", err)
	}
	return subjectID
}
