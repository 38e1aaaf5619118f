//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"vitrina/internal/onboarding/models"
	providermodels "vitrina/internal/provider/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
	"vitrina/pkg/testutil/containers"
)

func TestRedisDraftRoundTrip(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Millisecond)

	store := NewRedis(rc.Client, time.Hour)
	subjectID := id.NewSubjectID()

	draft := models.NewDraft(subjectID, providermodels.KindIndividual, now)
	draft.IdentityNumber = "11144477735"
	draft.AcceptConsent(models.ConsentTermsOfUse, now)

	if err := store.Save(ctx, draft); err != nil {
		t.Fatalf("failed to save draft: %v", err)
	}

	found, err := store.Find(ctx, subjectID)
	if err != nil {
		t.Fatalf("failed to find draft: %v", err)
	}
	if found.SubjectID != subjectID {
		t.Fatalf("expected subject %s, got %s", subjectID, found.SubjectID)
	}
	if found.IdentityNumber != "11144477735" {
		t.Fatalf("expected the identity number to round-trip, got %q", found.IdentityNumber)
	}
	if _, ok := found.Consents[models.ConsentTermsOfUse]; !ok {
		t.Fatalf("expected the consent map to round-trip, got %+v", found.Consents)
	}

	if err := store.Delete(ctx, subjectID); err != nil {
		t.Fatalf("failed to delete draft: %v", err)
	}
	if _, err := store.Find(ctx, subjectID); !errors.Is(err, sentinel.ErrNotFound) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestRedisDraftExpires(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	ctx := context.Background()
	now := time.Now().UTC()

	store := NewRedis(rc.Client, time.Second)
	subjectID := id.NewSubjectID()
	if err := store.Save(ctx, models.NewDraft(subjectID, providermodels.KindBusiness, now)); err != nil {
		t.Fatalf("failed to save draft: %v", err)
	}

	time.Sleep(1500 * time.Millisecond)

	if _, err := store.Find(ctx, subjectID); !errors.Is(err, sentinel.ErrNotFound) {
		t.Fatalf("expected the draft to expire, got %v", err)
	}
}
