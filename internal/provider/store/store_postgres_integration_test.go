//go:build integration

package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"vitrina/internal/provider/models"
	registrymodels "vitrina/internal/registry/models"
	subjectmodels "vitrina/internal/subject/models"
	subjectstore "vitrina/internal/subject/store"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
	"vitrina/pkg/testutil/containers"
)

func TestPostgresProviderRoundTrip(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	store := NewPostgres(pg.DB)
	provider := seedProvider(t, pg, now)
	if err := store.Create(ctx, provider); err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	found, err := store.FindBySubject(ctx, provider.SubjectID)
	if err != nil {
		t.Fatalf("failed to find by subject: %v", err)
	}
	if found.ID != provider.ID {
		t.Fatalf("expected provider %s, got %s", provider.ID, found.ID)
	}
	if found.Registry == nil || found.Registry.LegalName != "Acme Servicos Ltda" {
		t.Fatalf("expected the registry snapshot to round-trip, got %+v", found.Registry)
	}
	if found.Representative == nil || found.Representative.Name != "Ana Souza" {
		t.Fatalf("expected the representative to round-trip, got %+v", found.Representative)
	}

	// One provider per subject.
	dup := *provider
	dup.ID = id.NewProviderID()
	if err := store.Create(ctx, &dup); !errors.Is(err, sentinel.ErrConflict) {
		t.Fatalf("expected conflict for a second provider per subject, got %v", err)
	}
}

func TestPostgresProviderExecuteTransition(t *testing.T) {
	pg := containers.NewPostgresContainer(t)
	ctx := context.Background()
	now := time.Now().UTC().Truncate(time.Microsecond)

	store := NewPostgres(pg.DB)
	provider := seedProvider(t, pg, now)
	provider.Status = models.StatusPendingDocuments
	if err := store.Create(ctx, provider); err != nil {
		t.Fatalf("failed to create provider: %v", err)
	}

	updated, err := store.Execute(ctx, provider.ID,
		func(p *models.Provider) error {
			if !p.CanAdvanceToReview() {
				t.Fatalf("expected pending_documents, got %s", p.Status)
			}
			return nil
		},
		func(p *models.Provider) error {
			return p.ApplyAdvanceToReview(now)
		},
	)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if updated.Status != models.StatusUnderReview {
		t.Fatalf("expected under_review, got %s", updated.Status)
	}

	queue, err := store.ListByStatus(ctx, models.StatusUnderReview)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(queue) != 1 || queue[0].ID != provider.ID {
		t.Fatalf("expected the provider in the review queue, got %+v", queue)
	}
}

func seedProvider(t *testing.T, pg *containers.PostgresContainer, now time.Time) *models.Provider {
	t.Helper()
	subjects := subjectstore.NewPostgres(pg.DB)
	subjectID := id.NewSubjectID()
	err := subjects.Create(context.Background(), &subjectmodels.Subject{
		ID:           subjectID,
		Email:        subjectID.String() + "@example.com",
		PasswordHash: "x",
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		t.Fatalf("failed to seed subject: %v", err)
	}

	return &models.Provider{
		ID:             id.NewProviderID(),
		SubjectID:      subjectID,
		Kind:           models.KindBusiness,
		IdentityNumber: "11222333000181",
		LegalName:      "Acme Servicos Ltda",
		ContactEmail:   "contact@acme.example",
		ContactPhone:   "+5511999990000",
		Registry: &registrymodels.Record{
			IdentityNumber: "11222333000181",
			LegalName:      "Acme Servicos Ltda",
			Status:         registrymodels.RegistrationActive,
			CheckedAt:      now,
		},
		Representative: &models.Representative{
			Name:           "Ana Souza",
			IdentityNumber: "11144477735",
		},
		Status:    models.StatusUnderReview,
		CreatedAt: now,
		UpdatedAt: now,
	}
}
