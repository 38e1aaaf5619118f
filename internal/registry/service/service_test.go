package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrina/internal/registry/cache"
	"vitrina/internal/registry/models"
	dErrors "vitrina/pkg/domain-errors"
	"vitrina/pkg/platform/sentinel"
)

const validBusinessNumber = "11222333000181"

type fakeClient struct {
	record  *models.Record
	err     error
	lookups int
}

func (f *fakeClient) Lookup(_ context.Context, identityNumber string) (*models.Record, error) {
	f.lookups++
	if f.err != nil {
		return nil, f.err
	}
	record := *f.record
	record.IdentityNumber = identityNumber
	return &record, nil
}

func activeRecord() *models.Record {
	return &models.Record{
		IdentityNumber: validBusinessNumber,
		LegalName:      "Acme Servicos Ltda",
		TradeName:      "Acme",
		Status:         models.RegistrationActive,
		CheckedAt:      time.Now().UTC(),
	}
}

func TestResolve(t *testing.T) {
	t.Run("resolves active record", func(t *testing.T) {
		client := &fakeClient{record: activeRecord()}
		resolver := New(client)

		outcome, err := resolver.Resolve(context.Background(), validBusinessNumber)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeResolved, outcome.Status)
		require.NotNil(t, outcome.Record)
		assert.True(t, outcome.Record.IsActive())
		assert.Equal(t, "Acme Servicos Ltda", outcome.Record.LegalName)
	})

	t.Run("accepts formatted input", func(t *testing.T) {
		client := &fakeClient{record: activeRecord()}
		resolver := New(client)

		outcome, err := resolver.Resolve(context.Background(), "11.222.333/0001-81")
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeResolved, outcome.Status)
		assert.Equal(t, validBusinessNumber, outcome.Record.IdentityNumber)
	})

	t.Run("inactive record still resolves", func(t *testing.T) {
		record := activeRecord()
		record.Status = models.RegistrationInactive
		client := &fakeClient{record: record}
		resolver := New(client)

		outcome, err := resolver.Resolve(context.Background(), validBusinessNumber)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeResolved, outcome.Status)
		assert.False(t, outcome.Record.IsActive())
	})

	t.Run("registry miss is a classified not-found, not an error", func(t *testing.T) {
		client := &fakeClient{err: fmt.Errorf("no entry: %w", sentinel.ErrNotFound)}
		resolver := New(client)

		outcome, err := resolver.Resolve(context.Background(), validBusinessNumber)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeNotFound, outcome.Status)
		assert.Nil(t, outcome.Record)
	})

	t.Run("outage is a classified transient error", func(t *testing.T) {
		client := &fakeClient{err: fmt.Errorf("registry down: %w", sentinel.ErrUnavailable)}
		resolver := New(client)

		outcome, err := resolver.Resolve(context.Background(), validBusinessNumber)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeTransientError, outcome.Status)
		assert.Error(t, outcome.Err)
	})

	t.Run("rejects checksum-invalid number before any lookup", func(t *testing.T) {
		client := &fakeClient{record: activeRecord()}
		resolver := New(client)

		_, err := resolver.Resolve(context.Background(), "11222333000182")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
		assert.Zero(t, client.lookups)
	})

	t.Run("unclassified failure propagates as internal", func(t *testing.T) {
		client := &fakeClient{err: errors.New("boom")}
		resolver := New(client)

		_, err := resolver.Resolve(context.Background(), validBusinessNumber)
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeInternal))
	})
}

func TestResolve_SessionCache(t *testing.T) {
	t.Run("second resolve in session hits the cache", func(t *testing.T) {
		client := &fakeClient{record: activeRecord()}
		resolver := New(client, WithCache(cache.NewMemory(5*time.Minute)))

		first, err := resolver.Resolve(context.Background(), validBusinessNumber)
		require.NoError(t, err)
		second, err := resolver.Resolve(context.Background(), validBusinessNumber)
		require.NoError(t, err)

		assert.Equal(t, 1, client.lookups)
		assert.Equal(t, first.Record.LegalName, second.Record.LegalName)
		assert.Equal(t, first.Record.CheckedAt, second.Record.CheckedAt)
	})

	t.Run("negative outcomes are not cached", func(t *testing.T) {
		client := &fakeClient{err: fmt.Errorf("down: %w", sentinel.ErrUnavailable)}
		resolver := New(client, WithCache(cache.NewMemory(5*time.Minute)))

		_, err := resolver.Resolve(context.Background(), validBusinessNumber)
		require.NoError(t, err)

		// Registry recovers; retry must reach the client again.
		client.err = nil
		client.record = activeRecord()
		outcome, err := resolver.Resolve(context.Background(), validBusinessNumber)
		require.NoError(t, err)
		assert.Equal(t, models.OutcomeResolved, outcome.Status)
		assert.Equal(t, 2, client.lookups)
	})
}
