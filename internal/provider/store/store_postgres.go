package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"vitrina/internal/provider/models"
	registrymodels "vitrina/internal/registry/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
)

// Postgres persists provider aggregates in PostgreSQL. The registry
// snapshot and representative are stored as jsonb: they are point-in-time
// copies, never queried field by field.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed provider store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const providerColumns = `id, subject_id, kind, identity_number, legal_name, trade_name, contact_email, contact_phone, registry, representative, status, rejection_reason, is_active, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, provider *models.Provider) error {
	registry, representative, err := marshalSnapshots(provider)
	if err != nil {
		return err
	}
	query := `
		INSERT INTO providers (` + providerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err = s.db.ExecContext(ctx, query,
		provider.ID.String(), provider.SubjectID.String(), string(provider.Kind),
		provider.IdentityNumber, provider.LegalName, provider.TradeName,
		provider.ContactEmail, provider.ContactPhone,
		registry, representative,
		string(provider.Status), nullIfEmpty(provider.RejectionReason),
		provider.IsActive, provider.CreatedAt, provider.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("subject already has a provider: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create provider: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, providerID id.ProviderID) (*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1`
	return scanProvider(s.db.QueryRowContext(ctx, query, providerID.String()))
}

func (s *Postgres) FindBySubject(ctx context.Context, subjectID id.SubjectID) (*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE subject_id = $1`
	return scanProvider(s.db.QueryRowContext(ctx, query, subjectID.String()))
}

func (s *Postgres) ListByStatus(ctx context.Context, status models.Status) ([]*models.Provider, error) {
	query := `SELECT ` + providerColumns + ` FROM providers WHERE status = $1 ORDER BY updated_at`
	rows, err := s.db.QueryContext(ctx, query, string(status))
	if err != nil {
		return nil, fmt.Errorf("list providers: %w", err)
	}
	defer rows.Close()

	var out []*models.Provider
	for rows.Next() {
		provider, err := scanProvider(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, provider)
	}
	return out, rows.Err()
}

// Execute locks the row (FOR UPDATE) for the validate-then-mutate pair, so
// concurrent status transitions serialize on the aggregate.
func (s *Postgres) Execute(ctx context.Context, providerID id.ProviderID, validate func(*models.Provider) error, mutate func(*models.Provider) error) (*models.Provider, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin provider tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + providerColumns + ` FROM providers WHERE id = $1 FOR UPDATE`
	provider, err := scanProvider(tx.QueryRowContext(ctx, query, providerID.String()))
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(provider); err != nil {
			return nil, err
		}
	}
	if err := mutate(provider); err != nil {
		return nil, err
	}

	registry, representative, err := marshalSnapshots(provider)
	if err != nil {
		return nil, err
	}
	update := `
		UPDATE providers
		SET legal_name = $2, trade_name = $3, contact_email = $4, contact_phone = $5,
		    registry = $6, representative = $7, status = $8, rejection_reason = $9,
		    is_active = $10, updated_at = $11
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		provider.ID.String(), provider.LegalName, provider.TradeName,
		provider.ContactEmail, provider.ContactPhone,
		registry, representative,
		string(provider.Status), nullIfEmpty(provider.RejectionReason),
		provider.IsActive, provider.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update provider: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit provider tx: %w", err)
	}
	return provider, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProvider(row rowScanner) (*models.Provider, error) {
	provider := &models.Provider{}
	var (
		rawID, rawSubjectID, rawKind, rawStatus string
		registry, representative                []byte
		reason                                  sql.NullString
	)
	err := row.Scan(&rawID, &rawSubjectID, &rawKind,
		&provider.IdentityNumber, &provider.LegalName, &provider.TradeName,
		&provider.ContactEmail, &provider.ContactPhone,
		&registry, &representative,
		&rawStatus, &reason, &provider.IsActive,
		&provider.CreatedAt, &provider.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("provider not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan provider: %w", err)
	}

	providerID, err := id.ParseProviderID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan provider id: %w", err)
	}
	subjectID, err := id.ParseSubjectID(rawSubjectID)
	if err != nil {
		return nil, fmt.Errorf("scan provider subject id: %w", err)
	}
	kind, err := models.ParseKind(rawKind)
	if err != nil {
		return nil, fmt.Errorf("scan provider kind: %w", err)
	}
	status, err := models.ParseStatus(rawStatus)
	if err != nil {
		return nil, fmt.Errorf("scan provider status: %w", err)
	}

	provider.ID = providerID
	provider.SubjectID = subjectID
	provider.Kind = kind
	provider.Status = status
	if reason.Valid {
		provider.RejectionReason = reason.String
	}
	if len(registry) > 0 {
		record := &registrymodels.Record{}
		if err := json.Unmarshal(registry, record); err != nil {
			return nil, fmt.Errorf("scan provider registry snapshot: %w", err)
		}
		provider.Registry = record
	}
	if len(representative) > 0 {
		rep := &models.Representative{}
		if err := json.Unmarshal(representative, rep); err != nil {
			return nil, fmt.Errorf("scan provider representative: %w", err)
		}
		provider.Representative = rep
	}
	return provider, nil
}

func marshalSnapshots(provider *models.Provider) (registry, representative any, err error) {
	if provider.Registry != nil {
		data, err := json.Marshal(provider.Registry)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal registry snapshot: %w", err)
		}
		registry = data
	}
	if provider.Representative != nil {
		data, err := json.Marshal(provider.Representative)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal representative: %w", err)
		}
		representative = data
	}
	return registry, representative, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
