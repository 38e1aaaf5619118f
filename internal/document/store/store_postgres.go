package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"vitrina/internal/document/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
)

// Postgres persists document records in PostgreSQL. The table is
// append-only for uploads; only review fields are updated in place.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed document store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const documentColumns = `id, provider_id, type, storage_ref, size, content_type, verified, rejection_reason, uploaded_at, reviewed_at`

func (s *Postgres) Append(ctx context.Context, document *models.Document) error {
	query := `
		INSERT INTO documents (` + documentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := s.db.ExecContext(ctx, query,
		document.ID.String(), document.ProviderID.String(), string(document.Type),
		document.StorageRef, document.Size, document.ContentType,
		document.Verified, nullIfEmpty(document.RejectionReason),
		document.UploadedAt, document.ReviewedAt)
	if err != nil {
		return fmt.Errorf("append document: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, documentID id.DocumentID) (*models.Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents WHERE id = $1`
	return scanDocument(s.db.QueryRowContext(ctx, query, documentID.String()))
}

func (s *Postgres) ListByProvider(ctx context.Context, providerID id.ProviderID) ([]*models.Document, error) {
	query := `
		SELECT ` + documentColumns + `
		FROM documents
		WHERE provider_id = $1
		ORDER BY uploaded_at
	`
	rows, err := s.db.QueryContext(ctx, query, providerID.String())
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var out []*models.Document
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, document)
	}
	return out, rows.Err()
}

// LatestByProvider returns the newest record per type.
func (s *Postgres) LatestByProvider(ctx context.Context, providerID id.ProviderID) (map[models.Type]*models.Document, error) {
	query := `
		SELECT DISTINCT ON (type) ` + documentColumns + `
		FROM documents
		WHERE provider_id = $1
		ORDER BY type, uploaded_at DESC
	`
	return s.queryLatest(ctx, query, providerID.String())
}

// LatestOfTypes is LatestByProvider restricted to the given types, used by
// gating so only the required slots are fetched.
func (s *Postgres) LatestOfTypes(ctx context.Context, providerID id.ProviderID, types []models.Type) (map[models.Type]*models.Document, error) {
	names := make([]string, len(types))
	for i, t := range types {
		names[i] = string(t)
	}
	query := `
		SELECT DISTINCT ON (type) ` + documentColumns + `
		FROM documents
		WHERE provider_id = $1 AND type = ANY($2)
		ORDER BY type, uploaded_at DESC
	`
	return s.queryLatest(ctx, query, providerID.String(), pq.Array(names))
}

func (s *Postgres) queryLatest(ctx context.Context, query string, args ...any) (map[models.Type]*models.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("latest documents: %w", err)
	}
	defer rows.Close()

	latest := make(map[models.Type]*models.Document)
	for rows.Next() {
		document, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		latest[document.Type] = document
	}
	return latest, rows.Err()
}

func (s *Postgres) Update(ctx context.Context, document *models.Document) error {
	query := `
		UPDATE documents
		SET verified = $2, rejection_reason = $3, reviewed_at = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		document.ID.String(), document.Verified,
		nullIfEmpty(document.RejectionReason), document.ReviewedAt)
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update document: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (*models.Document, error) {
	document := &models.Document{}
	var (
		rawID, rawProviderID, rawType string
		reason                        sql.NullString
		reviewedAt                    sql.NullTime
	)
	err := row.Scan(&rawID, &rawProviderID, &rawType,
		&document.StorageRef, &document.Size, &document.ContentType,
		&document.Verified, &reason, &document.UploadedAt, &reviewedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("document not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan document: %w", err)
	}

	documentID, err := id.ParseDocumentID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan document id: %w", err)
	}
	providerID, err := id.ParseProviderID(rawProviderID)
	if err != nil {
		return nil, fmt.Errorf("scan document provider id: %w", err)
	}
	docType, err := models.ParseType(rawType)
	if err != nil {
		return nil, fmt.Errorf("scan document type: %w", err)
	}

	document.ID = documentID
	document.ProviderID = providerID
	document.Type = docType
	if reason.Valid {
		document.RejectionReason = reason.String
	}
	if reviewedAt.Valid {
		t := reviewedAt.Time
		document.ReviewedAt = &t
	}
	return document, nil
}

func nullIfEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
