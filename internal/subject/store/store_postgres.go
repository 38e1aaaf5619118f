package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"vitrina/internal/subject/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
)

// Postgres persists subject profiles in PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed subject store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

const subjectColumns = `id, email, password_hash, phone, phone_verified, created_at, updated_at`

func (s *Postgres) Create(ctx context.Context, subject *models.Subject) error {
	query := `
		INSERT INTO subjects (` + subjectColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		subject.ID.String(), subject.Email, subject.PasswordHash,
		subject.Phone, subject.PhoneVerified, subject.CreatedAt, subject.UpdatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("subject already exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create subject: %w", err)
	}
	return nil
}

func (s *Postgres) FindByID(ctx context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1`
	return scanSubject(s.db.QueryRowContext(ctx, query, subjectID.String()))
}

func (s *Postgres) Update(ctx context.Context, subject *models.Subject) error {
	query := `
		UPDATE subjects
		SET email = $2, password_hash = $3, phone = $4, phone_verified = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		subject.ID.String(), subject.Email, subject.PasswordHash,
		subject.Phone, subject.PhoneVerified, subject.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update subject: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

// Execute locks the row (FOR UPDATE) for the validate-then-mutate pair.
func (s *Postgres) Execute(ctx context.Context, subjectID id.SubjectID, validate func(*models.Subject) error, mutate func(*models.Subject)) (*models.Subject, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin subject tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `SELECT ` + subjectColumns + ` FROM subjects WHERE id = $1 FOR UPDATE`
	subject, err := scanSubject(tx.QueryRowContext(ctx, query, subjectID.String()))
	if err != nil {
		return nil, err
	}

	if validate != nil {
		if err := validate(subject); err != nil {
			return nil, err
		}
	}
	mutate(subject)

	update := `
		UPDATE subjects
		SET email = $2, password_hash = $3, phone = $4, phone_verified = $5, updated_at = $6
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, update,
		subject.ID.String(), subject.Email, subject.PasswordHash,
		subject.Phone, subject.PhoneVerified, subject.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update subject: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit subject tx: %w", err)
	}
	return subject, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSubject(row rowScanner) (*models.Subject, error) {
	subject := &models.Subject{}
	var rawID string
	err := row.Scan(&rawID, &subject.Email, &subject.PasswordHash,
		&subject.Phone, &subject.PhoneVerified, &subject.CreatedAt, &subject.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("subject not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("scan subject: %w", err)
	}
	parsed, err := id.ParseSubjectID(rawID)
	if err != nil {
		return nil, fmt.Errorf("scan subject id: %w", err)
	}
	subject.ID = parsed
	return subject, nil
}
