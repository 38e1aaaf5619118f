package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vitrina/internal/verification/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/platform/sentinel"
)

// Postgres persists verification codes in PostgreSQL. One row per
// (subject, channel) pair; the primary key makes Replace an atomic upsert
// and Consume locks the row for the check-then-clear.
type Postgres struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed verification code store.
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Replace upserts the code for its pair. ON CONFLICT makes the overwrite a
// single atomic statement, so two concurrent issues can never interleave a
// read-modify-write.
func (s *Postgres) Replace(ctx context.Context, code *models.VerificationCode) error {
	if code == nil {
		return fmt.Errorf("verification code is required")
	}
	query := `
		INSERT INTO verification_codes (subject_id, channel, code, pending_target, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (subject_id, channel) DO UPDATE SET
			code = EXCLUDED.code,
			pending_target = EXCLUDED.pending_target,
			issued_at = EXCLUDED.issued_at,
			expires_at = EXCLUDED.expires_at
	`
	_, err := s.db.ExecContext(ctx, query,
		code.SubjectID.String(),
		string(code.Channel),
		code.Code,
		code.PendingTarget,
		code.IssuedAt,
		code.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("replace verification code: %w", err)
	}
	return nil
}

// Find returns the outstanding code for the pair.
func (s *Postgres) Find(ctx context.Context, subjectID id.SubjectID, channel models.Channel) (*models.VerificationCode, error) {
	query := `
		SELECT code, pending_target, issued_at, expires_at
		FROM verification_codes
		WHERE subject_id = $1 AND channel = $2
	`
	code := &models.VerificationCode{SubjectID: subjectID, Channel: channel}
	err := s.db.QueryRowContext(ctx, query, subjectID.String(), string(channel)).
		Scan(&code.Code, &code.PendingTarget, &code.IssuedAt, &code.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("verification code not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find verification code: %w", err)
	}
	return code, nil
}

// Delete clears any outstanding code for the pair.
func (s *Postgres) Delete(ctx context.Context, subjectID id.SubjectID, channel models.Channel) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE subject_id = $1 AND channel = $2`,
		subjectID.String(), string(channel))
	if err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}

// DeleteMatching clears the outstanding code for the pair only when it
// still holds the given value, so delivery rollback cannot erase a code a
// concurrent re-issue stored in the meantime.
func (s *Postgres) DeleteMatching(ctx context.Context, subjectID id.SubjectID, channel models.Channel, code string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE subject_id = $1 AND channel = $2 AND code = $3`,
		subjectID.String(), string(channel), code)
	if err != nil {
		return fmt.Errorf("delete verification code: %w", err)
	}
	return nil
}

// Consume classifies the attempt and clears the row only on success, all
// under a row lock so two near-simultaneous attempts cannot both succeed.
func (s *Postgres) Consume(ctx context.Context, subjectID id.SubjectID, channel models.Channel, suppliedTarget, suppliedCode string, now time.Time) (models.VerifyStatus, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin consume tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		SELECT code, pending_target, issued_at, expires_at
		FROM verification_codes
		WHERE subject_id = $1 AND channel = $2
		FOR UPDATE
	`
	code := &models.VerificationCode{SubjectID: subjectID, Channel: channel}
	err = tx.QueryRowContext(ctx, query, subjectID.String(), string(channel)).
		Scan(&code.Code, &code.PendingTarget, &code.IssuedAt, &code.ExpiresAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.VerifyNotFound, nil
		}
		return "", fmt.Errorf("lock verification code: %w", err)
	}

	status := code.ClassifyAttempt(suppliedTarget, suppliedCode, now)
	if status != models.VerifySuccess {
		// Leave the row untouched so the user may retry until expiry.
		return status, nil
	}

	// The guard on the stored code value keeps the clear conditional even
	// if the row changed between our snapshot and the delete.
	res, err := tx.ExecContext(ctx,
		`DELETE FROM verification_codes WHERE subject_id = $1 AND channel = $2 AND code = $3`,
		subjectID.String(), string(channel), suppliedCode)
	if err != nil {
		return "", fmt.Errorf("clear verification code: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return "", fmt.Errorf("clear verification code: %w", err)
	}
	if affected == 0 {
		return models.VerifyNotFound, nil
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit consume tx: %w", err)
	}
	return models.VerifySuccess, nil
}

// DeleteExpired removes all codes expired as of now.
func (s *Postgres) DeleteExpired(ctx context.Context, now time.Time) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM verification_codes WHERE expires_at < $1`, now)
	if err != nil {
		return 0, fmt.Errorf("delete expired verification codes: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired verification codes: %w", err)
	}
	return int(affected), nil
}
