package lockout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// PostgresStore persists failure counters in PostgreSQL. RecordFailure is a
// single atomic upsert so concurrent failures cannot race past the
// threshold unobserved.
type PostgresStore struct {
	db     *sql.DB
	window time.Duration
}

// NewPostgres constructs a PostgreSQL-backed lockout store.
func NewPostgres(db *sql.DB, window time.Duration) *PostgresStore {
	return &PostgresStore{db: db, window: window}
}

func (s *PostgresStore) Get(ctx context.Context, key string) (*Record, error) {
	query := `
		SELECT key, failures, window_start, last_failure_at
		FROM verification_lockouts
		WHERE key = $1
	`
	record := &Record{}
	err := s.db.QueryRowContext(ctx, query, key).
		Scan(&record.Key, &record.Failures, &record.WindowStart, &record.LastFailureAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get lockout record: %w", err)
	}
	return record, nil
}

// RecordFailure atomically increments the counter, restarting the window
// when the previous one has elapsed.
func (s *PostgresStore) RecordFailure(ctx context.Context, key string, now time.Time) (*Record, error) {
	query := `
		INSERT INTO verification_lockouts (key, failures, window_start, last_failure_at)
		VALUES ($1, 1, $2, $2)
		ON CONFLICT (key) DO UPDATE SET
			failures = CASE
				WHEN $2 - verification_lockouts.window_start >= $3::interval THEN 1
				ELSE verification_lockouts.failures + 1
			END,
			window_start = CASE
				WHEN $2 - verification_lockouts.window_start >= $3::interval THEN $2
				ELSE verification_lockouts.window_start
			END,
			last_failure_at = $2
		RETURNING key, failures, window_start, last_failure_at
	`
	record := &Record{}
	err := s.db.QueryRowContext(ctx, query, key, now, s.window.String()).
		Scan(&record.Key, &record.Failures, &record.WindowStart, &record.LastFailureAt)
	if err != nil {
		return nil, fmt.Errorf("record lockout failure: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) Clear(ctx context.Context, key string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM verification_lockouts WHERE key = $1`, key); err != nil {
		return fmt.Errorf("clear lockout record: %w", err)
	}
	return nil
}
