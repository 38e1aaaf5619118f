package service

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically deletes expired codes.
type Sweeper struct {
	service  *Service
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(service *Service, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{service: service, interval: interval, logger: logger}
}

// Run blocks until ctx is cancelled, sweeping once per interval.
func (w *Sweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			deleted, err := w.service.SweepExpired(ctx)
			if err != nil {
				w.logger.ErrorContext(ctx, "expired code sweep failed", "error", err)
				continue
			}
			if deleted > 0 {
				w.logger.InfoContext(ctx, "swept expired verification codes", "deleted", deleted)
			}
		}
	}
}
