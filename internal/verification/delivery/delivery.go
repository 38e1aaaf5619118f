// Package delivery abstracts how a code reaches its pending target. The
// service only sees Send; SMS and email gateways plug in behind it.
package delivery

import (
	"context"
	"log/slog"

	"vitrina/internal/verification/models"
)

// Sender delivers a code to a target over one channel. A returned error
// rolls the issuance back so no undeliverable code stays outstanding.
type Sender interface {
	Send(ctx context.Context, channel models.Channel, target, code string) error
}

// Log writes codes to the application log instead of a real gateway.
// Dev/test only.
type Log struct {
	logger *slog.Logger
}

func NewLog(logger *slog.Logger) *Log {
	return &Log{logger: logger}
}

func (l *Log) Send(ctx context.Context, channel models.Channel, target, code string) error {
	l.logger.InfoContext(ctx, "verification code delivery",
		"channel", string(channel),
		"target", target,
		"code", code)
	return nil
}
