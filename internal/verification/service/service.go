package service

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"vitrina/internal/audit"
	"vitrina/internal/lockout"
	"vitrina/internal/verification/delivery"
	"vitrina/internal/verification/metrics"
	"vitrina/internal/verification/models"
	"vitrina/pkg/attrs"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
	"vitrina/pkg/requestcontext"
)

// CodeStore persists outstanding codes. Consume must be atomic: two
// concurrent attempts with the correct code must not both succeed.
type CodeStore interface {
	Replace(ctx context.Context, code *models.VerificationCode) error
	Delete(ctx context.Context, subjectID id.SubjectID, channel models.Channel) error
	DeleteMatching(ctx context.Context, subjectID id.SubjectID, channel models.Channel, code string) error
	Consume(ctx context.Context, subjectID id.SubjectID, channel models.Channel, suppliedTarget, suppliedCode string, now time.Time) (models.VerifyStatus, error)
	DeleteExpired(ctx context.Context, now time.Time) (int, error)
}

// SubjectCredentials is the slice of the subject service this vertical
// needs: re-authentication before email issuance and the profile mutations
// applied when a code is consumed.
type SubjectCredentials interface {
	VerifyCurrentCredential(ctx context.Context, subjectID id.SubjectID, password string) error
	ApplyPhoneVerified(ctx context.Context, subjectID id.SubjectID, phone string) error
	ApplyEmailChange(ctx context.Context, subjectID id.SubjectID, newEmail string) error
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Service issues and consumes single-use verification codes.
type Service struct {
	codes          CodeStore
	subjects       SubjectCredentials
	sender         delivery.Sender
	attempts       *lockout.Policy
	ttl            time.Duration
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithCodeTTL overrides the default code lifetime.
func WithCodeTTL(ttl time.Duration) Option {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// New constructs a Service. The lockout policy may be nil, in which case
// attempts are uncapped (tests only).
func New(codes CodeStore, subjects SubjectCredentials, sender delivery.Sender, attempts *lockout.Policy, opts ...Option) *Service {
	s := &Service{codes: codes, subjects: subjects, sender: sender, attempts: attempts, ttl: models.CodeTTL}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// IssuePhoneCode issues a code confirming ownership of phone. Any
// outstanding phone code for the subject is replaced.
func (s *Service) IssuePhoneCode(ctx context.Context, subjectID id.SubjectID, phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return dErrors.New(dErrors.CodeValidation, "phone number is required")
	}
	return s.issue(ctx, subjectID, models.ChannelPhone, phone)
}

// IssueEmailCode issues a code confirming a new email address. Email is the
// recovery channel, so the subject must re-authenticate with their current
// password before a code is even generated.
func (s *Service) IssueEmailCode(ctx context.Context, subjectID id.SubjectID, newEmail, currentPassword string) error {
	newEmail = strings.TrimSpace(newEmail)
	if newEmail == "" || !strings.Contains(newEmail, "@") {
		return dErrors.New(dErrors.CodeValidation, "a valid email address is required")
	}
	if err := s.subjects.VerifyCurrentCredential(ctx, subjectID, currentPassword); err != nil {
		return err
	}
	return s.issue(ctx, subjectID, models.ChannelEmail, newEmail)
}

func (s *Service) issue(ctx context.Context, subjectID id.SubjectID, channel models.Channel, target string) error {
	code, err := models.GenerateCode()
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to generate verification code")
	}

	now := requestcontext.Now(ctx)
	record := models.New(subjectID, channel, code, target, now, s.ttl)
	if err := s.codes.Replace(ctx, record); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store verification code")
	}

	if err := s.sender.Send(ctx, channel, target, code); err != nil {
		// Roll back so an undeliverable code does not stay outstanding. The
		// delete is guarded by the code value: a concurrent re-issue may
		// already have stored a fresh code, which must survive.
		if deleteErr := s.codes.DeleteMatching(ctx, subjectID, channel, code); deleteErr != nil && s.logger != nil {
			s.logger.ErrorContext(ctx, "failed to roll back undelivered code",
				"subject_id", subjectID.String(), "channel", string(channel), "error", deleteErr)
		}
		return dErrors.Wrap(err, dErrors.CodeUnavailable, "failed to deliver verification code")
	}

	s.metrics.RecordIssued(string(channel))
	s.logAudit(ctx, string(audit.EventCodeIssued),
		"subject_id", subjectID.String(), "channel", string(channel))
	return nil
}

// Result reports the classified outcome of a verification attempt.
// RetryAfter is set only when Status is VerifyLocked.
type Result struct {
	Status     models.VerifyStatus
	RetryAfter time.Duration
}

// Verify consumes the outstanding code for the pair. On success the pending
// change is applied to the profile and the attempt counter cleared; a wrong
// code counts towards the lockout cap. Stale-target, expired and missing
// codes do not count: they carry no brute-force signal.
func (s *Service) Verify(ctx context.Context, subjectID id.SubjectID, channel models.Channel, target, code string) (Result, error) {
	now := requestcontext.Now(ctx)
	key := lockoutKey(subjectID, channel)

	if s.attempts != nil {
		allowed, retryAfter, err := s.attempts.Allowed(ctx, key, now)
		if err != nil {
			return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check attempt cap")
		}
		if !allowed {
			s.metrics.RecordAttempt(string(channel), string(models.VerifyLocked))
			s.logAudit(ctx, string(audit.EventCodeLocked),
				"subject_id", subjectID.String(), "channel", string(channel))
			return Result{Status: models.VerifyLocked, RetryAfter: retryAfter}, nil
		}
	}

	status, err := s.codes.Consume(ctx, subjectID, channel, target, code, now)
	if err != nil {
		return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to consume verification code")
	}
	s.metrics.RecordAttempt(string(channel), string(status))

	switch status {
	case models.VerifySuccess:
		if s.attempts != nil {
			if err := s.attempts.Clear(ctx, key); err != nil && s.logger != nil {
				s.logger.WarnContext(ctx, "failed to clear attempt counter",
					"subject_id", subjectID.String(), "channel", string(channel), "error", err)
			}
		}
		if err := s.applyConfirmedChange(ctx, subjectID, channel, target); err != nil {
			return Result{}, err
		}
		s.logAudit(ctx, string(audit.EventCodeConsumed),
			"subject_id", subjectID.String(), "channel", string(channel))
	case models.VerifyMismatch:
		if s.attempts != nil {
			if err := s.attempts.RecordFailure(ctx, key, now); err != nil {
				return Result{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to record attempt")
			}
		}
		s.logAudit(ctx, string(audit.EventCodeAttemptFailed),
			"subject_id", subjectID.String(), "channel", string(channel), "result", string(status))
	default:
		s.logAudit(ctx, string(audit.EventCodeAttemptFailed),
			"subject_id", subjectID.String(), "channel", string(channel), "result", string(status))
	}

	return Result{Status: status}, nil
}

// applyConfirmedChange writes the now-confirmed target to the profile. The
// code is already consumed at this point; a failure here is an internal
// fault, not a verification outcome.
func (s *Service) applyConfirmedChange(ctx context.Context, subjectID id.SubjectID, channel models.Channel, target string) error {
	var err error
	switch channel {
	case models.ChannelPhone:
		err = s.subjects.ApplyPhoneVerified(ctx, subjectID, target)
	case models.ChannelEmail:
		err = s.subjects.ApplyEmailChange(ctx, subjectID, target)
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to apply confirmed change")
	}
	return nil
}

// Cancel clears any outstanding code for the pair.
func (s *Service) Cancel(ctx context.Context, subjectID id.SubjectID, channel models.Channel) error {
	if err := s.codes.Delete(ctx, subjectID, channel); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to cancel verification code")
	}
	return nil
}

// SweepExpired removes codes past their expiry. Called by the background
// sweeper; expiry is also enforced at consumption, so the sweep is hygiene,
// not correctness.
func (s *Service) SweepExpired(ctx context.Context) (int, error) {
	deleted, err := s.codes.DeleteExpired(ctx, requestcontext.Now(ctx))
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeInternal, "failed to sweep expired codes")
	}
	s.metrics.RecordSwept(deleted)
	return deleted, nil
}

func lockoutKey(subjectID id.SubjectID, channel models.Channel) string {
	return subjectID.String() + ":" + string(channel)
}

func (s *Service) logAudit(ctx context.Context, event string, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", event, "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, event, args...)
	}
	if s.auditPublisher == nil {
		return
	}
	subjectID := attrs.ExtractString(attributes, "subject_id")
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		SubjectID: subjectID,
		Actor:     subjectID,
		Action:    event,
		Outcome:   attrs.ExtractString(attributes, "result"),
	})
}
