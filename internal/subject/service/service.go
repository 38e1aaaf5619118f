// Package service exposes credential operations on the subject profile:
// re-authentication and the mutations applied when a verification code is
// consumed.
package service

import (
	"context"
	"errors"

	"vitrina/internal/subject/models"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
	"vitrina/pkg/platform/sentinel"
	"vitrina/pkg/requestcontext"
	"vitrina/pkg/secrets"
)

// Store is the subject persistence boundary.
type Store interface {
	Create(ctx context.Context, subject *models.Subject) error
	FindByID(ctx context.Context, subjectID id.SubjectID) (*models.Subject, error)
	Execute(ctx context.Context, subjectID id.SubjectID, validate func(*models.Subject) error, mutate func(*models.Subject)) (*models.Subject, error)
}

// Service wraps the store with credential logic.
type Service struct {
	subjects Store
}

// New constructs a subject service.
func New(subjects Store) *Service {
	return &Service{subjects: subjects}
}

// Register creates a subject with a hashed password. Used by seeding and
// tests; account signup UX is outside this core.
func (s *Service) Register(ctx context.Context, subjectID id.SubjectID, email, password string) (*models.Subject, error) {
	hash, err := secrets.Hash(password)
	if err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	subject := &models.Subject{
		ID:           subjectID,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.subjects.Create(ctx, subject); err != nil {
		if errors.Is(err, sentinel.ErrConflict) {
			return nil, dErrors.New(dErrors.CodeConflict, "subject already exists")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create subject")
	}
	return subject, nil
}

// Get returns the subject profile.
func (s *Service) Get(ctx context.Context, subjectID id.SubjectID) (*models.Subject, error) {
	subject, err := s.subjects.FindByID(ctx, subjectID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "subject not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load subject")
	}
	return subject, nil
}

// VerifyCurrentCredential re-authenticates the subject with their current
// password. The email channel requires this before issuing a code, since
// email is also the account recovery channel.
func (s *Service) VerifyCurrentCredential(ctx context.Context, subjectID id.SubjectID, password string) error {
	subject, err := s.Get(ctx, subjectID)
	if err != nil {
		return err
	}
	return secrets.Verify(password, subject.PasswordHash)
}

// ApplyPhoneVerified marks the confirmed phone on the profile.
func (s *Service) ApplyPhoneVerified(ctx context.Context, subjectID id.SubjectID, phone string) error {
	now := requestcontext.Now(ctx)
	_, err := s.subjects.Execute(ctx, subjectID, nil, func(subject *models.Subject) {
		subject.ApplyPhoneVerified(phone, now)
	})
	return translateExecuteErr(err)
}

// ApplyEmailChange swaps the credential email for the confirmed address.
func (s *Service) ApplyEmailChange(ctx context.Context, subjectID id.SubjectID, newEmail string) error {
	now := requestcontext.Now(ctx)
	_, err := s.subjects.Execute(ctx, subjectID, nil, func(subject *models.Subject) {
		subject.ApplyEmailChange(newEmail, now)
	})
	return translateExecuteErr(err)
}

func translateExecuteErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "subject not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update subject")
}
