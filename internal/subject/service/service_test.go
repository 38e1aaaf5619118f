package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vitrina/internal/subject/store"
	id "vitrina/pkg/domain"
	dErrors "vitrina/pkg/domain-errors"
	"vitrina/pkg/requestcontext"
)

func testContext() context.Context {
	return requestcontext.WithTime(context.Background(), time.Now().UTC())
}

func TestRegisterAndReauthenticate(t *testing.T) {
	svc := New(store.NewInMemory())
	ctx := testContext()
	subjectID := id.NewSubjectID()

	subject, err := svc.Register(ctx, subjectID, "owner@example.com", "correct horse battery")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse battery", subject.PasswordHash)

	assert.NoError(t, svc.VerifyCurrentCredential(ctx, subjectID, "correct horse battery"))

	err = svc.VerifyCurrentCredential(ctx, subjectID, "wrong password")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
}

func TestRegisterTwiceConflicts(t *testing.T) {
	svc := New(store.NewInMemory())
	ctx := testContext()
	subjectID := id.NewSubjectID()

	_, err := svc.Register(ctx, subjectID, "owner@example.com", "correct horse battery")
	require.NoError(t, err)

	_, err = svc.Register(ctx, subjectID, "owner@example.com", "another password")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict))
}

func TestApplyConfirmedChanges(t *testing.T) {
	svc := New(store.NewInMemory())
	ctx := testContext()
	subjectID := id.NewSubjectID()

	_, err := svc.Register(ctx, subjectID, "owner@example.com", "correct horse battery")
	require.NoError(t, err)

	require.NoError(t, svc.ApplyPhoneVerified(ctx, subjectID, "+5511999990000"))
	require.NoError(t, svc.ApplyEmailChange(ctx, subjectID, "new@example.com"))

	subject, err := svc.Get(ctx, subjectID)
	require.NoError(t, err)
	assert.Equal(t, "+5511999990000", subject.Phone)
	assert.True(t, subject.PhoneVerified)
	assert.Equal(t, "new@example.com", subject.Email)

	// The hash is untouched by contact changes.
	assert.NoError(t, svc.VerifyCurrentCredential(ctx, subjectID, "correct horse battery"))
}

func TestUnknownSubject(t *testing.T) {
	svc := New(store.NewInMemory())
	ctx := testContext()

	_, err := svc.Get(ctx, id.NewSubjectID())
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))

	err = svc.ApplyPhoneVerified(ctx, id.NewSubjectID(), "+5511999990000")
	require.Error(t, err)
	assert.True(t, dErrors.HasCode(err, dErrors.CodeNotFound))
}
