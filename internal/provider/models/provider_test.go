package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	dErrors "vitrina/pkg/domain-errors"
)

func TestInitialStatus(t *testing.T) {
	tests := []struct {
		name            string
		profileComplete bool
		docsMissing     bool
		want            Status
	}{
		{"incomplete profile", false, true, StatusPendingProfile},
		{"incomplete profile even with documents", false, false, StatusPendingProfile},
		{"complete profile, documents missing", true, true, StatusPendingDocuments},
		{"everything present", true, false, StatusUnderReview},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InitialStatus(tt.profileComplete, tt.docsMissing))
		})
	}
}

func TestStatusTransitions(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	t.Run("pending_documents advances to under_review", func(t *testing.T) {
		p := &Provider{Status: StatusPendingDocuments}
		require.NoError(t, p.ApplyAdvanceToReview(now))
		assert.Equal(t, StatusUnderReview, p.Status)
		assert.Equal(t, now, p.UpdatedAt)
	})

	t.Run("review verifies", func(t *testing.T) {
		p := &Provider{Status: StatusUnderReview, RejectionReason: "stale"}
		require.NoError(t, p.ApplyReview(DecisionVerify, "", now))
		assert.Equal(t, StatusVerified, p.Status)
		assert.Empty(t, p.RejectionReason, "verify clears any prior reason")
	})

	t.Run("review rejects with reason", func(t *testing.T) {
		p := &Provider{Status: StatusUnderReview}
		require.NoError(t, p.ApplyReview(DecisionReject, "illegible identity card", now))
		assert.Equal(t, StatusRejected, p.Status)
		assert.Equal(t, "illegible identity card", p.RejectionReason)
	})

	t.Run("rejected re-enters pending_documents on upload", func(t *testing.T) {
		p := &Provider{Status: StatusRejected, RejectionReason: "blurry"}
		require.NoError(t, p.ApplyDocumentResubmission(now))
		assert.Equal(t, StatusPendingDocuments, p.Status)
		assert.Empty(t, p.RejectionReason)
	})

	t.Run("review outside under_review is a conflict", func(t *testing.T) {
		for _, status := range []Status{StatusPendingProfile, StatusPendingDocuments, StatusVerified, StatusRejected} {
			p := &Provider{Status: status}
			err := p.ApplyReview(DecisionVerify, "", now)
			assert.True(t, dErrors.HasCode(err, dErrors.CodeConflict), "status %s", status)
			assert.Equal(t, status, p.Status, "failed transition must not mutate")
		}
	})
}

// Every transition helper applied to every status: only the documented
// edges may change the status, and verified never regresses.
func TestStatusMonotonicity(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	all := []Status{StatusPendingProfile, StatusPendingDocuments, StatusUnderReview, StatusVerified, StatusRejected}

	for _, status := range all {
		t.Run(string(status), func(t *testing.T) {
			advance := &Provider{Status: status}
			if err := advance.ApplyAdvanceToReview(now); err != nil {
				assert.Equal(t, status, advance.Status)
			} else {
				assert.Equal(t, StatusPendingDocuments, status)
			}

			resubmit := &Provider{Status: status}
			if err := resubmit.ApplyDocumentResubmission(now); err != nil {
				assert.Equal(t, status, resubmit.Status)
			} else {
				assert.Equal(t, StatusRejected, status)
			}

			if status == StatusVerified {
				assert.Equal(t, StatusVerified, advance.Status)
				assert.Equal(t, StatusVerified, resubmit.Status)
			}
		})
	}
}

func TestActivationIndependentOfVerification(t *testing.T) {
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	p := &Provider{Status: StatusVerified, IsActive: true}

	p.ApplyActivation(false, now)
	assert.False(t, p.IsActive)
	assert.Equal(t, StatusVerified, p.Status, "deactivation must not touch verification")
}

func TestParseHelpers(t *testing.T) {
	_, err := ParseKind("cooperative")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseStatus("archived")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	_, err = ParseReviewDecision("maybe")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeInvalidInput))

	kind, err := ParseKind("business")
	require.NoError(t, err)
	assert.Equal(t, KindBusiness, kind)
}
