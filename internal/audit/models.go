package audit

import "time"

// Event is emitted from domain logic to capture key actions. Keep it
// transport-agnostic so stores and sinks can fan out.
type Event struct {
	Timestamp time.Time `json:"timestamp"`
	SubjectID string    `json:"subject_id"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Resource  string    `json:"resource,omitempty"`
	Outcome   string    `json:"outcome,omitempty"`
	Reason    string    `json:"reason,omitempty"`
}

// EventName identifies a recorded action.
type EventName string

const (
	EventCodeIssued            EventName = "verification.code_issued"
	EventCodeConsumed          EventName = "verification.code_consumed"
	EventCodeAttemptFailed     EventName = "verification.attempt_failed"
	EventCodeLocked            EventName = "verification.locked"
	EventDocumentSubmitted     EventName = "document.submitted"
	EventDocumentReviewed      EventName = "document.reviewed"
	EventProviderCreated       EventName = "provider.created"
	EventProviderStatusChanged EventName = "provider.status_changed"
	EventOnboardingStarted     EventName = "onboarding.started"
	EventOnboardingSubmitted   EventName = "onboarding.submitted"
	EventConsentRecorded       EventName = "onboarding.consent_recorded"
)
