package handler

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"vitrina/internal/document/objectstore"
	documentservice "vitrina/internal/document/service"
	documentstore "vitrina/internal/document/store"
	"vitrina/internal/onboarding/service"
	onboardingstore "vitrina/internal/onboarding/store"
	providerservice "vitrina/internal/provider/service"
	providerstore "vitrina/internal/provider/store"
	registrymodels "vitrina/internal/registry/models"
	id "vitrina/pkg/domain"
	"vitrina/pkg/requestcontext"
)

const (
	validPersonalNumber = "111.444.777-35"
	validBusinessNumber = "11.222.333/0001-81"
)

type staticResolver struct {
	outcome registrymodels.Outcome
}

func (r *staticResolver) Resolve(ctx context.Context, rawNumber string) (registrymodels.Outcome, error) {
	return r.outcome, nil
}

func TestIndividualOnboardingFlowViaHandlers(t *testing.T) {
	router := newOnboardingRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/onboarding", map[string]string{"kind": "individual"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 starting draft, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPut, "/onboarding/identity", map[string]string{
		"identity_number": validPersonalNumber,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on identity step, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPut, "/onboarding/profile", map[string]string{
		"legal_name":    "Maria Dias",
		"contact_email": "maria@example.com",
		"contact_phone": "+5511999990000",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on profile step, got %d: %s", rec.Code, rec.Body.String())
	}

	for _, docType := range []string{"identity_card", "selfie_with_document"} {
		rec = doJSON(t, router, http.MethodPost, "/onboarding/documents", map[string]string{
			"type":         docType,
			"content":      base64.StdEncoding.EncodeToString([]byte("fake image bytes")),
			"content_type": "image/jpeg",
		})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 staging %s, got %d: %s", docType, rec.Code, rec.Body.String())
		}
	}

	for _, clause := range []string{"terms_of_use", "liability_declaration", "data_processing"} {
		rec = doJSON(t, router, http.MethodPost, "/onboarding/consents", map[string]string{"clause": clause})
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200 accepting %s, got %d: %s", clause, rec.Code, rec.Body.String())
		}
	}

	rec = doJSON(t, router, http.MethodPost, "/onboarding/submit", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 submitting, got %d: %s", rec.Code, rec.Body.String())
	}
	var provider struct {
		ID     string `json:"id"`
		Status string `json:"verification_status"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&provider); err != nil {
		t.Fatalf("failed to decode provider response: %v", err)
	}
	if provider.ID == "" {
		t.Fatalf("expected a provider id in the response")
	}
	if provider.Status != "under_review" {
		t.Fatalf("expected under_review after a complete submission, got %q", provider.Status)
	}
}

func TestSubmitIncompleteDraftListsMissingFields(t *testing.T) {
	router := newOnboardingRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/onboarding", map[string]string{"kind": "individual"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 starting draft, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodPut, "/onboarding/identity", map[string]string{
		"identity_number": validPersonalNumber,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 on identity step, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/onboarding/submit", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 submitting incomplete draft, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Error   string `json:"error"`
		Missing []struct {
			Field  string `json:"field"`
			Reason string `json:"reason"`
		} `json:"missing"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode incomplete response: %v", err)
	}
	if resp.Error != "validation" {
		t.Fatalf("expected validation error, got %q", resp.Error)
	}
	if len(resp.Missing) == 0 {
		t.Fatalf("expected a structured list of missing fields")
	}
	fields := map[string]bool{}
	for _, m := range resp.Missing {
		if m.Reason == "" {
			t.Fatalf("expected a reason for missing field %q", m.Field)
		}
		fields[m.Field] = true
	}
	if !fields["documents.identity_card"] || !fields["documents.selfie_with_document"] {
		t.Fatalf("expected missing document entries, got %v", fields)
	}
}

func TestBusinessIdentityStepWarnsOnInactiveRegistration(t *testing.T) {
	record := &registrymodels.Record{
		IdentityNumber: "11222333000181",
		LegalName:      "Acme Servicos Ltda",
		Status:         registrymodels.RegistrationInactive,
	}
	router := newOnboardingRouterWith(t, &staticResolver{outcome: registrymodels.Resolved(record)})

	rec := doJSON(t, router, http.MethodPost, "/onboarding", map[string]string{"kind": "business"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 starting draft, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, "/onboarding/identity", map[string]string{
		"identity_number": validBusinessNumber,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 despite inactive registration, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp struct {
		Warning string `json:"warning"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode identity response: %v", err)
	}
	if resp.Warning == "" {
		t.Fatalf("expected a warning for an inactive registration")
	}
}

func TestBusinessIdentityStepBlocksOnNotFound(t *testing.T) {
	router := newOnboardingRouterWith(t, &staticResolver{outcome: registrymodels.NotFound()})

	rec := doJSON(t, router, http.MethodPost, "/onboarding", map[string]string{"kind": "business"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201 starting draft, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPut, "/onboarding/identity", map[string]string{
		"identity_number": validBusinessNumber,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for a number the registry does not know, got %d", rec.Code)
	}
}

func newOnboardingRouter(t *testing.T) http.Handler {
	t.Helper()
	record := &registrymodels.Record{
		IdentityNumber: "11222333000181",
		LegalName:      "Acme Servicos Ltda",
		Status:         registrymodels.RegistrationActive,
	}
	return newOnboardingRouterWith(t, &staticResolver{outcome: registrymodels.Resolved(record)})
}

func newOnboardingRouterWith(t *testing.T, resolver service.RegistryResolver) http.Handler {
	t.Helper()

	providers := providerservice.New(providerstore.NewInMemory())
	documents := documentservice.New(documentstore.NewInMemory(), objectstore.NewInMemory(), providers)
	svc := service.New(onboardingstore.NewInMemory(), resolver, documents, providers)
	logger := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))

	h := New(svc, logger)
	r := chi.NewRouter()
	r.Use(testIdentity(id.NewSubjectID()))
	h.Register(r)
	return r
}

func testIdentity(subjectID id.SubjectID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithSubjectID(r.Context(), subjectID)
			ctx = requestcontext.WithTime(ctx, time.Now().UTC())
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func doJSON(t *testing.T, router http.Handler, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		if err != nil {
			t.Fatalf("failed to marshal payload: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}
