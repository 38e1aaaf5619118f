// Package client implements the HTTP client for the external business
// registry. The registry is rate-limited and outside our control, so the
// client classifies failures precisely: a 404 is a fact about the number,
// everything else network-shaped is a retryable outage.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"vitrina/internal/registry/models"
	"vitrina/pkg/platform/sentinel"
)

// Client performs lookups against the external registry service.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// New constructs a registry client.
func New(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Lookup resolves an already locally-validated business number to its
// canonical registry record. Returns sentinel.ErrNotFound when the registry
// has no entry and sentinel.ErrUnavailable (wrapped) for transient failures.
func (c *Client) Lookup(ctx context.Context, identityNumber string) (*models.Record, error) {
	url := fmt.Sprintf("%s/v1/companies/%s", c.baseURL, identityNumber)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build registry request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w: %w", sentinel.ErrUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read registry response: %w: %w", sentinel.ErrUnavailable, err)
	}

	return parseLookupResponse(resp.StatusCode, body)
}

// registryResponse is the wire shape returned by the registry service.
type registryResponse struct {
	IdentityNumber string `json:"identity_number"`
	LegalName      string `json:"legal_name"`
	TradeName      string `json:"trade_name"`
	ActivityCode   string `json:"primary_activity_code"`
	Status         string `json:"registration_status"`
	Address        struct {
		Street     string `json:"street"`
		Number     string `json:"number"`
		District   string `json:"district"`
		City       string `json:"city"`
		State      string `json:"state"`
		PostalCode string `json:"postal_code"`
	} `json:"registered_address"`
	CheckedAt string `json:"checked_at"`
}

func parseLookupResponse(status int, body []byte) (*models.Record, error) {
	switch {
	case status == http.StatusOK:
		// fallthrough to parse
	case status == http.StatusNotFound:
		return nil, fmt.Errorf("registry has no entry: %w", sentinel.ErrNotFound)
	case status == http.StatusTooManyRequests || status >= 500:
		return nil, fmt.Errorf("registry returned status %d: %w", status, sentinel.ErrUnavailable)
	default:
		return nil, fmt.Errorf("registry returned unexpected status %d: %w", status, sentinel.ErrUnavailable)
	}

	var parsed registryResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("parse registry response: %w: %w", sentinel.ErrUnavailable, err)
	}

	checkedAt, err := time.Parse(time.RFC3339, parsed.CheckedAt)
	if err != nil {
		// The snapshot time is informational; fall back to now rather than
		// failing the whole lookup.
		checkedAt = time.Now().UTC()
	}

	return &models.Record{
		IdentityNumber: parsed.IdentityNumber,
		LegalName:      parsed.LegalName,
		TradeName:      parsed.TradeName,
		ActivityCode:   parsed.ActivityCode,
		Status:         parsed.Status,
		Street:         parsed.Address.Street,
		Number:         parsed.Address.Number,
		District:       parsed.Address.District,
		City:           parsed.Address.City,
		State:          parsed.Address.State,
		PostalCode:     parsed.Address.PostalCode,
		CheckedAt:      checkedAt,
	}, nil
}
