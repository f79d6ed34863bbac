// Package crmhttp implements the CRM connector port against a generic
// JSON-over-HTTP CRM intake endpoint.
package crmhttp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/calldeck/calldeck/internal/config"
	"github.com/calldeck/calldeck/internal/port/crm"
)

const providerName = "webhook"

// Connector pushes leads and tasks to a configured CRM endpoint.
type Connector struct {
	endpoint   string
	apiKey     string
	httpClient *http.Client
}

// NewConnector creates a connector from CRM config.
func NewConnector(cfg config.CRM) *Connector {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Connector{
		endpoint:   cfg.Endpoint,
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Connector) Name() string { return providerName }

// CreateLead pushes a lead and returns the CRM-assigned identifier.
func (c *Connector) CreateLead(ctx context.Context, lead crm.Lead) (string, error) {
	return c.post(ctx, "/leads", lead)
}

// CreateFollowUpTask creates a follow-up activity and returns its identifier.
func (c *Connector) CreateFollowUpTask(ctx context.Context, task crm.FollowUpTask) (string, error) {
	return c.post(ctx, "/tasks", task)
}

// crmResponse is the minimal shape expected back from the CRM endpoint.
type crmResponse struct {
	ID string `json:"id"`
}

func (c *Connector) post(ctx context.Context, path string, payload any) (string, error) {
	if c.endpoint == "" {
		return "", crm.ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("crm: marshal payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+path, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("crm: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("crm: post %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("crm: endpoint returned %d: %s", resp.StatusCode, string(msg))
	}

	var parsed crmResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("crm: decode response: %w", err)
	}
	return parsed.ID, nil
}
