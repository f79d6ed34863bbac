// Package crm defines the CRM synchronization port (interface). The core
// never fabricates CRM responses; real integrations and the no-op test
// implementation both live behind this boundary.
package crm

import (
	"context"
	"errors"
)

// ErrNotConfigured is returned when a CRM adapter is missing required settings.
var ErrNotConfigured = errors.New("crm: not configured")

// Lead is the record pushed to the CRM when an approved case represents a
// sales opportunity.
type Lead struct {
	CaseID        string  `json:"case_id"`
	CustomerName  string  `json:"customer_name"`
	Organization  string  `json:"organization,omitempty"`
	Source        string  `json:"source"`
	Priority      string  `json:"priority"`
	RiskLevel     string  `json:"risk_level"`
	Opportunity   string  `json:"opportunity_level"`
	Summary       string  `json:"summary"`
	AssignedTeam  string  `json:"assigned_team"`
	SentimentNote float64 `json:"sentiment_score"`
}

// FollowUpTask is an activity created in the CRM for the owning team.
type FollowUpTask struct {
	CaseID      string `json:"case_id"`
	Subject     string `json:"subject"`
	Description string `json:"description"`
	Priority    string `json:"priority"`
	AssignedTo  string `json:"assigned_to"`
	DueInHours  int    `json:"due_in_hours"`
}

// Connector is the port interface for CRM synchronization.
type Connector interface {
	// Name returns the unique identifier for this connector (e.g. "webhook", "noop").
	Name() string

	// CreateLead pushes a lead and returns the CRM-assigned identifier.
	CreateLead(ctx context.Context, lead Lead) (string, error)

	// CreateFollowUpTask creates a follow-up activity and returns its identifier.
	CreateFollowUpTask(ctx context.Context, task FollowUpTask) (string, error)
}
