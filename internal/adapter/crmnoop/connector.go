// Package crmnoop provides a no-op CRM connector for deployments without a
// CRM integration and for tests.
package crmnoop

import (
	"context"
	"log/slog"

	"github.com/calldeck/calldeck/internal/port/crm"
)

// Connector implements crm.Connector by logging and discarding requests.
type Connector struct{}

// NewConnector creates a no-op connector.
func NewConnector() *Connector { return &Connector{} }

func (*Connector) Name() string { return "noop" }

// CreateLead logs the lead and reports an empty identifier.
func (*Connector) CreateLead(_ context.Context, lead crm.Lead) (string, error) {
	slog.Debug("crm noop: lead discarded", "case_id", lead.CaseID)
	return "", nil
}

// CreateFollowUpTask logs the task and reports an empty identifier.
func (*Connector) CreateFollowUpTask(_ context.Context, task crm.FollowUpTask) (string, error) {
	slog.Debug("crm noop: task discarded", "case_id", task.CaseID)
	return "", nil
}
