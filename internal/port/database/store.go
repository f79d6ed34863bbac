// Package database defines the case store port (interface).
package database

import (
	"context"
	"time"

	"github.com/calldeck/calldeck/internal/domain/caserecord"
	"github.com/calldeck/calldeck/internal/domain/decision"
)

// Store is the port interface for case persistence. The implementation must
// provide at least per-record atomic updates; the core assumes nothing more.
type Store interface {
	// CreateCase persists a new case record.
	CreateCase(ctx context.Context, rec *caserecord.Record) error

	// GetCase returns a case with its reminder history, or domain.ErrNotFound.
	GetCase(ctx context.Context, id string) (*caserecord.Record, error)

	// ListCases returns cases, newest first, optionally filtered by status.
	// An empty status means no filter. limit <= 0 applies the store default.
	ListCases(ctx context.Context, status caserecord.Status, limit int) ([]caserecord.Record, error)

	// ListPendingCases returns every case still awaiting approval, with
	// reminder history loaded. Used by the reminder scheduler; terminal
	// cases must never appear in the result.
	ListPendingCases(ctx context.Context) ([]caserecord.Record, error)

	// UpdateDecision replaces the stored decision after an explicit re-run
	// of the engine. Approval state is untouched.
	UpdateDecision(ctx context.Context, id string, d decision.FinalDecision) (*caserecord.Record, error)

	// TransitionApproval atomically moves a pending case to a terminal
	// status. It fails with domain.ErrInvalidTransition when the case is no
	// longer pending and domain.ErrNotFound when the id is unknown; under
	// concurrent calls exactly one caller wins.
	TransitionApproval(ctx context.Context, id string, to caserecord.Status, tr caserecord.Transition, at time.Time) (*caserecord.Record, error)

	// AppendReminder records a successfully delivered reminder.
	AppendReminder(ctx context.Context, caseID string, r caserecord.Reminder) error

	// DashboardMetrics aggregates case counts for the operational dashboard.
	DashboardMetrics(ctx context.Context) (*caserecord.DashboardMetrics, error)
}
