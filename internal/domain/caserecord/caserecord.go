// Package caserecord defines the Case Record aggregate: one persisted record
// per processed call, tying the signal bundle, the final decision and the
// human-approval lifecycle together.
package caserecord

import (
	"time"

	"github.com/calldeck/calldeck/internal/domain/decision"
	"github.com/calldeck/calldeck/internal/domain/signal"
)

// Status is the approval state of a case. pending_approval is the initial
// state; approved and rejected are terminal.
type Status string

const (
	StatusPending  Status = "pending_approval"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Terminal reports whether no further transition exists out of this status.
func (s Status) Terminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Valid reports whether s is a known approval status.
func (s Status) Valid() bool {
	return s == StatusPending || s.Terminal()
}

// ReminderKind distinguishes reminder notifications in the history.
type ReminderKind string

const (
	ReminderFollowUp ReminderKind = "follow_up"
	ReminderUrgent   ReminderKind = "urgent"
)

// Reminder is one entry in a case's reminder history. Entries are appended
// only after the notification gateway reported success.
type Reminder struct {
	SentAt    time.Time    `json:"sent_at"`
	Kind      ReminderKind `json:"kind"`
	Recipient string       `json:"recipient"`
}

// Record is the persisted case aggregate. It is created once at the end of a
// decision-engine run and mutated only by an explicit re-decide, an approval
// transition, or a reminder-history append. The core never deletes it.
type Record struct {
	ID      string `json:"id"`
	CallRef string `json:"call_ref"` // upstream reference, e.g. the recording filename

	Bundle   signal.Bundle          `json:"bundle"`
	Decision decision.FinalDecision `json:"decision"`

	ApprovalStatus Status     `json:"approval_status"`
	ApprovalNotes  string     `json:"approval_notes,omitempty"`
	ReviewedBy     string     `json:"reviewed_by,omitempty"`
	ReviewedAt     *time.Time `json:"reviewed_at,omitempty"`

	Reminders []Reminder `json:"reminders,omitempty"`

	Version   int       `json:"version"`
	CreatedAt time.Time `json:"created_at"` // fixes the SLA clock start
	UpdatedAt time.Time `json:"updated_at"`
}

// LastReminderAt returns the timestamp of the most recent reminder, or the
// zero time when none was ever sent.
func (r *Record) LastReminderAt() time.Time {
	if len(r.Reminders) == 0 {
		return time.Time{}
	}
	return r.Reminders[len(r.Reminders)-1].SentAt
}

// Transition holds the inputs of a human approval action.
type Transition struct {
	Actor string `json:"actor"`
	Notes string `json:"notes,omitempty"`
}

// DashboardMetrics aggregates case counts for the operational dashboard.
type DashboardMetrics struct {
	TotalCases    int            `json:"total_cases"`
	ByStatus      map[string]int `json:"by_status"`
	ByPriority    map[string]int `json:"by_priority"`
	AvgPriority   float64        `json:"avg_priority"`
	AvgConfidence float64        `json:"avg_confidence"`
	Escalations   int            `json:"escalations"`
}
