// Package event defines the CaseEvent domain entity for the append-only audit log.
package event

import (
	"encoding/json"
	"time"
)

// Type identifies the kind of case event.
type Type string

const (
	TypeCaseCreated   Type = "case.created"
	TypeCaseRedecided Type = "case.redecided"
	TypeCaseApproved  Type = "case.approved"
	TypeCaseRejected  Type = "case.rejected"
	TypeReminderSent  Type = "case.reminder_sent"
)

// CaseEvent is a single immutable entry in a case's audit trail.
type CaseEvent struct {
	ID        string          `json:"id"`
	CaseID    string          `json:"case_id"`
	Type      Type            `json:"type"`
	Actor     string          `json:"actor,omitempty"` // empty for system-generated events
	Payload   json.RawMessage `json:"payload,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}
