// Package eventstore defines the port interface for the append-only case audit log.
package eventstore

import (
	"context"

	"github.com/calldeck/calldeck/internal/domain/event"
)

// Store is the port interface for appending and loading case events.
type Store interface {
	// Append persists a new event. The log is append-only; events are never
	// updated or deleted.
	Append(ctx context.Context, ev *event.CaseEvent) error

	// ListByCase returns all events for the given case, oldest first.
	ListByCase(ctx context.Context, caseID string) ([]event.CaseEvent, error)
}
