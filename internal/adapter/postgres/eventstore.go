package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/calldeck/calldeck/internal/domain/event"
)

// EventStore implements eventstore.Store using PostgreSQL (append-only).
type EventStore struct {
	pool *pgxpool.Pool
}

// NewEventStore creates a new EventStore backed by the given connection pool.
func NewEventStore(pool *pgxpool.Pool) *EventStore {
	return &EventStore{pool: pool}
}

// Append inserts a new event into the case_events table.
func (s *EventStore) Append(ctx context.Context, ev *event.CaseEvent) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO case_events (id, case_id, event_type, actor, payload, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		ev.ID, ev.CaseID, string(ev.Type), ev.Actor, ev.Payload, ev.CreatedAt)
	if err != nil {
		return fmt.Errorf("append event: %w", err)
	}
	return nil
}

// ListByCase returns all events for the given case, oldest first.
func (s *EventStore) ListByCase(ctx context.Context, caseID string) ([]event.CaseEvent, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, case_id, event_type, actor, payload, created_at
		 FROM case_events WHERE case_id = $1 ORDER BY created_at ASC`, caseID)
	if err != nil {
		return nil, fmt.Errorf("list events for case %s: %w", caseID, err)
	}
	defer rows.Close()

	var result []event.CaseEvent
	for rows.Next() {
		var ev event.CaseEvent
		if err := rows.Scan(&ev.ID, &ev.CaseID, &ev.Type, &ev.Actor, &ev.Payload, &ev.CreatedAt); err != nil {
			return nil, err
		}
		result = append(result, ev)
	}
	return result, rows.Err()
}
