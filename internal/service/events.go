package service

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/calldeck/calldeck/internal/domain/event"
	"github.com/calldeck/calldeck/internal/port/eventstore"
	"github.com/calldeck/calldeck/internal/port/messagequeue"
)

// appendEvent records an audit event. The audit log is advisory: failures
// are logged and never abort the operation that produced them.
func appendEvent(ctx context.Context, store eventstore.Store, caseID string, typ event.Type, actor string, payload any) {
	if store == nil {
		return
	}

	var raw json.RawMessage
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			slog.Error("marshal event payload", "case_id", caseID, "type", typ, "error", err)
			return
		}
		raw = data
	}

	ev := &event.CaseEvent{
		ID:        uuid.NewString(),
		CaseID:    caseID,
		Type:      typ,
		Actor:     actor,
		Payload:   raw,
		CreatedAt: time.Now().UTC(),
	}
	if err := store.Append(ctx, ev); err != nil {
		slog.Error("append case event", "case_id", caseID, "type", typ, "error", err)
	}
}

// publishJSON marshals payload and publishes it on the queue. Queue failures
// are logged; the case state in Postgres stays authoritative.
func publishJSON(ctx context.Context, queue messagequeue.Queue, subject string, payload any) {
	if queue == nil {
		return
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("marshal queue payload", "subject", subject, "error", err)
		return
	}
	if err := queue.Publish(ctx, subject, data); err != nil {
		slog.Warn("queue publish failed", "subject", subject, "error", err)
	}
}
