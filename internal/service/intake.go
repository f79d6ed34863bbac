package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	appotel "github.com/calldeck/calldeck/internal/adapter/otel"
	"github.com/calldeck/calldeck/internal/domain/caserecord"
	"github.com/calldeck/calldeck/internal/domain/decision"
	"github.com/calldeck/calldeck/internal/domain/event"
	"github.com/calldeck/calldeck/internal/domain/signal"
	"github.com/calldeck/calldeck/internal/port/cache"
	"github.com/calldeck/calldeck/internal/port/database"
	"github.com/calldeck/calldeck/internal/port/eventstore"
	"github.com/calldeck/calldeck/internal/port/messagequeue"
	"github.com/calldeck/calldeck/internal/port/notifier"
)

// IntakeService runs the decision engine over incoming call signal bundles
// and persists the resulting case.
type IntakeService struct {
	engine  *decision.Engine
	store   database.Store
	events  eventstore.Store
	queue   messagequeue.Queue
	cache   cache.Cache
	notify  *NotificationService
	metrics *appotel.Metrics
}

// NewIntakeService creates an IntakeService. events, queue, cache, notify and
// metrics may be nil; the corresponding side effects are skipped.
func NewIntakeService(
	engine *decision.Engine,
	store database.Store,
	events eventstore.Store,
	queue messagequeue.Queue,
	c cache.Cache,
	notify *NotificationService,
	metrics *appotel.Metrics,
) *IntakeService {
	return &IntakeService{
		engine:  engine,
		store:   store,
		events:  events,
		queue:   queue,
		cache:   c,
		notify:  notify,
		metrics: metrics,
	}
}

// ProcessCall decides a signal bundle and creates the pending case record.
// Validation failures surface as domain.ErrValidation; nothing is persisted
// for an invalid bundle.
func (s *IntakeService) ProcessCall(ctx context.Context, callRef string, bundle signal.Bundle) (*caserecord.Record, error) {
	ctx, span := appotel.StartDecideSpan(ctx, callRef, string(bundle.Intent))
	defer span.End()

	start := time.Now()
	d, err := s.engine.Decide(&bundle)
	if err != nil {
		return nil, fmt.Errorf("decide call %s: %w", callRef, err)
	}
	s.recordDecideMetrics(ctx, time.Since(start), d)

	now := time.Now().UTC()
	rec := &caserecord.Record{
		ID:             uuid.NewString(),
		CallRef:        callRef,
		Bundle:         bundle,
		Decision:       *d,
		ApprovalStatus: caserecord.StatusPending,
		Reminders:      []caserecord.Reminder{},
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.store.CreateCase(ctx, rec); err != nil {
		return nil, fmt.Errorf("create case for call %s: %w", callRef, err)
	}

	appendEvent(ctx, s.events, rec.ID, event.TypeCaseCreated, "", d)
	publishJSON(ctx, s.queue, messagequeue.SubjectCaseCreated, messagequeue.CaseCreatedPayload{
		CaseID:        rec.ID,
		CallRef:       rec.CallRef,
		PriorityScore: d.PriorityScore,
		PriorityLevel: string(d.PriorityLevel),
		AssignedTeam:  d.AssignedTeam,
		Escalation:    d.EscalationRequired,
	})
	s.alertOnEscalation(ctx, rec)

	return rec, nil
}

// Redecide reruns the engine over a stored bundle and replaces the decision.
// The approval state is untouched; a terminal case can still be re-decided
// for audit purposes.
func (s *IntakeService) Redecide(ctx context.Context, id string) (*caserecord.Record, error) {
	rec, err := s.store.GetCase(ctx, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	d, err := s.engine.Decide(&rec.Bundle)
	if err != nil {
		return nil, fmt.Errorf("redecide case %s: %w", id, err)
	}
	s.recordDecideMetrics(ctx, time.Since(start), d)

	updated, err := s.store.UpdateDecision(ctx, id, *d)
	if err != nil {
		return nil, fmt.Errorf("update decision for case %s: %w", id, err)
	}

	s.invalidate(ctx, id)
	appendEvent(ctx, s.events, id, event.TypeCaseRedecided, "", d)
	return updated, nil
}

// alertOnEscalation pushes a best-effort notification for cases that need
// immediate attention. Delivery failures never fail the intake.
func (s *IntakeService) alertOnEscalation(ctx context.Context, rec *caserecord.Record) {
	if s.notify == nil {
		return
	}
	d := rec.Decision
	if !d.EscalationRequired && d.PriorityLevel != decision.PriorityUrgent {
		return
	}

	level := "warning"
	if d.PriorityLevel == decision.PriorityUrgent {
		level = "urgent"
	}
	s.notify.Broadcast(ctx, notifier.Notification{
		Subject: fmt.Sprintf("New %s priority case: %s", d.PriorityLevel, rec.CallRef),
		Body: fmt.Sprintf("%s\nScore %d, assigned to %s.",
			rec.Bundle.Narrative.SummaryShort, d.PriorityScore, d.AssignedTeam),
		Level:  level,
		Source: string(event.TypeCaseCreated),
	})
}

func (s *IntakeService) recordDecideMetrics(ctx context.Context, elapsed time.Duration, d *decision.FinalDecision) {
	if s.metrics == nil {
		return
	}
	s.metrics.CasesDecided.Add(ctx, 1)
	s.metrics.DecideDuration.Record(ctx, elapsed.Seconds())
	s.metrics.PriorityScore.Record(ctx, float64(d.PriorityScore))
}

func (s *IntakeService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	_ = s.cache.Delete(ctx, caseCacheKey(id))
}
