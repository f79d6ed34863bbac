package service

import (
	"context"
	"fmt"
	"time"

	appotel "github.com/calldeck/calldeck/internal/adapter/otel"
	"github.com/calldeck/calldeck/internal/domain"
	"github.com/calldeck/calldeck/internal/domain/caserecord"
	"github.com/calldeck/calldeck/internal/domain/event"
	"github.com/calldeck/calldeck/internal/port/cache"
	"github.com/calldeck/calldeck/internal/port/database"
	"github.com/calldeck/calldeck/internal/port/eventstore"
	"github.com/calldeck/calldeck/internal/port/messagequeue"
)

// ApprovalService owns the pending -> approved/rejected state machine.
type ApprovalService struct {
	store   database.Store
	events  eventstore.Store
	queue   messagequeue.Queue
	cache   cache.Cache
	metrics *appotel.Metrics
}

// NewApprovalService creates an ApprovalService. events, queue, cache and
// metrics may be nil.
func NewApprovalService(
	store database.Store,
	events eventstore.Store,
	queue messagequeue.Queue,
	c cache.Cache,
	metrics *appotel.Metrics,
) *ApprovalService {
	return &ApprovalService{store: store, events: events, queue: queue, cache: c, metrics: metrics}
}

// Approve moves a pending case to approved. Concurrent calls race on the
// store's atomic transition; exactly one wins and the rest get
// domain.ErrInvalidTransition.
func (s *ApprovalService) Approve(ctx context.Context, id string, tr caserecord.Transition) (*caserecord.Record, error) {
	return s.transition(ctx, id, caserecord.StatusApproved, tr)
}

// Reject moves a pending case to rejected.
func (s *ApprovalService) Reject(ctx context.Context, id string, tr caserecord.Transition) (*caserecord.Record, error) {
	return s.transition(ctx, id, caserecord.StatusRejected, tr)
}

func (s *ApprovalService) transition(ctx context.Context, id string, to caserecord.Status, tr caserecord.Transition) (*caserecord.Record, error) {
	if tr.Actor == "" {
		return nil, fmt.Errorf("%w: actor is required", domain.ErrValidation)
	}
	if !to.Terminal() {
		return nil, fmt.Errorf("%w: %q is not a terminal status", domain.ErrInvalidTransition, to)
	}

	rec, err := s.store.TransitionApproval(ctx, id, to, tr, time.Now().UTC())
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, caseCacheKey(id))
	}

	evType := event.TypeCaseApproved
	subject := messagequeue.SubjectCaseApproved
	if to == caserecord.StatusRejected {
		evType = event.TypeCaseRejected
		subject = messagequeue.SubjectCaseRejected
	}
	appendEvent(ctx, s.events, id, evType, tr.Actor, tr)
	publishJSON(ctx, s.queue, subject, messagequeue.CaseResolvedPayload{
		CaseID:  rec.ID,
		CallRef: rec.CallRef,
		Status:  string(to),
		Actor:   tr.Actor,
		Notes:   tr.Notes,
	})

	if s.metrics != nil {
		switch to {
		case caserecord.StatusApproved:
			s.metrics.CasesApproved.Add(ctx, 1)
		case caserecord.StatusRejected:
			s.metrics.CasesRejected.Add(ctx, 1)
		}
	}

	return rec, nil
}
