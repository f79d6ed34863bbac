package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	appotel "github.com/calldeck/calldeck/internal/adapter/otel"
	"github.com/calldeck/calldeck/internal/config"
	"github.com/calldeck/calldeck/internal/domain/caserecord"
	"github.com/calldeck/calldeck/internal/domain/decision"
	"github.com/calldeck/calldeck/internal/domain/event"
	"github.com/calldeck/calldeck/internal/port/database"
	"github.com/calldeck/calldeck/internal/port/eventstore"
	"github.com/calldeck/calldeck/internal/port/messagequeue"
	"github.com/calldeck/calldeck/internal/port/notifier"
	"github.com/calldeck/calldeck/internal/resilience"
)

// ReminderService periodically scans pending cases and sends SLA reminders.
// A case is due when it has waited past the SLA threshold for its priority
// and no reminder went out within the cooldown window. Reminder history is
// appended only after the gateway confirmed delivery, so a failed send is
// retried on the next sweep.
type ReminderService struct {
	store   database.Store
	notify  *NotificationService
	breaker *resilience.Breaker
	events  eventstore.Store
	queue   messagequeue.Queue
	metrics *appotel.Metrics
	cfg     config.Reminder

	running  atomic.Bool // guards against overlapping sweeps
	stop     chan struct{}
	stopOnce sync.Once
	now      func() time.Time // for testing
}

// NewReminderService creates a ReminderService. breaker, events, queue and
// metrics may be nil.
func NewReminderService(
	store database.Store,
	notify *NotificationService,
	breaker *resilience.Breaker,
	events eventstore.Store,
	queue messagequeue.Queue,
	metrics *appotel.Metrics,
	cfg config.Reminder,
) *ReminderService {
	return &ReminderService{
		store:   store,
		notify:  notify,
		breaker: breaker,
		events:  events,
		queue:   queue,
		metrics: metrics,
		cfg:     cfg,
		stop:    make(chan struct{}),
		now:     time.Now,
	}
}

// Start launches the background sweep loop.
func (s *ReminderService) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(s.cfg.Interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.Sweep(ctx)
			case <-s.stop:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
	slog.Info("reminder scheduler started", "interval", s.cfg.Interval)
}

// Stop stops the sweep loop. Safe to call more than once.
func (s *ReminderService) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

// Sweep runs one scan over pending cases. If a previous sweep is still in
// flight the call is skipped; slow gateways must not stack sweeps.
func (s *ReminderService) Sweep(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		slog.Warn("reminder sweep skipped: previous sweep still running")
		return
	}
	defer s.running.Store(false)

	ctx, span := appotel.StartReminderSweepSpan(ctx)
	defer span.End()

	pending, err := s.store.ListPendingCases(ctx)
	if err != nil {
		slog.Error("list pending cases", "error", err)
		return
	}

	now := s.now().UTC()
	var due []caserecord.Record
	for i := range pending {
		if s.isDue(&pending[i], now) {
			due = append(due, pending[i])
		}
	}
	if len(due) == 0 {
		return
	}
	slog.Info("reminder sweep", "pending", len(pending), "due", len(due))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.cfg.MaxConcurrent)
	for i := range due {
		rec := &due[i]
		g.Go(func() error {
			if err := s.remind(gctx, rec); err != nil {
				slog.Warn("reminder failed", "case_id", rec.ID, "error", err)
				if s.metrics != nil {
					s.metrics.RemindersFailed.Add(gctx, 1)
				}
				if errors.Is(err, resilience.ErrCircuitOpen) {
					return err // abort the sweep, gateway is down
				}
			}
			return nil // one bad case must not sink the rest
		})
	}
	if err := g.Wait(); err != nil {
		slog.Warn("reminder sweep aborted", "error", err)
	}
}

// isDue applies the SLA and cooldown policy. Terminal cases never reach here;
// ListPendingCases filters them out.
func (s *ReminderService) isDue(rec *caserecord.Record, now time.Time) bool {
	threshold := s.cfg.SLA.ThresholdFor(rec.Decision.PriorityLevel)
	if now.Sub(rec.CreatedAt) < threshold {
		return false
	}
	if last := rec.LastReminderAt(); !last.IsZero() && now.Sub(last) < s.cfg.Cooldown {
		return false
	}
	return true
}

func (s *ReminderService) remind(ctx context.Context, rec *caserecord.Record) error {
	kind := caserecord.ReminderFollowUp
	level := "warning"
	if rec.Decision.PriorityLevel == decision.PriorityUrgent {
		kind = caserecord.ReminderUrgent
		level = "urgent"
	}

	n := notifier.Notification{
		Recipient: s.cfg.Recipient,
		Subject: fmt.Sprintf("Reminder: %s priority case %s awaiting approval",
			rec.Decision.PriorityLevel, rec.CallRef),
		Body: fmt.Sprintf("%s\nScore %d, assigned to %s. Pending since %s.",
			rec.Bundle.Narrative.SummaryShort,
			rec.Decision.PriorityScore,
			rec.Decision.AssignedTeam,
			rec.CreatedAt.Format(time.RFC3339)),
		Level:  level,
		Source: string(event.TypeReminderSent),
	}

	send := func(ctx context.Context) error {
		sendCtx, cancel := context.WithTimeout(ctx, s.cfg.SendTimeout)
		defer cancel()
		return s.notify.Deliver(sendCtx, n)
	}

	var err error
	if s.breaker != nil {
		err = s.breaker.Execute(ctx, send)
	} else {
		err = send(ctx)
	}
	if err != nil {
		return err
	}

	// Delivery confirmed; only now does the reminder enter the history.
	reminder := caserecord.Reminder{
		SentAt:    s.now().UTC(),
		Kind:      kind,
		Recipient: s.cfg.Recipient,
	}
	if err := s.store.AppendReminder(ctx, rec.ID, reminder); err != nil {
		return fmt.Errorf("append reminder for case %s: %w", rec.ID, err)
	}

	if s.metrics != nil {
		s.metrics.RemindersSent.Add(ctx, 1)
	}
	appendEvent(ctx, s.events, rec.ID, event.TypeReminderSent, "", reminder)
	publishJSON(ctx, s.queue, messagequeue.SubjectCaseReminded, messagequeue.CaseRemindedPayload{
		CaseID:    rec.ID,
		Kind:      string(kind),
		Recipient: s.cfg.Recipient,
	})

	slog.Info("reminder sent", "case_id", rec.ID, "kind", kind, "priority", rec.Decision.PriorityLevel)
	return nil
}
