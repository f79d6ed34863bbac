package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/calldeck/calldeck/internal/domain"
	"github.com/calldeck/calldeck/internal/domain/caserecord"
	"github.com/calldeck/calldeck/internal/domain/decision"
	"github.com/calldeck/calldeck/internal/domain/event"
)

func newTestApproval(store *mockStore) (*ApprovalService, *mockEventStore, *mockQueue) {
	events := &mockEventStore{}
	queue := newMockQueue()
	return NewApprovalService(store, events, queue, nil, nil), events, queue
}

func seedPending(t *testing.T, store *mockStore, id string) {
	t.Helper()
	rec := pendingCase(id, decision.PriorityHigh, time.Now().UTC())
	if err := store.CreateCase(context.Background(), rec); err != nil {
		t.Fatal(err)
	}
}

func TestApproval_Approve(t *testing.T) {
	store := newMockStore()
	seedPending(t, store, "c1")
	svc, events, queue := newTestApproval(store)

	rec, err := svc.Approve(context.Background(), "c1", caserecord.Transition{Actor: "alex", Notes: "looks right"})
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if rec.ApprovalStatus != caserecord.StatusApproved {
		t.Errorf("status = %s, want approved", rec.ApprovalStatus)
	}
	if rec.ReviewedBy != "alex" || rec.ApprovalNotes != "looks right" {
		t.Errorf("reviewer metadata not recorded: %+v", rec)
	}
	if rec.ReviewedAt == nil {
		t.Error("reviewed_at not set")
	}
	if got := events.typesFor("c1"); len(got) != 1 || got[0] != event.TypeCaseApproved {
		t.Errorf("events = %v, want one case.approved", got)
	}
	if queue.count("cases.approved") != 1 {
		t.Errorf("expected 1 cases.approved message, got %d", queue.count("cases.approved"))
	}
}

func TestApproval_RejectRequiresActor(t *testing.T) {
	store := newMockStore()
	seedPending(t, store, "c1")
	svc, _, _ := newTestApproval(store)

	if _, err := svc.Reject(context.Background(), "c1", caserecord.Transition{}); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation for a missing actor, got %v", err)
	}
}

func TestApproval_TerminalIsFinal(t *testing.T) {
	store := newMockStore()
	seedPending(t, store, "c1")
	svc, _, queue := newTestApproval(store)

	if _, err := svc.Approve(context.Background(), "c1", caserecord.Transition{Actor: "alex"}); err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if _, err := svc.Reject(context.Background(), "c1", caserecord.Transition{Actor: "sam"}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := svc.Approve(context.Background(), "c1", caserecord.Transition{Actor: "sam"}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("re-approving a terminal case: expected ErrInvalidTransition, got %v", err)
	}
	if queue.count("cases.rejected") != 0 {
		t.Error("failed transition must not publish")
	}
}

func TestApproval_UnknownCase(t *testing.T) {
	svc, _, _ := newTestApproval(newMockStore())
	if _, err := svc.Approve(context.Background(), "ghost", caserecord.Transition{Actor: "alex"}); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestApproval_ConcurrentRaceHasOneWinner(t *testing.T) {
	store := newMockStore()
	seedPending(t, store, "c1")
	svc, _, _ := newTestApproval(store)

	var wg sync.WaitGroup
	results := make([]error, 2)

	wg.Add(2)
	go func() {
		defer wg.Done()
		_, results[0] = svc.Approve(context.Background(), "c1", caserecord.Transition{Actor: "alex"})
	}()
	go func() {
		defer wg.Done()
		_, results[1] = svc.Reject(context.Background(), "c1", caserecord.Transition{Actor: "sam"})
	}()
	wg.Wait()

	var wins, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			wins++
		case errors.Is(err, domain.ErrInvalidTransition):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || conflicts != 1 {
		t.Fatalf("wins = %d, conflicts = %d; want exactly one of each", wins, conflicts)
	}

	rec, err := store.GetCase(context.Background(), "c1")
	if err != nil {
		t.Fatal(err)
	}
	if !rec.ApprovalStatus.Terminal() {
		t.Fatalf("final status = %s, want terminal", rec.ApprovalStatus)
	}
}
