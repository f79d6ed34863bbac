package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/calldeck/calldeck/internal/domain"
	"github.com/calldeck/calldeck/internal/domain/caserecord"
	"github.com/calldeck/calldeck/internal/domain/decision"
	"github.com/calldeck/calldeck/internal/domain/event"
	"github.com/calldeck/calldeck/internal/port/crm"
	"github.com/calldeck/calldeck/internal/port/messagequeue"
	"github.com/calldeck/calldeck/internal/port/notifier"
)

// mockStore is an in-memory database.Store with the same atomicity contract
// as the Postgres adapter.
type mockStore struct {
	mu    sync.Mutex
	cases map[string]*caserecord.Record

	listErr   error
	appendErr error
}

func newMockStore() *mockStore {
	return &mockStore{cases: make(map[string]*caserecord.Record)}
}

func (m *mockStore) CreateCase(_ context.Context, rec *caserecord.Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.cases[rec.ID]; ok {
		return domain.ErrConflict
	}
	cp := *rec
	m.cases[rec.ID] = &cp
	return nil
}

func (m *mockStore) GetCase(_ context.Context, id string) (*caserecord.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.cases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *rec
	cp.Reminders = append([]caserecord.Reminder(nil), rec.Reminders...)
	return &cp, nil
}

func (m *mockStore) ListCases(_ context.Context, status caserecord.Status, _ int) ([]caserecord.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []caserecord.Record
	for _, rec := range m.cases {
		if status == "" || rec.ApprovalStatus == status {
			out = append(out, *rec)
		}
	}
	return out, nil
}

func (m *mockStore) ListPendingCases(_ context.Context) ([]caserecord.Record, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []caserecord.Record
	for _, rec := range m.cases {
		if rec.ApprovalStatus == caserecord.StatusPending {
			cp := *rec
			cp.Reminders = append([]caserecord.Reminder(nil), rec.Reminders...)
			out = append(out, cp)
		}
	}
	return out, nil
}

func (m *mockStore) UpdateDecision(_ context.Context, id string, d decision.FinalDecision) (*caserecord.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.cases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	rec.Decision = d
	rec.Version++
	rec.UpdatedAt = time.Now().UTC()
	cp := *rec
	return &cp, nil
}

func (m *mockStore) TransitionApproval(_ context.Context, id string, to caserecord.Status, tr caserecord.Transition, at time.Time) (*caserecord.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.cases[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if rec.ApprovalStatus != caserecord.StatusPending {
		return nil, fmt.Errorf("case %s is %s: %w", id, rec.ApprovalStatus, domain.ErrInvalidTransition)
	}
	rec.ApprovalStatus = to
	rec.ReviewedBy = tr.Actor
	rec.ApprovalNotes = tr.Notes
	rec.ReviewedAt = &at
	rec.Version++
	rec.UpdatedAt = at
	cp := *rec
	return &cp, nil
}

func (m *mockStore) AppendReminder(_ context.Context, caseID string, r caserecord.Reminder) error {
	if m.appendErr != nil {
		return m.appendErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.cases[caseID]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Reminders = append(rec.Reminders, r)
	return nil
}

func (m *mockStore) DashboardMetrics(_ context.Context) (*caserecord.DashboardMetrics, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	dm := &caserecord.DashboardMetrics{
		ByStatus:   map[string]int{},
		ByPriority: map[string]int{},
	}
	for _, rec := range m.cases {
		dm.TotalCases++
		dm.ByStatus[string(rec.ApprovalStatus)]++
		dm.ByPriority[string(rec.Decision.PriorityLevel)]++
	}
	return dm, nil
}

func (m *mockStore) reminderCount(id string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.cases[id].Reminders)
}

// mockEventStore is an in-memory eventstore.Store.
type mockEventStore struct {
	mu     sync.Mutex
	events []event.CaseEvent
}

func (m *mockEventStore) Append(_ context.Context, ev *event.CaseEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, *ev)
	return nil
}

func (m *mockEventStore) ListByCase(_ context.Context, caseID string) ([]event.CaseEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []event.CaseEvent
	for _, ev := range m.events {
		if ev.CaseID == caseID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (m *mockEventStore) typesFor(caseID string) []event.Type {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []event.Type
	for _, ev := range m.events {
		if ev.CaseID == caseID {
			out = append(out, ev.Type)
		}
	}
	return out
}

// mockQueue records published messages.
type mockQueue struct {
	mu        sync.Mutex
	published map[string][][]byte
}

func newMockQueue() *mockQueue {
	return &mockQueue{published: make(map[string][][]byte)}
}

func (m *mockQueue) Publish(_ context.Context, subject string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published[subject] = append(m.published[subject], data)
	return nil
}

func (m *mockQueue) Subscribe(context.Context, string, messagequeue.Handler) (func(), error) {
	return func() {}, nil
}

func (m *mockQueue) Drain() error      { return nil }
func (m *mockQueue) Close() error      { return nil }
func (m *mockQueue) IsConnected() bool { return true }

func (m *mockQueue) count(subject string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.published[subject])
}

// mockNotifier implements notifier.Notifier for testing.
type mockNotifier struct {
	mu      sync.Mutex
	name    string
	sent    []notifier.Notification
	sendErr error
}

func (m *mockNotifier) Name() string                        { return m.name }
func (m *mockNotifier) Capabilities() notifier.Capabilities { return notifier.Capabilities{} }
func (m *mockNotifier) Send(_ context.Context, n notifier.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, n)
	return nil
}

func (m *mockNotifier) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}

// mockCRM implements crm.Connector for testing.
type mockCRM struct {
	leads   []crm.Lead
	tasks   []crm.FollowUpTask
	leadErr error
}

func (m *mockCRM) Name() string { return "mock" }

func (m *mockCRM) CreateLead(_ context.Context, lead crm.Lead) (string, error) {
	if m.leadErr != nil {
		return "", m.leadErr
	}
	m.leads = append(m.leads, lead)
	return fmt.Sprintf("lead-%d", len(m.leads)), nil
}

func (m *mockCRM) CreateFollowUpTask(_ context.Context, task crm.FollowUpTask) (string, error) {
	m.tasks = append(m.tasks, task)
	return fmt.Sprintf("task-%d", len(m.tasks)), nil
}
