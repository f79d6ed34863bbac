package caserecord

import (
	"testing"
	"time"
)

func TestStatusTerminal(t *testing.T) {
	if StatusPending.Terminal() {
		t.Error("pending must not be terminal")
	}
	if !StatusApproved.Terminal() || !StatusRejected.Terminal() {
		t.Error("approved and rejected are terminal")
	}
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusApproved, StatusRejected} {
		if !s.Valid() {
			t.Errorf("%s should be valid", s)
		}
	}
	if Status("archived").Valid() {
		t.Error("unknown status accepted")
	}
}

func TestLastReminderAt(t *testing.T) {
	var rec Record
	if !rec.LastReminderAt().IsZero() {
		t.Error("no reminders: want zero time")
	}

	t1 := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	t2 := t1.Add(25 * time.Hour)
	rec.Reminders = []Reminder{
		{SentAt: t1, Kind: ReminderFollowUp},
		{SentAt: t2, Kind: ReminderUrgent},
	}
	if got := rec.LastReminderAt(); !got.Equal(t2) {
		t.Errorf("LastReminderAt = %s, want %s", got, t2)
	}
}
