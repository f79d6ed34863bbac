package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failing(_ context.Context) error { return errors.New("gateway down") }
func succeeding(_ context.Context) error { return nil }

func TestBreaker_OpensAfterMaxFailures(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := b.Execute(ctx, failing); err == nil {
			t.Fatal("expected failure")
		}
	}
	if err := b.Execute(ctx, succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
	if b.State() != "open" {
		t.Fatalf("state = %s, want open", b.State())
	}
}

func TestBreaker_SuccessResets(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	_ = b.Execute(ctx, failing)
	if err := b.Execute(ctx, succeeding); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	// Two more failures must not open the circuit after the reset.
	_ = b.Execute(ctx, failing)
	_ = b.Execute(ctx, failing)
	if err := b.Execute(ctx, succeeding); errors.Is(err, ErrCircuitOpen) {
		t.Fatal("circuit opened despite the success reset")
	}
}

func TestBreaker_HalfOpenAfterTimeout(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	if b.State() != "open" {
		t.Fatalf("state = %s, want open", b.State())
	}

	now = now.Add(2 * time.Minute)
	if b.State() != "half_open" {
		t.Fatalf("state = %s, want half_open after the timeout", b.State())
	}

	// One probe success closes the circuit.
	if err := b.Execute(ctx, succeeding); err != nil {
		t.Fatalf("probe: %v", err)
	}
	if b.State() != "closed" {
		t.Fatalf("state = %s, want closed", b.State())
	}
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	b := NewBreaker(1, time.Minute)
	now := time.Date(2026, 8, 30, 9, 0, 0, 0, time.UTC)
	b.now = func() time.Time { return now }
	ctx := context.Background()

	_ = b.Execute(ctx, failing)
	now = now.Add(2 * time.Minute)

	if err := b.Execute(ctx, failing); err == nil {
		t.Fatal("expected the probe to fail")
	}
	if err := b.Execute(ctx, succeeding); !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected reopened circuit, got %v", err)
	}
}

func TestBreaker_PassesContextThrough(t *testing.T) {
	b := NewBreaker(3, time.Minute)
	type key struct{}
	ctx := context.WithValue(context.Background(), key{}, "v")

	err := b.Execute(ctx, func(inner context.Context) error {
		if inner.Value(key{}) != "v" {
			t.Error("context not passed through")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
}
