package decision

import (
	"errors"
	"reflect"
	"sort"
	"testing"

	"github.com/calldeck/calldeck/internal/domain"
	"github.com/calldeck/calldeck/internal/domain/rules"
	"github.com/calldeck/calldeck/internal/domain/signal"
)

func defaultEngine() *Engine {
	return NewEngine(rules.Default(), DefaultThresholds(), DefaultConfidenceWeights(), DefaultTeamRouting())
}

func baseBundle() signal.Bundle {
	return signal.Bundle{
		Sentiment: signal.Sentiment{Compound: 0, Label: "neutral"},
		Intent:    signal.IntentGeneral,
		Narrative: signal.Narrative{
			RiskLevel:        signal.SeverityLow,
			OpportunityLevel: signal.SeverityLow,
			PriorityHint:     30,
		},
	}
}

func TestEngine_HighRiskCancellation(t *testing.T) {
	e := defaultEngine()

	b := baseBundle()
	b.Sentiment = signal.Sentiment{Compound: -0.82, Label: "negative"}
	b.Intent = signal.IntentCancellationRisk
	b.Keywords = map[string][]string{"cancellation": {"cancel"}}
	b.Narrative.RiskLevel = signal.SeverityHigh
	b.Narrative.PriorityHint = 50
	b.Entities = nil

	d, err := e.Decide(&b)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if d.PriorityScore != 90 {
		t.Errorf("priority score = %d, want 90", d.PriorityScore)
	}
	if d.PriorityLevel != PriorityUrgent {
		t.Errorf("priority level = %s, want urgent", d.PriorityLevel)
	}
	if d.AssignedTeam != "Retention Team" {
		t.Errorf("assigned team = %q, want Retention Team", d.AssignedTeam)
	}
	if !d.EscalationRequired {
		t.Error("expected escalation")
	}
	wantRules := []string{"high_risk_cancel", "negative_cancel_boost"}
	if !reflect.DeepEqual(d.AppliedRules, wantRules) {
		t.Errorf("applied rules = %v, want %v", d.AppliedRules, wantRules)
	}
	// base 70 + strong sentiment 10 + keywords 10, no entities
	if d.ConfidenceScore != 90 {
		t.Errorf("confidence = %d, want 90", d.ConfidenceScore)
	}
}

func TestEngine_DemoFastTrack(t *testing.T) {
	e := defaultEngine()

	b := baseBundle()
	b.Sentiment = signal.Sentiment{Compound: 0.4, Label: "positive"}
	b.Intent = signal.IntentDemoRequest
	b.Keywords = map[string][]string{"demo": {"demo"}}
	// Narrative says medium; demo_interest upgrades to high and
	// fast_track_demo must observe the upgrade within the same pass.
	b.Narrative.OpportunityLevel = signal.SeverityMedium

	d, err := e.Decide(&b)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if d.OpportunityLevel != signal.SeverityHigh {
		t.Errorf("opportunity = %s, want high", d.OpportunityLevel)
	}
	if !d.FastTrack {
		t.Error("expected fast track")
	}
	if d.AssignedTeam != "Sales Team" {
		t.Errorf("assigned team = %q, want Sales Team", d.AssignedTeam)
	}
	if d.PriorityScore < 80 {
		t.Errorf("priority score = %d, want >= 80", d.PriorityScore)
	}
}

func TestEngine_Deterministic(t *testing.T) {
	e := defaultEngine()

	b := baseBundle()
	b.Sentiment = signal.Sentiment{Compound: -0.6, Label: "negative"}
	b.Intent = signal.IntentCancellationRisk
	b.Keywords = map[string][]string{"cancellation": {"cancel"}, "pricing": {"expensive"}}
	b.Narrative.RiskLevel = signal.SeverityHigh
	b.Entities = []signal.Entity{{Text: "Acme Corp", Label: "ORG"}}

	first, err := e.Decide(&b)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	for range 10 {
		again, err := e.Decide(&b)
		if err != nil {
			t.Fatalf("Decide: %v", err)
		}
		if !reflect.DeepEqual(first, again) {
			t.Fatalf("engine not deterministic:\n first: %+v\nagain: %+v", first, again)
		}
	}
}

func TestEngine_BucketOrderIndependent(t *testing.T) {
	forward := rules.Default()
	reversed := rules.Set{Rules: make([]rules.Rule, len(forward.Rules))}
	for i, r := range forward.Rules {
		reversed.Rules[len(forward.Rules)-1-i] = r
	}

	// Fires three rules with order-independent predicates so both tables
	// apply the same subset, just in opposite order.
	b := baseBundle()
	b.Sentiment = signal.Sentiment{Compound: -0.82, Label: "negative"}
	b.Intent = signal.IntentCancellationRisk
	b.Keywords = map[string][]string{
		"cancellation": {"cancel"},
		"pricing":      {"expensive"},
	}
	b.Narrative.RiskLevel = signal.SeverityHigh
	b.Narrative.PriorityHint = 50

	first, err := NewEngine(forward, DefaultThresholds(), DefaultConfidenceWeights(), DefaultTeamRouting()).Decide(&b)
	if err != nil {
		t.Fatalf("Decide (forward): %v", err)
	}
	second, err := NewEngine(reversed, DefaultThresholds(), DefaultConfidenceWeights(), DefaultTeamRouting()).Decide(&b)
	if err != nil {
		t.Fatalf("Decide (reversed): %v", err)
	}

	if first.PriorityScore != second.PriorityScore {
		t.Errorf("priority score differs by rule order: %d vs %d", first.PriorityScore, second.PriorityScore)
	}
	if first.PriorityLevel != second.PriorityLevel {
		t.Errorf("priority level differs by rule order: %s vs %s", first.PriorityLevel, second.PriorityLevel)
	}

	fa := append([]string(nil), first.AppliedRules...)
	sa := append([]string(nil), second.AppliedRules...)
	sort.Strings(fa)
	sort.Strings(sa)
	if !reflect.DeepEqual(fa, sa) {
		t.Errorf("fired rule sets differ: %v vs %v", fa, sa)
	}
}

func TestEngine_ScoreClamped(t *testing.T) {
	e := defaultEngine()

	b := baseBundle()
	b.Sentiment = signal.Sentiment{Compound: -0.9, Label: "negative"}
	b.Intent = signal.IntentCancellationRisk
	b.Keywords = map[string][]string{"cancellation": {"cancel"}}
	b.Narrative.RiskLevel = signal.SeverityHigh
	b.Narrative.PriorityHint = 100

	d, err := e.Decide(&b)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	// hint 100 + boost 15 must not exceed the scale
	if d.PriorityScore != 100 {
		t.Errorf("priority score = %d, want 100", d.PriorityScore)
	}
}

func TestEngine_NoRulesFired(t *testing.T) {
	e := defaultEngine()

	b := baseBundle()
	d, err := e.Decide(&b)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}

	if len(d.AppliedRules) != 0 {
		t.Errorf("applied rules = %v, want none", d.AppliedRules)
	}
	if d.AppliedRules == nil {
		t.Error("applied rules must be an empty slice, not nil")
	}
	if d.PriorityScore != 30 {
		t.Errorf("priority score = %d, want the narrative hint 30", d.PriorityScore)
	}
	if d.PriorityLevel != PriorityLow {
		t.Errorf("priority level = %s, want low", d.PriorityLevel)
	}
	if d.AssignedTeam != "Support Team" {
		t.Errorf("assigned team = %q, want the default Support Team", d.AssignedTeam)
	}
}

func TestEngine_UrgentTimelinePhrase(t *testing.T) {
	e := defaultEngine()

	b := baseBundle()
	b.Transcript = "We need this fixed immediately, the whole team is blocked."
	b.Narrative.PriorityHint = 20

	d, err := e.Decide(&b)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.PriorityScore != 90 {
		t.Errorf("priority score = %d, want the 90 floor", d.PriorityScore)
	}
	if d.PriorityLevel != PriorityUrgent {
		t.Errorf("priority level = %s, want urgent", d.PriorityLevel)
	}
}

func TestEngine_InvalidBundleRejected(t *testing.T) {
	e := defaultEngine()

	b := baseBundle()
	b.Sentiment.Compound = -3

	if _, err := e.Decide(&b); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
}

func TestEngine_TeamAppendsWithoutDuplicates(t *testing.T) {
	e := defaultEngine()

	// Seed routing already says Sales Team for pricing; the pricing rule
	// appends a specialist, the demo rule must not duplicate Sales Team.
	b := baseBundle()
	b.Sentiment = signal.Sentiment{Compound: -0.2, Label: "negative"}
	b.Intent = signal.IntentPricingInquiry
	b.Keywords = map[string][]string{"pricing": {"expensive"}}

	d, err := e.Decide(&b)
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if d.AssignedTeam != "Sales Team, Pricing Specialist" {
		t.Errorf("assigned team = %q, want \"Sales Team, Pricing Specialist\"", d.AssignedTeam)
	}
}

func TestThresholds_Bucket(t *testing.T) {
	th := DefaultThresholds()
	cases := []struct {
		score int
		want  Priority
	}{
		{0, PriorityLow},
		{39, PriorityLow},
		{40, PriorityMedium},
		{69, PriorityMedium},
		{70, PriorityHigh},
		{89, PriorityHigh},
		{90, PriorityUrgent},
		{100, PriorityUrgent},
	}
	for _, tc := range cases {
		if got := th.Bucket(tc.score); got != tc.want {
			t.Errorf("Bucket(%d) = %s, want %s", tc.score, got, tc.want)
		}
	}
}

func TestRaise(t *testing.T) {
	if got := Raise(PriorityHigh, 1); got != PriorityUrgent {
		t.Errorf("Raise(high, 1) = %s, want urgent", got)
	}
	if got := Raise(PriorityUrgent, 2); got != PriorityUrgent {
		t.Errorf("Raise(urgent, 2) = %s, want urgent (capped)", got)
	}
	if got := Raise(PriorityMedium, 0); got != PriorityMedium {
		t.Errorf("Raise(medium, 0) = %s, want medium", got)
	}
	if got := Raise(PriorityMedium, -1); got != PriorityMedium {
		t.Errorf("Raise(medium, -1) = %s, want medium (never lowers)", got)
	}
}

func TestAppendTeam(t *testing.T) {
	if got := appendTeam("", "Sales Team"); got != "Sales Team" {
		t.Errorf("appendTeam from empty = %q", got)
	}
	if got := appendTeam("Sales Team", "Sales Team"); got != "Sales Team" {
		t.Errorf("duplicate append = %q", got)
	}
	if got := appendTeam("Sales Team", "Retention Team"); got != "Sales Team, Retention Team" {
		t.Errorf("append = %q", got)
	}
	if got := appendTeam("Sales Team", ""); got != "Sales Team" {
		t.Errorf("empty append = %q", got)
	}
}
