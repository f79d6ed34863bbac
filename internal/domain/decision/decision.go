// Package decision implements the deterministic decision engine: it reconciles
// the probabilistic extraction output with the business-rule overlay and
// produces the final, auditable recommendation for a call.
package decision

import (
	"strings"

	"github.com/calldeck/calldeck/internal/domain/signal"
)

// Priority is the discrete priority bucket derived from the clamped score.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank returns the ordinal of a priority bucket, lowest first.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityMedium:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	}
	return 0
}

// Thresholds holds the score cutoffs for each priority bucket. They are policy
// constants and must stay configurable without code changes.
type Thresholds struct {
	Urgent int `yaml:"urgent"`
	High   int `yaml:"high"`
	Medium int `yaml:"medium"`
}

// DefaultThresholds returns the published bucket cutoffs.
func DefaultThresholds() Thresholds {
	return Thresholds{Urgent: 90, High: 70, Medium: 40}
}

// Bucket maps a clamped score to its priority bucket.
func (t Thresholds) Bucket(score int) Priority {
	switch {
	case score >= t.Urgent:
		return PriorityUrgent
	case score >= t.High:
		return PriorityHigh
	case score >= t.Medium:
		return PriorityMedium
	default:
		return PriorityLow
	}
}

// Raise moves a priority up by n buckets, capped at urgent. Raises are
// monotonic: n <= 0 leaves the priority unchanged.
func Raise(p Priority, n int) Priority {
	order := []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}
	idx := p.Rank() + max(n, 0)
	if idx >= len(order) {
		idx = len(order) - 1
	}
	return order[idx]
}

// ConfidenceWeights holds the constants of the corroboration metric. The
// values are given business constants, not a statistical model.
type ConfidenceWeights struct {
	Base            int     `yaml:"base"`
	SentimentBonus  int     `yaml:"sentiment_bonus"`
	KeywordBonus    int     `yaml:"keyword_bonus"`
	EntityBonus     int     `yaml:"entity_bonus"`
	StrongSentiment float64 `yaml:"strong_sentiment"` // |compound| above this counts as a strong signal
}

// DefaultConfidenceWeights returns the published confidence constants.
func DefaultConfidenceWeights() ConfidenceWeights {
	return ConfidenceWeights{
		Base:            70,
		SentimentBonus:  10,
		KeywordBonus:    10,
		EntityBonus:     10,
		StrongSentiment: 0.5,
	}
}

// TeamRouting is the static intent-to-team seed lookup.
type TeamRouting struct {
	ByIntent map[signal.Intent]string `yaml:"by_intent"`
	Default  string                   `yaml:"default"`
}

// DefaultTeamRouting returns the seed routing table.
func DefaultTeamRouting() TeamRouting {
	return TeamRouting{
		ByIntent: map[signal.Intent]string{
			signal.IntentCancellationRisk: "Retention Team",
			signal.IntentComplaint:        "Support Team",
			signal.IntentDemoRequest:      "Sales Team",
			signal.IntentPricingInquiry:   "Sales Team",
			signal.IntentQualifiedLead:    "Sales Team",
			signal.IntentObjection:        "Sales Team",
			signal.IntentCompetitor:       "Sales Team",
			signal.IntentUrgentFollowup:   "Account Manager",
		},
		Default: "Support Team",
	}
}

// TeamFor returns the seed team for an intent.
func (r TeamRouting) TeamFor(intent signal.Intent) string {
	if team, ok := r.ByIntent[intent]; ok {
		return team
	}
	return r.Default
}

// FinalDecision is the engine's output: score, levels, routing and audit trail.
// It is derived data; re-running the engine on the same bundle with the same
// policy produces an identical value.
type FinalDecision struct {
	PriorityScore      int             `json:"priority_score"` // 0-100 after clamping
	PriorityLevel      Priority        `json:"priority_level"`
	RiskLevel          signal.Severity `json:"risk_level"`
	OpportunityLevel   signal.Severity `json:"opportunity_level"`
	AssignedTeam       string          `json:"assigned_team"` // comma-joined when several rules route
	EscalationRequired bool            `json:"escalation_required"`
	FastTrack          bool            `json:"fast_track"`
	ConfidenceScore    int             `json:"confidence_score"`
	AppliedRules       []string        `json:"applied_rules"` // rule IDs in firing order
	Reasoning          string          `json:"reasoning"`
}

// appendTeam adds a team to a comma-joined assignment, skipping duplicates.
func appendTeam(current, team string) string {
	if team == "" {
		return current
	}
	if current == "" {
		return team
	}
	for _, existing := range strings.Split(current, ", ") {
		if existing == team {
			return current
		}
	}
	return current + ", " + team
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
