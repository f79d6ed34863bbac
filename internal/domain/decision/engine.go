package decision

import (
	"strings"

	"github.com/calldeck/calldeck/internal/domain/rules"
	"github.com/calldeck/calldeck/internal/domain/signal"
)

// Engine combines a signal bundle with the configured business policy.
// It holds no mutable state and is safe for concurrent use.
type Engine struct {
	rules      rules.Set
	thresholds Thresholds
	weights    ConfidenceWeights
	teams      TeamRouting
}

// NewEngine creates an engine from the given policy tables.
func NewEngine(set rules.Set, thresholds Thresholds, weights ConfidenceWeights, teams TeamRouting) *Engine {
	return &Engine{rules: set, thresholds: thresholds, weights: weights, teams: teams}
}

// Decide derives the final decision for a bundle. It is pure and
// deterministic; calling it twice on the same input yields identical output.
// Malformed bundles fail validation and nothing further runs.
//
// Score composition is order-independent for the final value: additive boosts
// sum, score floors take the max, and the result is
// clamp(max(seed+boosts, floors)). Level effects only ever upgrade, so the
// final bucket does not depend on rule evaluation order either — only the
// applied-rules trace reflects it.
func (e *Engine) Decide(b *signal.Bundle) (*FinalDecision, error) {
	if err := b.Validate(); err != nil {
		return nil, err
	}

	d := &FinalDecision{
		RiskLevel:        b.Narrative.RiskLevel,
		OpportunityLevel: b.Narrative.OpportunityLevel,
		AssignedTeam:     e.teams.TeamFor(b.Intent),
		AppliedRules:     []string{},
		Reasoning:        b.Narrative.Reasoning,
	}

	seed := clampScore(b.Narrative.PriorityHint)
	boosts, floor, raises := 0, 0, 0
	var notes []string

	for i := range e.rules.Rules {
		r := &e.rules.Rules[i]
		view := rules.View{Risk: d.RiskLevel, Opportunity: d.OpportunityLevel}
		if !r.When.Match(b, view) {
			continue
		}

		eff := r.Then
		if eff.Escalate {
			d.EscalationRequired = true
		}
		if eff.FastTrack {
			d.FastTrack = true
		}
		d.AssignedTeam = appendTeam(d.AssignedTeam, eff.AssignTeam)
		boosts += eff.ScoreBoost
		floor = max(floor, eff.ScoreFloor)
		raises += eff.RaisePriority
		// Upgrades apply immediately so later predicates observe them.
		d.RiskLevel = d.RiskLevel.Max(eff.SetRisk)
		d.OpportunityLevel = d.OpportunityLevel.Max(eff.SetOpportunity)
		if eff.Note != "" {
			notes = append(notes, eff.Note)
		}
		d.AppliedRules = append(d.AppliedRules, r.ID)
	}

	d.PriorityScore = clampScore(max(seed+boosts, floor))
	d.PriorityLevel = Raise(e.thresholds.Bucket(d.PriorityScore), raises)
	d.ConfidenceScore = e.confidence(b)

	if len(notes) > 0 {
		parts := notes
		if d.Reasoning != "" {
			parts = append([]string{d.Reasoning}, notes...)
		}
		d.Reasoning = strings.Join(parts, " ")
	}

	return d, nil
}

// confidence is the corroboration metric: a weighted count of independent
// signals that agree, scaled to 0-100. It is a transparency measure, not a
// probability.
func (e *Engine) confidence(b *signal.Bundle) int {
	score := e.weights.Base
	if abs(b.Sentiment.Compound) > e.weights.StrongSentiment {
		score += e.weights.SentimentBonus
	}
	if len(b.Keywords) > 0 {
		score += e.weights.KeywordBonus
	}
	if len(b.Entities) > 0 {
		score += e.weights.EntityBonus
	}
	return clampScore(score)
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}
