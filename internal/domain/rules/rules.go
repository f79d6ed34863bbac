// Package rules defines the ordered business-rule table applied on top of the
// extraction output. Rules are data, not code: the table is loaded from YAML
// so policy can change without redeploying the decision engine.
package rules

import (
	"fmt"
	"strings"

	"github.com/calldeck/calldeck/internal/domain/signal"
)

// View is the slice of the partial decision that predicates may observe.
// Levels reflect upgrades applied by earlier rules in the same pass.
type View struct {
	Risk        signal.Severity
	Opportunity signal.Severity
}

// Condition is the predicate half of a rule. Zero-valued fields are ignored;
// all populated fields must hold for the rule to fire.
type Condition struct {
	Intent             signal.Intent   `yaml:"intent,omitempty"`
	RiskAtLeast        signal.Severity `yaml:"risk_at_least,omitempty"`
	OpportunityAtLeast signal.Severity `yaml:"opportunity_at_least,omitempty"`
	SentimentBelow     *float64        `yaml:"sentiment_below,omitempty"`
	SentimentAtLeast   *float64        `yaml:"sentiment_at_least,omitempty"`
	KeywordCategory    string          `yaml:"keyword_category,omitempty"`
	PhraseAny          []string        `yaml:"phrase_any,omitempty"`
}

// Match evaluates the condition against the bundle and the current partial
// decision view.
func (c *Condition) Match(b *signal.Bundle, cur View) bool {
	if c.Intent != "" && b.Intent != c.Intent {
		return false
	}
	if c.RiskAtLeast != "" && cur.Risk.Rank() < c.RiskAtLeast.Rank() {
		return false
	}
	if c.OpportunityAtLeast != "" && cur.Opportunity.Rank() < c.OpportunityAtLeast.Rank() {
		return false
	}
	if c.SentimentBelow != nil && b.Sentiment.Compound >= *c.SentimentBelow {
		return false
	}
	if c.SentimentAtLeast != nil && b.Sentiment.Compound < *c.SentimentAtLeast {
		return false
	}
	if c.KeywordCategory != "" && !b.HasKeyword(c.KeywordCategory) {
		return false
	}
	if len(c.PhraseAny) > 0 && !matchPhrase(b, c.PhraseAny) {
		return false
	}
	return true
}

// empty reports whether no predicate field is populated.
func (c *Condition) empty() bool {
	return c.Intent == "" && c.RiskAtLeast == "" && c.OpportunityAtLeast == "" &&
		c.SentimentBelow == nil && c.SentimentAtLeast == nil &&
		c.KeywordCategory == "" && len(c.PhraseAny) == 0
}

// matchPhrase scans the transcript for any of the terms, falling back to the
// flattened keyword hits when no transcript was supplied.
func matchPhrase(b *signal.Bundle, terms []string) bool {
	transcript := strings.ToLower(b.Transcript)
	for _, term := range terms {
		t := strings.ToLower(term)
		if transcript != "" && strings.Contains(transcript, t) {
			return true
		}
		for _, hits := range b.Keywords {
			for _, hit := range hits {
				if strings.ToLower(hit) == t {
					return true
				}
			}
		}
	}
	return false
}

// Effect is the action half of a rule. Effects compose across fired rules:
// boosts are additive, floors take the max, level changes only ever upgrade,
// team assignments append, and flags are sticky once set.
type Effect struct {
	Escalate       bool            `yaml:"escalate,omitempty"`
	FastTrack      bool            `yaml:"fast_track,omitempty"`
	AssignTeam     string          `yaml:"assign_team,omitempty"`
	ScoreFloor     int             `yaml:"score_floor,omitempty"`
	ScoreBoost     int             `yaml:"score_boost,omitempty"`
	RaisePriority  int             `yaml:"raise_priority,omitempty"` // bucket floor raise
	SetRisk        signal.Severity `yaml:"set_risk,omitempty"`
	SetOpportunity signal.Severity `yaml:"set_opportunity,omitempty"`
	Note           string          `yaml:"note,omitempty"` // appended to the decision reasoning
}

// Rule pairs a predicate with an effect under a stable audit identifier.
type Rule struct {
	ID          string    `yaml:"id"`
	Description string    `yaml:"description,omitempty"`
	When        Condition `yaml:"when"`
	Then        Effect    `yaml:"then"`
}

// Set is an ordered rule table.
type Set struct {
	Rules []Rule `yaml:"rules"`
}

// Validate checks the table for structural defects: missing or duplicate IDs,
// empty predicates, unknown severities, and out-of-range numeric effects.
func (s *Set) Validate() error {
	seen := make(map[string]bool, len(s.Rules))
	for i := range s.Rules {
		r := &s.Rules[i]
		if r.ID == "" {
			return fmt.Errorf("rule[%d]: missing id", i)
		}
		if seen[r.ID] {
			return fmt.Errorf("rule %q: duplicate id", r.ID)
		}
		seen[r.ID] = true

		if r.When.empty() {
			return fmt.Errorf("rule %q: empty predicate would fire on every call", r.ID)
		}
		for _, sev := range []signal.Severity{r.When.RiskAtLeast, r.When.OpportunityAtLeast, r.Then.SetRisk, r.Then.SetOpportunity} {
			if sev != "" && !sev.Valid() {
				return fmt.Errorf("rule %q: unknown severity %q", r.ID, sev)
			}
		}
		if r.When.Intent != "" && !r.When.Intent.Valid() {
			return fmt.Errorf("rule %q: unknown intent %q", r.ID, r.When.Intent)
		}
		if r.Then.ScoreFloor < 0 || r.Then.ScoreFloor > 100 {
			return fmt.Errorf("rule %q: score floor %d outside [0, 100]", r.ID, r.Then.ScoreFloor)
		}
		if r.Then.ScoreBoost < 0 {
			return fmt.Errorf("rule %q: negative score boost", r.ID)
		}
		if r.Then.RaisePriority < 0 {
			return fmt.Errorf("rule %q: negative priority raise", r.ID)
		}
	}
	return nil
}
