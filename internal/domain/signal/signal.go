// Package signal defines the Signal Bundle: the structured output of the
// upstream extraction pipeline (sentiment, intent, keywords, entities and the
// model-generated narrative) for a single processed call. A bundle is
// immutable once produced; the decision engine only reads it.
package signal

import (
	"fmt"

	"github.com/calldeck/calldeck/internal/domain"
)

// Intent is the closed set of business intents produced by the classifier.
type Intent string

const (
	IntentCancellationRisk Intent = "cancellation_risk"
	IntentDemoRequest      Intent = "demo_request"
	IntentPricingInquiry   Intent = "pricing_inquiry"
	IntentComplaint        Intent = "complaint"
	IntentQualifiedLead    Intent = "qualified_lead"
	IntentObjection        Intent = "objection_handling"
	IntentCompetitor       Intent = "competitor_comparison"
	IntentUrgentFollowup   Intent = "urgent_followup"
	IntentGeneral          Intent = "general"
)

// Valid reports whether the intent is one of the known classifier labels.
func (i Intent) Valid() bool {
	switch i {
	case IntentCancellationRisk, IntentDemoRequest, IntentPricingInquiry,
		IntentComplaint, IntentQualifiedLead, IntentObjection,
		IntentCompetitor, IntentUrgentFollowup, IntentGeneral:
		return true
	}
	return false
}

// Severity is a qualitative risk/opportunity level assigned by the narrative model.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Rank returns the ordinal of a severity for monotonic comparisons.
// Unknown severities rank below "low".
func (s Severity) Rank() int {
	switch s {
	case SeverityLow:
		return 1
	case SeverityMedium:
		return 2
	case SeverityHigh:
		return 3
	}
	return 0
}

// Valid reports whether the severity is one of low, medium or high.
func (s Severity) Valid() bool { return s.Rank() > 0 }

// Max returns the more severe of s and other.
func (s Severity) Max(other Severity) Severity {
	if other.Rank() > s.Rank() {
		return other
	}
	return s
}

// Sentiment holds the VADER-style sentiment scores for the full transcript.
type Sentiment struct {
	Compound float64 `json:"compound"` // [-1, 1]
	Positive float64 `json:"positive"`
	Neutral  float64 `json:"neutral"`
	Negative float64 `json:"negative"`
	Label    string  `json:"label"` // "positive" | "neutral" | "negative"
}

// Entity is a single extracted entity in extraction order.
type Entity struct {
	Text  string `json:"text"`
	Label string `json:"label"` // e.g. "PERSON", "ORG", "MONEY", "DATE"
}

// Narrative is the block produced by the hosted language model call.
type Narrative struct {
	SummaryShort     string   `json:"summary_short"`
	SummaryDetailed  string   `json:"summary_detailed"`
	RiskLevel        Severity `json:"risk_level"`
	OpportunityLevel Severity `json:"opportunity_level"`
	PriorityHint     int      `json:"priority_hint"` // 0-100
	Reasoning        string   `json:"reasoning"`
}

// Bundle is the full set of extracted signals for one call.
type Bundle struct {
	// Transcript is the raw call transcript. Optional; rules that scan for
	// literal phrases fall back to keyword hits when it is empty.
	Transcript string `json:"transcript,omitempty"`

	Sentiment Sentiment `json:"sentiment"`
	Intent    Intent    `json:"intent"`

	// Keywords maps a category name (e.g. "cancellation", "pricing") to the
	// terms matched in the transcript. An absent category means zero hits.
	Keywords map[string][]string `json:"keywords,omitempty"`

	Entities  []Entity  `json:"entities,omitempty"`
	Narrative Narrative `json:"narrative"`
}

// HasKeyword reports whether at least one term was matched in the category.
func (b *Bundle) HasKeyword(category string) bool {
	return len(b.Keywords[category]) > 0
}

// FirstEntity returns the text of the first entity with the given label,
// or the empty string when none was extracted.
func (b *Bundle) FirstEntity(label string) string {
	for _, e := range b.Entities {
		if e.Label == label {
			return e.Text
		}
	}
	return ""
}

// Validate checks the bundle for structural defects. All failures wrap
// domain.ErrValidation so callers can reject the input before persistence.
func (b *Bundle) Validate() error {
	if b.Sentiment.Compound < -1 || b.Sentiment.Compound > 1 {
		return fmt.Errorf("%w: sentiment compound %.3f outside [-1, 1]", domain.ErrValidation, b.Sentiment.Compound)
	}
	switch b.Sentiment.Label {
	case "positive", "neutral", "negative":
	default:
		return fmt.Errorf("%w: unknown sentiment label %q", domain.ErrValidation, b.Sentiment.Label)
	}
	if !b.Intent.Valid() {
		return fmt.Errorf("%w: unknown intent %q", domain.ErrValidation, b.Intent)
	}
	if !b.Narrative.RiskLevel.Valid() {
		return fmt.Errorf("%w: unknown narrative risk level %q", domain.ErrValidation, b.Narrative.RiskLevel)
	}
	if !b.Narrative.OpportunityLevel.Valid() {
		return fmt.Errorf("%w: unknown narrative opportunity level %q", domain.ErrValidation, b.Narrative.OpportunityLevel)
	}
	if b.Narrative.PriorityHint < 0 || b.Narrative.PriorityHint > 100 {
		return fmt.Errorf("%w: priority hint %d outside [0, 100]", domain.ErrValidation, b.Narrative.PriorityHint)
	}
	return nil
}
