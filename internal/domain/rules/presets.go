package rules

// Default returns the built-in rule table. It is the published business
// policy; deployments override it with an external YAML file.
func Default() Set {
	negThreshold := -0.3
	nonNegative := 0.0

	return Set{Rules: []Rule{
		{
			ID:          "high_risk_cancel",
			Description: "High narrative risk on a cancellation-risk call forces escalation to retention",
			When: Condition{
				RiskAtLeast: "high",
				Intent:      "cancellation_risk",
			},
			Then: Effect{
				Escalate:   true,
				AssignTeam: "Retention Team",
				ScoreFloor: 90,
				Note:       "High churn risk: escalated to the Retention Team.",
			},
		},
		{
			ID:          "negative_cancel_boost",
			Description: "Strongly negative sentiment combined with cancellation language",
			When: Condition{
				SentimentBelow:  &negThreshold,
				KeywordCategory: "cancellation",
			},
			Then: Effect{
				ScoreBoost:    15,
				RaisePriority: 1,
				Note:          "Negative sentiment with cancellation language raised the priority floor.",
			},
		},
		{
			ID:          "demo_interest",
			Description: "Demo language with non-negative sentiment signals sales opportunity",
			When: Condition{
				KeywordCategory:  "demo",
				SentimentAtLeast: &nonNegative,
			},
			Then: Effect{
				SetOpportunity: "high",
				AssignTeam:     "Sales Team",
				Note:           "Demo interest routed to the Sales Team.",
			},
		},
		{
			ID:          "urgent_timeline",
			Description: "Caller stated an urgent timeline",
			When: Condition{
				PhraseAny: []string{"today", "immediately", "asap", "right now", "urgent", "emergency"},
			},
			Then: Effect{
				ScoreFloor: 90,
				Note:       "Urgent timeline stated by the caller.",
			},
		},
		{
			ID:          "pricing_friction",
			Description: "Pricing language with negative sentiment needs a pricing specialist",
			When: Condition{
				KeywordCategory: "pricing",
				SentimentBelow:  &nonNegative,
			},
			Then: Effect{
				AssignTeam: "Pricing Specialist",
				Note:       "Pricing friction: a pricing specialist should join the follow-up.",
			},
		},
		{
			ID:          "fast_track_demo",
			Description: "High-opportunity demo requests are fast-tracked",
			When: Condition{
				OpportunityAtLeast: "high",
				Intent:             "demo_request",
			},
			Then: Effect{
				FastTrack:  true,
				ScoreFloor: 80,
				Note:       "High-value demo request fast-tracked.",
			},
		},
	}}
}
