package otel

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "calldeck"

// Metrics holds all Calldeck metric instruments.
type Metrics struct {
	CasesDecided    metric.Int64Counter
	CasesApproved   metric.Int64Counter
	CasesRejected   metric.Int64Counter
	RemindersSent   metric.Int64Counter
	RemindersFailed metric.Int64Counter
	DecideDuration  metric.Float64Histogram
	PriorityScore   metric.Float64Histogram
}

// NewMetrics creates all metric instruments.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(meterName)
	m := &Metrics{}
	var err error

	m.CasesDecided, err = meter.Int64Counter("calldeck.cases.decided",
		metric.WithDescription("Number of call cases decided"))
	if err != nil {
		return nil, err
	}

	m.CasesApproved, err = meter.Int64Counter("calldeck.cases.approved",
		metric.WithDescription("Number of cases approved"))
	if err != nil {
		return nil, err
	}

	m.CasesRejected, err = meter.Int64Counter("calldeck.cases.rejected",
		metric.WithDescription("Number of cases rejected"))
	if err != nil {
		return nil, err
	}

	m.RemindersSent, err = meter.Int64Counter("calldeck.reminders.sent",
		metric.WithDescription("Number of reminder notifications delivered"))
	if err != nil {
		return nil, err
	}

	m.RemindersFailed, err = meter.Int64Counter("calldeck.reminders.failed",
		metric.WithDescription("Number of reminder notifications that failed to deliver"))
	if err != nil {
		return nil, err
	}

	m.DecideDuration, err = meter.Float64Histogram("calldeck.decide.duration_seconds",
		metric.WithDescription("Decision engine evaluation duration in seconds"))
	if err != nil {
		return nil, err
	}

	m.PriorityScore, err = meter.Float64Histogram("calldeck.decide.priority_score",
		metric.WithDescription("Distribution of final priority scores"))
	if err != nil {
		return nil, err
	}

	return m, nil
}
