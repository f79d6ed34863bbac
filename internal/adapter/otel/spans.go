package otel

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "calldeck"

// StartDecideSpan starts a span for a decision engine evaluation.
func StartDecideSpan(ctx context.Context, callRef, intent string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "decide",
		trace.WithAttributes(
			attribute.String("call.ref", callRef),
			attribute.String("call.intent", intent),
		),
	)
}

// StartReminderSweepSpan starts a span for one reminder scheduler sweep.
func StartReminderSweepSpan(ctx context.Context) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "reminder.sweep")
}

// StartNotifySpan starts a span for a notification delivery attempt.
func StartNotifySpan(ctx context.Context, caseID, provider string) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, "notify",
		trace.WithAttributes(
			attribute.String("case.id", caseID),
			attribute.String("notify.provider", provider),
		),
	)
}
