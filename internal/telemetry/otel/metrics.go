package otel

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Metrics records client counters: route guard decisions and override submissions.
type Metrics struct {
	guardDecisions  metric.Int64Counter
	overrideSubmits metric.Int64Counter
}

// NewMetrics creates the client instruments on provider. A nil provider yields no-op instruments.
func NewMetrics(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = noop.NewMeterProvider()
	}
	meter := provider.Meter(instrumentationName)
	guard, err := meter.Int64Counter("rederly.guard.decisions",
		metric.WithDescription("Route guard decisions by final state."))
	if err != nil {
		return nil, err
	}
	submits, err := meter.Int64Counter("rederly.overrides.submits",
		metric.WithDescription("Override form submissions by target kind and outcome."))
	if err != nil {
		return nil, err
	}
	return &Metrics{guardDecisions: guard, overrideSubmits: submits}, nil
}

// RecordGuardDecision counts one guard evaluation ending in state for route (empty when unmatched).
func (m *Metrics) RecordGuardDecision(ctx context.Context, state, route string) {
	if m == nil {
		return
	}
	m.guardDecisions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("state", state),
		attribute.String("route", route),
	))
}

// RecordOverrideSubmit counts one override submission for kind ("topic" or "question").
func (m *Metrics) RecordOverrideSubmit(ctx context.Context, kind string, ok bool) {
	if m == nil {
		return
	}
	m.overrideSubmits.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.Bool("ok", ok),
	))
}
