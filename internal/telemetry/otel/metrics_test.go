package otel

import (
	"context"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	out := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				out[m.Name] += dp.Value
			}
		}
	}
	return out
}

func TestMetrics_Counters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	defer func() { _ = provider.Shutdown(context.Background()) }()

	m, err := NewMetrics(provider)
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	ctx := context.Background()
	m.RecordGuardDecision(ctx, "AUTHORIZED", "courses")
	m.RecordGuardDecision(ctx, "UNAUTHORIZED", "")
	m.RecordOverrideSubmit(ctx, "topic", true)

	sums := collectSums(t, reader)
	if sums["rederly.guard.decisions"] != 2 {
		t.Errorf("guard decisions = %d, want 2", sums["rederly.guard.decisions"])
	}
	if sums["rederly.overrides.submits"] != 1 {
		t.Errorf("override submits = %d, want 1", sums["rederly.overrides.submits"])
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	m.RecordGuardDecision(context.Background(), "CHECKING", "")
	m.RecordOverrideSubmit(context.Background(), "question", false)

	noop, err := NewMetrics(nil)
	if err != nil {
		t.Fatalf("NewMetrics(nil): %v", err)
	}
	noop.RecordGuardDecision(context.Background(), "AUTHORIZED", "account")
}
