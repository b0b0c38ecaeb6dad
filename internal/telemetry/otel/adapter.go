package otel

import (
	"context"
	"encoding/json"
	"time"

	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"

	"rederly/client/internal/telemetry"
)

const instrumentationName = "rederly.client"

// recordEmitter is the part of an OTel logger the emitter needs.
type recordEmitter interface {
	Emit(ctx context.Context, rec otellog.Record)
}

// NewEventEmitter returns an EventEmitter that sends events as OTel log records via the given LoggerProvider.
// If provider is nil, returns a no-op emitter.
func NewEventEmitter(provider *sdklog.LoggerProvider) telemetry.EventEmitter {
	if provider == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: provider.Logger(instrumentationName)}
}

// NewEventEmitterWithLogger returns an EventEmitter writing to logger.
func NewEventEmitterWithLogger(logger recordEmitter) telemetry.EventEmitter {
	if logger == nil {
		return noopEmitter{}
	}
	return &otelEmitter{logger: logger}
}

type noopEmitter struct{}

func (noopEmitter) Emit(context.Context, *telemetry.Event) error { return nil }

type otelEmitter struct {
	logger recordEmitter
}

// Emit writes event as an INFO record. The raw metadata is the body; its top-level scalar
// fields are also copied to "meta.<field>" attributes so collectors can filter on them.
func (e *otelEmitter) Emit(ctx context.Context, event *telemetry.Event) error {
	if event == nil {
		return nil
	}
	var rec otellog.Record
	ts := event.CreatedAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	rec.SetTimestamp(ts)
	rec.SetSeverity(otellog.SeverityInfo)
	rec.SetSeverityText("INFO")

	attrs := []otellog.KeyValue{
		otellog.String("event_type", event.EventType),
		otellog.String("source", event.Source),
	}
	if event.ID != "" {
		attrs = append(attrs, otellog.String("event_id", event.ID))
	}
	if event.UserID != 0 {
		attrs = append(attrs, otellog.Int("user_id", event.UserID))
	}
	if event.Username != "" {
		attrs = append(attrs, otellog.String("username", event.Username))
	}
	if len(event.Metadata) > 0 {
		rec.SetBody(otellog.StringValue(string(event.Metadata)))
		attrs = append(attrs, metadataAttributes(event.Metadata)...)
	}
	rec.AddAttributes(attrs...)
	e.logger.Emit(ctx, rec)
	return nil
}

func metadataAttributes(raw json.RawMessage) []otellog.KeyValue {
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil
	}
	out := make([]otellog.KeyValue, 0, len(fields))
	for k, v := range fields {
		key := "meta." + k
		switch val := v.(type) {
		case string:
			out = append(out, otellog.String(key, val))
		case bool:
			out = append(out, otellog.Bool(key, val))
		case float64:
			if val == float64(int64(val)) {
				out = append(out, otellog.Int64(key, int64(val)))
			} else {
				out = append(out, otellog.Float64(key, val))
			}
		}
	}
	return out
}
