// Package telemetry defines client telemetry events and best-effort emitters for them.
package telemetry

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"
)

// EventEmitter emits telemetry events (e.g. to OTel Logs or Kafka). Best-effort; callers log and ignore errors.
type EventEmitter interface {
	Emit(ctx context.Context, event *Event) error
}

// MultiEmitter fans an event out to every non-nil emitter. All emitters are tried; the joined error is returned.
type MultiEmitter []EventEmitter

// Emit sends event to each emitter in order.
func (m MultiEmitter) Emit(ctx context.Context, event *Event) error {
	var errs []error
	for _, e := range m {
		if e == nil {
			continue
		}
		if err := e.Emit(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// LogEmitter writes events to a logrus logger at debug level.
type LogEmitter struct {
	Logger logrus.FieldLogger
}

// Emit logs the event fields.
func (l LogEmitter) Emit(ctx context.Context, event *Event) error {
	if l.Logger == nil || event == nil {
		return nil
	}
	fields := logrus.Fields{
		"event_id":   event.ID,
		"event_type": event.EventType,
		"source":     event.Source,
	}
	if event.UserID != 0 {
		fields["user_id"] = event.UserID
	}
	if len(event.Metadata) > 0 {
		fields["metadata"] = string(event.Metadata)
	}
	l.Logger.WithFields(fields).Debug("telemetry event")
	return nil
}
