package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"rederly/client/internal/logging"
)

const emitTimeout = 5 * time.Second

// ShutdownDrainDuration bounds how long the CLI waits in Drain before closing the exporters.
const ShutdownDrainDuration = emitTimeout

// pending tracks background emits started by EmitAsync.
var pending struct {
	wg sync.WaitGroup
}

// EmitAsync emits event on a background goroutine bounded by emitTimeout. The caller's ctx
// only contributes values; its cancellation does not stop the emit. Failures are logged.
func EmitAsync(emitter EventEmitter, ctx context.Context, event *Event, logger logrus.FieldLogger) {
	if emitter == nil || event == nil {
		return
	}
	log := logging.Component(logger, "telemetry")
	base := context.WithoutCancel(ctx)
	pending.wg.Add(1)
	go func() {
		defer pending.wg.Done()
		emitCtx, cancel := context.WithTimeout(base, emitTimeout)
		defer cancel()
		if err := emitter.Emit(emitCtx, event); err != nil {
			log.WithError(err).WithFields(logrus.Fields{
				"event_type": event.EventType,
				"event_id":   event.ID,
			}).Warn("telemetry emit failed")
		}
	}()
}

// Drain blocks until background emits finish or timeout passes. It returns false on timeout.
func Drain(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		pending.wg.Wait()
		close(done)
	}()
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case <-done:
		return true
	case <-timer.C:
		return false
	}
}
