package backend

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"rederly/client/internal/telemetry"
)

// RequestIDHeader carries a per-request id for correlating client and server logs.
const RequestIDHeader = "X-Request-ID"

// backendRequestMetadata is the JSON shape stored in Event.Metadata for backend_request events.
type backendRequestMetadata struct {
	Method     string `json:"method"`
	Path       string `json:"path"`
	StatusCode int    `json:"status_code"`
	DurationMs int64  `json:"duration_ms"`
	RequestID  string `json:"request_id"`
	Error      string `json:"error,omitempty"`
}

// TelemetryTransport tags each request with an X-Request-ID and emits a backend_request event after it.
// Emission is best-effort and never fails the request. A nil emitter only sets the header.
type TelemetryTransport struct {
	base    http.RoundTripper
	emitter telemetry.EventEmitter
	logger  logrus.FieldLogger
}

// NewTelemetryTransport wraps base (http.DefaultTransport when nil).
func NewTelemetryTransport(base http.RoundTripper, emitter telemetry.EventEmitter, logger logrus.FieldLogger) *TelemetryTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &TelemetryTransport{base: base, emitter: emitter, logger: logger}
}

// RoundTrip implements http.RoundTripper.
func (t *TelemetryTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	id := req.Header.Get(RequestIDHeader)
	if id == "" {
		id = uuid.New().String()
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, id)
	}
	start := time.Now()
	resp, err := t.base.RoundTrip(req)
	if t.emitter == nil {
		return resp, err
	}
	meta := backendRequestMetadata{
		Method:     req.Method,
		Path:       req.URL.Path,
		DurationMs: time.Since(start).Milliseconds(),
		RequestID:  id,
	}
	if resp != nil {
		meta.StatusCode = resp.StatusCode
	}
	if err != nil {
		meta.Error = err.Error()
	}
	telemetry.EmitAsync(t.emitter, req.Context(), telemetry.NewEvent(telemetry.EventBackendRequest, "backend_client", meta), t.logger)
	return resp, err
}
