package telemetry

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Event types emitted by the client.
const (
	EventIdentify       = "identify"
	EventLogin          = "login"
	EventLogout         = "logout"
	EventGuardDecision  = "guard_decision"
	EventOverrideSubmit = "override_submit"
	EventBackendRequest = "backend_request"
)

// Event is a client telemetry event. Metadata is a JSON object specific to the event type.
type Event struct {
	ID        string          `json:"id"`
	UserID    int             `json:"userId,omitempty"`
	Username  string          `json:"username,omitempty"`
	EventType string          `json:"eventType"`
	Source    string          `json:"source"`
	Metadata  json.RawMessage `json:"metadata,omitempty"`
	CreatedAt time.Time       `json:"createdAt"`
}

// NewEvent returns an event with a fresh id and the current time. meta is marshalled to JSON;
// a nil meta or a marshal failure leaves Metadata empty.
func NewEvent(eventType, source string, meta interface{}) *Event {
	e := &Event{
		ID:        uuid.New().String(),
		EventType: eventType,
		Source:    source,
		CreatedAt: time.Now().UTC(),
	}
	if meta != nil {
		if raw, err := json.Marshal(meta); err == nil {
			e.Metadata = raw
		}
	}
	return e
}

// WithUser sets the acting user on e and returns it.
func (e *Event) WithUser(userID int, username string) *Event {
	e.UserID = userID
	e.Username = username
	return e
}
