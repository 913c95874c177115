package core

import (
	"time"

	"github.com/google/uuid"
)

// Event is the normalized event shape consumed by the correlation engine.
// Events are immutable once created and owned by the caller; the engine
// references them but never copies or mutates them.
type Event struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Type      string                 `json:"type"`
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

// NewEvent creates a new Event with a generated UUID and current timestamp
func NewEvent(eventType, source string) *Event {
	return &Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Type:      eventType,
		Source:    source,
		Data:      make(map[string]interface{}),
	}
}

// LogEvent is the richer event shape consumed by the SIGMA engine. The
// optional provider/channel/event-id fields drive log-source filtering
// before detection logic runs.
type LogEvent struct {
	ID        string                 `json:"id"`
	Timestamp time.Time              `json:"timestamp"`
	Provider  string                 `json:"provider,omitempty"`
	Channel   string                 `json:"channel,omitempty"`
	EventID   int                    `json:"event_id,omitempty"`
	Level     string                 `json:"level,omitempty"`
	Computer  string                 `json:"computer,omitempty"`
	Data      map[string]interface{} `json:"data"`
}

// NewLogEvent creates a new LogEvent with a generated UUID and current timestamp
func NewLogEvent() *LogEvent {
	return &LogEvent{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UTC(),
		Data:      make(map[string]interface{}),
	}
}
