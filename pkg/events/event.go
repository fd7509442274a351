package events

import (
	"context"
	"time"
)

// Event defines the contract for all workflow events.
type Event interface {
	// EventType returns the unique code for this event (e.g., "USAGE_RECORDED").
	EventType() string

	// Payload returns the data associated with the event.
	Payload() map[string]interface{}

	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// Publisher delivers events to a bus
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

const (
	EventStageChanged  = "STAGE_CHANGED"
	EventUsageRecorded = "USAGE_RECORDED"
	EventSessionReset  = "SESSION_RESET"
	EventBackendFailed = "BACKEND_CALL_FAILED"
)

type BaseEvent struct {
	Type       string
	Data       map[string]interface{}
	OccurredAt time.Time
}

func (e BaseEvent) EventType() string {
	return e.Type
}

func (e BaseEvent) Payload() map[string]interface{} {
	return e.Data
}

func (e BaseEvent) Timestamp() time.Time {
	return e.OccurredAt
}

func NewEvent(eventType string, data map[string]interface{}, at time.Time) BaseEvent {
	return BaseEvent{Type: eventType, Data: data, OccurredAt: at}
}

// MultiPublisher fans an event out to every publisher and returns the first error
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, event Event) error {
	var firstErr error
	for _, p := range m {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, event); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
