package events

import (
	"time"

	"github.com/google/uuid"
)

// Topics published by the pipeline.
const (
	TopicHTTPError        = "http.error"
	TopicHTTPUnknownError = "http.unknown.error"
)

// Event is the envelope delivered to subscribers.
type Event struct {
	ID        string    `json:"id"`
	Topic     string    `json:"topic"`
	Timestamp time.Time `json:"timestamp"`
	Payload   any       `json:"payload"`
}

// NewEvent wraps payload in an envelope with a fresh ID.
func NewEvent(topic string, payload any, now time.Time) Event {
	return Event{
		ID:        uuid.NewString(),
		Topic:     topic,
		Timestamp: now.UTC(),
		Payload:   payload,
	}
}

// Publisher is the narrow interface producers depend on.
type Publisher interface {
	Publish(topic string, payload any)
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(topic string, payload any)

// Publish implements Publisher.
func (f PublisherFunc) Publish(topic string, payload any) {
	f(topic, payload)
}

// Handler receives published events.
type Handler func(Event)
