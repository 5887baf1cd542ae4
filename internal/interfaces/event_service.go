package interfaces

import (
	"context"
	"time"
)

// EventType names something that happened to site content, inquiries or planner sessions
type EventType string

const (
	EventInquirySubmitted EventType = "inquiry_submitted"
	EventContentChanged   EventType = "content_changed"
	EventSessionsSwept    EventType = "planner_sessions_swept"
)

// AllEventTypes lists every event the site publishes
var AllEventTypes = []EventType{EventInquirySubmitted, EventContentChanged, EventSessionsSwept}

// Event is delivered to subscribers. Time is set on publish when left zero.
// Payload is a map[string]interface{} for every event the site publishes.
type Event struct {
	Type    EventType
	Time    time.Time
	Payload interface{}
}

// EventHandler reacts to one event
type EventHandler func(ctx context.Context, event Event) error

// EventService is the in-process pub/sub bus
type EventService interface {
	Subscribe(eventType EventType, handler EventHandler) error
	// Publish runs subscribers in the background
	Publish(ctx context.Context, event Event) error
	// PublishSync runs subscribers in order and returns their joined errors
	PublishSync(ctx context.Context, event Event) error
	// Close waits for background subscribers to finish
	Close() error
}
