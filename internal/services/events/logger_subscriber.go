package events

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/serendib/internal/interfaces"
)

// NewLoggerSubscriber logs each event with its scalar payload fields.
// Nested values are skipped so message text from inquiries never reaches the log.
func NewLoggerSubscriber(logger arbor.ILogger) interfaces.EventHandler {
	return func(ctx context.Context, event interfaces.Event) error {
		entry := logger.Info().Str("event_type", string(event.Type))
		if !event.Time.IsZero() {
			entry = entry.Dur("delay", time.Since(event.Time))
		}

		payload, _ := event.Payload.(map[string]interface{})
		keys := make([]string, 0, len(payload))
		for k := range payload {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			switch v := payload[k].(type) {
			case string:
				if v != "" {
					entry = entry.Str(k, v)
				}
			case int:
				entry = entry.Int(k, v)
			case bool:
				entry = entry.Bool(k, v)
			}
		}

		entry.Msg("Event published")
		return nil
	}
}

// SubscribeLoggerToAllEvents attaches the logging subscriber to every event type
func SubscribeLoggerToAllEvents(eventService interfaces.EventService, logger arbor.ILogger) error {
	subscriber := NewLoggerSubscriber(logger)
	for _, eventType := range interfaces.AllEventTypes {
		if err := eventService.Subscribe(eventType, subscriber); err != nil {
			return fmt.Errorf("failed to subscribe logger to %s: %w", eventType, err)
		}
	}
	return nil
}
