package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Event is one emitted domain event. Payload is always valid JSON.
type Event struct {
	Topic       string
	AggregateID string
	Payload     []byte
}

// Notifier reacts to emitted events (queueing email, metrics, and so on).
type Notifier interface {
	Notify(ctx context.Context, event Event) error
}

// Bus fans domain events out to the configured notifiers. Notifier failures
// are joined and reported to the caller but never stop the fan-out.
type Bus struct {
	Notifiers []Notifier
}

// Emit encodes the payload and dispatches the event to all notifiers.
func (b *Bus) Emit(ctx context.Context, topic, aggregateID string, payload any) error {
	if b == nil {
		return nil
	}
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return errors.New("events: topic is required")
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("events: encode payload: %w", err)
	}
	ev := Event{Topic: topic, AggregateID: aggregateID, Payload: encoded}
	var joined error
	for _, notifier := range b.Notifiers {
		if notifier == nil {
			continue
		}
		if notifyErr := notifier.Notify(ctx, ev); notifyErr != nil {
			joined = errors.Join(joined, fmt.Errorf("events: notifier: %w", notifyErr))
		}
	}
	return joined
}
