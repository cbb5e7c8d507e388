// Package publisher pushes order events to external consumers through an
// outbox: transitions are recorded next to the order data first, then a
// poller drains them to Kafka. Delivery is at-least-once; a failed publish
// leaves the event queued for the next tick.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shreyasmhade/QickServe/internal/domain"
	"github.com/shreyasmhade/QickServe/internal/kvstore"
)

type Event struct {
	ID          string          `json:"id"`
	AggregateID string          `json:"aggregate_id"` // order id, used as the partition key
	EventType   string          `json:"event_type"`
	Payload     json.RawMessage `json:"payload"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Outbox stores pending events as one JSON array under the orderEvents key.
// The mutex only serializes writers within this process; cross-process
// clobbering is the same accepted limitation as the order collections.
type Outbox struct {
	mu    sync.Mutex
	store kvstore.Store
}

func NewOutbox(store kvstore.Store) *Outbox {
	return &Outbox{store: store}
}

// Record implements the lifecycle event sink: the full order is the payload.
func (o *Outbox) Record(ctx context.Context, eventType string, order domain.Order) error {
	payload, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("marshal order payload: %w", err)
	}

	event := Event{
		ID:          uuid.New().String(),
		AggregateID: order.ID,
		EventType:   eventType,
		Payload:     payload,
		CreatedAt:   time.Now(),
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	events, errLoad := o.load(ctx)
	if errLoad != nil {
		return errLoad
	}
	return o.save(ctx, append(events, event))
}

// Pending returns up to limit queued events, oldest first.
func (o *Outbox) Pending(ctx context.Context, limit int) ([]Event, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	events, err := o.load(ctx)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(events) > limit {
		events = events[:limit]
	}
	return events, nil
}

// MarkPublished drops the given event ids from the queue.
func (o *Outbox) MarkPublished(ctx context.Context, eventIDs []string) error {
	if len(eventIDs) == 0 {
		return nil
	}
	published := make(map[string]bool, len(eventIDs))
	for _, id := range eventIDs {
		published[id] = true
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	events, err := o.load(ctx)
	if err != nil {
		return err
	}

	remaining := events[:0]
	for _, event := range events {
		if !published[event.ID] {
			remaining = append(remaining, event)
		}
	}
	return o.save(ctx, remaining)
}

func (o *Outbox) load(ctx context.Context) ([]Event, error) {
	data, err := o.store.Get(ctx, kvstore.KeyOrderEvents)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return []Event{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load outbox: %w", err)
	}

	var events []Event
	if errUnmarshal := json.Unmarshal(data, &events); errUnmarshal != nil {
		// A corrupt outbox loses queued events but must not wedge ordering.
		return []Event{}, nil
	}
	return events, nil
}

func (o *Outbox) save(ctx context.Context, events []Event) error {
	if events == nil {
		events = []Event{}
	}
	data, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("marshal outbox: %w", err)
	}
	if errSet := o.store.Set(ctx, kvstore.KeyOrderEvents, data); errSet != nil {
		return fmt.Errorf("save outbox: %w", errSet)
	}
	return nil
}
