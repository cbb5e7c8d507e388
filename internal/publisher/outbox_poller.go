package publisher

import (
	"context"
	"log"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	// Topic carries every order placement and status transition.
	Topic = "order-status-events"

	drainBatchSize = 100
)

// messageWriter is the slice of kafka.Writer the poller needs; tests swap in
// a fake.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

type OutboxPoller struct {
	tick   time.Duration
	outbox *Outbox
	writer messageWriter
}

func NewOutboxPoller(outbox *Outbox, brokers ...string) *OutboxPoller {
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  Topic,
		Balancer:               &kafka.LeastBytes{},
		AllowAutoTopicCreation: true,
	}
	return &OutboxPoller{time.Second, outbox, w}
}

func (p *OutboxPoller) Run(ctx context.Context) {
	ticker := time.NewTicker(p.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			p.drainPendingEvents(ctx)
		case <-ctx.Done():
			return
		}
	}
}

func (p *OutboxPoller) Close() {
	if w, ok := p.writer.(*kafka.Writer); ok {
		if err := w.Close(); err != nil {
			log.Printf("error closing kafka writer: %v", err)
		}
	}
}

func (p *OutboxPoller) drainPendingEvents(ctx context.Context) {
	events, err := p.outbox.Pending(ctx, drainBatchSize)
	if err != nil {
		log.Printf("failed to fetch outbox events: %v", err)
		return
	}

	var publishedIDs []string
	for _, event := range events {
		if errPublish := p.publishToKafka(ctx, event); errPublish != nil {
			log.Printf("failed to publish event id = %v with error %v", event.ID, errPublish)
			continue
		}
		publishedIDs = append(publishedIDs, event.ID)
	}

	if errMark := p.outbox.MarkPublished(ctx, publishedIDs); errMark != nil {
		log.Printf("failed to mark events as published: %v", errMark)
	}
}

func (p *OutboxPoller) publishToKafka(ctx context.Context, event Event) error {
	msg := kafka.Message{
		Key:   []byte(event.AggregateID), // order id for per-order ordering
		Value: event.Payload,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.EventType)},
		},
	}
	return p.writer.WriteMessages(ctx, msg)
}
