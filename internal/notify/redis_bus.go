package notify

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"
)

// RedisBus is the cross-process Bus: key names travel over a Redis pub/sub
// channel, so a write in one process triggers refreshes in every other —
// the same shape as the browser storage event across tabs.
type RedisBus struct {
	client  *redis.Client
	channel string

	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func()
}

func NewRedisBus(client *redis.Client, channel string) *RedisBus {
	return &RedisBus{
		client:  client,
		channel: channel,
		subs:    make(map[string]map[int]func()),
	}
}

func (b *RedisBus) Publish(ctx context.Context, key string) error {
	if err := b.client.Publish(ctx, b.channel, key).Err(); err != nil {
		return fmt.Errorf("publish change signal: %w", err)
	}
	return nil
}

func (b *RedisBus) Subscribe(key string, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	if b.subs[key] == nil {
		b.subs[key] = make(map[int]func())
	}
	b.subs[key][id] = fn

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		delete(b.subs[key], id)
	}
}

// Run consumes the pub/sub channel and dispatches to local subscribers until
// ctx is cancelled.
func (b *RedisBus) Run(ctx context.Context) {
	sub := b.client.Subscribe(ctx, b.channel)
	defer func() {
		if err := sub.Close(); err != nil {
			log.Printf("error closing subscription: %v", err)
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			b.dispatch(msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

func (b *RedisBus) dispatch(key string) {
	b.mu.RLock()
	fns := make([]func(), 0, len(b.subs[key]))
	for _, fn := range b.subs[key] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
}
