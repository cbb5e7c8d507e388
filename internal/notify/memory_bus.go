package notify

import (
	"context"
	"sync"
)

// MemoryBus is the in-process Bus used in standalone mode and tests.
// Callbacks run synchronously on the publisher's goroutine.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[string]map[int]func()
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[string]map[int]func())}
}

func (b *MemoryBus) Publish(_ context.Context, key string) error {
	b.mu.RLock()
	fns := make([]func(), 0, len(b.subs[key]))
	for _, fn := range b.subs[key] {
		fns = append(fns, fn)
	}
	b.mu.RUnlock()

	for _, fn := range fns {
		fn()
	}
	return nil
}

func (b *MemoryBus) Subscribe(key string, fn func()) func() {
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
