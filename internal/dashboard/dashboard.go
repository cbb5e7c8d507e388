// Package dashboard drives the admin dashboard refresh cycle: run a
// migration pass, recompute the summary metrics, repeat whenever anything
// signals a change or, failing that, on a one-second poll tick.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/shreyasmhade/QickServe/internal/kvstore"
	"github.com/shreyasmhade/QickServe/internal/lifecycle"
	"github.com/shreyasmhade/QickServe/internal/metrics"
	"github.com/shreyasmhade/QickServe/internal/notify"
)

// watchedKeys are the collections whose changes invalidate the dashboard.
var watchedKeys = []string{
	kvstore.KeyOrders,
	kvstore.KeyOrderHistory,
	kvstore.KeyOrderStatusUpdated,
	kvstore.KeyRestaurants,
	kvstore.KeyTablesUpdated,
}

type Service struct {
	engine       *lifecycle.Engine
	bus          notify.Bus
	pollInterval time.Duration
	sfg          singleflight.Group // coalesces concurrent refreshes
	now          func() time.Time

	mu      sync.RWMutex
	summary metrics.Summary
}

func NewService(engine *lifecycle.Engine, bus notify.Bus) *Service {
	return &Service{
		engine:       engine,
		bus:          bus,
		pollInterval: time.Second,
		now:          time.Now,
	}
}

// Refresh runs one full pipeline pass: migrate eligible completed orders,
// then recompute the metrics from both collections. Concurrent callers
// (push signal, poll tick, HTTP read) share a single execution.
func (s *Service) Refresh(ctx context.Context) (metrics.Summary, error) {
	v, err, _ := s.sfg.Do("refresh", func() (interface{}, error) {
		if _, errMigrate := s.engine.MigrationPass(ctx); errMigrate != nil {
			return nil, fmt.Errorf("migration pass: %w", errMigrate)
		}

		live, errLive := s.engine.ListLive(ctx)
		if errLive != nil {
			return nil, fmt.Errorf("list live orders: %w", errLive)
		}
		archive, errArchive := s.engine.ListArchive(ctx)
		if errArchive != nil {
			return nil, fmt.Errorf("list archive: %w", errArchive)
		}

		summary := metrics.Compute(live, archive, s.now())
		s.mu.Lock()
		s.summary = summary
		s.mu.Unlock()
		return summary, nil
	})
	if err != nil {
		return metrics.Summary{}, err
	}
	return v.(metrics.Summary), nil
}

// Summary returns the last computed snapshot without touching storage.
func (s *Service) Summary() metrics.Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.summary
}

// Run keeps the dashboard fresh until ctx is cancelled. Change signals from
// the bus are the fast path; the poll tick bounds staleness to roughly the
// poll interval when a signal is lost, the writer has no bus, or an archive
// dwell elapses with no write at all.
//
// Subscriptions only mark the dashboard dirty; every refresh runs on this
// goroutine. A subscriber that refreshed inline would re-enter the in-flight
// singleflight call when a migration pass publishes its own saves on the
// same bus, and wedge it forever.
func (s *Service) Run(ctx context.Context) {
	if _, err := s.Refresh(ctx); err != nil {
		log.Printf("initial dashboard refresh failed: %v", err)
	}

	dirty := make(chan struct{}, 1)
	markDirty := func() {
		select {
		case dirty <- struct{}{}:
		default:
		}
	}

	if s.bus != nil {
		for _, key := range watchedKeys {
			unsubscribe := s.bus.Subscribe(key, markDirty)
			defer unsubscribe()
		}
	}

	refresh := func() {
		if _, err := s.Refresh(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("dashboard refresh failed: %v", err)
		}
	}

	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-dirty:
			refresh()
		case <-ticker.C:
			refresh()
		case <-ctx.Done():
			return
		}
	}
}
