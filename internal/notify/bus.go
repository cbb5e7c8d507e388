// Package notify propagates "this key changed" signals between writers and
// the dashboard refresh pipeline, replacing the old sentinel-timestamp
// diffing with an observer interface. Delivery is best-effort; the poll
// fallback in the dashboard bounds the staleness either way.
package notify

import "context"

// Bus fans key-change signals out to subscribers. Consumers define the
// interface; implementations live next to their transport.
type Bus interface {
	// Publish signals that the collection under key changed.
	Publish(ctx context.Context, key string) error
	// Subscribe registers fn to run on every change of key. The returned
	// function removes the subscription.
	Subscribe(key string, fn func()) (unsubscribe func())
}
