// Package kvstore is the storage substrate for all persistent state: JSON
// blobs addressed by a fixed set of string keys, mirroring how the web client
// kept everything in browser local storage.
package kvstore

import (
	"context"
	"errors"
)

// Well-known keys. Each key holds one whole collection; there are no
// per-record keys, so every mutation is read-modify-write of the full blob.
const (
	KeyOrders             = "orders"
	KeyOrderHistory       = "orderHistory"
	KeyRestaurants        = "restaurants"
	KeyOrderStatusUpdated = "orderStatusUpdated"
	KeyTablesUpdated      = "tablesUpdated"
	KeyOrderEvents        = "orderEvents"
)

type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

var ErrKeyNotFound = errors.New("key not found")
