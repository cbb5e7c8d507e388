package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shreyasmhade/QickServe/internal/domain"
	"github.com/shreyasmhade/QickServe/internal/kvstore"
	"github.com/shreyasmhade/QickServe/internal/notify"
)

// KVOrderRepository stores each collection as one JSON array under a fixed
// key, exactly the way the web client used local storage. A blob that fails
// to parse is treated as an empty collection: the read path must never take
// the dashboard down over bad data.
type KVOrderRepository struct {
	store kvstore.Store
	bus   notify.Bus // optional; the Redis store already signals on write
}

func NewKVOrderRepository(store kvstore.Store, bus notify.Bus) *KVOrderRepository {
	return &KVOrderRepository{store: store, bus: bus}
}

func (r *KVOrderRepository) LoadLive(ctx context.Context) ([]domain.Order, error) {
	return r.loadOrders(ctx, kvstore.KeyOrders)
}

func (r *KVOrderRepository) SaveLive(ctx context.Context, orders []domain.Order) error {
	return r.saveOrders(ctx, kvstore.KeyOrders, orders)
}

func (r *KVOrderRepository) LoadArchive(ctx context.Context) ([]domain.Order, error) {
	return r.loadOrders(ctx, kvstore.KeyOrderHistory)
}

func (r *KVOrderRepository) SaveArchive(ctx context.Context, orders []domain.Order) error {
	return r.saveOrders(ctx, kvstore.KeyOrderHistory, orders)
}

func (r *KVOrderRepository) loadOrders(ctx context.Context, key string) ([]domain.Order, error) {
	data, err := r.store.Get(ctx, key)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return []domain.Order{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", key, err)
	}

	var orders []domain.Order
	if errUnmarshal := json.Unmarshal(data, &orders); errUnmarshal != nil {
		log.Printf("malformed %s collection, treating as empty: %v", key, errUnmarshal)
		return []domain.Order{}, nil
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return orders, nil
}

func (r *KVOrderRepository) saveOrders(ctx context.Context, key string, orders []domain.Order) error {
	if orders == nil {
		orders = []domain.Order{}
	}
	data, err := json.Marshal(orders)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if errSet := r.store.Set(ctx, key, data); errSet != nil {
		return fmt.Errorf("save %s: %w", key, errSet)
	}

	// Sentinel for pollers that diff a timestamp instead of subscribing.
	stamp := []byte(time.Now().Format(time.RFC3339Nano))
	if errStamp := r.store.Set(ctx, kvstore.KeyOrderStatusUpdated, stamp); errStamp != nil {
		log.Printf("failed to stamp %s: %v", kvstore.KeyOrderStatusUpdated, errStamp)
	}

	r.publish(ctx, key)
	r.publish(ctx, kvstore.KeyOrderStatusUpdated)
	return nil
}

func (r *KVOrderRepository) publish(ctx context.Context, key string) {
	if r.bus == nil {
		return
	}
	if err := r.bus.Publish(ctx, key); err != nil {
		log.Printf("failed to publish change signal for %s: %v", key, err)
	}
}

// KVRestaurantRepository keeps the whole catalog as one JSON array under the
// restaurants key, table state embedded, as the original stored it.
type KVRestaurantRepository struct {
	store kvstore.Store
	bus   notify.Bus
}

func NewKVRestaurantRepository(store kvstore.Store, bus notify.Bus) *KVRestaurantRepository {
	return &KVRestaurantRepository{store: store, bus: bus}
}

func (r *KVRestaurantRepository) List(ctx context.Context) ([]domain.Restaurant, error) {
	data, err := r.store.Get(ctx, kvstore.KeyRestaurants)
	if errors.Is(err, kvstore.ErrKeyNotFound) {
		return []domain.Restaurant{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load restaurants: %w", err)
	}

	var restaurants []domain.Restaurant
	if errUnmarshal := json.Unmarshal(data, &restaurants); errUnmarshal != nil {
		log.Printf("malformed restaurants collection, treating as empty: %v", errUnmarshal)
		return []domain.Restaurant{}, nil
	}
	if restaurants == nil {
		restaurants = []domain.Restaurant{}
	}
	return restaurants, nil
}

func (r *KVRestaurantRepository) Get(ctx context.Context, id string) (*domain.Restaurant, error) {
	restaurants, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	for i := range restaurants {
		if restaurants[i].ID == id {
			return &restaurants[i], nil
		}
	}
	return nil, ErrRestaurantNotFound
}

func (r *KVRestaurantRepository) SaveAll(ctx context.Context, restaurants []domain.Restaurant) error {
	if restaurants == nil {
		restaurants = []domain.Restaurant{}
	}
	data, err := json.Marshal(restaurants)
	if err != nil {
		return fmt.Errorf("marshal restaurants: %w", err)
	}
	if errSet := r.store.Set(ctx, kvstore.KeyRestaurants, data); errSet != nil {
		return fmt.Errorf("save restaurants: %w", errSet)
	}
	if r.bus != nil {
		if errPub := r.bus.Publish(ctx, kvstore.KeyRestaurants); errPub != nil {
			log.Printf("failed to publish restaurants change: %v", errPub)
		}
	}
	return nil
}

func (r *KVRestaurantRepository) SetTableStatus(ctx context.Context, restaurantID, tableID string, status domain.TableStatus) error {
	restaurants, err := r.List(ctx)
	if err != nil {
		return err
	}

	found := false
	for i := range restaurants {
		if restaurants[i].ID != restaurantID {
			continue
		}
		table := restaurants[i].FindTable(tableID)
		if table == nil {
			return ErrTableNotFound
		}
		table.Status = status
		found = true
		break
	}
	if !found {
		return ErrRestaurantNotFound
	}

	if errSave := r.SaveAll(ctx, restaurants); errSave != nil {
		return errSave
	}

	stamp := []byte(time.Now().Format(time.RFC3339Nano))
	if errStamp := r.store.Set(ctx, kvstore.KeyTablesUpdated, stamp); errStamp != nil {
		log.Printf("failed to stamp %s: %v", kvstore.KeyTablesUpdated, errStamp)
	}
	if r.bus != nil {
		if errPub := r.bus.Publish(ctx, kvstore.KeyTablesUpdated); errPub != nil {
			log.Printf("failed to publish tables change: %v", errPub)
		}
	}
	return nil
}
