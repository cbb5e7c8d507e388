// Package lifecycle owns the order state machine: placement, the
// pending→preparing→completed progression, terminal jumps to cancelled and
// delivered, and the timed migration of completed orders into the archive.
package lifecycle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shreyasmhade/QickServe/internal/domain"
	"github.com/shreyasmhade/QickServe/internal/repository"
)

// ArchiveDwell is how long a completed order stays on the dashboard before a
// migration pass moves it to the archive.
const ArchiveDwell = 60 * time.Second

// Event types recorded on the outbox for external consumers.
const (
	EventOrderPlaced        = "order.placed"
	EventOrderStatusChanged = "order.status_changed"
)

// EventSink records order events for asynchronous publication. A nil sink
// disables recording.
type EventSink interface {
	Record(ctx context.Context, eventType string, order domain.Order) error
}

type Engine struct {
	orders      repository.OrderRepository
	restaurants repository.RestaurantRepository
	events      EventSink
	now         func() time.Time
}

func NewEngine(orders repository.OrderRepository, restaurants repository.RestaurantRepository, events EventSink) *Engine {
	return &Engine{
		orders:      orders,
		restaurants: restaurants,
		events:      events,
		now:         time.Now,
	}
}

type PlaceOrderRequest struct {
	RestaurantID        string
	Customer            domain.Customer
	Items               []domain.OrderItem
	OrderType           domain.OrderType
	SpecialInstructions string
}

func (r *PlaceOrderRequest) validate() error {
	if len(r.Items) == 0 {
		return ErrEmptyOrder
	}
	for _, item := range r.Items {
		if item.Quantity <= 0 || item.Price < 0 {
			return ErrBadLineItem
		}
	}
	switch r.OrderType {
	case domain.TypeDelivery:
		if strings.TrimSpace(r.Customer.DeliveryAddress) == "" {
			return ErrMissingAddress
		}
	case domain.TypeEatIn, domain.TypePreOrder:
		if r.Customer.TableID == "" {
			return ErrMissingTable
		}
	case domain.TypeTakeaway:
		// nothing extra required
	default:
		return ErrUnknownOrderType
	}
	return nil
}

// PlaceOrder validates the checkout request, prices it, assigns an id and
// appends the new pending order to the live store. For eat-in the table goes
// to booked, for pre-order to reserved. The total is computed once here and
// stored; it is never recomputed later.
func (e *Engine) PlaceOrder(ctx context.Context, req PlaceOrderRequest) (*domain.Order, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	customer := req.Customer
	switch {
	case req.OrderType == domain.TypeDelivery:
		customer.TableID = ""
	case req.OrderType.NeedsTable():
		customer.DeliveryAddress = ""
	default:
		customer.TableID = ""
		customer.DeliveryAddress = ""
	}

	order := domain.Order{
		ID:                  uuid.New().String(),
		RestaurantID:        req.RestaurantID,
		RestaurantName:      e.resolveRestaurantName(ctx, req.RestaurantID),
		Customer:            customer,
		Items:               req.Items,
		SpecialInstructions: req.SpecialInstructions,
		OrderType:           req.OrderType,
		Status:              domain.StatusPending,
		TotalAmount:         domain.GrandTotal(req.Items),
		CreatedAt:           e.now(),
	}

	live, err := e.orders.LoadLive(ctx)
	if err != nil {
		return nil, fmt.Errorf("load live orders: %w", err)
	}
	live = append(live, order)
	if errSave := e.orders.SaveLive(ctx, live); errSave != nil {
		return nil, fmt.Errorf("save live orders: %w", errSave)
	}

	if req.OrderType.NeedsTable() {
		status := domain.TableBooked
		if req.OrderType == domain.TypePreOrder {
			status = domain.TableReserved
		}
		if errTable := e.restaurants.SetTableStatus(ctx, req.RestaurantID, customer.TableID, status); errTable != nil {
			// The order is already placed; a dangling table reference must
			// not roll it back.
			log.Printf("could not update table %s status: %v", customer.TableID, errTable)
		}
	}

	e.record(ctx, EventOrderPlaced, order)
	return &order, nil
}

// Advance moves an order one step along pending→preparing→completed and
// reports whether anything changed. Advancing a completed, cancelled or
// delivered order is a no-op, not an error; the false return lets callers
// know nothing moved.
func (e *Engine) Advance(ctx context.Context, orderID string) (*domain.Order, bool, error) {
	live, err := e.orders.LoadLive(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load live orders: %w", err)
	}

	idx := findOrder(live, orderID)
	if idx < 0 {
		return nil, false, repository.ErrOrderNotFound
	}

	next, ok := live[idx].Status.Next()
	if !ok {
		log.Printf("no-op transition: order %s is already %s", orderID, live[idx].Status)
		order := live[idx]
		return &order, false, nil
	}

	live[idx].Status = next
	if next == domain.StatusCompleted {
		live[idx].CompletionTime = e.now()
	}

	if errSave := e.orders.SaveLive(ctx, live); errSave != nil {
		return nil, false, fmt.Errorf("save live orders: %w", errSave)
	}

	order := live[idx]
	e.record(ctx, EventOrderStatusChanged, order)
	return &order, true, nil
}

// Cancel jumps an order to cancelled from any non-terminal state.
func (e *Engine) Cancel(ctx context.Context, orderID string) (*domain.Order, bool, error) {
	return e.terminate(ctx, orderID, domain.StatusCancelled)
}

// MarkDelivered jumps an order to delivered from any non-terminal state.
func (e *Engine) MarkDelivered(ctx context.Context, orderID string) (*domain.Order, bool, error) {
	return e.terminate(ctx, orderID, domain.StatusDelivered)
}

func (e *Engine) terminate(ctx context.Context, orderID string, target domain.OrderStatus) (*domain.Order, bool, error) {
	live, err := e.orders.LoadLive(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("load live orders: %w", err)
	}

	idx := findOrder(live, orderID)
	if idx < 0 {
		return nil, false, repository.ErrOrderNotFound
	}

	if live[idx].Status.IsTerminal() {
		log.Printf("no-op transition: order %s is already %s", orderID, live[idx].Status)
		order := live[idx]
		return &order, false, nil
	}

	live[idx].Status = target
	if errSave := e.orders.SaveLive(ctx, live); errSave != nil {
		return nil, false, fmt.Errorf("save live orders: %w", errSave)
	}

	order := live[idx]
	e.record(ctx, EventOrderStatusChanged, order)
	return &order, true, nil
}

// MigrationPass moves every completed live order whose dwell time has elapsed
// into the archive and returns how many moved. Cancelled and delivered orders
// never migrate, matching the original behavior; the live collection can grow
// without bound on those (flagged open question).
func (e *Engine) MigrationPass(ctx context.Context) (int, error) {
	live, err := e.orders.LoadLive(ctx)
	if err != nil {
		return 0, fmt.Errorf("load live orders: %w", err)
	}

	now := e.now()
	var eligible []string
	for _, order := range live {
		if order.Status == domain.StatusCompleted && now.Sub(order.CompletedAt()) >= ArchiveDwell {
			eligible = append(eligible, order.ID)
		}
	}
	if len(eligible) == 0 {
		return 0, nil
	}

	if mover, ok := e.orders.(repository.ArchiveMover); ok {
		moved, errMove := mover.MoveToArchive(ctx, eligible)
		if errMove != nil {
			return 0, fmt.Errorf("move to archive: %w", errMove)
		}
		return moved, nil
	}

	// Two-step fallback: append to the archive first, then shrink the live
	// set. A crash in between duplicates rather than loses orders.
	archive, err := e.orders.LoadArchive(ctx)
	if err != nil {
		return 0, fmt.Errorf("load archive: %w", err)
	}

	eligibleSet := make(map[string]bool, len(eligible))
	for _, id := range eligible {
		eligibleSet[id] = true
	}

	remaining := make([]domain.Order, 0, len(live)-len(eligible))
	for _, order := range live {
		if eligibleSet[order.ID] {
			archive = append(archive, order)
		} else {
			remaining = append(remaining, order)
		}
	}

	if errSave := e.orders.SaveArchive(ctx, archive); errSave != nil {
		return 0, fmt.Errorf("save archive: %w", errSave)
	}
	if errSave := e.orders.SaveLive(ctx, remaining); errSave != nil {
		return 0, fmt.Errorf("save live orders: %w", errSave)
	}
	return len(eligible), nil
}

// ListLive returns the live orders newest first.
func (e *Engine) ListLive(ctx context.Context) ([]domain.Order, error) {
	live, err := e.orders.LoadLive(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(live)
	return live, nil
}

// ListArchive returns the archived orders newest first.
func (e *Engine) ListArchive(ctx context.Context) ([]domain.Order, error) {
	archive, err := e.orders.LoadArchive(ctx)
	if err != nil {
		return nil, err
	}
	sortNewestFirst(archive)
	return archive, nil
}

// SearchLive applies the free-text query and status filter to the live set.
func (e *Engine) SearchLive(ctx context.Context, query, status string) ([]domain.Order, error) {
	live, err := e.ListLive(ctx)
	if err != nil {
		return nil, err
	}
	return FilterOrders(live, e.restaurantNameResolver(ctx), query, status), nil
}

// restaurantNameResolver resolves display names with the dangling-reference
// placeholder; a broken catalog never breaks the read path.
func (e *Engine) restaurantNameResolver(ctx context.Context) func(order domain.Order) string {
	restaurants, err := e.restaurants.List(ctx)
	if err != nil {
		log.Printf("could not list restaurants for search: %v", err)
	}
	names := make(map[string]string, len(restaurants))
	for _, r := range restaurants {
		names[r.ID] = r.Name
	}
	return func(order domain.Order) string {
		if name, ok := names[order.RestaurantID]; ok {
			return name
		}
		if order.RestaurantName != "" {
			return order.RestaurantName
		}
		return RestaurantPlaceholder
	}
}

func (e *Engine) resolveRestaurantName(ctx context.Context, restaurantID string) string {
	restaurant, err := e.restaurants.Get(ctx, restaurantID)
	if err != nil {
		if !errors.Is(err, repository.ErrRestaurantNotFound) {
			log.Printf("could not resolve restaurant %s: %v", restaurantID, err)
		}
		return RestaurantPlaceholder
	}
	return restaurant.Name
}

func (e *Engine) record(ctx context.Context, eventType string, order domain.Order) {
	if e.events == nil {
		return
	}
	if err := e.events.Record(ctx, eventType, order); err != nil {
		log.Printf("failed to record %s event for order %s: %v", eventType, order.ID, err)
	}
}

func findOrder(orders []domain.Order, id string) int {
	for i := range orders {
		if orders[i].ID == id {
			return i
		}
	}
	return -1
}
