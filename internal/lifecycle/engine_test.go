package lifecycle

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shreyasmhade/QickServe/internal/domain"
	"github.com/shreyasmhade/QickServe/internal/kvstore"
	"github.com/shreyasmhade/QickServe/internal/repository"
)

type recordedEvent struct {
	eventType string
	orderID   string
	status    domain.OrderStatus
}

type mockEventSink struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (m *mockEventSink) Record(_ context.Context, eventType string, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, recordedEvent{eventType, order.ID, order.Status})
	return nil
}

func (m *mockEventSink) all() []recordedEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]recordedEvent(nil), m.events...)
}

func newTestEngine(t *testing.T) (*Engine, *repository.KVOrderRepository, *mockEventSink) {
	t.Helper()
	store := kvstore.NewMemoryStore()
	orders := repository.NewKVOrderRepository(store, nil)
	restaurants := repository.NewKVRestaurantRepository(store, nil)
	require.NoError(t, restaurants.SaveAll(context.Background(), []domain.Restaurant{
		{
			ID:   "r1",
			Name: "Spice Garden",
			Tables: []domain.Table{
				{ID: "t1", Number: 1, Status: domain.TableFree},
			},
		},
	}))

	sink := &mockEventSink{}
	engine := NewEngine(orders, restaurants, sink)
	return engine, orders, sink
}

func deliveryRequest(items []domain.OrderItem) PlaceOrderRequest {
	return PlaceOrderRequest{
		RestaurantID: "r1",
		Customer: domain.Customer{
			Name:            "Marcus Lee",
			Phone:           "555-0101",
			DeliveryAddress: "14 Hill Road",
		},
		Items:     items,
		OrderType: domain.TypeDelivery,
	}
}

func TestPlaceOrder_ChecksOutAtTotal210(t *testing.T) {
	engine, _, sink := newTestEngine(t)
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }

	// 100*1 + 50*2 = 200 subtotal, 5% GST = 10, delivery fee waived
	order, err := engine.PlaceOrder(context.Background(), deliveryRequest([]domain.OrderItem{
		{Name: "Paneer Tikka", Price: 100, Quantity: 1},
		{Name: "Butter Naan", Price: 50, Quantity: 2},
	}))
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.NotEqual(t, order.CreatedAt.String(), order.ID)
	assert.Equal(t, domain.StatusPending, order.Status)
	assert.Equal(t, 210.0, order.TotalAmount)
	assert.Equal(t, t0, order.CreatedAt)
	assert.Equal(t, "Spice Garden", order.RestaurantName)

	events := sink.all()
	require.Len(t, events, 1)
	assert.Equal(t, EventOrderPlaced, events[0].eventType)
}

func TestPlaceOrder_Validation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()
	items := []domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}}

	_, err := engine.PlaceOrder(ctx, PlaceOrderRequest{OrderType: domain.TypeTakeaway})
	assert.ErrorIs(t, err, ErrEmptyOrder)

	_, err = engine.PlaceOrder(ctx, PlaceOrderRequest{
		OrderType: domain.TypeTakeaway,
		Items:     []domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 0}},
	})
	assert.ErrorIs(t, err, ErrBadLineItem)

	_, err = engine.PlaceOrder(ctx, PlaceOrderRequest{OrderType: domain.TypeDelivery, Items: items})
	assert.ErrorIs(t, err, ErrMissingAddress)

	_, err = engine.PlaceOrder(ctx, PlaceOrderRequest{OrderType: domain.TypeEatIn, Items: items})
	assert.ErrorIs(t, err, ErrMissingTable)

	_, err = engine.PlaceOrder(ctx, PlaceOrderRequest{OrderType: "drive-through", Items: items})
	assert.ErrorIs(t, err, ErrUnknownOrderType)
}

func TestPlaceOrder_EatInBooksTable(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, PlaceOrderRequest{
		RestaurantID: "r1",
		Customer:     domain.Customer{Name: "Marcus Lee", TableID: "t1"},
		Items:        []domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}},
		OrderType:    domain.TypeEatIn,
	})
	require.NoError(t, err)

	restaurant, err := engine.restaurants.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.TableBooked, restaurant.Tables[0].Status)
}

func TestPlaceOrder_PreOrderReservesTable(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.PlaceOrder(ctx, PlaceOrderRequest{
		RestaurantID: "r1",
		Customer:     domain.Customer{Name: "Marcus Lee", TableID: "t1"},
		Items:        []domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}},
		OrderType:    domain.TypePreOrder,
	})
	require.NoError(t, err)

	restaurant, err := engine.restaurants.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, domain.TableReserved, restaurant.Tables[0].Status)
}

func TestPlaceOrder_DanglingRestaurantUsesPlaceholder(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	req := deliveryRequest([]domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}})
	req.RestaurantID = "ghost"
	order, err := engine.PlaceOrder(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, RestaurantPlaceholder, order.RestaurantName)
}

func TestAdvance_ProgressesAndStampsCompletionTime(t *testing.T) {
	engine, _, sink := newTestEngine(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }

	order, err := engine.PlaceOrder(ctx, deliveryRequest([]domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}}))
	require.NoError(t, err)

	t1 := t0.Add(5 * time.Minute)
	engine.now = func() time.Time { return t1 }

	order, advanced, err := engine.Advance(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, domain.StatusPreparing, order.Status)
	assert.True(t, order.CompletionTime.IsZero())

	order, advanced, err = engine.Advance(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, advanced)
	assert.Equal(t, domain.StatusCompleted, order.Status)
	assert.Equal(t, t1, order.CompletionTime)

	events := sink.all()
	require.Len(t, events, 3) // placed + two transitions
	assert.Equal(t, EventOrderStatusChanged, events[2].eventType)
	assert.Equal(t, domain.StatusCompleted, events[2].status)
}

func TestAdvance_TerminalStatesAreNoOps(t *testing.T) {
	engine, orders, _ := newTestEngine(t)
	ctx := context.Background()

	order, err := engine.PlaceOrder(ctx, deliveryRequest([]domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}}))
	require.NoError(t, err)

	_, _, err = engine.Advance(ctx, order.ID)
	require.NoError(t, err)
	_, _, err = engine.Advance(ctx, order.ID)
	require.NoError(t, err)

	before, err := orders.LoadLive(ctx)
	require.NoError(t, err)

	got, advanced, err := engine.Advance(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, advanced)
	assert.Equal(t, domain.StatusCompleted, got.Status)

	after, err := orders.LoadLive(ctx)
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestAdvance_UnknownOrder(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, _, err := engine.Advance(context.Background(), "ghost")
	assert.ErrorIs(t, err, repository.ErrOrderNotFound)
}

func TestCancel_FromAnyNonTerminalState(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	order, err := engine.PlaceOrder(ctx, deliveryRequest([]domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}}))
	require.NoError(t, err)

	got, changed, err := engine.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.StatusCancelled, got.Status)

	// cancelling again is a no-op, never a backward transition
	got, changed, err = engine.Cancel(ctx, order.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Equal(t, domain.StatusCancelled, got.Status)
}

func TestMarkDelivered(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	order, err := engine.PlaceOrder(ctx, deliveryRequest([]domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}}))
	require.NoError(t, err)

	_, _, err = engine.Advance(ctx, order.ID)
	require.NoError(t, err)

	got, changed, err := engine.MarkDelivered(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.Equal(t, domain.StatusDelivered, got.Status)
}

func TestMigrationPass_HonorsDwellTime(t *testing.T) {
	engine, orders, _ := newTestEngine(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }

	order, err := engine.PlaceOrder(ctx, deliveryRequest([]domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}}))
	require.NoError(t, err)
	_, _, err = engine.Advance(ctx, order.ID)
	require.NoError(t, err)

	t1 := t0.Add(time.Minute)
	engine.now = func() time.Time { return t1 }
	_, _, err = engine.Advance(ctx, order.ID) // completed at t1
	require.NoError(t, err)

	// 59s after completion: stays live
	engine.now = func() time.Time { return t1.Add(59 * time.Second) }
	moved, err := engine.MigrationPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)

	live, err := orders.LoadLive(ctx)
	require.NoError(t, err)
	assert.Len(t, live, 1)

	// 61s after completion: migrates
	engine.now = func() time.Time { return t1.Add(61 * time.Second) }
	moved, err = engine.MigrationPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)

	live, err = orders.LoadLive(ctx)
	require.NoError(t, err)
	archive, err2 := orders.LoadArchive(ctx)
	require.NoError(t, err2)
	assert.Empty(t, live)
	require.Len(t, archive, 1)
	assert.Equal(t, order.ID, archive[0].ID)
}

func TestMigrationPass_PreservesOrderCount(t *testing.T) {
	engine, orders, _ := newTestEngine(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }

	var completedID string
	for i := 0; i < 3; i++ {
		order, err := engine.PlaceOrder(ctx, deliveryRequest([]domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}}))
		require.NoError(t, err)
		if i == 0 {
			completedID = order.ID
			_, _, err = engine.Advance(ctx, order.ID)
			require.NoError(t, err)
			_, _, err = engine.Advance(ctx, order.ID)
			require.NoError(t, err)
		}
	}

	countAll := func() int {
		live, err := orders.LoadLive(ctx)
		require.NoError(t, err)
		archive, err2 := orders.LoadArchive(ctx)
		require.NoError(t, err2)
		return len(live) + len(archive)
	}

	before := countAll()
	engine.now = func() time.Time { return t0.Add(2 * time.Minute) }
	moved, err := engine.MigrationPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.Equal(t, before, countAll())

	archive, err := orders.LoadArchive(ctx)
	require.NoError(t, err)
	require.Len(t, archive, 1)
	assert.Equal(t, completedID, archive[0].ID)
}

func TestMigrationPass_CancelledAndDeliveredNeverMigrate(t *testing.T) {
	engine, orders, _ := newTestEngine(t)
	ctx := context.Background()
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }

	cancelled, err := engine.PlaceOrder(ctx, deliveryRequest([]domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}}))
	require.NoError(t, err)
	_, _, err = engine.Cancel(ctx, cancelled.ID)
	require.NoError(t, err)

	delivered, err := engine.PlaceOrder(ctx, deliveryRequest([]domain.OrderItem{{Name: "Thali", Price: 150, Quantity: 1}}))
	require.NoError(t, err)
	_, _, err = engine.MarkDelivered(ctx, delivered.ID)
	require.NoError(t, err)

	engine.now = func() time.Time { return t0.Add(time.Hour) }
	moved, err := engine.MigrationPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, moved)

	live, err := orders.LoadLive(ctx)
	require.NoError(t, err)
	assert.Len(t, live, 2)
}

type mockMoverRepo struct {
	repository.OrderRepository
	movedIDs []string
}

func (m *mockMoverRepo) MoveToArchive(_ context.Context, ids []string) (int, error) {
	m.movedIDs = ids
	return len(ids), nil
}

func TestMigrationPass_PrefersAtomicMover(t *testing.T) {
	store := kvstore.NewMemoryStore()
	kvRepo := repository.NewKVOrderRepository(store, nil)
	mover := &mockMoverRepo{OrderRepository: kvRepo}
	restaurants := repository.NewKVRestaurantRepository(store, nil)
	engine := NewEngine(mover, restaurants, nil)

	ctx := context.Background()
	t0 := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	engine.now = func() time.Time { return t0 }

	require.NoError(t, kvRepo.SaveLive(ctx, []domain.Order{{
		ID:             "o1",
		Status:         domain.StatusCompleted,
		CompletionTime: t0.Add(-2 * time.Minute),
		CreatedAt:      t0.Add(-10 * time.Minute),
	}}))

	moved, err := engine.MigrationPass(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, moved)
	assert.Equal(t, []string{"o1"}, mover.movedIDs)
}
