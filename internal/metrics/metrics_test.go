package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/shreyasmhade/QickServe/internal/domain"
)

func order(status domain.OrderStatus, total float64, created time.Time) domain.Order {
	return domain.Order{
		ID:          string(status) + created.String(),
		Status:      status,
		TotalAmount: total,
		CreatedAt:   created,
	}
}

func TestCompute_EmptyCollections(t *testing.T) {
	got := Compute(nil, nil, time.Now())
	assert.Equal(t, Summary{}, got)
}

func TestCompute_ActiveOrdersCountsPendingAndPreparingOnly(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	live := []domain.Order{
		order(domain.StatusPending, 100, now),
		order(domain.StatusPreparing, 100, now),
		order(domain.StatusCompleted, 100, now),
		order(domain.StatusCancelled, 100, now),
	}

	got := Compute(live, nil, now)
	assert.Equal(t, 2, got.ActiveOrders)
	assert.LessOrEqual(t, got.ActiveOrders, len(live))
}

func TestCompute_TotalOrdersSpansBothCollections(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	live := []domain.Order{order(domain.StatusPending, 100, now)}
	archive := []domain.Order{
		order(domain.StatusCompleted, 100, now.Add(-48*time.Hour)),
		order(domain.StatusCompleted, 100, now.Add(-24*time.Hour)),
	}

	got := Compute(live, archive, now)
	assert.Equal(t, 3, got.TotalOrders)
}

func TestCompute_MigrationDoesNotChangeTotals(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	done := order(domain.StatusCompleted, 210, now)

	beforeMigration := Compute([]domain.Order{done}, nil, now)
	afterMigration := Compute(nil, []domain.Order{done}, now)

	assert.Equal(t, beforeMigration.TotalOrders, afterMigration.TotalOrders)
	assert.Equal(t, beforeMigration.TodaysOrders, afterMigration.TodaysOrders)
	assert.Equal(t, beforeMigration.TodaysRevenue, afterMigration.TodaysRevenue)
}

func TestCompute_TodayFiltersByCalendarDay(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	live := []domain.Order{
		order(domain.StatusPending, 100, now.Add(-2*time.Hour)),           // today
		order(domain.StatusPending, 100, now.Add(-20*time.Hour)),          // yesterday (22:00 on the 13th)
		order(domain.StatusCompleted, 300, now.Truncate(24*time.Hour)),    // today midnight
		order(domain.StatusCompleted, 400, now.AddDate(0, 0, -1)),         // yesterday same time
	}

	got := Compute(live, nil, now)
	assert.Equal(t, 2, got.TodaysOrders)
	assert.Equal(t, 400.0, got.TodaysRevenue)
}

func TestCompute_TodaysRevenueExcludesCancelled(t *testing.T) {
	now := time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
	live := []domain.Order{
		order(domain.StatusPending, 210, now),
		order(domain.StatusCancelled, 999, now),
	}
	archive := []domain.Order{order(domain.StatusCompleted, 145, now)}

	got := Compute(live, archive, now)
	assert.Equal(t, 3, got.TodaysOrders) // cancelled still counts as an order
	assert.Equal(t, 355.0, got.TodaysRevenue)
}
