// Package metrics computes the dashboard summary numbers. Pure recomputation
// on every call: the collections are small and correctness is the only
// requirement, so there is no caching or incremental update to get wrong.
package metrics

import (
	"time"

	"github.com/shreyasmhade/QickServe/internal/domain"
)

type Summary struct {
	ActiveOrders  int     `json:"active_orders"`
	TodaysRevenue float64 `json:"todays_revenue"`
	TotalOrders   int     `json:"total_orders"`
	TodaysOrders  int     `json:"todays_orders"`
}

// Compute derives the dashboard summary from both collections. TotalOrders
// counts live plus archive, so migrating an order never changes it; a today
// filter uses the calendar day of now in now's location.
func Compute(live, archive []domain.Order, now time.Time) Summary {
	summary := Summary{
		TotalOrders: len(live) + len(archive),
	}

	for _, order := range live {
		if order.Status == domain.StatusPending || order.Status == domain.StatusPreparing {
			summary.ActiveOrders++
		}
	}

	all := make([]domain.Order, 0, len(live)+len(archive))
	all = append(all, live...)
	all = append(all, archive...)

	for _, order := range all {
		if !sameDay(order.CreatedAt, now) {
			continue
		}
		summary.TodaysOrders++
		if order.Status != domain.StatusCancelled {
			summary.TodaysRevenue += order.TotalAmount
		}
	}
	return summary
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.In(b.Location()).Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
