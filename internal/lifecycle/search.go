package lifecycle

import (
	"sort"
	"strconv"
	"strings"

	"github.com/shreyasmhade/QickServe/internal/domain"
)

// RestaurantPlaceholder is shown when an order references a restaurant that
// no longer exists. Dangling references degrade, they never error.
const RestaurantPlaceholder = "Restaurant"

// StatusFilterAll disables the status filter.
const StatusFilterAll = "all"

// FilterOrders applies both dashboard filters: the status filter matches on
// equality (or passes everything for "all"/empty), the free-text query is a
// case-insensitive substring match over the fields an admin can see on an
// order card. The two are ANDed.
func FilterOrders(orders []domain.Order, restaurantName func(domain.Order) string, query, status string) []domain.Order {
	matched := make([]domain.Order, 0, len(orders))
	for _, order := range orders {
		if !matchesStatus(order, status) {
			continue
		}
		if !Matches(order, restaurantName(order), query) {
			continue
		}
		matched = append(matched, order)
	}
	return matched
}

func matchesStatus(order domain.Order, status string) bool {
	if status == "" || status == StatusFilterAll {
		return true
	}
	return string(order.Status) == status
}

// Matches reports whether the query hits any searchable field of the order:
// restaurant name, formatted date, formatted time, month name, day, year,
// order id, customer name, or the total amount as text.
func Matches(order domain.Order, restaurantName, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}

	created := order.CreatedAt
	haystack := []string{
		strings.ToLower(restaurantName),
		created.Format("1/2/2006"),
		strings.ToLower(created.Format("03:04 PM")),
		strings.ToLower(created.Month().String()),
		strconv.Itoa(created.Day()),
		strconv.Itoa(created.Year()),
		strings.ToLower(order.ID),
		strings.ToLower(order.Customer.Name),
		strconv.FormatFloat(order.TotalAmount, 'f', -1, 64),
	}

	for _, field := range haystack {
		if strings.Contains(field, query) {
			return true
		}
	}
	return false
}

// sortNewestFirst orders by creation time descending, the dashboard's
// natural sort.
func sortNewestFirst(orders []domain.Order) {
	sort.SliceStable(orders, func(i, j int) bool {
		return orders[i].CreatedAt.After(orders[j].CreatedAt)
	})
}
