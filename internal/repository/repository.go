package repository

import (
	"context"
	"errors"

	"github.com/shreyasmhade/QickServe/internal/domain"
)

// OrderRepository holds the two order collections. An order lives in exactly
// one of them at any time: the live set feeds the admin dashboard, the
// archive holds migrated history. Reads and writes cover whole collections;
// there are no partial-record updates, so concurrent writers can clobber
// each other (accepted limitation of the KV substrate).
type OrderRepository interface {
	LoadLive(ctx context.Context) ([]domain.Order, error)
	SaveLive(ctx context.Context, orders []domain.Order) error
	LoadArchive(ctx context.Context) ([]domain.Order, error)
	SaveArchive(ctx context.Context, orders []domain.Order) error
}

// ArchiveMover is implemented by backends that can move orders from live to
// archive atomically. The lifecycle engine prefers it over the
// save-archive-then-save-live sequence when available.
type ArchiveMover interface {
	MoveToArchive(ctx context.Context, orderIDs []string) (int, error)
}

// RestaurantRepository is the catalog: restaurants with their embedded
// categories, menu items and tables.
type RestaurantRepository interface {
	List(ctx context.Context) ([]domain.Restaurant, error)
	Get(ctx context.Context, id string) (*domain.Restaurant, error)
	SaveAll(ctx context.Context, restaurants []domain.Restaurant) error
	SetTableStatus(ctx context.Context, restaurantID, tableID string, status domain.TableStatus) error
}

var (
	ErrOrderNotFound      = errors.New("order not found")
	ErrRestaurantNotFound = errors.New("restaurant not found")
	ErrTableNotFound      = errors.New("table not found")
)
