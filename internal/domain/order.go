package domain

import "time"

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusPreparing OrderStatus = "preparing"
	StatusCompleted OrderStatus = "completed"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transitions are allowed from s.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusDelivered || s == StatusCancelled
}

// Next returns the next status in the linear progression and true, or the
// status unchanged and false when s does not advance (completed, delivered,
// cancelled, or anything unknown).
func (s OrderStatus) Next() (OrderStatus, bool) {
	switch s {
	case StatusPending:
		return StatusPreparing, true
	case StatusPreparing:
		return StatusCompleted, true
	default:
		return s, false
	}
}

// String representation (for logging)
func (s OrderStatus) String() string {
	return string(s)
}

type OrderType string

const (
	TypeDelivery OrderType = "delivery"
	TypeTakeaway OrderType = "takeaway"
	TypeEatIn    OrderType = "eat-in"
	TypePreOrder OrderType = "pre-order"
)

// NeedsTable reports whether this order type occupies a restaurant table.
func (t OrderType) NeedsTable() bool {
	return t == TypeEatIn || t == TypePreOrder
}

func (t OrderType) String() string {
	return string(t)
}

type Order struct {
	ID                  string      `json:"id" bson:"_id,omitempty"`
	RestaurantID        string      `json:"restaurant_id" bson:"restaurant_id"`
	RestaurantName      string      `json:"restaurant_name" bson:"restaurant_name"`
	Customer            Customer    `json:"customer" bson:"customer"`
	Items               []OrderItem `json:"items" bson:"items"`
	SpecialInstructions string      `json:"special_instructions,omitempty" bson:"special_instructions,omitempty"`
	OrderType           OrderType   `json:"order_type" bson:"order_type"`
	Status              OrderStatus `json:"status" bson:"status"`
	TotalAmount         float64     `json:"total_amount" bson:"total_amount"`
	CreatedAt           time.Time   `json:"created_at" bson:"created_at"`
	CompletionTime      time.Time   `json:"completion_time,omitempty" bson:"completion_time,omitempty"`
}

type OrderItem struct {
	Name     string  `json:"name" bson:"name"`
	Price    float64 `json:"price" bson:"price"`
	Quantity int     `json:"quantity" bson:"quantity"`
	Note     string  `json:"note,omitempty" bson:"note,omitempty"`
}

type Customer struct {
	Name            string `json:"name" bson:"name"`
	Phone           string `json:"phone" bson:"phone"`
	Email           string `json:"email,omitempty" bson:"email,omitempty"`
	DeliveryAddress string `json:"delivery_address,omitempty" bson:"delivery_address,omitempty"`
	TableID         string `json:"table_id,omitempty" bson:"table_id,omitempty"`
}

// CompletedAt returns the effective completion instant used by the archival
// rule. Old records may lack a completion stamp; CreatedAt is the fallback.
func (o *Order) CompletedAt() time.Time {
	if o.CompletionTime.IsZero() {
		return o.CreatedAt
	}
	return o.CompletionTime
}
