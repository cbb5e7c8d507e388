package lifecycle

import "errors"

// Checkout-time validation failures. These block placement; everything after
// placement degrades instead of failing (dangling references, malformed
// blobs, no-op transitions).
var (
	ErrEmptyOrder       = errors.New("order has no items, nothing to place")
	ErrBadLineItem      = errors.New("line item has non-positive quantity or negative price")
	ErrUnknownOrderType = errors.New("unknown order type")
	ErrMissingAddress   = errors.New("delivery order requires a delivery address")
	ErrMissingTable     = errors.New("eat-in and pre-order require a table")
)
