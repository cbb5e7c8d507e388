package domain

const (
	// GSTRate is applied to the item subtotal at checkout.
	GSTRate = 0.05

	// FreeDeliveryThreshold is the subtotal at which the delivery fee is waived.
	FreeDeliveryThreshold = 200.0

	// DeliveryFeeFlat is charged below the free-delivery threshold.
	DeliveryFeeFlat = 40.0
)

// Subtotal sums price times quantity over the line items.
func Subtotal(items []OrderItem) float64 {
	var total float64
	for _, item := range items {
		total += item.Price * float64(item.Quantity)
	}
	return total
}

// DeliveryFee is waived once the subtotal reaches the threshold.
func DeliveryFee(subtotal float64) float64 {
	if subtotal >= FreeDeliveryThreshold {
		return 0
	}
	return DeliveryFeeFlat
}

// GST returns the tax portion for the given subtotal.
func GST(subtotal float64) float64 {
	return subtotal * GSTRate
}

// GrandTotal is the amount stored on the order at placement time. It is never
// recomputed afterwards.
func GrandTotal(items []OrderItem) float64 {
	subtotal := Subtotal(items)
	return subtotal + DeliveryFee(subtotal) + GST(subtotal)
}
