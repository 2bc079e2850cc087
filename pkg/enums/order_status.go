package enums

import "fmt"

// OrderStatus is the staff-facing lifecycle of a placed order.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusServed    OrderStatus = "served"
)

var validOrderStatuses = []OrderStatus{
	OrderStatusPending,
	OrderStatusConfirmed,
	OrderStatusPreparing,
	OrderStatusReady,
	OrderStatusServed,
}

// String implements fmt.Stringer.
func (o OrderStatus) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OrderStatus.
func (o OrderStatus) IsValid() bool {
	for _, candidate := range validOrderStatuses {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseOrderStatus converts raw input into a OrderStatus.
func ParseOrderStatus(value string) (OrderStatus, error) {
	for _, candidate := range validOrderStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid order status %q", value)
}

func (o OrderStatus) rank() int {
	for i, candidate := range validOrderStatuses {
		if candidate == o {
			return i
		}
	}
	return -1
}

// CanAdvanceTo reports whether next is the same or a later stage than o.
func (o OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	return o.IsValid() && next.IsValid() && next.rank() >= o.rank()
}

// CartItemStatus maps an order stage onto the status carried by its cart lines.
// Stages before preparing keep the lines in ordered.
func (o OrderStatus) CartItemStatus() CartItemStatus {
	switch o {
	case OrderStatusPreparing:
		return CartItemStatusPreparing
	case OrderStatusReady:
		return CartItemStatusReady
	case OrderStatusServed:
		return CartItemStatusServed
	default:
		return CartItemStatusOrdered
	}
}
