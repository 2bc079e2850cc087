package enums

import "fmt"

// CartItemStatus tracks a cart line from the open cart through kitchen service.
type CartItemStatus string

const (
	CartItemStatusCart      CartItemStatus = "cart"
	CartItemStatusOrdered   CartItemStatus = "ordered"
	CartItemStatusPreparing CartItemStatus = "preparing"
	CartItemStatusReady     CartItemStatus = "ready"
	CartItemStatusServed    CartItemStatus = "served"
)

var validCartItemStatuses = []CartItemStatus{
	CartItemStatusCart,
	CartItemStatusOrdered,
	CartItemStatusPreparing,
	CartItemStatusReady,
	CartItemStatusServed,
}

// String implements fmt.Stringer.
func (c CartItemStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CartItemStatus.
func (c CartItemStatus) IsValid() bool {
	for _, candidate := range validCartItemStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCartItemStatus converts raw input into a CartItemStatus.
func ParseCartItemStatus(value string) (CartItemStatus, error) {
	for _, candidate := range validCartItemStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid cart item status %q", value)
}
