package enums

import "fmt"

// TableSessionStatus is the lifecycle state of one dining visit at a table.
type TableSessionStatus string

const (
	TableSessionStatusActive  TableSessionStatus = "active"
	TableSessionStatusOrdered TableSessionStatus = "ordered"
	TableSessionStatusPaid    TableSessionStatus = "paid"
	TableSessionStatusClosed  TableSessionStatus = "closed"
)

var validTableSessionStatuses = []TableSessionStatus{
	TableSessionStatusActive,
	TableSessionStatusOrdered,
	TableSessionStatusPaid,
	TableSessionStatusClosed,
}

// String implements fmt.Stringer.
func (t TableSessionStatus) String() string {
	return string(t)
}

// IsValid reports whether the value is a known TableSessionStatus.
func (t TableSessionStatus) IsValid() bool {
	for _, candidate := range validTableSessionStatuses {
		if candidate == t {
			return true
		}
	}
	return false
}

// ParseTableSessionStatus converts raw input into a TableSessionStatus.
func ParseTableSessionStatus(value string) (TableSessionStatus, error) {
	for _, candidate := range validTableSessionStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid table session status %q", value)
}

// IsTerminal reports whether the session has ended. Terminal sessions never reactivate.
func (t TableSessionStatus) IsTerminal() bool {
	return t == TableSessionStatusPaid || t == TableSessionStatusClosed
}

// CanTransitionTo reports whether moving from t to next is allowed.
// Staying in a non-terminal state is allowed; ordered never goes back to active.
func (t TableSessionStatus) CanTransitionTo(next TableSessionStatus) bool {
	if !next.IsValid() || t.IsTerminal() {
		return false
	}
	if t == TableSessionStatusOrdered && next == TableSessionStatusActive {
		return false
	}
	return true
}
