package enums

import "fmt"

// ServerCallStatus tracks a diner's request for a server.
type ServerCallStatus string

const (
	ServerCallStatusPending      ServerCallStatus = "pending"
	ServerCallStatusAcknowledged ServerCallStatus = "acknowledged"
	ServerCallStatusCompleted    ServerCallStatus = "completed"
)

var validServerCallStatuses = []ServerCallStatus{
	ServerCallStatusPending,
	ServerCallStatusAcknowledged,
	ServerCallStatusCompleted,
}

// String implements fmt.Stringer.
func (s ServerCallStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ServerCallStatus.
func (s ServerCallStatus) IsValid() bool {
	for _, candidate := range validServerCallStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseServerCallStatus converts raw input into a ServerCallStatus.
func ParseServerCallStatus(value string) (ServerCallStatus, error) {
	for _, candidate := range validServerCallStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid server call status %q", value)
}

// CanAdvanceTo reports whether next is the same or a later stage than s.
func (s ServerCallStatus) CanAdvanceTo(next ServerCallStatus) bool {
	if !s.IsValid() || !next.IsValid() {
		return false
	}
	return serverCallRank(next) >= serverCallRank(s)
}

func serverCallRank(s ServerCallStatus) int {
	for i, candidate := range validServerCallStatuses {
		if candidate == s {
			return i
		}
	}
	return -1
}
