package enums

import "fmt"

// VoteDirection is the direction of a menu item vote.
type VoteDirection string

const (
	VoteDirectionUp   VoteDirection = "up"
	VoteDirectionDown VoteDirection = "down"
)

var validVoteDirections = []VoteDirection{
	VoteDirectionUp,
	VoteDirectionDown,
}

// String implements fmt.Stringer.
func (v VoteDirection) String() string {
	return string(v)
}

// IsValid reports whether the value is a known VoteDirection.
func (v VoteDirection) IsValid() bool {
	for _, candidate := range validVoteDirections {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVoteDirection converts raw input into a VoteDirection.
func ParseVoteDirection(value string) (VoteDirection, error) {
	for _, candidate := range validVoteDirections {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vote direction %q", value)
}
