package enums

import "fmt"

// MovementPriority ranks how urgently a movement should travel.
type MovementPriority string

const (
	MovementPriorityLow    MovementPriority = "low"
	MovementPriorityNormal MovementPriority = "normal"
	MovementPriorityHigh   MovementPriority = "high"
	MovementPriorityUrgent MovementPriority = "urgent"
)

var validMovementPriorities = []MovementPriority{
	MovementPriorityLow,
	MovementPriorityNormal,
	MovementPriorityHigh,
	MovementPriorityUrgent,
}

// String implements fmt.Stringer.
func (m MovementPriority) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementPriority.
func (m MovementPriority) IsValid() bool {
	for _, candidate := range validMovementPriorities {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMovementPriority converts raw input into a MovementPriority.
func ParseMovementPriority(value string) (MovementPriority, error) {
	for _, candidate := range validMovementPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement priority %q", value)
}
