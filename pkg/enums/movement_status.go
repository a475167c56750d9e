package enums

import "fmt"

// MovementStatus tracks the lifecycle of an asset movement.
type MovementStatus string

const (
	MovementStatusPending      MovementStatus = "pending"
	MovementStatusInTransit    MovementStatus = "in_transit"
	MovementStatusCompleted    MovementStatus = "completed"
	MovementStatusDelivered    MovementStatus = "delivered"
	MovementStatusAcknowledged MovementStatus = "acknowledged"
	MovementStatusCancelled    MovementStatus = "cancelled"
)

var validMovementStatuses = []MovementStatus{
	MovementStatusPending,
	MovementStatusInTransit,
	MovementStatusCompleted,
	MovementStatusDelivered,
	MovementStatusAcknowledged,
	MovementStatusCancelled,
}

// String implements fmt.Stringer.
func (m MovementStatus) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MovementStatus.
func (m MovementStatus) IsValid() bool {
	for _, candidate := range validMovementStatuses {
		if candidate == m {
			return true
		}
	}
	return false
}

// IsTerminal reports whether a movement in this status can never change again.
func (m MovementStatus) IsTerminal() bool {
	return m == MovementStatusAcknowledged || m == MovementStatusCancelled
}

// ParseMovementStatus converts raw input into a MovementStatus.
func ParseMovementStatus(value string) (MovementStatus, error) {
	for _, candidate := range validMovementStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid movement status %q", value)
}
