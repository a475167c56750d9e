package enums

import "fmt"

// StockTakeStatus tracks the lifecycle of a stock take.
type StockTakeStatus string

const (
	StockTakeStatusPlanned    StockTakeStatus = "planned"
	StockTakeStatusInProgress StockTakeStatus = "in_progress"
	StockTakeStatusCompleted  StockTakeStatus = "completed"
)

var validStockTakeStatuses = []StockTakeStatus{
	StockTakeStatusPlanned,
	StockTakeStatusInProgress,
	StockTakeStatusCompleted,
}

// String implements fmt.Stringer.
func (s StockTakeStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known StockTakeStatus.
func (s StockTakeStatus) IsValid() bool {
	for _, candidate := range validStockTakeStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStockTakeStatus converts raw input into a StockTakeStatus.
func ParseStockTakeStatus(value string) (StockTakeStatus, error) {
	for _, candidate := range validStockTakeStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid stock take status %q", value)
}
