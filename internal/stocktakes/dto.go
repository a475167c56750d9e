package stocktakes

import (
	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
)

// PlanInput carries the fields for scheduling a stock take.
type PlanInput struct {
	LocationID uuid.UUID
	Notes      *string
}

// FindingInput records one physical verification. The asset is addressed by
// tag because that is what the person on the floor reads off the label.
type FindingInput struct {
	StockTakeID uuid.UUID
	AssetTag    string
	Condition   enums.ConditionRating
}

// Filters describe the inputs supported by the stock take list.
type Filters struct {
	LocationID *uuid.UUID
	Status     *enums.StockTakeStatus
}

// StockTakeList wraps the paginated takes plus the next page cursor.
type StockTakeList struct {
	StockTakes []models.StockTake `json:"stock_takes"`
	NextCursor string             `json:"next_cursor,omitempty"`
}

// Summary is the reconciliation result computed at completion.
type Summary struct {
	ExpectedCount   int `json:"expected_count"`
	FoundCount      int `json:"found_count"`
	MissingCount    int `json:"missing_count"`
	UnexpectedCount int `json:"unexpected_count"`
}

// StockTakeView is a take plus its items and, once completed, its summary.
type StockTakeView struct {
	models.StockTake
	Discrepancies []models.StockTakeItem `json:"discrepancies,omitempty"`
}
