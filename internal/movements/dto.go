package movements

import (
	"time"

	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
)

// CreateInput carries the fields required to open a movement.
type CreateInput struct {
	AssetID         uuid.UUID
	FromLocationID  uuid.UUID
	ToLocationID    uuid.UUID
	Reason          string
	Notes           *string
	Priority        enums.MovementPriority
	ExpectedArrival time.Time
}

// BulkCreateInput is one shared template applied to many assets. Every asset
// gets its own movement and tracking number; creation is all or nothing.
type BulkCreateInput struct {
	AssetIDs        []uuid.UUID
	FromLocationID  uuid.UUID
	ToLocationID    uuid.UUID
	Reason          string
	Notes           *string
	Priority        enums.MovementPriority
	ExpectedArrival time.Time
}

// TransitionInput names the movement and the requested target status. The
// acknowledgement fields are read only when the target is ACKNOWLEDGED;
// AssetStatus is the operational status the asset takes on arrival.
type TransitionInput struct {
	MovementID      uuid.UUID
	TargetStatus    enums.MovementStatus
	Condition       enums.ConditionRating
	DiscrepancyNote *string
	AssetStatus     enums.AssetStatus
}

// Filters describe the inputs supported by the movement list.
type Filters struct {
	Status         *enums.MovementStatus
	Priority       *enums.MovementPriority
	AssetID        *uuid.UUID
	FromLocationID *uuid.UUID
	ToLocationID   *uuid.UUID
	OverdueOnly    bool
}

// MovementView is a movement plus its derived overdue flag.
type MovementView struct {
	models.Movement
	Overdue bool `json:"overdue"`
}

// MovementList wraps the paginated movements plus the next page cursor.
type MovementList struct {
	Movements  []models.Movement `json:"movements"`
	NextCursor string            `json:"next_cursor,omitempty"`
}

// TrackingView is the read-only state returned for a tracking number lookup.
type TrackingView struct {
	TrackingNumber  string                          `json:"tracking_number"`
	Status          enums.MovementStatus            `json:"status"`
	Priority        enums.MovementPriority          `json:"priority"`
	FromLocationID  uuid.UUID                       `json:"from_location_id"`
	ToLocationID    uuid.UUID                       `json:"to_location_id"`
	ExpectedArrival time.Time                       `json:"expected_arrival"`
	ActualArrival   *time.Time                      `json:"actual_arrival,omitempty"`
	Overdue         bool                            `json:"overdue"`
	Acknowledgement *models.MovementAcknowledgement `json:"acknowledgement,omitempty"`
}
