package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/pkg/enums"
)

// Movement is a request to relocate one asset between two locations. Rows are
// never deleted; cancellation is a terminal status, not a removal.
type Movement struct {
	ID              uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TrackingNumber  string                 `gorm:"column:tracking_number;not null;uniqueIndex"`
	AssetID         uuid.UUID              `gorm:"column:asset_id;type:uuid;not null"`
	FromLocationID  uuid.UUID              `gorm:"column:from_location_id;type:uuid;not null"`
	ToLocationID    uuid.UUID              `gorm:"column:to_location_id;type:uuid;not null"`
	Status          enums.MovementStatus   `gorm:"column:status;type:text;not null;default:'pending'"`
	Priority        enums.MovementPriority `gorm:"column:priority;type:text;not null;default:'normal'"`
	InitiatorID     uuid.UUID              `gorm:"column:initiator_id;type:uuid;not null"`
	Reason          string                 `gorm:"column:reason;not null"`
	Notes           *string                `gorm:"column:notes"`
	ExpectedArrival time.Time              `gorm:"column:expected_arrival;not null"`
	ActualArrival   *time.Time             `gorm:"column:actual_arrival"`
	Acknowledgement *MovementAcknowledgement `gorm:"foreignKey:MovementID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// IsOverdue derives lateness at read time; nothing is stored. A movement is
// overdue once its expected arrival has passed and it has not yet reached
// DELIVERED, ACKNOWLEDGED or CANCELLED.
func (m *Movement) IsOverdue(now time.Time) bool {
	if m == nil {
		return false
	}
	switch m.Status {
	case enums.MovementStatusDelivered, enums.MovementStatusAcknowledged, enums.MovementStatusCancelled:
		return false
	}
	return now.After(m.ExpectedArrival)
}
