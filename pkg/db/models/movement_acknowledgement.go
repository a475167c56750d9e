package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/pkg/enums"
)

// MovementAcknowledgement is the receiving side's confirmation for a movement.
// Created exactly once when the movement reaches ACKNOWLEDGED; immutable after.
type MovementAcknowledgement struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MovementID      uuid.UUID             `gorm:"column:movement_id;type:uuid;not null;uniqueIndex"`
	ActorID         uuid.UUID             `gorm:"column:actor_id;type:uuid;not null"`
	Condition       enums.ConditionRating `gorm:"column:condition;type:text;not null"`
	DiscrepancyNote *string               `gorm:"column:discrepancy_note"`
	AcknowledgedAt  time.Time             `gorm:"column:acknowledged_at;not null"`
}
