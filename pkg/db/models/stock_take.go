package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/pkg/enums"
)

// StockTake is a scheduled physical inventory verification for one location.
// Counts are written once, inside the completing transaction.
type StockTake struct {
	ID              uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	Reference       string                `gorm:"column:reference;not null;uniqueIndex"`
	LocationID      uuid.UUID             `gorm:"column:location_id;type:uuid;not null"`
	Status          enums.StockTakeStatus `gorm:"column:status;type:text;not null;default:'planned'"`
	SchedulerID     uuid.UUID             `gorm:"column:scheduler_id;type:uuid;not null"`
	Notes           *string               `gorm:"column:notes"`
	ExpectedCount   int                   `gorm:"column:expected_count;not null;default:0"`
	FoundCount      int                   `gorm:"column:found_count;not null;default:0"`
	MissingCount    int                   `gorm:"column:missing_count;not null;default:0"`
	UnexpectedCount int                   `gorm:"column:unexpected_count;not null;default:0"`
	StartedAt       *time.Time            `gorm:"column:started_at"`
	CompletedAt     *time.Time            `gorm:"column:completed_at"`
	Items           []StockTakeItem       `gorm:"foreignKey:StockTakeID;constraint:OnDelete:CASCADE"`
	CreatedAt       time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt       time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
