package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/marcuschung/assetflow-backend/pkg/enums"
)

// Asset is a trackable physical item. Its current location only changes as a
// side effect of a movement reaching its acknowledged terminal state.
type Asset struct {
	ID                uuid.UUID             `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	AssetTag          string                `gorm:"column:asset_tag;not null;uniqueIndex"`
	Name              string                `gorm:"column:name;not null"`
	Description       *string               `gorm:"column:description"`
	Status            enums.AssetStatus     `gorm:"column:status;type:text;not null;default:'available'"`
	Condition         enums.ConditionRating `gorm:"column:condition;type:text;not null;default:'good'"`
	CurrentLocationID uuid.UUID             `gorm:"column:current_location_id;type:uuid;not null"`
	PurchaseCost      decimal.Decimal       `gorm:"column:purchase_cost;type:numeric(12,2);not null;default:0"`
	Tags              pq.StringArray        `gorm:"column:tags;type:text[]"`
	CreatedAt         time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
