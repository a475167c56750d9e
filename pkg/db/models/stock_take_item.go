package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/pkg/enums"
)

// StockTakeItem is one expected-or-found line inside a stock take. Expected
// lines are snapshotted when the take is planned and updated in place as
// verification proceeds; unexpected finds are appended with expected=false.
// AssetID is nil only for finds the registry has no record of.
type StockTakeItem struct {
	ID           uuid.UUID              `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	StockTakeID  uuid.UUID              `gorm:"column:stock_take_id;type:uuid;not null;index"`
	AssetID      *uuid.UUID             `gorm:"column:asset_id;type:uuid"`
	AssetTag     string                 `gorm:"column:asset_tag;not null"`
	Expected     bool                   `gorm:"column:expected;not null"`
	Found        bool                   `gorm:"column:found;not null;default:false"`
	Condition    *enums.ConditionRating `gorm:"column:condition;type:text"`
	VerifiedByID *uuid.UUID             `gorm:"column:verified_by_id;type:uuid"`
	VerifiedAt   *time.Time             `gorm:"column:verified_at"`
	CreatedAt    time.Time              `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;autoUpdateTime"`
}

// IsDiscrepancy reports whether the line would be surfaced at completion:
// expected but never found, or found without being expected.
func (i StockTakeItem) IsDiscrepancy() bool {
	return i.Expected != i.Found
}
