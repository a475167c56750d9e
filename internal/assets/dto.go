package assets

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
)

// CreateAssetInput carries the fields an administrator supplies when
// registering an asset.
type CreateAssetInput struct {
	AssetTag          string
	Name              string
	Description       *string
	Condition         enums.ConditionRating
	CurrentLocationID uuid.UUID
	PurchaseCost      decimal.Decimal
	Tags              []string
}

// UpdateAssetInput holds the mutable registry fields. Nil pointers leave the
// column untouched. Location and status are deliberately absent; those only
// change through the movement lifecycle.
type UpdateAssetInput struct {
	Name         *string
	Description  *string
	Condition    *enums.ConditionRating
	PurchaseCost *decimal.Decimal
	Tags         []string
	Retire       bool
}

// AssetFilters describe the inputs supported by the asset list.
type AssetFilters struct {
	LocationID *uuid.UUID
	Status     *enums.AssetStatus
	Tag        string
}

// AssetList wraps the paginated assets plus the next page cursor.
type AssetList struct {
	Assets     []models.Asset `json:"assets"`
	NextCursor string         `json:"next_cursor,omitempty"`
}

// CreateLocationInput carries the fields for a new site.
type CreateLocationInput struct {
	Code    string
	Name    string
	Address *string
}

// UpdateLocationInput holds the mutable location fields. The code is
// immutable once created.
type UpdateLocationInput struct {
	Name     *string
	Address  *string
	IsActive *bool
}
