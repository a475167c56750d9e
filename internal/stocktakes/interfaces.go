package stocktakes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

// Repository defines persistence operations for stock takes and their items.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, take *models.StockTake) (*models.StockTake, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.StockTake, error)
	FindByReference(ctx context.Context, reference string) (*models.StockTake, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*StockTakeList, error)
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to enums.StockTakeStatus, updates map[string]any) (int64, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	ListItems(ctx context.Context, takeID uuid.UUID) ([]models.StockTakeItem, error)
	FindItemByTag(ctx context.Context, takeID uuid.UUID, assetTag string) (*models.StockTakeItem, error)
	CreateItem(ctx context.Context, item *models.StockTakeItem) error
	UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error
}

// LocationRegistry is the slice of the asset/location registry the
// reconciliation engine consumes, read-only. A nil tx means the call runs
// outside any transaction.
type LocationRegistry interface {
	LocationByID(ctx context.Context, tx *gorm.DB, locationID uuid.UUID) (*models.Location, error)
	AssetsAtLocation(ctx context.Context, tx *gorm.DB, locationID uuid.UUID) ([]models.Asset, error)
	AssetByTag(ctx context.Context, tx *gorm.DB, tag string) (*models.Asset, error)
}
