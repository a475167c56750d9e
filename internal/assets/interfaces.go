package assets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

// Repository defines persistence operations for the asset/location registry.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateAsset(ctx context.Context, asset *models.Asset) (*models.Asset, error)
	FindAssetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	FindAssetByTag(ctx context.Context, tag string) (*models.Asset, error)
	ListAssets(ctx context.Context, params pagination.Params, filters AssetFilters) (*AssetList, error)
	UpdateAsset(ctx context.Context, id uuid.UUID, updates map[string]any) error
	DeleteAsset(ctx context.Context, id uuid.UUID) error
	HasOpenMovement(ctx context.Context, assetID uuid.UUID) (bool, error)
	CreateLocation(ctx context.Context, location *models.Location) (*models.Location, error)
	FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error)
	FindLocationByCode(ctx context.Context, code string) (*models.Location, error)
	ListLocations(ctx context.Context, includeInactive bool) ([]models.Location, error)
	UpdateLocation(ctx context.Context, id uuid.UUID, updates map[string]any) error
}
