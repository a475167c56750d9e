package assets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/db/models"
)

// Registry is the read-mostly registry surface the movement and stock-take
// engines consume. Calls accept an optional transaction so engine side
// effects land atomically with their own writes; a nil tx falls back to the
// base connection.
type Registry struct {
	db *gorm.DB
}

// NewRegistry builds a registry adapter bound to the provided DB.
func NewRegistry(db *gorm.DB) *Registry {
	return &Registry{db: db}
}

func (r *Registry) conn(tx *gorm.DB) *gorm.DB {
	if tx != nil {
		return tx
	}
	return r.db
}

func (r *Registry) AssetByID(ctx context.Context, tx *gorm.DB, assetID uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := r.conn(tx).WithContext(ctx).Where("id = ?", assetID).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *Registry) AssetByTag(ctx context.Context, tx *gorm.DB, tag string) (*models.Asset, error) {
	var asset models.Asset
	if err := r.conn(tx).WithContext(ctx).Where("asset_tag = ?", tag).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *Registry) AssetsAtLocation(ctx context.Context, tx *gorm.DB, locationID uuid.UUID) ([]models.Asset, error) {
	var list []models.Asset
	err := r.conn(tx).WithContext(ctx).
		Where("current_location_id = ?", locationID).
		Order("asset_tag ASC").
		Find(&list).Error
	if err != nil {
		return nil, err
	}
	return list, nil
}

func (r *Registry) LocationByID(ctx context.Context, tx *gorm.DB, locationID uuid.UUID) (*models.Location, error) {
	var location models.Location
	if err := r.conn(tx).WithContext(ctx).Where("id = ?", locationID).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

// UpdateAsset is the single write the engines perform against the registry:
// the location/status/condition write-back on acknowledgement and the status
// shadowing while a movement is in flight.
func (r *Registry) UpdateAsset(ctx context.Context, tx *gorm.DB, assetID uuid.UUID, updates map[string]any) error {
	return r.conn(tx).WithContext(ctx).
		Model(&models.Asset{}).
		Where("id = ?", assetID).
		Updates(updates).Error
}
