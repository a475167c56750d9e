package assets

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a registry repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) CreateAsset(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	if err := r.db.WithContext(ctx).Create(asset).Error; err != nil {
		return nil, err
	}
	return asset, nil
}

func (r *repository) FindAssetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *repository) FindAssetByTag(ctx context.Context, tag string) (*models.Asset, error) {
	var asset models.Asset
	if err := r.db.WithContext(ctx).Where("asset_tag = ?", tag).First(&asset).Error; err != nil {
		return nil, err
	}
	return &asset, nil
}

func (r *repository) ListAssets(ctx context.Context, params pagination.Params, filters AssetFilters) (*AssetList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Asset{})

	if filters.LocationID != nil {
		query = query.Where("current_location_id = ?", *filters.LocationID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Tag != "" {
		query = query.Where("asset_tag = ?", filters.Tag)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.Asset
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &AssetList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Assets = rows
	return list, nil
}

func (r *repository) UpdateAsset(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Asset{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Asset{}).Error
}

func (r *repository) HasOpenMovement(ctx context.Context, assetID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Movement{}).
		Where("asset_id = ?", assetID).
		Where("status NOT IN ?", []enums.MovementStatus{
			enums.MovementStatusAcknowledged,
			enums.MovementStatusCancelled,
		}).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *repository) CreateLocation(ctx context.Context, location *models.Location) (*models.Location, error) {
	if err := r.db.WithContext(ctx).Create(location).Error; err != nil {
		return nil, err
	}
	return location, nil
}

func (r *repository) FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) FindLocationByCode(ctx context.Context, code string) (*models.Location, error) {
	var location models.Location
	if err := r.db.WithContext(ctx).Where("code = ?", code).First(&location).Error; err != nil {
		return nil, err
	}
	return &location, nil
}

func (r *repository) ListLocations(ctx context.Context, includeInactive bool) ([]models.Location, error) {
	query := r.db.WithContext(ctx).Model(&models.Location{})
	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	var locations []models.Location
	if err := query.Order("code ASC").Find(&locations).Error; err != nil {
		return nil, err
	}
	return locations, nil
}

func (r *repository) UpdateLocation(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Location{}).
		Where("id = ?", id).
		Updates(updates).Error
}
