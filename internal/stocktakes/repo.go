package stocktakes

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

// NewRepository builds a stock take repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, take *models.StockTake) (*models.StockTake, error) {
	if err := r.db.WithContext(ctx).Create(take).Error; err != nil {
		return nil, err
	}
	return take, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.StockTake, error) {
	var take models.StockTake
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ?", id).
		First(&take).Error
	if err != nil {
		return nil, err
	}
	return &take, nil
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.StockTake, error) {
	var take models.StockTake
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("reference = ?", reference).
		First(&take).Error
	if err != nil {
		return nil, err
	}
	return &take, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) (*StockTakeList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.StockTake{})

	if filters.LocationID != nil {
		query = query.Where("location_id = ?", *filters.LocationID)
	}
	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	var rows []models.StockTake
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &StockTakeList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.StockTakes = rows
	return list, nil
}

// UpdateStatusFrom applies a compare-and-swap on the stock take status. A
// zero row count means another writer moved the record first.
func (r *repository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to enums.StockTakeStatus, updates map[string]any) (int64, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&models.StockTake{}).
		Where("id = ?", id).
		Where("status = ?", from).
		Updates(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.StockTake{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) ListItems(ctx context.Context, takeID uuid.UUID) ([]models.StockTakeItem, error) {
	var items []models.StockTakeItem
	err := r.db.WithContext(ctx).
		Where("stock_take_id = ?", takeID).
		Order("asset_tag ASC").
		Find(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repository) FindItemByTag(ctx context.Context, takeID uuid.UUID, assetTag string) (*models.StockTakeItem, error) {
	var item models.StockTakeItem
	err := r.db.WithContext(ctx).
		Where("stock_take_id = ?", takeID).
		Where("asset_tag = ?", assetTag).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *repository) CreateItem(ctx context.Context, item *models.StockTakeItem) error {
	return r.db.WithContext(ctx).Create(item).Error
}

func (r *repository) UpdateItem(ctx context.Context, itemID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.StockTakeItem{}).
		Where("id = ?", itemID).
		Updates(updates).Error
}
