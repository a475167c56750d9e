package movements

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a movements repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, movement *models.Movement) (*models.Movement, error) {
	if err := r.db.WithContext(ctx).Create(movement).Error; err != nil {
		return nil, err
	}
	return movement, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Movement, error) {
	var movement models.Movement
	err := r.db.WithContext(ctx).
		Preload("Acknowledgement").
		Where("id = ?", id).
		First(&movement).Error
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repository) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Movement, error) {
	var movement models.Movement
	err := r.db.WithContext(ctx).
		Preload("Acknowledgement").
		Where("tracking_number = ?", trackingNumber).
		First(&movement).Error
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repository) FindOpenByAsset(ctx context.Context, assetID uuid.UUID) (*models.Movement, error) {
	var movement models.Movement
	err := r.db.WithContext(ctx).
		Where("asset_id = ?", assetID).
		Where("status NOT IN ?", terminalStatuses()).
		First(&movement).Error
	if err != nil {
		return nil, err
	}
	return &movement, nil
}

func (r *repository) List(ctx context.Context, params pagination.Params, filters Filters) (*MovementList, error) {
	limit := pagination.NormalizeLimit(params.Limit)
	query := r.db.WithContext(ctx).Model(&models.Movement{})

	if filters.Status != nil {
		query = query.Where("status = ?", *filters.Status)
	}
	if filters.Priority != nil {
		query = query.Where("priority = ?", *filters.Priority)
	}
	if filters.AssetID != nil {
		query = query.Where("asset_id = ?", *filters.AssetID)
	}
	if filters.FromLocationID != nil {
		query = query.Where("from_location_id = ?", *filters.FromLocationID)
	}
	if filters.ToLocationID != nil {
		query = query.Where("to_location_id = ?", *filters.ToLocationID)
	}
	if filters.OverdueOnly {
		query = query.
			Where("expected_arrival < ?", time.Now().UTC()).
			Where("status NOT IN ?", overdueExemptStatuses())
	}

	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(created_at, id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Movement
	err = query.
		Order("created_at DESC, id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &MovementList{}
	if len(rows) > limit {
		rows = rows[:limit]
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	list.Movements = rows
	return list, nil
}

// UpdateStatusFrom applies a compare-and-swap on the movement status. A zero
// row count means another writer moved the record first.
func (r *repository) UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to enums.MovementStatus, updates map[string]any) (int64, error) {
	values := map[string]any{"status": to}
	for k, v := range updates {
		values[k] = v
	}
	result := r.db.WithContext(ctx).
		Model(&models.Movement{}).
		Where("id = ?", id).
		Where("status = ?", from).
		Updates(values)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (r *repository) CreateAcknowledgement(ctx context.Context, ack *models.MovementAcknowledgement) error {
	return r.db.WithContext(ctx).Create(ack).Error
}

func terminalStatuses() []enums.MovementStatus {
	return []enums.MovementStatus{
		enums.MovementStatusAcknowledged,
		enums.MovementStatusCancelled,
	}
}

func overdueExemptStatuses() []enums.MovementStatus {
	return []enums.MovementStatus{
		enums.MovementStatusDelivered,
		enums.MovementStatusAcknowledged,
		enums.MovementStatusCancelled,
	}
}
