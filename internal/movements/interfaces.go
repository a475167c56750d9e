package movements

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

// Repository defines persistence operations for movement tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, movement *models.Movement) (*models.Movement, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Movement, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Movement, error)
	FindOpenByAsset(ctx context.Context, assetID uuid.UUID) (*models.Movement, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*MovementList, error)
	UpdateStatusFrom(ctx context.Context, id uuid.UUID, from, to enums.MovementStatus, updates map[string]any) (int64, error)
	CreateAcknowledgement(ctx context.Context, ack *models.MovementAcknowledgement) error
}

// AssetRegistry is the slice of the asset/location registry the transition
// engine consumes. Reads resolve identifiers; the single write is the
// location/status write-back when a movement is acknowledged. A nil tx means
// the call runs outside any transaction.
type AssetRegistry interface {
	AssetByID(ctx context.Context, tx *gorm.DB, assetID uuid.UUID) (*models.Asset, error)
	LocationByID(ctx context.Context, tx *gorm.DB, locationID uuid.UUID) (*models.Location, error)
	UpdateAsset(ctx context.Context, tx *gorm.DB, assetID uuid.UUID, updates map[string]any) error
}
