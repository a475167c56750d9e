package movements

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/config"
	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

func setupMovementsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	movements := `
CREATE TABLE IF NOT EXISTS movements (
  id TEXT PRIMARY KEY,
  tracking_number TEXT NOT NULL UNIQUE,
  asset_id TEXT NOT NULL,
  from_location_id TEXT NOT NULL,
  to_location_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'pending',
  priority TEXT NOT NULL DEFAULT 'normal',
  initiator_id TEXT NOT NULL,
  reason TEXT NOT NULL,
  notes TEXT,
  expected_arrival DATETIME NOT NULL,
  actual_arrival DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	acks := `
CREATE TABLE IF NOT EXISTS movement_acknowledgements (
  id TEXT PRIMARY KEY,
  movement_id TEXT NOT NULL UNIQUE,
  actor_id TEXT NOT NULL,
  condition TEXT NOT NULL,
  discrepancy_note TEXT,
  acknowledged_at DATETIME NOT NULL
);`

	require.NoError(t, conn.Exec(movements).Error)
	require.NoError(t, conn.Exec(acks).Error)
	return conn
}

func newTestMovement(status enums.MovementStatus) *models.Movement {
	return &models.Movement{
		ID:              uuid.New(),
		TrackingNumber:  "MV2026-" + uuid.NewString()[:8],
		AssetID:         uuid.New(),
		FromLocationID:  uuid.New(),
		ToLocationID:    uuid.New(),
		Status:          status,
		Priority:        enums.MovementPriorityNormal,
		InitiatorID:     uuid.New(),
		Reason:          "relocation",
		ExpectedArrival: time.Now().Add(48 * time.Hour).UTC(),
	}
}

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := setupMovementsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	movement := newTestMovement(enums.MovementStatusPending)
	created, err := repo.Create(ctx, movement)
	require.NoError(t, err)
	require.NotNil(t, created)

	byID, err := repo.FindByID(ctx, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, movement.TrackingNumber, byID.TrackingNumber)
	assert.Equal(t, enums.MovementStatusPending, byID.Status)
	assert.Nil(t, byID.Acknowledgement)

	byTracking, err := repo.FindByTrackingNumber(ctx, movement.TrackingNumber)
	require.NoError(t, err)
	assert.Equal(t, movement.ID, byTracking.ID)

	_, err = repo.FindByTrackingNumber(ctx, "MV2026-MISSING1")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryCreateRejectsDuplicateTrackingNumber(t *testing.T) {
	conn := setupMovementsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	first := newTestMovement(enums.MovementStatusPending)
	_, err := repo.Create(ctx, first)
	require.NoError(t, err)

	dup := newTestMovement(enums.MovementStatusPending)
	dup.TrackingNumber = first.TrackingNumber
	_, err = repo.Create(ctx, dup)
	require.Error(t, err)
}

func TestRepositoryFindOpenByAsset(t *testing.T) {
	conn := setupMovementsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	assetID := uuid.New()

	closed := newTestMovement(enums.MovementStatusAcknowledged)
	closed.AssetID = assetID
	_, err := repo.Create(ctx, closed)
	require.NoError(t, err)

	cancelled := newTestMovement(enums.MovementStatusCancelled)
	cancelled.AssetID = assetID
	_, err = repo.Create(ctx, cancelled)
	require.NoError(t, err)

	_, err = repo.FindOpenByAsset(ctx, assetID)
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	open := newTestMovement(enums.MovementStatusInTransit)
	open.AssetID = assetID
	_, err = repo.Create(ctx, open)
	require.NoError(t, err)

	found, err := repo.FindOpenByAsset(ctx, assetID)
	require.NoError(t, err)
	assert.Equal(t, open.ID, found.ID)
}

func TestRepositoryUpdateStatusFrom(t *testing.T) {
	conn := setupMovementsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	movement := newTestMovement(enums.MovementStatusPending)
	_, err := repo.Create(ctx, movement)
	require.NoError(t, err)

	rows, err := repo.UpdateStatusFrom(ctx, movement.ID, enums.MovementStatusPending, enums.MovementStatusInTransit, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	// A second writer that still believes the movement is pending loses.
	rows, err = repo.UpdateStatusFrom(ctx, movement.ID, enums.MovementStatusPending, enums.MovementStatusInTransit, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	reloaded, err := repo.FindByID(ctx, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MovementStatusInTransit, reloaded.Status)
}

func TestRepositoryUpdateStatusFromCarriesExtraColumns(t *testing.T) {
	conn := setupMovementsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	movement := newTestMovement(enums.MovementStatusCompleted)
	_, err := repo.Create(ctx, movement)
	require.NoError(t, err)

	arrived := time.Now().UTC().Truncate(time.Second)
	rows, err := repo.UpdateStatusFrom(ctx, movement.ID, enums.MovementStatusCompleted, enums.MovementStatusDelivered, map[string]any{
		"actual_arrival": arrived,
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	reloaded, err := repo.FindByID(ctx, movement.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.MovementStatusDelivered, reloaded.Status)
	require.NotNil(t, reloaded.ActualArrival)
	assert.WithinDuration(t, arrived, *reloaded.ActualArrival, time.Second)
}

func TestRepositoryCreateAcknowledgementIsOneTime(t *testing.T) {
	conn := setupMovementsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	movement := newTestMovement(enums.MovementStatusDelivered)
	_, err := repo.Create(ctx, movement)
	require.NoError(t, err)

	ack := &models.MovementAcknowledgement{
		ID:             uuid.New(),
		MovementID:     movement.ID,
		ActorID:        uuid.New(),
		Condition:      enums.ConditionRatingGood,
		AcknowledgedAt: time.Now().UTC(),
	}
	require.NoError(t, repo.CreateAcknowledgement(ctx, ack))

	second := &models.MovementAcknowledgement{
		ID:             uuid.New(),
		MovementID:     movement.ID,
		ActorID:        uuid.New(),
		Condition:      enums.ConditionRatingDamaged,
		AcknowledgedAt: time.Now().UTC(),
	}
	require.Error(t, repo.CreateAcknowledgement(ctx, second))

	withAck, err := repo.FindByID(ctx, movement.ID)
	require.NoError(t, err)
	require.NotNil(t, withAck.Acknowledgement)
	assert.Equal(t, enums.ConditionRatingGood, withAck.Acknowledgement.Condition)
}

func TestRepositoryListFilters(t *testing.T) {
	conn := setupMovementsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	toLocation := uuid.New()

	pending := newTestMovement(enums.MovementStatusPending)
	pending.ToLocationID = toLocation
	_, err := repo.Create(ctx, pending)
	require.NoError(t, err)

	transit := newTestMovement(enums.MovementStatusInTransit)
	transit.ToLocationID = toLocation
	_, err = repo.Create(ctx, transit)
	require.NoError(t, err)

	other := newTestMovement(enums.MovementStatusInTransit)
	_, err = repo.Create(ctx, other)
	require.NoError(t, err)

	status := enums.MovementStatusInTransit
	list, err := repo.List(ctx, pagination.Params{}, Filters{
		Status:       &status,
		ToLocationID: &toLocation,
	})
	require.NoError(t, err)
	require.Len(t, list.Movements, 1)
	assert.Equal(t, transit.ID, list.Movements[0].ID)
	assert.Empty(t, list.NextCursor)
}

func TestRepositoryListOverdueOnly(t *testing.T) {
	conn := setupMovementsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	late := newTestMovement(enums.MovementStatusInTransit)
	late.ExpectedArrival = time.Now().Add(-24 * time.Hour).UTC()
	_, err := repo.Create(ctx, late)
	require.NoError(t, err)

	// Same lateness but already delivered, so not overdue.
	delivered := newTestMovement(enums.MovementStatusDelivered)
	delivered.ExpectedArrival = time.Now().Add(-24 * time.Hour).UTC()
	_, err = repo.Create(ctx, delivered)
	require.NoError(t, err)

	onTime := newTestMovement(enums.MovementStatusInTransit)
	_, err = repo.Create(ctx, onTime)
	require.NoError(t, err)

	list, err := repo.List(ctx, pagination.Params{}, Filters{OverdueOnly: true})
	require.NoError(t, err)
	require.Len(t, list.Movements, 1)
	assert.Equal(t, late.ID, list.Movements[0].ID)
}

func TestRepositoryListPaginates(t *testing.T) {
	conn := setupMovementsTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour).UTC()
	for i := 0; i < 5; i++ {
		movement := newTestMovement(enums.MovementStatusPending)
		movement.CreatedAt = base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, conn.Create(movement).Error)
	}

	first, err := repo.List(ctx, pagination.Params{Limit: 2}, Filters{})
	require.NoError(t, err)
	require.Len(t, first.Movements, 2)
	require.NotEmpty(t, first.NextCursor)

	second, err := repo.List(ctx, pagination.Params{Limit: 2, Cursor: first.NextCursor}, Filters{})
	require.NoError(t, err)
	require.Len(t, second.Movements, 2)

	for _, m := range second.Movements {
		assert.True(t, m.CreatedAt.Before(first.Movements[1].CreatedAt) ||
			m.CreatedAt.Equal(first.Movements[1].CreatedAt))
	}
}

// gormTxRunner runs transaction closures over the sqlite test connection the
// same way the production database client does.
type gormTxRunner struct{ db *gorm.DB }

func (r gormTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.db.WithContext(ctx).Transaction(fn)
}

func TestBulkCreateTrackingNumbersDistinctAtScale(t *testing.T) {
	conn := setupMovementsTestDB(t)
	repo := NewRepository(conn)
	registry := newStubRegistry()

	gen := NewTrackingGenerator(config.TrackingConfig{SuffixLength: 8})
	svc, err := NewService(repo, registry, gormTxRunner{db: conn}, gen, 5)
	require.NoError(t, err)

	from := registry.addLocation("HK")
	to := registry.addLocation("SZ")
	assetIDs := make([]uuid.UUID, 0, 120)
	for i := 0; i < 120; i++ {
		assetIDs = append(assetIDs, registry.addAsset(enums.AssetStatusAvailable).ID)
	}

	views, err := svc.BulkCreate(context.Background(), operator(), BulkCreateInput{
		AssetIDs:        assetIDs,
		FromLocationID:  from.ID,
		ToLocationID:    to.ID,
		Reason:          "warehouse consolidation",
		Priority:        enums.MovementPriorityNormal,
		ExpectedArrival: time.Now().Add(72 * time.Hour).UTC(),
	})
	require.NoError(t, err)
	require.Len(t, views, 120)

	numbers := make(map[string]struct{}, len(views))
	for _, view := range views {
		require.Regexp(t, `^MV\d{4}-[ABCDEFGHJKMNPQRSTUVWXYZ2-9]{8}$`, view.TrackingNumber)
		numbers[view.TrackingNumber] = struct{}{}
	}
	require.Len(t, numbers, 120)

	var persisted int64
	require.NoError(t, conn.Model(&models.Movement{}).Count(&persisted).Error)
	assert.Equal(t, int64(120), persisted)
}
