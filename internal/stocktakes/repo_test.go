package stocktakes

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

func setupStockTakesTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	takes := `
CREATE TABLE IF NOT EXISTS stock_takes (
  id TEXT PRIMARY KEY,
  reference TEXT NOT NULL UNIQUE,
  location_id TEXT NOT NULL,
  status TEXT NOT NULL DEFAULT 'planned',
  scheduler_id TEXT NOT NULL,
  notes TEXT,
  expected_count INTEGER NOT NULL DEFAULT 0,
  found_count INTEGER NOT NULL DEFAULT 0,
  missing_count INTEGER NOT NULL DEFAULT 0,
  unexpected_count INTEGER NOT NULL DEFAULT 0,
  started_at DATETIME,
  completed_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`
	items := `
CREATE TABLE IF NOT EXISTS stock_take_items (
  id TEXT PRIMARY KEY,
  stock_take_id TEXT NOT NULL,
  asset_id TEXT,
  asset_tag TEXT NOT NULL,
  expected INTEGER NOT NULL,
  found INTEGER NOT NULL DEFAULT 0,
  condition TEXT,
  verified_by_id TEXT,
  verified_at DATETIME,
  created_at DATETIME,
  updated_at DATETIME,
  UNIQUE (stock_take_id, asset_tag)
);`

	require.NoError(t, conn.Exec(takes).Error)
	require.NoError(t, conn.Exec(items).Error)
	return conn
}

func seedTake(t *testing.T, conn *gorm.DB, status enums.StockTakeStatus) *models.StockTake {
	t.Helper()
	take := &models.StockTake{
		ID:          uuid.New(),
		Reference:   "ST-HK-20260831-" + uuid.NewString()[:4],
		LocationID:  uuid.New(),
		Status:      status,
		SchedulerID: uuid.New(),
	}
	require.NoError(t, conn.Create(take).Error)
	return take
}

func TestRepositoryCreateAndFind(t *testing.T) {
	conn := setupStockTakesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	take := seedTake(t, conn, enums.StockTakeStatusPlanned)

	byID, err := repo.FindByID(ctx, take.ID)
	require.NoError(t, err)
	assert.Equal(t, take.Reference, byID.Reference)
	assert.Empty(t, byID.Items)

	byRef, err := repo.FindByReference(ctx, take.Reference)
	require.NoError(t, err)
	assert.Equal(t, take.ID, byRef.ID)

	_, err = repo.FindByID(ctx, uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepositoryItemsRoundTrip(t *testing.T) {
	conn := setupStockTakesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	take := seedTake(t, conn, enums.StockTakeStatusInProgress)
	assetID := uuid.New()

	item := &models.StockTakeItem{
		ID:          uuid.New(),
		StockTakeID: take.ID,
		AssetID:     &assetID,
		AssetTag:    "A-001",
		Expected:    true,
	}
	require.NoError(t, repo.CreateItem(ctx, item))

	byTag, err := repo.FindItemByTag(ctx, take.ID, "A-001")
	require.NoError(t, err)
	assert.True(t, byTag.Expected)
	assert.False(t, byTag.Found)

	verifier := uuid.New()
	now := time.Now().UTC().Truncate(time.Second)
	require.NoError(t, repo.UpdateItem(ctx, item.ID, map[string]any{
		"found":          true,
		"condition":      enums.ConditionRatingFair,
		"verified_by_id": verifier,
		"verified_at":    now,
	}))

	items, err := repo.ListItems(ctx, take.ID)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, items[0].Found)
	require.NotNil(t, items[0].Condition)
	assert.Equal(t, enums.ConditionRatingFair, *items[0].Condition)
	require.NotNil(t, items[0].VerifiedByID)
	assert.Equal(t, verifier, *items[0].VerifiedByID)

	loaded, err := repo.FindByID(ctx, take.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Items, 1)
}

func TestRepositoryItemTagUniquePerTake(t *testing.T) {
	conn := setupStockTakesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	take := seedTake(t, conn, enums.StockTakeStatusInProgress)
	require.NoError(t, repo.CreateItem(ctx, &models.StockTakeItem{
		ID:          uuid.New(),
		StockTakeID: take.ID,
		AssetTag:    "A-001",
		Expected:    true,
	}))
	err := repo.CreateItem(ctx, &models.StockTakeItem{
		ID:          uuid.New(),
		StockTakeID: take.ID,
		AssetTag:    "A-001",
		Expected:    false,
		Found:       true,
	})
	require.Error(t, err)

	// The same tag may appear in a different take.
	other := seedTake(t, conn, enums.StockTakeStatusInProgress)
	require.NoError(t, repo.CreateItem(ctx, &models.StockTakeItem{
		ID:          uuid.New(),
		StockTakeID: other.ID,
		AssetTag:    "A-001",
		Expected:    true,
	}))
}

func TestRepositoryUpdateStatusFrom(t *testing.T) {
	conn := setupStockTakesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	take := seedTake(t, conn, enums.StockTakeStatusInProgress)

	rows, err := repo.UpdateStatusFrom(ctx, take.ID, enums.StockTakeStatusInProgress, enums.StockTakeStatusCompleted, map[string]any{
		"expected_count":   10,
		"found_count":      8,
		"missing_count":    2,
		"unexpected_count": 1,
		"completed_at":     time.Now().UTC(),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	rows, err = repo.UpdateStatusFrom(ctx, take.ID, enums.StockTakeStatusInProgress, enums.StockTakeStatusCompleted, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)

	reloaded, err := repo.FindByID(ctx, take.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.StockTakeStatusCompleted, reloaded.Status)
	assert.Equal(t, 10, reloaded.ExpectedCount)
	assert.Equal(t, 8, reloaded.FoundCount)
	assert.Equal(t, 2, reloaded.MissingCount)
	assert.Equal(t, 1, reloaded.UnexpectedCount)
	assert.NotNil(t, reloaded.CompletedAt)
}

func TestRepositoryUpdateWritesSummaryCounts(t *testing.T) {
	conn := setupStockTakesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	take := seedTake(t, conn, enums.StockTakeStatusInProgress)

	// Guarded self-update holds the take on its current status.
	rows, err := repo.UpdateStatusFrom(ctx, take.ID, enums.StockTakeStatusInProgress, enums.StockTakeStatusInProgress, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)

	err = repo.Update(ctx, take.ID, map[string]any{
		"expected_count":   5,
		"found_count":      4,
		"missing_count":    1,
		"unexpected_count": 2,
	})
	require.NoError(t, err)

	reloaded, err := repo.FindByID(ctx, take.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.StockTakeStatusInProgress, reloaded.Status)
	assert.Equal(t, 5, reloaded.ExpectedCount)
	assert.Equal(t, 4, reloaded.FoundCount)
	assert.Equal(t, 1, reloaded.MissingCount)
	assert.Equal(t, 2, reloaded.UnexpectedCount)
}

func TestRepositoryListFilters(t *testing.T) {
	conn := setupStockTakesTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	planned := seedTake(t, conn, enums.StockTakeStatusPlanned)
	seedTake(t, conn, enums.StockTakeStatusCompleted)

	status := enums.StockTakeStatusPlanned
	list, err := repo.List(ctx, pagination.Params{}, Filters{Status: &status})
	require.NoError(t, err)
	require.Len(t, list.StockTakes, 1)
	assert.Equal(t, planned.ID, list.StockTakes[0].ID)

	list, err = repo.List(ctx, pagination.Params{}, Filters{LocationID: &planned.LocationID})
	require.NoError(t, err)
	require.Len(t, list.StockTakes, 1)
}
