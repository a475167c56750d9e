package assets

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

func setupRegistryTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	locations := `
CREATE TABLE IF NOT EXISTS locations (
  id TEXT PRIMARY KEY,
  code TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  address TEXT,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`
	assets := `
CREATE TABLE IF NOT EXISTS assets (
  id TEXT PRIMARY KEY,
  asset_tag TEXT NOT NULL UNIQUE,
  name TEXT NOT NULL,
  description TEXT,
  status TEXT NOT NULL DEFAULT 'available',
  condition TEXT NOT NULL DEFAULT 'good',
  current_location_id TEXT NOT NULL,
  purchase_cost NUMERIC NOT NULL DEFAULT 0,
  tags TEXT,
  created_at DATETIME,
  updated_at DATETIME
);`
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

	require.NoError(t, conn.Exec(locations).Error)
	require.NoError(t, conn.Exec(assets).Error)
	require.NoError(t, conn.Exec(movements).Error)
	return conn
}

func seedLocation(t *testing.T, conn *gorm.DB, code string) *models.Location {
	t.Helper()
	location := &models.Location{
		ID:       uuid.New(),
		Code:     code,
		Name:     code + " warehouse",
		IsActive: true,
	}
	require.NoError(t, conn.Create(location).Error)
	return location
}

func seedAsset(t *testing.T, conn *gorm.DB, tag string, locationID uuid.UUID) *models.Asset {
	t.Helper()
	asset := &models.Asset{
		ID:                uuid.New(),
		AssetTag:          tag,
		Name:              "asset " + tag,
		Status:            enums.AssetStatusAvailable,
		Condition:         enums.ConditionRatingGood,
		CurrentLocationID: locationID,
	}
	require.NoError(t, conn.Create(asset).Error)
	return asset
}

func TestRepositoryAssetRoundTrip(t *testing.T) {
	conn := setupRegistryTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	hk := seedLocation(t, conn, "HK")
	asset := seedAsset(t, conn, "A-001", hk.ID)

	byID, err := repo.FindAssetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, "A-001", byID.AssetTag)

	byTag, err := repo.FindAssetByTag(ctx, "A-001")
	require.NoError(t, err)
	assert.Equal(t, asset.ID, byTag.ID)

	_, err = repo.FindAssetByTag(ctx, "A-404")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)

	require.NoError(t, repo.UpdateAsset(ctx, asset.ID, map[string]any{
		"status": enums.AssetStatusMaintenance,
	}))
	updated, err := repo.FindAssetByID(ctx, asset.ID)
	require.NoError(t, err)
	assert.Equal(t, enums.AssetStatusMaintenance, updated.Status)
}

func TestRepositoryListAssetsByLocation(t *testing.T) {
	conn := setupRegistryTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	hk := seedLocation(t, conn, "HK")
	sz := seedLocation(t, conn, "SZ")
	seedAsset(t, conn, "A-001", hk.ID)
	seedAsset(t, conn, "A-002", hk.ID)
	seedAsset(t, conn, "A-003", sz.ID)

	list, err := repo.ListAssets(ctx, pagination.Params{}, AssetFilters{LocationID: &hk.ID})
	require.NoError(t, err)
	assert.Len(t, list.Assets, 2)

	list, err = repo.ListAssets(ctx, pagination.Params{}, AssetFilters{Tag: "A-003"})
	require.NoError(t, err)
	require.Len(t, list.Assets, 1)
	assert.Equal(t, sz.ID, list.Assets[0].CurrentLocationID)
}

func TestRepositoryHasOpenMovement(t *testing.T) {
	conn := setupRegistryTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	hk := seedLocation(t, conn, "HK")
	asset := seedAsset(t, conn, "A-001", hk.ID)

	open, err := repo.HasOpenMovement(ctx, asset.ID)
	require.NoError(t, err)
	assert.False(t, open)

	movement := &models.Movement{
		ID:              uuid.New(),
		TrackingNumber:  "MV2026-TESTAAAA",
		AssetID:         asset.ID,
		FromLocationID:  hk.ID,
		ToLocationID:    uuid.New(),
		Status:          enums.MovementStatusInTransit,
		Priority:        enums.MovementPriorityNormal,
		InitiatorID:     uuid.New(),
		Reason:          "relocation",
		ExpectedArrival: time.Now().Add(24 * time.Hour),
	}
	require.NoError(t, conn.Create(movement).Error)

	open, err = repo.HasOpenMovement(ctx, asset.ID)
	require.NoError(t, err)
	assert.True(t, open)

	require.NoError(t, conn.Model(movement).Update("status", enums.MovementStatusCancelled).Error)
	open, err = repo.HasOpenMovement(ctx, asset.ID)
	require.NoError(t, err)
	assert.False(t, open)
}

func TestRepositoryLocations(t *testing.T) {
	conn := setupRegistryTestDB(t)
	repo := NewRepository(conn)
	ctx := context.Background()

	hk := seedLocation(t, conn, "HK")
	sz := seedLocation(t, conn, "SZ")
	require.NoError(t, repo.UpdateLocation(ctx, sz.ID, map[string]any{"is_active": false}))

	active, err := repo.ListLocations(ctx, false)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "HK", active[0].Code)

	all, err := repo.ListLocations(ctx, true)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byCode, err := repo.FindLocationByCode(ctx, "HK")
	require.NoError(t, err)
	assert.Equal(t, hk.ID, byCode.ID)
}

func TestRegistryAdapter(t *testing.T) {
	conn := setupRegistryTestDB(t)
	registry := NewRegistry(conn)
	ctx := context.Background()

	hk := seedLocation(t, conn, "HK")
	sz := seedLocation(t, conn, "SZ")
	first := seedAsset(t, conn, "A-001", hk.ID)
	seedAsset(t, conn, "A-002", hk.ID)
	seedAsset(t, conn, "A-003", sz.ID)

	atHK, err := registry.AssetsAtLocation(ctx, nil, hk.ID)
	require.NoError(t, err)
	require.Len(t, atHK, 2)
	assert.Equal(t, "A-001", atHK[0].AssetTag)

	location, err := registry.LocationByID(ctx, nil, sz.ID)
	require.NoError(t, err)
	assert.Equal(t, "SZ", location.Code)

	// The adapter must honor an explicit transaction.
	tx := conn.Begin()
	require.NoError(t, tx.Error)
	require.NoError(t, registry.UpdateAsset(ctx, tx, first.ID, map[string]any{
		"current_location_id": sz.ID,
		"status":              enums.AssetStatusInUse,
	}))
	require.NoError(t, tx.Commit().Error)

	moved, err := registry.AssetByID(ctx, nil, first.ID)
	require.NoError(t, err)
	assert.Equal(t, sz.ID, moved.CurrentLocationID)
	assert.Equal(t, enums.AssetStatusInUse, moved.Status)
}
