package assets

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/authz"
	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	pkgerrors "github.com/marcuschung/assetflow-backend/pkg/errors"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

type stubRegistryRepo struct {
	assets    map[uuid.UUID]*models.Asset
	locations map[uuid.UUID]*models.Location
	open      map[uuid.UUID]bool
	deleted   []uuid.UUID

	createAssetErr    error
	createLocationErr error
}

func newStubRegistryRepo() *stubRegistryRepo {
	return &stubRegistryRepo{
		assets:    make(map[uuid.UUID]*models.Asset),
		locations: make(map[uuid.UUID]*models.Location),
		open:      make(map[uuid.UUID]bool),
	}
}

func (s *stubRegistryRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRegistryRepo) CreateAsset(ctx context.Context, asset *models.Asset) (*models.Asset, error) {
	if s.createAssetErr != nil {
		return nil, s.createAssetErr
	}
	if asset.ID == uuid.Nil {
		asset.ID = uuid.New()
	}
	clone := *asset
	s.assets[asset.ID] = &clone
	return asset, nil
}

func (s *stubRegistryRepo) FindAssetByID(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	asset, ok := s.assets[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *asset
	return &clone, nil
}

func (s *stubRegistryRepo) FindAssetByTag(ctx context.Context, tag string) (*models.Asset, error) {
	for _, asset := range s.assets {
		if asset.AssetTag == tag {
			clone := *asset
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegistryRepo) ListAssets(ctx context.Context, params pagination.Params, filters AssetFilters) (*AssetList, error) {
	list := &AssetList{}
	for _, asset := range s.assets {
		list.Assets = append(list.Assets, *asset)
	}
	return list, nil
}

func (s *stubRegistryRepo) UpdateAsset(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	asset, ok := s.assets[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["status"]; ok {
		asset.Status = v.(enums.AssetStatus)
	}
	if v, ok := updates["name"]; ok {
		asset.Name = v.(string)
	}
	if v, ok := updates["condition"]; ok {
		asset.Condition = v.(enums.ConditionRating)
	}
	return nil
}

func (s *stubRegistryRepo) DeleteAsset(ctx context.Context, id uuid.UUID) error {
	delete(s.assets, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubRegistryRepo) HasOpenMovement(ctx context.Context, assetID uuid.UUID) (bool, error) {
	return s.open[assetID], nil
}

func (s *stubRegistryRepo) CreateLocation(ctx context.Context, location *models.Location) (*models.Location, error) {
	if s.createLocationErr != nil {
		return nil, s.createLocationErr
	}
	if location.ID == uuid.Nil {
		location.ID = uuid.New()
	}
	clone := *location
	s.locations[location.ID] = &clone
	return location, nil
}

func (s *stubRegistryRepo) FindLocationByID(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	location, ok := s.locations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := *location
	return &clone, nil
}

func (s *stubRegistryRepo) FindLocationByCode(ctx context.Context, code string) (*models.Location, error) {
	for _, location := range s.locations {
		if location.Code == code {
			clone := *location
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubRegistryRepo) ListLocations(ctx context.Context, includeInactive bool) ([]models.Location, error) {
	var list []models.Location
	for _, location := range s.locations {
		if includeInactive || location.IsActive {
			list = append(list, *location)
		}
	}
	return list, nil
}

func (s *stubRegistryRepo) UpdateLocation(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	location, ok := s.locations[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["name"]; ok {
		location.Name = v.(string)
	}
	if v, ok := updates["is_active"]; ok {
		location.IsActive = v.(bool)
	}
	return nil
}

func (s *stubRegistryRepo) addLocation(code string) *models.Location {
	location := &models.Location{ID: uuid.New(), Code: code, Name: code, IsActive: true}
	s.locations[location.ID] = location
	return location
}

func admin() authz.Actor {
	return authz.Actor{ID: uuid.New(), Role: enums.ActorRoleAdministrator}
}

func assertErrCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	coded := pkgerrors.As(err)
	if coded == nil {
		t.Fatalf("expected coded error, got %v", err)
	}
	if coded.Code() != code {
		t.Fatalf("expected code %s, got %s (%v)", code, coded.Code(), err)
	}
}

func TestCreateAsset(t *testing.T) {
	repo := newStubRegistryRepo()
	svc, err := NewService(repo)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	hk := repo.addLocation("HK")
	asset, err := svc.CreateAsset(context.Background(), admin(), CreateAssetInput{
		AssetTag:          " A-001 ",
		Name:              "Forklift",
		CurrentLocationID: hk.ID,
	})
	if err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}
	if asset.AssetTag != "A-001" {
		t.Fatalf("expected trimmed tag, got %q", asset.AssetTag)
	}
	if asset.Status != enums.AssetStatusAvailable {
		t.Fatalf("new asset should be available, got %s", asset.Status)
	}
	if asset.Condition != enums.ConditionRatingGood {
		t.Fatalf("expected defaulted condition, got %s", asset.Condition)
	}
}

func TestCreateAssetRequiresAdministrator(t *testing.T) {
	repo := newStubRegistryRepo()
	svc, _ := NewService(repo)

	hk := repo.addLocation("HK")
	for _, role := range []enums.ActorRole{enums.ActorRoleViewer, enums.ActorRoleOperator, enums.ActorRoleApprover} {
		actor := authz.Actor{ID: uuid.New(), Role: role}
		_, err := svc.CreateAsset(context.Background(), actor, CreateAssetInput{
			AssetTag:          "A-001",
			Name:              "Forklift",
			CurrentLocationID: hk.ID,
		})
		assertErrCode(t, err, pkgerrors.CodeForbidden)
	}
}

func TestCreateAssetDuplicateTag(t *testing.T) {
	repo := newStubRegistryRepo()
	svc, _ := NewService(repo)

	hk := repo.addLocation("HK")
	repo.createAssetErr = fmt.Errorf("duplicate key value violates unique constraint %q", assetTagConstraint)

	_, err := svc.CreateAsset(context.Background(), admin(), CreateAssetInput{
		AssetTag:          "A-001",
		Name:              "Forklift",
		CurrentLocationID: hk.ID,
	})
	assertErrCode(t, err, pkgerrors.CodeConflict)
}

func TestCreateAssetUnknownLocation(t *testing.T) {
	repo := newStubRegistryRepo()
	svc, _ := NewService(repo)

	_, err := svc.CreateAsset(context.Background(), admin(), CreateAssetInput{
		AssetTag:          "A-001",
		Name:              "Forklift",
		CurrentLocationID: uuid.New(),
	})
	assertErrCode(t, err, pkgerrors.CodeNotFound)
}

func TestDeleteAssetRefusedWhileOnOpenMovement(t *testing.T) {
	repo := newStubRegistryRepo()
	svc, _ := NewService(repo)

	hk := repo.addLocation("HK")
	asset, err := svc.CreateAsset(context.Background(), admin(), CreateAssetInput{
		AssetTag:          "A-001",
		Name:              "Forklift",
		CurrentLocationID: hk.ID,
	})
	if err != nil {
		t.Fatalf("CreateAsset failed: %v", err)
	}

	repo.open[asset.ID] = true
	err = svc.DeleteAsset(context.Background(), admin(), asset.ID)
	assertErrCode(t, err, pkgerrors.CodeConflict)
	if len(repo.deleted) != 0 {
		t.Fatal("asset must not be deleted while on an open movement")
	}

	repo.open[asset.ID] = false
	if err := svc.DeleteAsset(context.Background(), admin(), asset.ID); err != nil {
		t.Fatalf("DeleteAsset failed once the movement closed: %v", err)
	}
	if len(repo.deleted) != 1 {
		t.Fatal("expected the asset to be deleted")
	}
}

func TestRetireAssetRefusedWhileOnOpenMovement(t *testing.T) {
	repo := newStubRegistryRepo()
	svc, _ := NewService(repo)

	hk := repo.addLocation("HK")
	asset, _ := svc.CreateAsset(context.Background(), admin(), CreateAssetInput{
		AssetTag:          "A-001",
		Name:              "Forklift",
		CurrentLocationID: hk.ID,
	})

	repo.open[asset.ID] = true
	_, err := svc.UpdateAsset(context.Background(), admin(), asset.ID, UpdateAssetInput{Retire: true})
	assertErrCode(t, err, pkgerrors.CodeConflict)

	repo.open[asset.ID] = false
	updated, err := svc.UpdateAsset(context.Background(), admin(), asset.ID, UpdateAssetInput{Retire: true})
	if err != nil {
		t.Fatalf("retire failed: %v", err)
	}
	if updated.Status != enums.AssetStatusRetired {
		t.Fatalf("expected retired, got %s", updated.Status)
	}
}

func TestCreateLocationNormalizesCode(t *testing.T) {
	repo := newStubRegistryRepo()
	svc, _ := NewService(repo)

	location, err := svc.CreateLocation(context.Background(), admin(), CreateLocationInput{
		Code: " hk ",
		Name: "Hong Kong",
	})
	if err != nil {
		t.Fatalf("CreateLocation failed: %v", err)
	}
	if location.Code != "HK" {
		t.Fatalf("expected upper-cased code, got %q", location.Code)
	}
	if !location.IsActive {
		t.Fatal("new locations start active")
	}
}

func TestUpdateLocationDeactivates(t *testing.T) {
	repo := newStubRegistryRepo()
	svc, _ := NewService(repo)

	location, _ := svc.CreateLocation(context.Background(), admin(), CreateLocationInput{
		Code: "SZ",
		Name: "Shenzhen",
	})

	inactive := false
	updated, err := svc.UpdateLocation(context.Background(), admin(), location.ID, UpdateLocationInput{
		IsActive: &inactive,
	})
	if err != nil {
		t.Fatalf("UpdateLocation failed: %v", err)
	}
	if updated.IsActive {
		t.Fatal("expected location to be deactivated")
	}
}
