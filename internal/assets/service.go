package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/authz"
	"github.com/marcuschung/assetflow-backend/pkg/db"
	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	pkgerrors "github.com/marcuschung/assetflow-backend/pkg/errors"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

const (
	assetTagConstraint     = "assets_asset_tag_key"
	locationCodeConstraint = "locations_code_key"
)

// Service defines the registry operations. Mutations are administrator-only;
// reads are open to any authenticated role.
type Service interface {
	CreateAsset(ctx context.Context, actor authz.Actor, input CreateAssetInput) (*models.Asset, error)
	UpdateAsset(ctx context.Context, actor authz.Actor, id uuid.UUID, input UpdateAssetInput) (*models.Asset, error)
	DeleteAsset(ctx context.Context, actor authz.Actor, id uuid.UUID) error
	GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error)
	ListAssets(ctx context.Context, params pagination.Params, filters AssetFilters) (*AssetList, error)
	CreateLocation(ctx context.Context, actor authz.Actor, input CreateLocationInput) (*models.Location, error)
	UpdateLocation(ctx context.Context, actor authz.Actor, id uuid.UUID, input UpdateLocationInput) (*models.Location, error)
	GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error)
	ListLocations(ctx context.Context, includeInactive bool) ([]models.Location, error)
}

type service struct {
	repo Repository
}

// NewService builds a registry service with the required dependencies.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("registry repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) CreateAsset(ctx context.Context, actor authz.Actor, input CreateAssetInput) (*models.Asset, error) {
	if !authz.Permitted(actor, authz.ActionManageRegistry, false) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not manage the registry")
	}

	tag := strings.TrimSpace(input.AssetTag)
	if tag == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset tag required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset name required")
	}
	if input.CurrentLocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "current location required")
	}
	if input.PurchaseCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase cost may not be negative")
	}

	condition := input.Condition
	if condition == "" {
		condition = enums.ConditionRatingGood
	}
	if !condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid condition rating").
			WithDetails(map[string]any{"condition": string(condition)})
	}

	if _, err := s.repo.FindLocationByID(ctx, input.CurrentLocationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}

	asset := &models.Asset{
		AssetTag:          tag,
		Name:              strings.TrimSpace(input.Name),
		Description:       input.Description,
		Status:            enums.AssetStatusAvailable,
		Condition:         condition,
		CurrentLocationID: input.CurrentLocationID,
		PurchaseCost:      input.PurchaseCost,
		Tags:              pq.StringArray(input.Tags),
	}
	created, err := s.repo.CreateAsset(ctx, asset)
	if err != nil {
		if db.IsUniqueViolation(err, assetTagConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "asset tag already registered").
				WithDetails(map[string]any{"asset_tag": tag})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create asset")
	}
	return created, nil
}

func (s *service) UpdateAsset(ctx context.Context, actor authz.Actor, id uuid.UUID, input UpdateAssetInput) (*models.Asset, error) {
	if !authz.Permitted(actor, authz.ActionManageRegistry, false) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not manage the registry")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset name may not be blank")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.Condition != nil {
		if !input.Condition.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid condition rating")
		}
		updates["condition"] = *input.Condition
	}
	if input.PurchaseCost != nil {
		if input.PurchaseCost.IsNegative() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "purchase cost may not be negative")
		}
		updates["purchase_cost"] = *input.PurchaseCost
	}
	if input.Tags != nil {
		updates["tags"] = pq.StringArray(input.Tags)
	}
	if input.Retire {
		open, err := s.repo.HasOpenMovement(ctx, id)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open movements")
		}
		if open {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "asset is on an open movement")
		}
		updates["status"] = enums.AssetStatusRetired
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates supplied")
	}

	if _, err := s.loadAsset(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateAsset(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update asset")
	}
	return s.loadAsset(ctx, id)
}

func (s *service) DeleteAsset(ctx context.Context, actor authz.Actor, id uuid.UUID) error {
	if !authz.Permitted(actor, authz.ActionManageRegistry, false) {
		return pkgerrors.New(pkgerrors.CodeForbidden, "role may not manage the registry")
	}
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset id required")
	}
	if _, err := s.loadAsset(ctx, id); err != nil {
		return err
	}

	open, err := s.repo.HasOpenMovement(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open movements")
	}
	if open {
		return pkgerrors.New(pkgerrors.CodeConflict, "asset is referenced by an open movement")
	}

	if err := s.repo.DeleteAsset(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete asset")
	}
	return nil
}

func (s *service) GetAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	return s.loadAsset(ctx, id)
}

func (s *service) ListAssets(ctx context.Context, params pagination.Params, filters AssetFilters) (*AssetList, error) {
	list, err := s.repo.ListAssets(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list assets")
	}
	return list, nil
}

func (s *service) CreateLocation(ctx context.Context, actor authz.Actor, input CreateLocationInput) (*models.Location, error) {
	if !authz.Permitted(actor, authz.ActionManageRegistry, false) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not manage the registry")
	}

	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location code required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name required")
	}

	location := &models.Location{
		Code:     code,
		Name:     strings.TrimSpace(input.Name),
		Address:  input.Address,
		IsActive: true,
	}
	created, err := s.repo.CreateLocation(ctx, location)
	if err != nil {
		if db.IsUniqueViolation(err, locationCodeConstraint) {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "location code already in use").
				WithDetails(map[string]any{"code": code})
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create location")
	}
	return created, nil
}

func (s *service) UpdateLocation(ctx context.Context, actor authz.Actor, id uuid.UUID, input UpdateLocationInput) (*models.Location, error) {
	if !authz.Permitted(actor, authz.ActionManageRegistry, false) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not manage the registry")
	}
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id required")
	}

	updates := map[string]any{}
	if input.Name != nil {
		if strings.TrimSpace(*input.Name) == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "location name may not be blank")
		}
		updates["name"] = strings.TrimSpace(*input.Name)
	}
	if input.Address != nil {
		updates["address"] = *input.Address
	}
	if input.IsActive != nil {
		updates["is_active"] = *input.IsActive
	}
	if len(updates) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates supplied")
	}

	if _, err := s.loadLocation(ctx, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateLocation(ctx, id, updates); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update location")
	}
	return s.loadLocation(ctx, id)
}

func (s *service) GetLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	return s.loadLocation(ctx, id)
}

func (s *service) ListLocations(ctx context.Context, includeInactive bool) ([]models.Location, error) {
	locations, err := s.repo.ListLocations(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list locations")
	}
	return locations, nil
}

func (s *service) loadAsset(ctx context.Context, id uuid.UUID) (*models.Asset, error) {
	asset, err := s.repo.FindAssetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "asset not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
	}
	return asset, nil
}

func (s *service) loadLocation(ctx context.Context, id uuid.UUID) (*models.Location, error) {
	location, err := s.repo.FindLocationByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
	}
	return location, nil
}
