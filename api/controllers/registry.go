package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marcuschung/assetflow-backend/api/middleware"
	"github.com/marcuschung/assetflow-backend/api/responses"
	"github.com/marcuschung/assetflow-backend/api/validators"
	"github.com/marcuschung/assetflow-backend/internal/assets"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	pkgerrors "github.com/marcuschung/assetflow-backend/pkg/errors"
	"github.com/marcuschung/assetflow-backend/pkg/logger"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

type assetCreateRequest struct {
	AssetTag          string          `json:"asset_tag" validate:"required,min=1,max=100"`
	Name              string          `json:"name" validate:"required,min=1,max=255"`
	Description       *string         `json:"description,omitempty"`
	Condition         string          `json:"condition,omitempty"`
	CurrentLocationID uuid.UUID       `json:"current_location_id" validate:"required"`
	PurchaseCost      decimal.Decimal `json:"purchase_cost"`
	Tags              []string        `json:"tags,omitempty"`
}

// AssetCreate registers a new asset at a location.
func AssetCreate(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assetCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := assets.CreateAssetInput{
			AssetTag:          payload.AssetTag,
			Name:              payload.Name,
			Description:       payload.Description,
			CurrentLocationID: payload.CurrentLocationID,
			PurchaseCost:      payload.PurchaseCost,
			Tags:              payload.Tags,
		}
		if payload.Condition != "" {
			condition, err := enums.ParseConditionRating(payload.Condition)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition"))
				return
			}
			input.Condition = condition
		}

		asset, err := svc.CreateAsset(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, asset)
	}
}

type assetUpdateRequest struct {
	Name         *string          `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Description  *string          `json:"description,omitempty"`
	Condition    *string          `json:"condition,omitempty"`
	PurchaseCost *decimal.Decimal `json:"purchase_cost,omitempty"`
	Tags         []string         `json:"tags,omitempty"`
	Retire       bool             `json:"retire,omitempty"`
}

// AssetUpdate adjusts the mutable registry fields of an asset.
func AssetUpdate(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assetID, err := pathUUID(r, "assetID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload assetUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := assets.UpdateAssetInput{
			Name:         payload.Name,
			Description:  payload.Description,
			PurchaseCost: payload.PurchaseCost,
			Tags:         payload.Tags,
			Retire:       payload.Retire,
		}
		if payload.Condition != nil {
			condition, err := enums.ParseConditionRating(*payload.Condition)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition"))
				return
			}
			input.Condition = &condition
		}

		asset, err := svc.UpdateAsset(r.Context(), actor, assetID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}

// AssetDelete removes an asset that has no open movement.
func AssetDelete(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		assetID, err := pathUUID(r, "assetID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteAsset(r.Context(), actor, assetID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AssetGet returns one asset by identifier.
func AssetGet(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		assetID, err := pathUUID(r, "assetID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		asset, err := svc.GetAsset(r.Context(), assetID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, asset)
	}
}

// AssetList returns a filtered, cursor-paginated asset page.
func AssetList(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters assets.AssetFilters
		query := r.URL.Query()
		if raw := strings.TrimSpace(query.Get("location_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid location filter"))
				return
			}
			filters.LocationID = &id
		}
		if raw := strings.TrimSpace(query.Get("status")); raw != "" {
			status, err := enums.ParseAssetStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		filters.Tag = validators.SanitizeString(query.Get("tag"), 100)

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(query.Get("cursor")),
		}

		list, err := svc.ListAssets(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

type locationCreateRequest struct {
	Code    string  `json:"code" validate:"required,min=1,max=20"`
	Name    string  `json:"name" validate:"required,min=1,max=255"`
	Address *string `json:"address,omitempty"`
}

// LocationCreate registers a new site.
func LocationCreate(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload locationCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		location, err := svc.CreateLocation(r.Context(), actor, assets.CreateLocationInput{
			Code:    payload.Code,
			Name:    payload.Name,
			Address: payload.Address,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, location)
	}
}

type locationUpdateRequest struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,min=1,max=255"`
	Address  *string `json:"address,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// LocationUpdate adjusts the mutable fields of a site.
func LocationUpdate(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		locationID, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload locationUpdateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		location, err := svc.UpdateLocation(r.Context(), actor, locationID, assets.UpdateLocationInput{
			Name:     payload.Name,
			Address:  payload.Address,
			IsActive: payload.IsActive,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, location)
	}
}

// LocationGet returns one site by identifier.
func LocationGet(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		locationID, err := pathUUID(r, "locationID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		location, err := svc.GetLocation(r.Context(), locationID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, location)
	}
}

// LocationList returns all sites, optionally including deactivated ones.
func LocationList(svc assets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "registry service unavailable"))
			return
		}

		includeInactive := r.URL.Query().Get("include_inactive") == "true"

		locations, err := svc.ListLocations(r.Context(), includeInactive)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, map[string]any{"locations": locations})
	}
}
