package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/api/middleware"
	"github.com/marcuschung/assetflow-backend/api/responses"
	"github.com/marcuschung/assetflow-backend/api/validators"
	"github.com/marcuschung/assetflow-backend/internal/stocktakes"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	pkgerrors "github.com/marcuschung/assetflow-backend/pkg/errors"
	"github.com/marcuschung/assetflow-backend/pkg/logger"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

type stockTakePlanRequest struct {
	LocationID uuid.UUID `json:"location_id" validate:"required"`
	Notes      *string   `json:"notes,omitempty"`
}

// StockTakePlan schedules a stock take and snapshots the location's assets.
func StockTakePlan(svc stocktakes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock take service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload stockTakePlanRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Plan(r.Context(), actor, stocktakes.PlanInput{
			LocationID: payload.LocationID,
			Notes:      payload.Notes,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

// StockTakeStart moves a planned take into IN_PROGRESS.
func StockTakeStart(svc stocktakes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock take service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		takeID, err := pathUUID(r, "stockTakeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Start(r.Context(), actor, takeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

type stockTakeFindingRequest struct {
	AssetTag  string `json:"asset_tag" validate:"required,min=1,max=100"`
	Condition string `json:"condition,omitempty"`
}

// StockTakeRecordFinding marks an asset as physically verified, or appends
// an unexpected item when the tag was not in the snapshot.
func StockTakeRecordFinding(svc stocktakes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock take service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		takeID, err := pathUUID(r, "stockTakeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload stockTakeFindingRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := stocktakes.FindingInput{
			StockTakeID: takeID,
			AssetTag:    payload.AssetTag,
		}
		if payload.Condition != "" {
			condition, err := enums.ParseConditionRating(payload.Condition)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition"))
				return
			}
			input.Condition = condition
		}

		item, err := svc.RecordFinding(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, item)
	}
}

// StockTakeComplete reconciles the take and freezes the summary counts.
func StockTakeComplete(svc stocktakes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock take service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		takeID, err := pathUUID(r, "stockTakeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Complete(r.Context(), actor, takeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// StockTakeGet returns a take with its items and, when completed, its
// discrepancy list.
func StockTakeGet(svc stocktakes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock take service unavailable"))
			return
		}

		takeID, err := pathUUID(r, "stockTakeID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), takeID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// StockTakeList returns a filtered, cursor-paginated stock take page.
func StockTakeList(svc stocktakes.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "stock take service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters stocktakes.Filters
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
			status, err := enums.ParseStockTakeStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			filters.Status = &status
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(query.Get("cursor")),
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}
