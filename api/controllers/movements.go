package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/marcuschung/assetflow-backend/api/middleware"
	"github.com/marcuschung/assetflow-backend/api/responses"
	"github.com/marcuschung/assetflow-backend/api/validators"
	"github.com/marcuschung/assetflow-backend/internal/movements"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	pkgerrors "github.com/marcuschung/assetflow-backend/pkg/errors"
	"github.com/marcuschung/assetflow-backend/pkg/logger"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

type movementCreateRequest struct {
	AssetID         uuid.UUID `json:"asset_id" validate:"required"`
	FromLocationID  uuid.UUID `json:"from_location_id" validate:"required"`
	ToLocationID    uuid.UUID `json:"to_location_id" validate:"required"`
	Reason          string    `json:"reason" validate:"required,min=1,max=500"`
	Notes           *string   `json:"notes,omitempty"`
	Priority        string    `json:"priority,omitempty"`
	ExpectedArrival time.Time `json:"expected_arrival" validate:"required"`
}

func (p movementCreateRequest) toInput() (movements.CreateInput, error) {
	priority, err := parseOptionalPriority(p.Priority)
	if err != nil {
		return movements.CreateInput{}, err
	}
	return movements.CreateInput{
		AssetID:         p.AssetID,
		FromLocationID:  p.FromLocationID,
		ToLocationID:    p.ToLocationID,
		Reason:          p.Reason,
		Notes:           p.Notes,
		Priority:        priority,
		ExpectedArrival: p.ExpectedArrival,
	}, nil
}

// MovementCreate opens a single movement in PENDING.
func MovementCreate(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload movementCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Create(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, view)
	}
}

type movementBulkCreateRequest struct {
	AssetIDs        []uuid.UUID `json:"asset_ids" validate:"required,min=1,max=100"`
	FromLocationID  uuid.UUID   `json:"from_location_id" validate:"required"`
	ToLocationID    uuid.UUID   `json:"to_location_id" validate:"required"`
	Reason          string      `json:"reason" validate:"required,min=1,max=500"`
	Notes           *string     `json:"notes,omitempty"`
	Priority        string      `json:"priority,omitempty"`
	ExpectedArrival time.Time   `json:"expected_arrival" validate:"required"`
}

// MovementBulkCreate opens one movement per asset from a shared template.
// Creation is atomic; one bad asset rejects the whole batch.
func MovementBulkCreate(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload movementBulkCreateRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		priority, err := parseOptionalPriority(payload.Priority)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		views, err := svc.BulkCreate(r.Context(), actor, movements.BulkCreateInput{
			AssetIDs:        payload.AssetIDs,
			FromLocationID:  payload.FromLocationID,
			ToLocationID:    payload.ToLocationID,
			Reason:          payload.Reason,
			Notes:           payload.Notes,
			Priority:        priority,
			ExpectedArrival: payload.ExpectedArrival,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusCreated, map[string]any{"movements": views})
	}
}

type movementTransitionRequest struct {
	TargetStatus    string  `json:"target_status" validate:"required"`
	Condition       string  `json:"condition,omitempty"`
	DiscrepancyNote *string `json:"discrepancy_note,omitempty"`
	AssetStatus     string  `json:"asset_status,omitempty"`
}

// MovementTransition advances a movement one step along its lifecycle.
func MovementTransition(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movementID, err := pathUUID(r, "movementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload movementTransitionRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		target, err := enums.ParseMovementStatus(payload.TargetStatus)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid target status"))
			return
		}

		input := movements.TransitionInput{
			MovementID:      movementID,
			TargetStatus:    target,
			DiscrepancyNote: payload.DiscrepancyNote,
		}
		if payload.Condition != "" {
			condition, err := enums.ParseConditionRating(payload.Condition)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid condition"))
				return
			}
			input.Condition = condition
		}
		if payload.AssetStatus != "" {
			status, err := enums.ParseAssetStatus(payload.AssetStatus)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset status"))
				return
			}
			input.AssetStatus = status
		}

		view, err := svc.Transition(r.Context(), actor, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// MovementCancel aborts a movement from any non-terminal status.
func MovementCancel(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		actor, err := middleware.ActorFromContext(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		movementID, err := pathUUID(r, "movementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Cancel(r.Context(), actor, movementID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// MovementGet returns a single movement with its derived overdue flag.
func MovementGet(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		movementID, err := pathUUID(r, "movementID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		view, err := svc.Get(r.Context(), movementID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

// MovementList returns a filtered, cursor-paginated movement page.
func MovementList(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := movementFiltersFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params := pagination.Params{
			Limit:  limit,
			Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
		}

		list, err := svc.List(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, list)
	}
}

// MovementTrack resolves a tracking number to read-only movement state.
func MovementTrack(svc movements.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "movement service unavailable"))
			return
		}

		trackingNumber := strings.TrimSpace(chi.URLParam(r, "trackingNumber"))
		if trackingNumber == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required"))
			return
		}

		view, err := svc.Track(r.Context(), trackingNumber)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, view)
	}
}

func movementFiltersFromQuery(r *http.Request) (movements.Filters, error) {
	var filters movements.Filters
	query := r.URL.Query()

	if raw := strings.TrimSpace(query.Get("status")); raw != "" {
		status, err := enums.ParseMovementStatus(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter")
		}
		filters.Status = &status
	}
	if raw := strings.TrimSpace(query.Get("priority")); raw != "" {
		priority, err := enums.ParseMovementPriority(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority filter")
		}
		filters.Priority = &priority
	}
	if raw := strings.TrimSpace(query.Get("asset_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid asset id filter")
		}
		filters.AssetID = &id
	}
	if raw := strings.TrimSpace(query.Get("from_location_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid from location filter")
		}
		filters.FromLocationID = &id
	}
	if raw := strings.TrimSpace(query.Get("to_location_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filters, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid to location filter")
		}
		filters.ToLocationID = &id
	}
	filters.OverdueOnly = query.Get("overdue") == "true"

	return filters, nil
}

func parseOptionalPriority(raw string) (enums.MovementPriority, error) {
	if strings.TrimSpace(raw) == "" {
		return "", nil
	}
	priority, err := enums.ParseMovementPriority(raw)
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid priority")
	}
	return priority, nil
}

func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := chi.URLParam(r, name)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid identifier").WithDetails(map[string]any{"param": name})
	}
	return id, nil
}
