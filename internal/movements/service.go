package movements

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/authz"
	"github.com/marcuschung/assetflow-backend/pkg/db"
	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	pkgerrors "github.com/marcuschung/assetflow-backend/pkg/errors"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

const trackingNumberConstraint = "movements_tracking_number_key"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the movement lifecycle operations.
type Service interface {
	Create(ctx context.Context, actor authz.Actor, input CreateInput) (*MovementView, error)
	BulkCreate(ctx context.Context, actor authz.Actor, input BulkCreateInput) ([]MovementView, error)
	Transition(ctx context.Context, actor authz.Actor, input TransitionInput) (*MovementView, error)
	Cancel(ctx context.Context, actor authz.Actor, movementID uuid.UUID) (*MovementView, error)
	Get(ctx context.Context, movementID uuid.UUID) (*MovementView, error)
	Track(ctx context.Context, trackingNumber string) (*TrackingView, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*MovementList, error)
}

type service struct {
	repo        Repository
	registry    AssetRegistry
	tx          txRunner
	tracking    *TrackingGenerator
	maxAttempts int
	now         func() time.Time
}

// legalSuccessors is the single source of truth for the movement state
// machine. Statuses absent from the map are terminal.
var legalSuccessors = map[enums.MovementStatus][]enums.MovementStatus{
	enums.MovementStatusPending:   {enums.MovementStatusInTransit, enums.MovementStatusCancelled},
	enums.MovementStatusInTransit: {enums.MovementStatusCompleted, enums.MovementStatusCancelled},
	enums.MovementStatusCompleted: {enums.MovementStatusDelivered},
	enums.MovementStatusDelivered: {enums.MovementStatusAcknowledged},
}

// NewService builds a movement service with the required dependencies.
func NewService(repo Repository, registry AssetRegistry, tx txRunner, tracking *TrackingGenerator, maxAttempts int) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("movements repository required")
	}
	if registry == nil {
		return nil, fmt.Errorf("asset registry required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if tracking == nil {
		return nil, fmt.Errorf("tracking generator required")
	}
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &service{
		repo:        repo,
		registry:    registry,
		tx:          tx,
		tracking:    tracking,
		maxAttempts: maxAttempts,
		now:         time.Now,
	}, nil
}

func (s *service) Create(ctx context.Context, actor authz.Actor, input CreateInput) (*MovementView, error) {
	if !authz.Permitted(actor, authz.ActionCreateMovement, false) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not create movements")
	}
	if err := validateTemplate(input.FromLocationID, input.ToLocationID, input.Reason, input.ExpectedArrival); err != nil {
		return nil, err
	}
	if input.AssetID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset id required")
	}

	var created *models.Movement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.checkLocations(ctx, tx, input.FromLocationID, input.ToLocationID); err != nil {
			return err
		}
		movement, err := s.createOne(ctx, tx, repo, actor, input)
		if err != nil {
			return err
		}
		created = movement
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(created), nil
}

func (s *service) BulkCreate(ctx context.Context, actor authz.Actor, input BulkCreateInput) ([]MovementView, error) {
	if !authz.Permitted(actor, authz.ActionCreateMovement, false) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not create movements")
	}
	if len(input.AssetIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset ids required")
	}
	if err := validateTemplate(input.FromLocationID, input.ToLocationID, input.Reason, input.ExpectedArrival); err != nil {
		return nil, err
	}

	seen := make(map[uuid.UUID]struct{}, len(input.AssetIDs))
	for _, id := range input.AssetIDs {
		if id == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset ids must be non-empty")
		}
		if _, dup := seen[id]; dup {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "duplicate asset id in batch").
				WithDetails(map[string]any{"asset_id": id})
		}
		seen[id] = struct{}{}
	}

	var created []models.Movement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := s.checkLocations(ctx, tx, input.FromLocationID, input.ToLocationID); err != nil {
			return err
		}

		// Validate every asset before creating anything so the caller sees
		// the full set of rejections in one pass.
		var rejected error
		var rejectedIDs []uuid.UUID
		for _, assetID := range input.AssetIDs {
			if err := s.checkAssetMovable(ctx, tx, repo, assetID); err != nil {
				rejected = multierr.Append(rejected, err)
				rejectedIDs = append(rejectedIDs, assetID)
			}
		}
		if rejected != nil {
			return pkgerrors.Wrap(pkgerrors.CodeValidation, rejected, "batch rejected").
				WithDetails(map[string]any{"rejected_asset_ids": rejectedIDs})
		}

		for _, assetID := range input.AssetIDs {
			movement, err := s.createOne(ctx, tx, repo, actor, CreateInput{
				AssetID:         assetID,
				FromLocationID:  input.FromLocationID,
				ToLocationID:    input.ToLocationID,
				Reason:          input.Reason,
				Notes:           input.Notes,
				Priority:        input.Priority,
				ExpectedArrival: input.ExpectedArrival,
			})
			if err != nil {
				return err
			}
			created = append(created, *movement)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	views := make([]MovementView, 0, len(created))
	for i := range created {
		views = append(views, *s.view(&created[i]))
	}
	return views, nil
}

func (s *service) Transition(ctx context.Context, actor authz.Actor, input TransitionInput) (*MovementView, error) {
	if input.MovementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement id required")
	}
	target := input.TargetStatus
	if !target.IsValid() || target == enums.MovementStatusPending {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported target status").
			WithDetails(map[string]any{"target_status": string(target)})
	}
	return s.applyTransition(ctx, actor, input)
}

func (s *service) Cancel(ctx context.Context, actor authz.Actor, movementID uuid.UUID) (*MovementView, error) {
	if movementID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "movement id required")
	}
	return s.applyTransition(ctx, actor, TransitionInput{
		MovementID:   movementID,
		TargetStatus: enums.MovementStatusCancelled,
	})
}

func (s *service) Get(ctx context.Context, movementID uuid.UUID) (*MovementView, error) {
	movement, err := s.repo.FindByID(ctx, movementID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "movement not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movement")
	}
	return s.view(movement), nil
}

func (s *service) Track(ctx context.Context, trackingNumber string) (*TrackingView, error) {
	if trackingNumber == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "tracking number required")
	}
	movement, err := s.repo.FindByTrackingNumber(ctx, trackingNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown tracking number")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movement by tracking number")
	}
	return &TrackingView{
		TrackingNumber:  movement.TrackingNumber,
		Status:          movement.Status,
		Priority:        movement.Priority,
		FromLocationID:  movement.FromLocationID,
		ToLocationID:    movement.ToLocationID,
		ExpectedArrival: movement.ExpectedArrival,
		ActualArrival:   movement.ActualArrival,
		Overdue:         movement.IsOverdue(s.now()),
		Acknowledgement: movement.Acknowledgement,
	}, nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*MovementList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list movements")
	}
	return list, nil
}

func (s *service) applyTransition(ctx context.Context, actor authz.Actor, input TransitionInput) (*MovementView, error) {
	if actor.ID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "actor identity missing")
	}
	target := input.TargetStatus

	action, ok := authz.ActionForTransition(target)
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "unsupported target status").
			WithDetails(map[string]any{"target_status": string(target)})
	}

	var updated *models.Movement
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		movement, err := repo.FindByID(ctx, input.MovementID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "movement not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load movement")
		}

		isInitiator := actor.ID == movement.InitiatorID
		if !authz.Permitted(actor, action, isInitiator) {
			if action == authz.ActionApprove && isInitiator {
				return pkgerrors.New(pkgerrors.CodeForbidden, "initiator may not approve own movement")
			}
			return pkgerrors.New(pkgerrors.CodeForbidden, "role may not perform this transition")
		}

		if !isLegalSuccessor(movement.Status, target) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "illegal status transition").
				WithDetails(map[string]any{
					"current_status": string(movement.Status),
					"target_status":  string(target),
				})
		}

		updates, err := s.transitionUpdates(movement, target, input)
		if err != nil {
			return err
		}

		rows, err := repo.UpdateStatusFrom(ctx, movement.ID, movement.Status, target, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update movement status")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "movement changed concurrently, reload and retry")
		}

		if err := s.applySideEffects(ctx, tx, repo, actor, movement, target, input); err != nil {
			return err
		}

		reloaded, err := repo.FindByID(ctx, movement.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload movement")
		}
		updated = reloaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(updated), nil
}

// transitionUpdates builds the column writes that ride along with the status
// compare-and-swap.
func (s *service) transitionUpdates(movement *models.Movement, target enums.MovementStatus, input TransitionInput) (map[string]any, error) {
	updates := map[string]any{}
	switch target {
	case enums.MovementStatusDelivered:
		updates["actual_arrival"] = s.now().UTC()
	case enums.MovementStatusAcknowledged:
		if !input.Condition.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "condition on arrival required")
		}
		assetStatus := input.AssetStatus
		if assetStatus == "" {
			assetStatus = enums.AssetStatusAvailable
		}
		if !assetStatus.IsValid() || !assetStatus.IsOperational() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset status must be operational").
				WithDetails(map[string]any{"asset_status": string(assetStatus)})
		}
		if movement.ActualArrival == nil {
			updates["actual_arrival"] = s.now().UTC()
		}
	}
	return updates, nil
}

// applySideEffects performs the writes beyond the movement row itself: the
// asset status shadowing the movement, and the one-time acknowledgement
// record plus the asset location write-back on receipt.
func (s *service) applySideEffects(ctx context.Context, tx *gorm.DB, repo Repository, actor authz.Actor, movement *models.Movement, target enums.MovementStatus, input TransitionInput) error {
	switch target {
	case enums.MovementStatusInTransit:
		err := s.registry.UpdateAsset(ctx, tx, movement.AssetID, map[string]any{
			"status": enums.AssetStatusInTransit,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark asset in transit")
		}

	case enums.MovementStatusCancelled:
		if movement.Status == enums.MovementStatusInTransit {
			err := s.registry.UpdateAsset(ctx, tx, movement.AssetID, map[string]any{
				"status": enums.AssetStatusAvailable,
			})
			if err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "restore asset status")
			}
		}

	case enums.MovementStatusAcknowledged:
		assetStatus := input.AssetStatus
		if assetStatus == "" {
			assetStatus = enums.AssetStatusAvailable
		}
		ack := &models.MovementAcknowledgement{
			MovementID:      movement.ID,
			ActorID:         actor.ID,
			Condition:       input.Condition,
			DiscrepancyNote: input.DiscrepancyNote,
			AcknowledgedAt:  s.now().UTC(),
		}
		if err := repo.CreateAcknowledgement(ctx, ack); err != nil {
			if db.IsUniqueViolation(err, "movement_acknowledgements_movement_id_key") {
				return pkgerrors.New(pkgerrors.CodeConflict, "movement already acknowledged")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create acknowledgement")
		}
		err := s.registry.UpdateAsset(ctx, tx, movement.AssetID, map[string]any{
			"current_location_id": movement.ToLocationID,
			"status":              assetStatus,
			"condition":           input.Condition,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "write back asset location")
		}
	}
	return nil
}

// createOne persists a single movement inside the caller's transaction,
// retrying tracking number allocation on unique collisions.
func (s *service) createOne(ctx context.Context, tx *gorm.DB, repo Repository, actor authz.Actor, input CreateInput) (*models.Movement, error) {
	if err := s.checkAssetMovable(ctx, tx, repo, input.AssetID); err != nil {
		return nil, err
	}

	priority := input.Priority
	if priority == "" {
		priority = enums.MovementPriorityNormal
	}
	if !priority.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid priority").
			WithDetails(map[string]any{"priority": string(priority)})
	}

	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		trackingNumber, err := s.tracking.Next()
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate tracking number")
		}

		movement := &models.Movement{
			TrackingNumber:  trackingNumber,
			AssetID:         input.AssetID,
			FromLocationID:  input.FromLocationID,
			ToLocationID:    input.ToLocationID,
			Status:          enums.MovementStatusPending,
			Priority:        priority,
			InitiatorID:     actor.ID,
			Reason:          input.Reason,
			Notes:           input.Notes,
			ExpectedArrival: input.ExpectedArrival.UTC(),
		}
		created, err := repo.Create(ctx, movement)
		if err != nil {
			if db.IsUniqueViolation(err, trackingNumberConstraint) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create movement")
		}
		return created, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "could not allocate a unique tracking number")
}

func (s *service) checkAssetMovable(ctx context.Context, tx *gorm.DB, repo Repository, assetID uuid.UUID) error {
	asset, err := s.registry.AssetByID(ctx, tx, assetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "asset not found").
				WithDetails(map[string]any{"asset_id": assetID})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load asset")
	}
	if asset.Status == enums.AssetStatusRetired {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset is retired").
			WithDetails(map[string]any{"asset_id": assetID, "asset_tag": asset.AssetTag})
	}

	open, err := repo.FindOpenByAsset(ctx, assetID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check open movements")
	}
	if open != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "asset already on an open movement").
			WithDetails(map[string]any{
				"asset_id":        assetID,
				"asset_tag":       asset.AssetTag,
				"tracking_number": open.TrackingNumber,
			})
	}
	return nil
}

func (s *service) checkLocations(ctx context.Context, tx *gorm.DB, fromID, toID uuid.UUID) error {
	for _, id := range []uuid.UUID{fromID, toID} {
		location, err := s.registry.LocationByID(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "location not found").
					WithDetails(map[string]any{"location_id": id})
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
		}
		if !location.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "location is inactive").
				WithDetails(map[string]any{"location_id": id, "location_code": location.Code})
		}
	}
	return nil
}

func (s *service) view(movement *models.Movement) *MovementView {
	if movement == nil {
		return nil
	}
	return &MovementView{
		Movement: *movement,
		Overdue:  movement.IsOverdue(s.now()),
	}
}

func validateTemplate(fromID, toID uuid.UUID, reason string, expectedArrival time.Time) error {
	if fromID == uuid.Nil || toID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "from and to locations required")
	}
	if fromID == toID {
		return pkgerrors.New(pkgerrors.CodeValidation, "from and to locations must differ")
	}
	if reason == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "reason required")
	}
	if expectedArrival.IsZero() {
		return pkgerrors.New(pkgerrors.CodeValidation, "expected arrival required")
	}
	return nil
}

func isLegalSuccessor(current, target enums.MovementStatus) bool {
	for _, next := range legalSuccessors[current] {
		if next == target {
			return true
		}
	}
	return false
}
