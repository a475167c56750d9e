package stocktakes

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marcuschung/assetflow-backend/pkg/authz"
	"github.com/marcuschung/assetflow-backend/pkg/db"
	"github.com/marcuschung/assetflow-backend/pkg/db/models"
	"github.com/marcuschung/assetflow-backend/pkg/enums"
	pkgerrors "github.com/marcuschung/assetflow-backend/pkg/errors"
	"github.com/marcuschung/assetflow-backend/pkg/pagination"
)

const referenceConstraint = "stock_takes_reference_key"
const referenceMaxAttempts = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service defines the stock take reconciliation operations.
type Service interface {
	Plan(ctx context.Context, actor authz.Actor, input PlanInput) (*StockTakeView, error)
	Start(ctx context.Context, actor authz.Actor, takeID uuid.UUID) (*StockTakeView, error)
	RecordFinding(ctx context.Context, actor authz.Actor, input FindingInput) (*models.StockTakeItem, error)
	Complete(ctx context.Context, actor authz.Actor, takeID uuid.UUID) (*StockTakeView, error)
	Get(ctx context.Context, takeID uuid.UUID) (*StockTakeView, error)
	List(ctx context.Context, params pagination.Params, filters Filters) (*StockTakeList, error)
}

type service struct {
	repo     Repository
	registry LocationRegistry
	tx       txRunner
	now      func() time.Time
}

// NewService builds a stock take service with the required dependencies.
func NewService(repo Repository, registry LocationRegistry, tx txRunner) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stock take repository required")
	}
	if registry == nil {
		return nil, fmt.Errorf("location registry required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	return &service{
		repo:     repo,
		registry: registry,
		tx:       tx,
		now:      time.Now,
	}, nil
}

func (s *service) Plan(ctx context.Context, actor authz.Actor, input PlanInput) (*StockTakeView, error) {
	if !authz.Permitted(actor, authz.ActionPlanStockTake, false) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not plan stock takes")
	}
	if input.LocationID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "location id required")
	}

	var created *models.StockTake
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		location, err := s.registry.LocationByID(ctx, tx, input.LocationID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "location not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load location")
		}
		if !location.IsActive {
			return pkgerrors.New(pkgerrors.CodeValidation, "location is inactive").
				WithDetails(map[string]any{"location_code": location.Code})
		}

		// Snapshot the expected inventory inside the same transaction that
		// creates the take, so planning races with movements cleanly.
		snapshot, err := s.registry.AssetsAtLocation(ctx, tx, location.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "snapshot assets at location")
		}

		take, err := s.createWithReference(ctx, repo, location.Code, input, actor)
		if err != nil {
			return err
		}

		for i := range snapshot {
			asset := snapshot[i]
			item := &models.StockTakeItem{
				StockTakeID: take.ID,
				AssetID:     &asset.ID,
				AssetTag:    asset.AssetTag,
				Expected:    true,
				Found:       false,
			}
			if err := repo.CreateItem(ctx, item); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock take item")
			}
		}

		created, err = repo.FindByID(ctx, take.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock take")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(created), nil
}

func (s *service) Start(ctx context.Context, actor authz.Actor, takeID uuid.UUID) (*StockTakeView, error) {
	if !authz.Permitted(actor, authz.ActionStartStockTake, false) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not start stock takes")
	}

	var updated *models.StockTake
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		take, err := s.load(ctx, repo, takeID)
		if err != nil {
			return err
		}
		if take.Status != enums.StockTakeStatusPlanned {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "stock take is not planned").
				WithDetails(map[string]any{"current_status": string(take.Status)})
		}

		rows, err := repo.UpdateStatusFrom(ctx, take.ID, enums.StockTakeStatusPlanned, enums.StockTakeStatusInProgress, map[string]any{
			"started_at": s.now().UTC(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "start stock take")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "stock take changed concurrently, reload and retry")
		}

		updated, err = repo.FindByID(ctx, take.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock take")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(updated), nil
}

func (s *service) RecordFinding(ctx context.Context, actor authz.Actor, input FindingInput) (*models.StockTakeItem, error) {
	if !authz.Permitted(actor, authz.ActionRecordFinding, false) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not record findings")
	}
	tag := strings.TrimSpace(input.AssetTag)
	if tag == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "asset tag required")
	}
	if !input.Condition.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "condition rating required")
	}

	var recorded *models.StockTakeItem
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		take, err := s.load(ctx, repo, input.StockTakeID)
		if err != nil {
			return err
		}
		if take.Status != enums.StockTakeStatusInProgress {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "stock take is not in progress").
				WithDetails(map[string]any{"current_status": string(take.Status)})
		}

		// Guarded self-update on the take row. It locks the row for the rest
		// of this transaction, so a finding serializes against a concurrent
		// completion; once the completion flip commits, the guard matches
		// zero rows and the finding is rejected.
		rows, err := repo.UpdateStatusFrom(ctx, take.ID, enums.StockTakeStatusInProgress, enums.StockTakeStatusInProgress, nil)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "guard stock take")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "stock take completed concurrently, finding rejected")
		}

		verifiedAt := s.now().UTC()

		item, err := repo.FindItemByTag(ctx, take.ID, tag)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock take item")
		}

		if item != nil {
			// Expected (or previously recorded) line; update in place.
			updates := map[string]any{
				"found":          true,
				"condition":      input.Condition,
				"verified_by_id": actor.ID,
				"verified_at":    verifiedAt,
			}
			if err := repo.UpdateItem(ctx, item.ID, updates); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update stock take item")
			}
			item.Found = true
			item.Condition = &input.Condition
			item.VerifiedByID = &actor.ID
			item.VerifiedAt = &verifiedAt
			recorded = item
			return nil
		}

		// Unexpected find. Resolve the tag against the registry so the line
		// carries the asset reference when one exists.
		fresh := &models.StockTakeItem{
			StockTakeID:  take.ID,
			AssetTag:     tag,
			Expected:     false,
			Found:        true,
			Condition:    &input.Condition,
			VerifiedByID: &actor.ID,
			VerifiedAt:   &verifiedAt,
		}
		asset, err := s.registry.AssetByTag(ctx, tx, tag)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "resolve asset tag")
		}
		if asset != nil {
			fresh.AssetID = &asset.ID
		}
		if err := repo.CreateItem(ctx, fresh); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create unexpected find")
		}
		recorded = fresh
		return nil
	})
	if err != nil {
		return nil, err
	}
	return recorded, nil
}

func (s *service) Complete(ctx context.Context, actor authz.Actor, takeID uuid.UUID) (*StockTakeView, error) {
	if !authz.Permitted(actor, authz.ActionCompleteStockTake, false) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "role may not complete stock takes")
	}

	var completed *models.StockTake
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		take, err := s.load(ctx, repo, takeID)
		if err != nil {
			return err
		}
		switch take.Status {
		case enums.StockTakeStatusCompleted:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "stock take already completed")
		case enums.StockTakeStatusPlanned:
			return pkgerrors.New(pkgerrors.CodeStateConflict, "stock take has not been started")
		}

		// Flip the status before scanning items. The flip takes the row lock
		// every finding guards on, so any finding committed by now is in the
		// scan and any in-flight finding sees COMPLETED and is rejected.
		rows, err := repo.UpdateStatusFrom(ctx, take.ID, enums.StockTakeStatusInProgress, enums.StockTakeStatusCompleted, map[string]any{
			"completed_at": s.now().UTC(),
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "complete stock take")
		}
		if rows == 0 {
			return pkgerrors.New(pkgerrors.CodeConflict, "stock take changed concurrently, reload and retry")
		}

		items, err := repo.ListItems(ctx, take.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "scan stock take items")
		}
		summary := Reconcile(items)

		if err := repo.Update(ctx, take.ID, map[string]any{
			"expected_count":   summary.ExpectedCount,
			"found_count":      summary.FoundCount,
			"missing_count":    summary.MissingCount,
			"unexpected_count": summary.UnexpectedCount,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record stock take summary")
		}

		completed, err = repo.FindByID(ctx, take.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reload stock take")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.view(completed), nil
}

func (s *service) Get(ctx context.Context, takeID uuid.UUID) (*StockTakeView, error) {
	take, err := s.load(ctx, s.repo, takeID)
	if err != nil {
		return nil, err
	}
	return s.view(take), nil
}

func (s *service) List(ctx context.Context, params pagination.Params, filters Filters) (*StockTakeList, error) {
	list, err := s.repo.List(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list stock takes")
	}
	return list, nil
}

// Reconcile computes the completion summary from one scan of the item set.
func Reconcile(items []models.StockTakeItem) Summary {
	var summary Summary
	for _, item := range items {
		if item.Expected {
			summary.ExpectedCount++
			if item.Found {
				summary.FoundCount++
			} else {
				summary.MissingCount++
			}
		} else if item.Found {
			summary.UnexpectedCount++
		}
	}
	return summary
}

func (s *service) createWithReference(ctx context.Context, repo Repository, locationCode string, input PlanInput, actor authz.Actor) (*models.StockTake, error) {
	for attempt := 0; attempt < referenceMaxAttempts; attempt++ {
		reference, err := newReference(locationCode, s.now())
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "generate stock take reference")
		}
		take := &models.StockTake{
			Reference:   reference,
			LocationID:  input.LocationID,
			Status:      enums.StockTakeStatusPlanned,
			SchedulerID: actor.ID,
			Notes:       input.Notes,
		}
		created, err := repo.Create(ctx, take)
		if err != nil {
			if db.IsUniqueViolation(err, referenceConstraint) {
				continue
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create stock take")
		}
		return created, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeDependency, "could not allocate a unique stock take reference")
}

func (s *service) load(ctx context.Context, repo Repository, takeID uuid.UUID) (*models.StockTake, error) {
	if takeID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock take id required")
	}
	take, err := repo.FindByID(ctx, takeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "stock take not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load stock take")
	}
	return take, nil
}

func (s *service) view(take *models.StockTake) *StockTakeView {
	if take == nil {
		return nil
	}
	view := &StockTakeView{StockTake: *take}
	// Discrepancies only mean something once the take is summarized.
	if take.Status == enums.StockTakeStatusCompleted {
		for _, item := range take.Items {
			if item.IsDiscrepancy() {
				view.Discrepancies = append(view.Discrepancies, item)
			}
		}
	}
	return view
}
