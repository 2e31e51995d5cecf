package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/EviewNicks/rental-baju-sub002/internal/audit"
	"github.com/EviewNicks/rental-baju-sub002/internal/domain"
	"github.com/EviewNicks/rental-baju-sub002/internal/logger"
	"github.com/EviewNicks/rental-baju-sub002/internal/penalty"
	"github.com/EviewNicks/rental-baju-sub002/internal/repository"
	"github.com/EviewNicks/rental-baju-sub002/internal/validation"
)

// ItemReturnBreakdown is the per-item outcome of a processed return.
type ItemReturnBreakdown struct {
	ItemID          string            `json:"item_id"`
	Penalty         penalty.Breakdown `json:"penalty"`
	RestockQuantity int               `json:"restock_quantity"` // physically returned units
}

// ReturnResult is the outcome of one return request.
type ReturnResult struct {
	Success           bool                      `json:"success"`
	Findings          []domain.Finding          `json:"findings"`
	Transaction       *domain.RentalTransaction `json:"transaction,omitempty"`
	Items             []ItemReturnBreakdown     `json:"items,omitempty"`
	TotalPenaltyCents int64                     `json:"total_penalty_cents"`
}

// ReturnEngine reconciles condition splits against picked-up quantities,
// computes penalties and closes the transaction in one serializable commit.
type ReturnEngine struct {
	store      repository.TransactionStore
	sink       audit.Sink
	validator  *validation.ReturnValidator
	calculator *penalty.Calculator
	now        func() time.Time
}

func NewReturnEngine(store repository.TransactionStore, sink audit.Sink, validator *validation.ReturnValidator, calculator *penalty.Calculator) *ReturnEngine {
	return &ReturnEngine{
		store:      store,
		sink:       sink,
		validator:  validator,
		calculator: calculator,
		now:        time.Now,
	}
}

// ProcessReturn runs validation and penalty computation concurrently (both are
// pure against the same snapshot), then applies the whole return atomically:
// status flip, condition records, item completion and restock either all
// happen or none do.
func (e *ReturnEngine) ProcessReturn(ctx context.Context, req *domain.ReturnRequest) (*ReturnResult, error) {
	req.Normalize()

	snap, err := e.store.ReadSnapshot(ctx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("return snapshot: %w", err)
	}

	returnedAt := e.now()
	if req.ActualReturnTime != nil {
		returnedAt = *req.ActualReturnTime
	}

	var (
		res       validation.Result
		penalties map[string]penalty.Breakdown
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		res = e.validator.Validate(snap, req, e.now())
		return nil
	})
	g.Go(func() error {
		penalties = e.computePenalties(snap, req, returnedAt)
		return nil
	})
	_ = g.Wait()

	if !res.Valid() {
		return &ReturnResult{Success: false, Findings: res.Findings()}, nil
	}

	var totalPenalty int64
	breakdowns := make([]ItemReturnBreakdown, 0, len(req.Items))
	for _, ri := range req.Items {
		b := penalties[ri.ItemID]
		totalPenalty += b.TotalCents
		breakdowns = append(breakdowns, ItemReturnBreakdown{
			ItemID:          ri.ItemID,
			Penalty:         b,
			RestockQuantity: ri.ReturnedQuantity(),
		})
	}

	err = e.store.Commit(ctx, req.TransactionID, func(ctx context.Context, m repository.Mutation) error {
		row, err := m.Transaction(ctx)
		if err != nil {
			return err
		}
		switch row.Status {
		case domain.TransactionStatusActive:
		case domain.TransactionStatusReturned:
			return repository.ErrAlreadyReturned
		default:
			return fmt.Errorf("transaction is %s: %w", row.Status, repository.ErrConflict)
		}

		locked, err := m.Items(ctx)
		if err != nil {
			return err
		}
		byID := make(map[string]*domain.RentalItem, len(locked))
		for i := range locked {
			byID[locked[i].ID] = &locked[i]
		}

		closing := make(map[string]bool, len(req.Items))
		for i, ri := range req.Items {
			item, ok := byID[ri.ItemID]
			if !ok {
				return fmt.Errorf("item %s: %w", ri.ItemID, repository.ErrNotFound)
			}
			// Re-check under lock: the snapshot the caller validated against
			// may be stale by now.
			if item.ReturnStatus == domain.ReturnStatusComplete {
				return fmt.Errorf("item %s already returned: %w", ri.ItemID, repository.ErrConflict)
			}
			if ri.SplitQuantity() > item.PickedUpQuantity {
				return fmt.Errorf("item %s splits exceed picked-up quantity: %w", ri.ItemID, repository.ErrConflict)
			}
			closing[ri.ItemID] = true

			b := breakdowns[i].Penalty
			for _, cp := range b.Conditions {
				rec := &domain.ConditionRecord{
					ID:                   uuid.NewString(),
					ItemID:               ri.ItemID,
					Description:          cp.Description,
					Class:                cp.Class,
					Quantity:             cp.Quantity,
					PenaltyCents:         cp.FeeCents,
					ReplacementCostCents: cp.ReplacementCostCents,
				}
				if err := m.InsertConditionRecord(ctx, rec); err != nil {
					return err
				}
			}
			if err := m.CompleteItemReturn(ctx, ri.ItemID, b.TotalCents, len(b.Conditions)); err != nil {
				return err
			}
			// Lost units never come back, so only physically returned
			// quantities go back on the shelf.
			if restock := breakdowns[i].RestockQuantity; restock > 0 {
				if err := m.AddProductStock(ctx, item.ProductID, restock); err != nil {
					return err
				}
			}
		}

		// The transaction closes only when this call completes its last open
		// item; otherwise it stays active for further returns.
		for _, item := range locked {
			if item.ReturnStatus != domain.ReturnStatusComplete && !closing[item.ID] {
				return m.AccruePenalty(ctx, totalPenalty)
			}
		}
		return m.FinalizeReturn(ctx, returnedAt, totalPenalty)
	})
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyReturned):
			return &ReturnResult{
				Success: false,
				Findings: []domain.Finding{domain.ErrorFinding(domain.CodeAlreadyReturned,
					"transaction was already returned", "")},
			}, nil
		case errors.Is(err, repository.ErrConflict):
			return &ReturnResult{
				Success: false,
				Findings: []domain.Finding{domain.ErrorFinding(domain.CodeConcurrentPickupDetected,
					"a concurrent update invalidated the return, retry with fresh state", "")},
			}, nil
		}
		return nil, fmt.Errorf("return commit: %w", err)
	}

	result := &ReturnResult{
		Success:           true,
		Findings:          res.Findings(),
		Items:             breakdowns,
		TotalPenaltyCents: totalPenalty,
	}
	if view, err := e.store.ReadSnapshot(ctx, req.TransactionID); err != nil {
		logger.Warn("Return committed but view re-read failed", "transaction_id", req.TransactionID, "error", err)
	} else {
		result.Transaction = &view.Transaction
	}

	audit.Record(ctx, e.sink, audit.NewEvent(audit.EventReturnProcessed, req.TransactionID, map[string]any{
		"code":                snap.Transaction.Code,
		"item_count":          len(req.Items),
		"total_penalty_cents": totalPenalty,
		"returned_at":         returnedAt,
		"notes":               req.Notes,
	}))
	return result, nil
}

// computePenalties runs the pure calculator for every requested item. Unknown
// item ids are skipped; validation rejects them before the result is used.
func (e *ReturnEngine) computePenalties(snap *domain.TransactionSnapshot, req *domain.ReturnRequest, returnedAt time.Time) map[string]penalty.Breakdown {
	out := make(map[string]penalty.Breakdown, len(req.Items))
	for _, ri := range req.Items {
		item := snap.Item(ri.ItemID)
		if item == nil {
			continue
		}
		var replacement int64
		if p, ok := snap.Products[item.ProductID]; ok {
			replacement = p.AcquisitionCostCents
		}
		out[ri.ItemID] = e.calculator.Calculate(penalty.Input{
			ExpectedEnd:          snap.Transaction.EndDate,
			ActualReturn:         returnedAt,
			DailyRateCents:       item.DailyRateCents,
			ReplacementCostCents: replacement,
			Conditions:           ri.Conditions,
		})
	}
	return out
}
