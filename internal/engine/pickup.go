package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EviewNicks/rental-baju-sub002/internal/audit"
	"github.com/EviewNicks/rental-baju-sub002/internal/domain"
	"github.com/EviewNicks/rental-baju-sub002/internal/logger"
	"github.com/EviewNicks/rental-baju-sub002/internal/repository"
	"github.com/EviewNicks/rental-baju-sub002/internal/validation"
)

// PickupResult is the outcome of one pickup batch. Validation and conflict
// failures come back as findings with Success=false; only infrastructure
// failures surface as errors from ProcessPickup.
type PickupResult struct {
	Success     bool                      `json:"success"`
	Findings    []domain.Finding          `json:"findings"`
	Transaction *domain.RentalTransaction `json:"transaction,omitempty"`
	Items       []domain.RentalItem       `json:"items,omitempty"`
}

// PickupEngine moves item quantities from "not yet picked up" to "picked up".
// It only ever increments picked_up_quantity; transaction status is untouched
// and there is no rollback operation.
type PickupEngine struct {
	store     repository.TransactionStore
	sink      audit.Sink
	validator *validation.PickupValidator
	now       func() time.Time
}

func NewPickupEngine(store repository.TransactionStore, sink audit.Sink, validator *validation.PickupValidator) *PickupEngine {
	return &PickupEngine{
		store:     store,
		sink:      sink,
		validator: validator,
		now:       time.Now,
	}
}

// ProcessPickup validates the batch against a fresh snapshot and, if valid,
// applies every increment in one serializable commit. Nothing is written when
// validation fails.
func (e *PickupEngine) ProcessPickup(ctx context.Context, req *domain.PickupRequest) (*PickupResult, error) {
	snap, err := e.store.ReadSnapshot(ctx, req.TransactionID)
	if err != nil {
		return nil, fmt.Errorf("pickup snapshot: %w", err)
	}

	res := e.validator.Validate(snap, req, e.now())
	if !res.Valid() {
		return &PickupResult{Success: false, Findings: res.Findings()}, nil
	}

	err = e.store.Commit(ctx, req.TransactionID, func(ctx context.Context, m repository.Mutation) error {
		// Re-check status under lock: the item guards bound quantities but the
		// status lives on the transaction row, which may have been cancelled
		// since the snapshot.
		row, err := m.Transaction(ctx)
		if err != nil {
			return err
		}
		if row.Status != domain.TransactionStatusActive {
			return fmt.Errorf("transaction is %s: %w", row.Status, repository.ErrConflict)
		}
		for _, line := range req.Lines {
			if err := m.AddPickedUpQuantity(ctx, line.ItemID, line.Quantity); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrConflict) {
			// The snapshot passed validation but the commit-time guard lost
			// against a concurrent pickup. Caller retries with fresh state.
			return &PickupResult{
				Success: false,
				Findings: []domain.Finding{domain.ErrorFinding(domain.CodeConcurrentPickupDetected,
					"a concurrent update changed item quantities, retry with fresh state", "")},
			}, nil
		}
		return nil, fmt.Errorf("pickup commit: %w", err)
	}

	result := &PickupResult{Success: true, Findings: res.Findings()}
	if view, err := e.store.ReadSnapshot(ctx, req.TransactionID); err != nil {
		logger.Warn("Pickup committed but view re-read failed", "transaction_id", req.TransactionID, "error", err)
	} else {
		result.Transaction = &view.Transaction
		result.Items = view.Items
	}

	audit.Record(ctx, e.sink, audit.NewEvent(audit.EventPickupProcessed, req.TransactionID, map[string]any{
		"code":           snap.Transaction.Code,
		"item_count":     len(req.Lines),
		"total_quantity": req.TotalQuantity(),
	}))
	return result, nil
}
