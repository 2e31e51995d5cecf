package validation

import (
	"fmt"
	"time"

	"github.com/EviewNicks/rental-baju-sub002/internal/domain"
)

// PickupValidator runs the pickup rule set against a snapshot.
// Request-scoped rules run once; line-scoped rules run per pickup line.
type PickupValidator struct {
	cfg Config
}

func NewPickupValidator(cfg Config) *PickupValidator {
	return &PickupValidator{cfg: cfg.withDefaults()}
}

// Validate is a pure dry-run: it never mutates the snapshot or the request.
func (v *PickupValidator) Validate(snap *domain.TransactionSnapshot, req *domain.PickupRequest, now time.Time) Result {
	var res Result

	res.add(v.transactionStatusRule(snap)...)
	res.add(v.batchLimitRule(req)...)

	ids := make([]string, 0, len(req.Lines))
	for _, l := range req.Lines {
		ids = append(ids, l.ItemID)
	}
	res.add(duplicateItemFindings(ids)...)
	res.add(v.cfg.operatingWindowFindings(now)...)

	stale := snap.Age(now) > v.cfg.SnapshotStaleness
	for _, line := range req.Lines {
		res.add(v.lineRules(snap, line, stale)...)
	}
	return res
}

func (v *PickupValidator) transactionStatusRule(snap *domain.TransactionSnapshot) []domain.Finding {
	if snap.Transaction.Status == domain.TransactionStatusActive {
		return nil
	}
	return []domain.Finding{domain.ErrorFinding(domain.CodeInvalidTransactionStatus,
		fmt.Sprintf("transaction %s is %s, pickup requires ACTIVE", snap.Transaction.Code, snap.Transaction.Status), "")}
}

func (v *PickupValidator) batchLimitRule(req *domain.PickupRequest) []domain.Finding {
	var out []domain.Finding
	if len(req.Lines) == 0 {
		return []domain.Finding{domain.ErrorFinding(domain.CodeEmptyBatch,
			"pickup request contains no items", "")}
	}
	if len(req.Lines) > v.cfg.MaxBatchItems {
		out = append(out, domain.ErrorFinding(domain.CodeBatchItemLimitExceeded,
			fmt.Sprintf("batch has %d distinct items, limit is %d", len(req.Lines), v.cfg.MaxBatchItems), ""))
	}
	total := req.TotalQuantity()
	if total > v.cfg.MaxBatchQuantity {
		out = append(out, domain.ErrorFinding(domain.CodeBatchQuantityLimitExceeded,
			fmt.Sprintf("batch quantity %d exceeds limit of %d units", total, v.cfg.MaxBatchQuantity), ""))
	} else if total > v.cfg.WarnBatchQuantity {
		out = append(out, domain.WarningFinding(domain.CodeBatchQuantityHigh,
			fmt.Sprintf("batch quantity %d exceeds %d units", total, v.cfg.WarnBatchQuantity), ""))
	}
	return out
}

func (v *PickupValidator) lineRules(snap *domain.TransactionSnapshot, line domain.PickupLine, stale bool) []domain.Finding {
	item := snap.Item(line.ItemID)
	if item == nil {
		return []domain.Finding{domain.ErrorFinding(domain.CodeItemNotFound,
			fmt.Sprintf("item %s does not belong to transaction %s", line.ItemID, snap.Transaction.Code), line.ItemID)}
	}
	if item.ReturnStatus == domain.ReturnStatusComplete {
		return []domain.Finding{domain.ErrorFinding(domain.CodeItemAlreadyReturned,
			"item return is complete, no further pickup is allowed", line.ItemID)}
	}
	if item.FullyPickedUp() {
		return []domain.Finding{domain.ErrorFinding(domain.CodeItemAlreadyFullyPickedUp,
			fmt.Sprintf("all %d ordered units already picked up", item.Quantity), line.ItemID)}
	}
	if line.Quantity <= 0 {
		return []domain.Finding{domain.ErrorFinding(domain.CodeInvalidQuantity,
			"pickup quantity must be greater than zero", line.ItemID)}
	}

	remaining := item.RemainingQuantity()
	switch {
	case line.Quantity > remaining:
		// A quantity overrun against a stale snapshot is most likely a
		// concurrent pickup, not caller error. The commit re-checks either way.
		if stale {
			return []domain.Finding{domain.ErrorFinding(domain.CodeConcurrentPickupDetected,
				fmt.Sprintf("requested %d but only %d remain; snapshot may be outdated", line.Quantity, remaining), line.ItemID)}
		}
		return []domain.Finding{domain.ErrorFinding(domain.CodePickupQuantityExceeded,
			fmt.Sprintf("requested %d exceeds remaining quantity by %d", line.Quantity, line.Quantity-remaining), line.ItemID)}
	case line.Quantity == remaining:
		return []domain.Finding{domain.InfoFinding(domain.CodeFullPickup,
			"pickup completes the ordered quantity", line.ItemID)}
	default:
		return []domain.Finding{domain.WarningFinding(domain.CodePartialPickup,
			fmt.Sprintf("partial pickup: %d of %d remaining units", line.Quantity, remaining), line.ItemID)}
	}
}
