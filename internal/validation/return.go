package validation

import (
	"fmt"
	"time"

	"github.com/EviewNicks/rental-baju-sub002/internal/domain"
)

// MinConditionDescription is the shortest accepted end-condition text.
const MinConditionDescription = 5

// ReturnValidator runs the return rule set against a snapshot. The request is
// expected to be normalized (condition classes decided at the boundary).
type ReturnValidator struct {
	cfg Config
}

func NewReturnValidator(cfg Config) *ReturnValidator {
	return &ReturnValidator{cfg: cfg.withDefaults()}
}

func (v *ReturnValidator) Validate(snap *domain.TransactionSnapshot, req *domain.ReturnRequest, now time.Time) Result {
	var res Result

	res.add(v.transactionStatusRule(snap)...)

	if len(req.Items) == 0 {
		res.add(domain.ErrorFinding(domain.CodeEmptyBatch,
			"return request contains no items", ""))
	}
	if len(req.Items) > v.cfg.MaxBatchItems {
		res.add(domain.ErrorFinding(domain.CodeBatchItemLimitExceeded,
			fmt.Sprintf("return has %d distinct items, limit is %d", len(req.Items), v.cfg.MaxBatchItems), ""))
	}

	ids := make([]string, 0, len(req.Items))
	for _, it := range req.Items {
		ids = append(ids, it.ItemID)
	}
	res.add(duplicateItemFindings(ids)...)
	res.add(v.cfg.operatingWindowFindings(now)...)

	for _, item := range req.Items {
		res.add(v.itemRules(snap, item)...)
	}
	return res
}

// transactionStatusRule distinguishes the idempotency case: a second return on
// the same transaction reports ALREADY_RETURNED, not a generic status error.
func (v *ReturnValidator) transactionStatusRule(snap *domain.TransactionSnapshot) []domain.Finding {
	switch snap.Transaction.Status {
	case domain.TransactionStatusActive:
		return nil
	case domain.TransactionStatusReturned:
		return []domain.Finding{domain.ErrorFinding(domain.CodeAlreadyReturned,
			fmt.Sprintf("transaction %s was already returned", snap.Transaction.Code), "")}
	default:
		return []domain.Finding{domain.ErrorFinding(domain.CodeInvalidTransactionStatus,
			fmt.Sprintf("transaction %s is %s, return requires ACTIVE", snap.Transaction.Code, snap.Transaction.Status), "")}
	}
}

func (v *ReturnValidator) itemRules(snap *domain.TransactionSnapshot, ri domain.ReturnItem) []domain.Finding {
	item := snap.Item(ri.ItemID)
	if item == nil {
		return []domain.Finding{domain.ErrorFinding(domain.CodeItemNotFound,
			fmt.Sprintf("item %s does not belong to transaction %s", ri.ItemID, snap.Transaction.Code), ri.ItemID)}
	}
	if item.ReturnStatus == domain.ReturnStatusComplete {
		return []domain.Finding{domain.ErrorFinding(domain.CodeItemAlreadyReturned,
			"item return is already complete", ri.ItemID)}
	}
	if item.PickedUpQuantity == 0 {
		return []domain.Finding{domain.ErrorFinding(domain.CodeItemNotPickedUp,
			"item was never picked up, nothing to return", ri.ItemID)}
	}
	if len(ri.Conditions) == 0 {
		return []domain.Finding{domain.ErrorFinding(domain.CodeMissingConditionSplit,
			"at least one condition split is required", ri.ItemID)}
	}

	var out []domain.Finding
	for _, c := range ri.Conditions {
		out = append(out, v.conditionRules(ri.ItemID, c)...)
	}

	if sum := ri.SplitQuantity(); sum > item.PickedUpQuantity {
		out = append(out, domain.ErrorFinding(domain.CodeExcessTotalQuantity,
			fmt.Sprintf("condition splits total %d but only %d units were picked up", sum, item.PickedUpQuantity), ri.ItemID))
	}
	return out
}

func (v *ReturnValidator) conditionRules(itemID string, c domain.ConditionInput) []domain.Finding {
	var out []domain.Finding
	if len(c.Description) < MinConditionDescription {
		out = append(out, domain.ErrorFinding(domain.CodeInvalidConditionDescription,
			fmt.Sprintf("condition description must be at least %d characters", MinConditionDescription), itemID))
	}
	if !c.Class.Known() {
		out = append(out, domain.ErrorFinding(domain.CodeInvalidConditionDescription,
			fmt.Sprintf("unrecognized condition class %q", c.Class), itemID))
		return out
	}
	if c.Class.Lost() {
		// A lost condition denotes units that never came back; its quantity
		// field must be exactly zero.
		if c.Quantity != 0 {
			out = append(out, domain.ErrorFinding(domain.CodeLostItemInvalidQuantity,
				fmt.Sprintf("lost condition must carry quantity 0, got %d", c.Quantity), itemID))
		}
	} else if c.Quantity < 1 {
		out = append(out, domain.ErrorFinding(domain.CodeReturnedItemInvalidQty,
			"returned condition must carry quantity of at least 1", itemID))
	}
	return out
}
