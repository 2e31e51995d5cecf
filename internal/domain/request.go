package domain

import "time"

// PickupLine is one item line in a pickup batch.
type PickupLine struct {
	ItemID   string `json:"item_id"`
	Quantity int    `json:"quantity"`
}

// PickupRequest asks to move quantities from "not yet picked up" to "picked up".
type PickupRequest struct {
	TransactionID string       `json:"transaction_id"`
	Lines         []PickupLine `json:"items"`
}

// TotalQuantity sums the requested quantities across all lines.
func (r *PickupRequest) TotalQuantity() int {
	total := 0
	for _, l := range r.Lines {
		total += l.Quantity
	}
	return total
}

// ConditionInput is one condition split declared for a returned item. Class is
// filled from Description at the input boundary; Normalize backfills it for
// programmatic callers that leave it empty.
type ConditionInput struct {
	Description string         `json:"description"`
	Class       ConditionClass `json:"class,omitempty"`
	Quantity    int            `json:"quantity"`
}

// ReturnItem carries one or more condition splits for a single rental item.
// A plain single-condition return is simply a list of length one.
type ReturnItem struct {
	ItemID     string           `json:"item_id"`
	Conditions []ConditionInput `json:"conditions"`
}

// ReturnedQuantity sums physically returned units (LOST splits count zero).
func (ri *ReturnItem) ReturnedQuantity() int {
	total := 0
	for _, c := range ri.Conditions {
		if !c.Class.Lost() {
			total += c.Quantity
		}
	}
	return total
}

// SplitQuantity sums the declared quantities across all splits.
func (ri *ReturnItem) SplitQuantity() int {
	total := 0
	for _, c := range ri.Conditions {
		total += c.Quantity
	}
	return total
}

// ReturnRequest asks to close out items of a transaction with per-condition
// quantity splits. ActualReturnTime defaults to the processing time when nil.
type ReturnRequest struct {
	TransactionID    string       `json:"transaction_id"`
	Items            []ReturnItem `json:"items"`
	ActualReturnTime *time.Time   `json:"actual_return_time,omitempty"`
	Notes            string       `json:"notes,omitempty"`
}

// Normalize classifies any condition split whose class was not decided at the
// boundary. Safe to call repeatedly.
func (r *ReturnRequest) Normalize() {
	for i := range r.Items {
		for j := range r.Items[i].Conditions {
			c := &r.Items[i].Conditions[j]
			if c.Class == "" {
				c.Class = ClassifyCondition(c.Description)
			}
		}
	}
}
