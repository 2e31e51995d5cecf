package domain

import "time"

type ReturnStatus string

const (
	ReturnStatusNone     ReturnStatus = "NONE"
	ReturnStatusPartial  ReturnStatus = "PARTIAL"
	ReturnStatusComplete ReturnStatus = "COMPLETE"
)

// RentalItem is one product line within a rental transaction.
// Invariant: 0 <= PickedUpQuantity <= Quantity. Once ReturnStatus is COMPLETE
// no further pickup or return may touch the item.
type RentalItem struct {
	ID               string       `json:"id"`
	TransactionID    string       `json:"transaction_id"`
	ProductID        string       `json:"product_id"`
	Quantity         int          `json:"quantity"` // ordered quantity
	PickedUpQuantity int          `json:"picked_up_quantity"`
	ReturnStatus     ReturnStatus `json:"return_status"`
	DailyRateCents   int64        `json:"daily_rate_cents"` // per-unit rental rate
	RentalDays       int          `json:"rental_days"`
	PenaltyCents     int64        `json:"penalty_cents"` // aggregate penalty accrued
	ConditionCount   int          `json:"condition_count"`
	CreatedOn        time.Time    `json:"created_on"`
	UpdatedOn        time.Time    `json:"updated_on"`
}

// RemainingQuantity is the quantity not yet picked up.
func (it *RentalItem) RemainingQuantity() int {
	return it.Quantity - it.PickedUpQuantity
}

// FullyPickedUp reports whether every ordered unit has been picked up.
func (it *RentalItem) FullyPickedUp() bool {
	return it.PickedUpQuantity >= it.Quantity
}
