package domain

import "time"

type TransactionStatus string

const (
	TransactionStatusActive    TransactionStatus = "ACTIVE"
	TransactionStatusReturned  TransactionStatus = "RETURNED"
	TransactionStatusOverdue   TransactionStatus = "OVERDUE"
	TransactionStatusCancelled TransactionStatus = "CANCELLED"
)

// Terminal reports whether no further lifecycle operations are allowed.
func (s TransactionStatus) Terminal() bool {
	return s == TransactionStatusReturned || s == TransactionStatusCancelled
}

type RentalTransaction struct {
	ID   string `json:"id"`
	Code string `json:"code"` // human-readable, immutable once issued
	// Outside of an in-flight return commit,
	// AmountDueCents == TotalPriceCents - AmountPaidCents + accrued penalties.
	TotalPriceCents int64             `json:"total_price_cents"`
	AmountPaidCents int64             `json:"amount_paid_cents"`
	AmountDueCents  int64             `json:"amount_due_cents"`
	Status          TransactionStatus `json:"status"`
	StartDate       time.Time         `json:"start_date"`
	EndDate         time.Time         `json:"end_date"`
	ReturnedAt      *time.Time        `json:"returned_at,omitempty"`
	Notes           string            `json:"notes"`
	CreatedOn       time.Time         `json:"created_on"`
	UpdatedOn       time.Time         `json:"updated_on"`
}

// TransactionSnapshot is a read-only view of a transaction, its items and the
// products they reference, captured at TakenAt. Validation runs against a
// snapshot; the serializable commit re-checks state before writing.
type TransactionSnapshot struct {
	Transaction RentalTransaction
	Items       []RentalItem
	Products    map[string]Product // keyed by product ID
	TakenAt     time.Time
}

// Item returns the snapshot item with the given ID, or nil.
func (s *TransactionSnapshot) Item(itemID string) *RentalItem {
	for i := range s.Items {
		if s.Items[i].ID == itemID {
			return &s.Items[i]
		}
	}
	return nil
}

// Age reports how old the snapshot is at the given instant.
func (s *TransactionSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.TakenAt)
}
