package domain

import "time"

// Product is the catalog entry a rental item points at. AvailableStock is
// shared with booking-availability logic outside this service; the engines only
// increment it inside the atomic commit, never read-then-assume.
type Product struct {
	ID                   string    `json:"id"`
	Code                 string    `json:"code"`
	Name                 string    `json:"name"`
	AvailableStock       int       `json:"available_stock"`
	AcquisitionCostCents int64     `json:"acquisition_cost_cents"` // replacement-cost basis; 0 = unknown
	CreatedOn            time.Time `json:"created_on"`
	UpdatedOn            time.Time `json:"updated_on"`
}
