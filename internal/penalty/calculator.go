package penalty

import (
	"time"

	"github.com/EviewNicks/rental-baju-sub002/internal/domain"
)

// Config carries the monetary policy for condition penalties. All amounts are
// minor currency units.
type Config struct {
	DamagedLightFeeCents int64 // per damaged unit, light grade
	DamagedHeavyFeeCents int64 // per damaged unit, heavy grade
	// LostFallbackCents is charged as the replacement basis when a product's
	// acquisition cost is unknown.
	LostFallbackCents int64
}

// Input is everything Calculate needs. No clocks, no stores: identical inputs
// always yield identical output.
type Input struct {
	ExpectedEnd          time.Time
	ActualReturn         time.Time
	DailyRateCents       int64
	ReplacementCostCents int64 // acquisition cost basis; 0 = unknown
	Conditions           []domain.ConditionInput
}

// ConditionPenalty is the computed charge for one condition split.
type ConditionPenalty struct {
	Description string                `json:"description"`
	Class       domain.ConditionClass `json:"class"`
	Quantity    int                   `json:"quantity"` // forced to 0 for LOST
	FeeCents    int64                 `json:"fee_cents"`
	// ReplacementCostCents is the basis snapshot for LOST charges, nil otherwise.
	ReplacementCostCents *int64 `json:"replacement_cost_cents,omitempty"`
}

// Breakdown is the full penalty picture for one item.
type Breakdown struct {
	LateDays          int                `json:"late_days"`
	LateFeeCents      int64              `json:"late_fee_cents"`
	ConditionFeeCents int64              `json:"condition_fee_cents"`
	TotalCents        int64              `json:"total_cents"`
	Conditions        []ConditionPenalty `json:"conditions"`
}

// Calculator computes penalty breakdowns. Pure computation: no I/O, safe to
// call any number of times for previews before committing.
type Calculator struct {
	cfg Config
}

func NewCalculator(cfg Config) *Calculator {
	return &Calculator{cfg: cfg}
}

// LateDays counts chargeable late days: the duration past the expected end,
// rounded up to whole days, never negative. Early and same-instant returns are
// zero.
func LateDays(expectedEnd, actualReturn time.Time) int {
	if !actualReturn.After(expectedEnd) {
		return 0
	}
	late := actualReturn.Sub(expectedEnd)
	days := int(late / (24 * time.Hour))
	if late%(24*time.Hour) > 0 {
		days++
	}
	return days
}

// Calculate produces the penalty breakdown for one item. The late fee is
// charged once per item regardless of how the quantity splits across
// conditions; each split then contributes its own condition fee.
func (c *Calculator) Calculate(in Input) Breakdown {
	lateDays := LateDays(in.ExpectedEnd, in.ActualReturn)
	b := Breakdown{
		LateDays:     lateDays,
		LateFeeCents: int64(lateDays) * in.DailyRateCents,
		Conditions:   make([]ConditionPenalty, 0, len(in.Conditions)),
	}

	for _, cond := range in.Conditions {
		cp := ConditionPenalty{
			Description: cond.Description,
			Class:       cond.Class,
			Quantity:    cond.Quantity,
		}
		switch cond.Class {
		case domain.ConditionLost:
			basis := in.ReplacementCostCents
			if basis <= 0 {
				basis = c.cfg.LostFallbackCents
			}
			// One replacement charge covers the full unreturned quantity
			// attributed to this record; the record itself carries quantity 0.
			cp.Quantity = 0
			cp.FeeCents = basis
			cp.ReplacementCostCents = &basis
		case domain.ConditionDamagedHeavy:
			cp.FeeCents = c.cfg.DamagedHeavyFeeCents * int64(cond.Quantity)
		case domain.ConditionDamagedLight:
			cp.FeeCents = c.cfg.DamagedLightFeeCents * int64(cond.Quantity)
		default:
			// Good condition carries no charge.
		}
		b.ConditionFeeCents += cp.FeeCents
		b.Conditions = append(b.Conditions, cp)
	}

	b.TotalCents = b.LateFeeCents + b.ConditionFeeCents
	return b
}
