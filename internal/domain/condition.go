package domain

import (
	"strings"
	"time"
)

// ConditionClass is the tagged classification of a declared end-condition.
// It is decided once at the input boundary (ClassifyCondition); penalty and
// reconciliation logic only ever branch on the class, never on the free text.
type ConditionClass string

const (
	ConditionGood         ConditionClass = "GOOD"
	ConditionDamagedLight ConditionClass = "DAMAGED_LIGHT"
	ConditionDamagedHeavy ConditionClass = "DAMAGED_HEAVY"
	ConditionLost         ConditionClass = "LOST"
)

// Known reports whether c is one of the defined classes.
func (c ConditionClass) Known() bool {
	switch c {
	case ConditionGood, ConditionDamagedLight, ConditionDamagedHeavy, ConditionLost:
		return true
	}
	return false
}

// Lost reports whether the condition denotes a non-physical return.
func (c ConditionClass) Lost() bool { return c == ConditionLost }

// ClassifyCondition maps a free-text condition description to its class.
// Cashiers enter descriptions in Indonesian; matching is case-insensitive on
// keywords ("hilang" / "tidak dikembalikan" mark an item as lost, "rusak" as
// damaged, with "berat"/"parah" upgrading the damage grade). Negated damage
// ("tidak ada kerusakan") must not match the damage keywords.
func ClassifyCondition(description string) ConditionClass {
	desc := strings.ToLower(description)
	switch {
	case strings.Contains(desc, "hilang"),
		strings.Contains(desc, "tidak dikembalikan"),
		strings.Contains(desc, "lost"),
		strings.Contains(desc, "not returned"):
		return ConditionLost
	case strings.Contains(desc, "tidak ada kerusakan"),
		strings.Contains(desc, "tanpa kerusakan"),
		strings.Contains(desc, "no damage"):
		return ConditionGood
	case strings.Contains(desc, "rusak berat"),
		strings.Contains(desc, "rusak parah"),
		strings.Contains(desc, "heavily damaged"):
		return ConditionDamagedHeavy
	case strings.Contains(desc, "rusak"),
		strings.Contains(desc, "damaged"):
		return ConditionDamagedLight
	default:
		return ConditionGood
	}
}

// ConditionRecord is one condition split recorded for a returned item.
// Records are created atomically with the return that produced them and are
// never mutated afterwards.
type ConditionRecord struct {
	ID          string         `json:"id"`
	ItemID      string         `json:"item_id"`
	Description string         `json:"description"`
	Class       ConditionClass `json:"class"`
	// Quantity attributed to this condition. Always 0 for LOST: the record
	// denotes units that never came back, not returned units.
	Quantity     int   `json:"quantity"`
	PenaltyCents int64 `json:"penalty_cents"`
	// ReplacementCostCents snapshots the basis used for a LOST penalty at
	// calculation time. Nil for conditions that carried no replacement charge.
	ReplacementCostCents *int64    `json:"replacement_cost_cents,omitempty"`
	CreatedOn            time.Time `json:"created_on"`
}
