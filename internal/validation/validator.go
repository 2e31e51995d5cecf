package validation

import (
	"fmt"
	"time"

	"github.com/EviewNicks/rental-baju-sub002/internal/domain"
)

// Config carries the tunable thresholds shared by the pickup and return rule
// sets. Zero values fall back to the documented defaults.
type Config struct {
	MaxBatchItems     int           // max distinct items per request
	MaxBatchQuantity  int           // hard cap on combined quantity per request
	WarnBatchQuantity int           // combined quantity that triggers a warning
	SnapshotStaleness time.Duration // snapshot age past which quantity overruns count as conflicts

	// Operating window. Timing findings are advisory only and never block.
	OpenHour   int // 24h clock; window disabled when OpenHour == CloseHour
	CloseHour  int
	ClosedDays []time.Weekday
}

func (c Config) withDefaults() Config {
	if c.MaxBatchItems == 0 {
		c.MaxBatchItems = 50
	}
	if c.MaxBatchQuantity == 0 {
		c.MaxBatchQuantity = 1000
	}
	if c.WarnBatchQuantity == 0 {
		c.WarnBatchQuantity = 100
	}
	if c.SnapshotStaleness == 0 {
		c.SnapshotStaleness = 5 * time.Minute
	}
	return c
}

// Result partitions findings by severity. A request is valid when no rule
// produced an error; warnings and infos are advisory.
type Result struct {
	Errors   []domain.Finding `json:"errors"`
	Warnings []domain.Finding `json:"warnings"`
	Infos    []domain.Finding `json:"infos"`
}

func (r *Result) add(findings ...domain.Finding) {
	for _, f := range findings {
		switch f.Severity {
		case domain.SeverityError:
			r.Errors = append(r.Errors, f)
		case domain.SeverityWarning:
			r.Warnings = append(r.Warnings, f)
		default:
			r.Infos = append(r.Infos, f)
		}
	}
}

func (r Result) Valid() bool { return len(r.Errors) == 0 }

// Findings returns all findings in severity order (errors first).
func (r Result) Findings() []domain.Finding {
	out := make([]domain.Finding, 0, len(r.Errors)+len(r.Warnings)+len(r.Infos))
	out = append(out, r.Errors...)
	out = append(out, r.Warnings...)
	out = append(out, r.Infos...)
	return out
}

// HasCode reports whether any error finding carries the given rule code.
func (r Result) HasCode(code string) bool {
	for _, f := range r.Errors {
		if f.Code == code {
			return true
		}
	}
	return false
}

// operatingWindowFindings produces advisory findings when the operation happens
// outside the configured hours or on a closed day. Never an error.
func (c Config) operatingWindowFindings(now time.Time) []domain.Finding {
	var out []domain.Finding
	for _, d := range c.ClosedDays {
		if now.Weekday() == d {
			out = append(out, domain.WarningFinding(domain.CodeNonOperatingDay,
				fmt.Sprintf("processed on a non-operating day (%s)", now.Weekday()), ""))
			break
		}
	}
	if c.OpenHour != c.CloseHour {
		h := now.Hour()
		if h < c.OpenHour || h >= c.CloseHour {
			out = append(out, domain.InfoFinding(domain.CodeOutsideOperatingHours,
				fmt.Sprintf("processed outside operating hours (%02d:00-%02d:00)", c.OpenHour, c.CloseHour), ""))
		}
	}
	return out
}

// duplicateItemFindings flags item ids that appear more than once in a batch.
func duplicateItemFindings(itemIDs []string) []domain.Finding {
	seen := make(map[string]int, len(itemIDs))
	for _, id := range itemIDs {
		seen[id]++
	}
	var out []domain.Finding
	for _, id := range itemIDs {
		if seen[id] > 1 {
			out = append(out, domain.ErrorFinding(domain.CodeDuplicateItemsInBatch,
				fmt.Sprintf("item %s appears %d times in one request", id, seen[id]), id))
			seen[id] = 0 // report once per duplicated id
		}
	}
	return out
}
