package jobs

import (
	"context"
	"time"

	"github.com/EviewNicks/rental-baju-sub002/internal/audit"
	"github.com/EviewNicks/rental-baju-sub002/internal/logger"
)

// ScanOverdueTransactions reports ACTIVE transactions that are past their end
// date. It emits one audit event per overdue transaction and writes nothing;
// status transitions belong to the lifecycle engines.
func (jr *JobRunner) ScanOverdueTransactions() {
	jr.runWithRecovery("ScanOverdueTransactions", func() {
		ctx := context.Background()

		query := `
			SELECT id, code, end_date
			FROM rental_transactions
			WHERE status = 'ACTIVE'
			  AND end_date < $1
		`

		now := time.Now()
		rows, err := jr.db.QueryContext(ctx, query, now)
		if err != nil {
			logger.Error("Failed to scan overdue transactions", "error", err)
			return
		}
		defer rows.Close()

		count := 0
		for rows.Next() {
			var (
				id      string
				code    string
				endDate time.Time
			)
			if err := rows.Scan(&id, &code, &endDate); err != nil {
				logger.Error("Failed to scan overdue transaction row", "error", err)
				continue
			}
			daysLate := int(now.Sub(endDate).Hours() / 24)
			audit.Record(ctx, jr.sink, audit.NewEvent(audit.EventTransactionOverdue, id, map[string]any{
				"code":      code,
				"end_date":  endDate,
				"days_late": daysLate,
			}))
			count++
		}

		if err := rows.Err(); err != nil {
			logger.Error("Error iterating overdue transactions", "error", err)
			return
		}

		logger.Info("Overdue scan finished", "overdue_count", count)
	})
}
