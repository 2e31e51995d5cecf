package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/EviewNicks/rental-baju-sub002/internal/domain"
	"github.com/EviewNicks/rental-baju-sub002/internal/logger"
	"github.com/EviewNicks/rental-baju-sub002/internal/repository"
)

const transactionColumns = `id, code, status, start_date, end_date, returned_at,
       total_price_cents, amount_paid_cents, amount_due_cents, notes, created_on, updated_on`

const itemColumns = `id, transaction_id, product_id, quantity, picked_up_quantity,
       return_status, daily_rate_cents, rental_days, penalty_cents, condition_count, created_on, updated_on`

// ReadSnapshot loads the transaction, its items and their products in one
// repeatable-read transaction so the snapshot is internally consistent.
func (s *Store) ReadSnapshot(ctx context.Context, transactionID string) (*domain.TransactionSnapshot, error) {
	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelRepeatableRead, ReadOnly: true})
	if err != nil {
		return nil, classify(err)
	}
	defer tx.Rollback()

	snap := &domain.TransactionSnapshot{
		Products: make(map[string]domain.Product),
		TakenAt:  time.Now(),
	}

	query := `SELECT ` + transactionColumns + ` FROM rental_transactions WHERE id = $1`
	logger.DatabaseCall("ReadSnapshot", query, "transaction_id", transactionID)
	row := tx.QueryRowContext(ctx, query, transactionID)
	if err := scanTransaction(row, &snap.Transaction); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", transactionID, repository.ErrNotFound)
		}
		return nil, classify(err)
	}

	rows, err := tx.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM transaction_items WHERE transaction_id = $1 ORDER BY created_on, id`,
		transactionID)
	if err != nil {
		return nil, classify(err)
	}
	defer rows.Close()
	for rows.Next() {
		var it domain.RentalItem
		if err := rows.Scan(&it.ID, &it.TransactionID, &it.ProductID, &it.Quantity, &it.PickedUpQuantity,
			&it.ReturnStatus, &it.DailyRateCents, &it.RentalDays, &it.PenaltyCents, &it.ConditionCount,
			&it.CreatedOn, &it.UpdatedOn); err != nil {
			return nil, classify(err)
		}
		snap.Items = append(snap.Items, it)
	}
	if err := rows.Err(); err != nil {
		return nil, classify(err)
	}

	prows, err := tx.QueryContext(ctx,
		`SELECT id, code, name, available_stock, acquisition_cost_cents, created_on, updated_on
		 FROM products
		 WHERE id IN (SELECT product_id FROM transaction_items WHERE transaction_id = $1)`,
		transactionID)
	if err != nil {
		return nil, classify(err)
	}
	defer prows.Close()
	for prows.Next() {
		var p domain.Product
		if err := prows.Scan(&p.ID, &p.Code, &p.Name, &p.AvailableStock, &p.AcquisitionCostCents,
			&p.CreatedOn, &p.UpdatedOn); err != nil {
			return nil, classify(err)
		}
		snap.Products[p.ID] = p
	}
	if err := prows.Err(); err != nil {
		return nil, classify(err)
	}

	return snap, nil
}

func scanTransaction(row *sql.Row, t *domain.RentalTransaction) error {
	return row.Scan(&t.ID, &t.Code, &t.Status, &t.StartDate, &t.EndDate, &t.ReturnedAt,
		&t.TotalPriceCents, &t.AmountPaidCents, &t.AmountDueCents, &t.Notes, &t.CreatedOn, &t.UpdatedOn)
}

// mutation implements repository.Mutation against one open sql.Tx.
type mutation struct {
	tx            *sql.Tx
	transactionID string
}

func (m *mutation) Transaction(ctx context.Context) (*domain.RentalTransaction, error) {
	t := &domain.RentalTransaction{}
	row := m.tx.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM rental_transactions WHERE id = $1 FOR UPDATE`,
		m.transactionID)
	if err := scanTransaction(row, t); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("transaction %s: %w", m.transactionID, repository.ErrNotFound)
		}
		return nil, err
	}
	return t, nil
}

func (m *mutation) Items(ctx context.Context) ([]domain.RentalItem, error) {
	rows, err := m.tx.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM transaction_items WHERE transaction_id = $1 ORDER BY created_on, id FOR UPDATE`,
		m.transactionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.RentalItem
	for rows.Next() {
		var it domain.RentalItem
		if err := rows.Scan(&it.ID, &it.TransactionID, &it.ProductID, &it.Quantity, &it.PickedUpQuantity,
			&it.ReturnStatus, &it.DailyRateCents, &it.RentalDays, &it.PenaltyCents, &it.ConditionCount,
			&it.CreatedOn, &it.UpdatedOn); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

func (m *mutation) AddPickedUpQuantity(ctx context.Context, itemID string, qty int) error {
	// Guarded read-modify-write: the WHERE clause re-checks the pickup bound
	// so a concurrent pickup can never push picked_up_quantity past quantity.
	res, err := m.tx.ExecContext(ctx,
		`UPDATE transaction_items
		 SET picked_up_quantity = picked_up_quantity + $1, updated_on = NOW()
		 WHERE id = $2 AND transaction_id = $3
		   AND return_status <> 'COMPLETE'
		   AND picked_up_quantity + $1 <= quantity`,
		qty, itemID, m.transactionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("pickup of %d units on item %s: %w", qty, itemID, repository.ErrConflict)
	}
	return nil
}

func (m *mutation) InsertConditionRecord(ctx context.Context, rec *domain.ConditionRecord) error {
	_, err := m.tx.ExecContext(ctx,
		`INSERT INTO condition_records
		   (id, item_id, description, class, quantity, penalty_cents, replacement_cost_cents, created_on)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())`,
		rec.ID, rec.ItemID, rec.Description, rec.Class, rec.Quantity, rec.PenaltyCents, rec.ReplacementCostCents)
	return err
}

func (m *mutation) CompleteItemReturn(ctx context.Context, itemID string, penaltyCents int64, conditionCount int) error {
	res, err := m.tx.ExecContext(ctx,
		`UPDATE transaction_items
		 SET return_status = 'COMPLETE', penalty_cents = $1, condition_count = $2, updated_on = NOW()
		 WHERE id = $3 AND transaction_id = $4 AND return_status <> 'COMPLETE'`,
		penaltyCents, conditionCount, itemID, m.transactionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("item %s return completion: %w", itemID, repository.ErrConflict)
	}
	return nil
}

func (m *mutation) AddProductStock(ctx context.Context, productID string, qty int) error {
	res, err := m.tx.ExecContext(ctx,
		`UPDATE products SET available_stock = available_stock + $1, updated_on = NOW() WHERE id = $2`,
		qty, productID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("product %s: %w", productID, repository.ErrNotFound)
	}
	return nil
}

func (m *mutation) AccruePenalty(ctx context.Context, penaltyCents int64) error {
	res, err := m.tx.ExecContext(ctx,
		`UPDATE rental_transactions
		 SET amount_due_cents = amount_due_cents + $1, updated_on = NOW()
		 WHERE id = $2 AND status = 'ACTIVE'`,
		penaltyCents, m.transactionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return fmt.Errorf("transaction %s penalty accrual: %w", m.transactionID, repository.ErrConflict)
	}
	return nil
}

func (m *mutation) FinalizeReturn(ctx context.Context, returnedAt time.Time, penaltyCents int64) error {
	res, err := m.tx.ExecContext(ctx,
		`UPDATE rental_transactions
		 SET status = 'RETURNED', returned_at = $1,
		     amount_due_cents = amount_due_cents + $2, updated_on = NOW()
		 WHERE id = $3 AND status = 'ACTIVE'`,
		returnedAt, penaltyCents, m.transactionID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		var status domain.TransactionStatus
		err := m.tx.QueryRowContext(ctx,
			`SELECT status FROM rental_transactions WHERE id = $1`, m.transactionID).Scan(&status)
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return fmt.Errorf("transaction %s: %w", m.transactionID, repository.ErrNotFound)
		case err != nil:
			return err
		case status == domain.TransactionStatusReturned:
			return repository.ErrAlreadyReturned
		default:
			return fmt.Errorf("transaction %s is %s: %w", m.transactionID, status, repository.ErrConflict)
		}
	}
	return nil
}
