package repository

import (
	"context"
	"errors"
	"time"

	"github.com/EviewNicks/rental-baju-sub002/internal/domain"
)

var (
	// ErrNotFound indicates the transaction, item or product does not exist.
	ErrNotFound = errors.New("repository: not found")

	// ErrConflict indicates a guarded write lost against a concurrent change
	// (e.g. a pickup increment that would exceed the ordered quantity).
	ErrConflict = errors.New("repository: concurrent update conflict")

	// ErrAlreadyReturned indicates the transaction reached RETURNED between
	// the snapshot read and the commit.
	ErrAlreadyReturned = errors.New("repository: transaction already returned")

	// ErrRetryable indicates an infrastructure failure (serialization abort,
	// commit timeout) where retrying the whole validate-then-commit sequence
	// is expected to succeed.
	ErrRetryable = errors.New("repository: retryable failure")
)

// IsRetryable reports whether the caller should retry the full operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrRetryable)
}

// Mutation is the write surface available inside one atomic commit. Every
// method runs against the same serializable database transaction; reads take
// row locks so re-checks hold until commit.
type Mutation interface {
	// Transaction loads the transaction row locked for update.
	Transaction(ctx context.Context) (*domain.RentalTransaction, error)

	// Items loads every item of the transaction locked for update.
	Items(ctx context.Context) ([]domain.RentalItem, error)

	// AddPickedUpQuantity increments picked_up_quantity by qty, guarded so the
	// result never exceeds the ordered quantity. Returns ErrConflict when the
	// guard rejects the increment.
	AddPickedUpQuantity(ctx context.Context, itemID string, qty int) error

	// InsertConditionRecord appends one immutable condition record.
	InsertConditionRecord(ctx context.Context, rec *domain.ConditionRecord) error

	// CompleteItemReturn marks the item COMPLETE with its aggregate penalty
	// and condition count.
	CompleteItemReturn(ctx context.Context, itemID string, penaltyCents int64, conditionCount int) error

	// AddProductStock releases physically returned units back to inventory.
	AddProductStock(ctx context.Context, productID string, qty int) error

	// AccruePenalty adds to the transaction's amount outstanding without
	// touching its status. Used by returns that leave items open.
	AccruePenalty(ctx context.Context, penaltyCents int64) error

	// FinalizeReturn flips the transaction to RETURNED, stamps the actual
	// return time and adds the total penalty to the amount outstanding.
	// Only valid once every item of the transaction is complete.
	FinalizeReturn(ctx context.Context, returnedAt time.Time, penaltyCents int64) error
}

// TransactionStore is the persistence boundary of the lifecycle engines.
// ReadSnapshot is a consistent read; Commit runs mutate inside one
// serializable transaction and rolls everything back if it returns an error.
type TransactionStore interface {
	ReadSnapshot(ctx context.Context, transactionID string) (*domain.TransactionSnapshot, error)
	Commit(ctx context.Context, transactionID string, mutate func(ctx context.Context, m Mutation) error) error
}
