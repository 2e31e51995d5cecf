package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"github.com/EviewNicks/rental-baju-sub002/internal/repository"
)

const defaultCommitTimeout = 5 * time.Second

// Store implements repository.TransactionStore on PostgreSQL. Commits run as
// serializable transactions; the database's isolation is the sole correctness
// mechanism, no advisory locks are taken.
type Store struct {
	db            *sql.DB
	commitTimeout time.Duration
}

func NewStore(db *sql.DB, commitTimeout time.Duration) *Store {
	if commitTimeout <= 0 {
		commitTimeout = defaultCommitTimeout
	}
	return &Store{db: db, commitTimeout: commitTimeout}
}

// Commit runs mutate inside one serializable transaction bounded by the commit
// timeout. Any error from mutate rolls the whole transaction back.
func (s *Store) Commit(ctx context.Context, transactionID string, mutate func(ctx context.Context, m repository.Mutation) error) error {
	ctx, cancel := context.WithTimeout(ctx, s.commitTimeout)
	defer cancel()

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return classify(err)
	}

	m := &mutation{tx: tx, transactionID: transactionID}
	if err := mutate(ctx, m); err != nil {
		_ = tx.Rollback()
		return classify(err)
	}
	if err := tx.Commit(); err != nil {
		return classify(err)
	}
	return nil
}

// classify maps driver-level failures onto the repository error taxonomy.
// Serialization aborts (SQLSTATE 40001), deadlocks (40P01) and commit timeouts
// are retryable; repository sentinels pass through untouched.
func classify(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrConflict),
		errors.Is(err, repository.ErrAlreadyReturned),
		errors.Is(err, repository.ErrNotFound),
		errors.Is(err, repository.ErrRetryable):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return errors.Join(repository.ErrRetryable, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch pqErr.Code {
		case "40001", "40P01":
			return errors.Join(repository.ErrRetryable, err)
		}
	}
	return err
}
