package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"faregate/internal/repository"
	"faregate/internal/repository/postgres"
)

// Repos bundles the transaction-scoped repositories a settlement needs.
type Repos struct {
	Users    repository.UserRepository
	Rides    repository.RideRepository
	Payments repository.PaymentRepository
}

// TxRunner executes fn within a single atomic unit. The production
// runner wraps a database transaction; tests substitute in-memory
// repositories.
type TxRunner func(ctx context.Context, fn func(Repos) error) error

// maxTxAttempts bounds retries of transactions aborted by transient
// serialization conflicts or deadlocks.
const maxTxAttempts = 3

// NewSQLTxRunner returns a TxRunner backed by database transactions
// with transaction-scoped repositories. Transient conflicts are retried
// up to maxTxAttempts times; any other failure rolls back and surfaces.
func NewSQLTxRunner(db *sql.DB) TxRunner {
	return func(ctx context.Context, fn func(Repos) error) error {
		var err error
		for attempt := 0; attempt < maxTxAttempts; attempt++ {
			err = runInTx(ctx, db, fn)
			if err == nil || !isRetriable(err) {
				return err
			}
		}
		return err
	}
}

func runInTx(ctx context.Context, db *sql.DB, fn func(Repos) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	repos := Repos{
		Users:    postgres.NewUserRepositoryWithTx(tx),
		Rides:    postgres.NewRideRepositoryWithTx(tx),
		Payments: postgres.NewPaymentRepositoryWithTx(tx),
	}

	if err = fn(repos); err != nil {
		return err
	}

	return tx.Commit()
}

// isRetriable reports whether err is a transient PostgreSQL failure:
// serialization_failure (40001) or deadlock_detected (40P01).
func isRetriable(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "40001" || pqErr.Code == "40P01"
}
