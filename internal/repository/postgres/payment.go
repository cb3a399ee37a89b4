package postgres

import (
	"context"
	"database/sql"

	"faregate/internal/domain"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	q Querier
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{q: db}
}

// NewPaymentRepositoryWithTx creates a payment repository using a transaction.
func NewPaymentRepositoryWithTx(tx *sql.Tx) *PaymentRepository {
	return &PaymentRepository{q: tx}
}

// Create persists a new payment record.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (id, user_id, ride_id, amount, balance_before, balance_after, status, reason, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	var rideID sql.NullString
	if payment.RideID != "" {
		rideID = sql.NullString{String: payment.RideID, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		payment.ID,
		payment.UserID,
		rideID,
		payment.Amount,
		payment.BalanceBefore,
		payment.BalanceAfter,
		payment.Status,
		payment.Reason,
		payment.CreatedAt,
	)

	return err
}

// ListByUserID retrieves a user's payment records, newest first.
func (r *PaymentRepository) ListByUserID(ctx context.Context, userID string) ([]*domain.Payment, error) {
	query := `
		SELECT id, user_id, ride_id, amount, balance_before, balance_after, status, reason, created_at
		FROM payments WHERE user_id = $1 ORDER BY created_at DESC LIMIT 100
	`

	rows, err := r.q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var payments []*domain.Payment
	for rows.Next() {
		var payment domain.Payment
		var rideID sql.NullString
		if err := rows.Scan(
			&payment.ID,
			&payment.UserID,
			&rideID,
			&payment.Amount,
			&payment.BalanceBefore,
			&payment.BalanceAfter,
			&payment.Status,
			&payment.Reason,
			&payment.CreatedAt,
		); err != nil {
			return nil, err
		}
		if rideID.Valid {
			payment.RideID = rideID.String
		}
		payments = append(payments, &payment)
	}
	return payments, rows.Err()
}
