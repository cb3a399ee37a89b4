package repository

import (
	"context"

	"faregate/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
// Payment rows are append-only; there are no update operations.
type PaymentRepository interface {
	// Create persists a new payment record.
	Create(ctx context.Context, payment *domain.Payment) error

	// ListByUserID retrieves a user's payment records, newest first.
	ListByUserID(ctx context.Context, userID string) ([]*domain.Payment, error)
}
