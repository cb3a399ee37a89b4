package repository

import (
	"context"

	"faregate/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// FindOpenByUserID retrieves all IN_PROGRESS rides for a user,
	// newest first. More than one row signals a broken invariant; the
	// caller decides how to react.
	FindOpenByUserID(ctx context.Context, userID string) ([]*domain.Ride, error)

	// Settle closes a ride exactly once, writing the end fields and the
	// final status/payment status. Returns ErrNotFound if the ride no
	// longer is IN_PROGRESS.
	Settle(ctx context.Context, ride *domain.Ride) error

	// ListByUserID retrieves a user's rides, newest first.
	ListByUserID(ctx context.Context, userID string) ([]*domain.Ride, error)

	// GetAll retrieves recent rides.
	GetAll(ctx context.Context) ([]*domain.Ride, error)
}
