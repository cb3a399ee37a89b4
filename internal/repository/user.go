package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"faregate/internal/domain"
)

// UserRepository defines the persistence operations for users.
type UserRepository interface {
	// Create persists a new user.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by account ID.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByIDForUpdate retrieves a user by account ID and locks the row
	// for the remainder of the enclosing transaction.
	GetByIDForUpdate(ctx context.Context, id string) (*domain.User, error)

	// GetByCardUID retrieves the user owning the given card identifier.
	GetByCardUID(ctx context.Context, cardUID string) (*domain.User, error)

	// GetByCardUIDForUpdate retrieves the user owning the given card
	// identifier and locks the row for the remainder of the enclosing
	// transaction. Tap handling is serialized per user through this lock.
	GetByCardUIDForUpdate(ctx context.Context, cardUID string) (*domain.User, error)

	// LinkCard assigns a card identifier to a user. Returns ErrCardTaken
	// if another user already owns the identifier.
	LinkCard(ctx context.Context, userID, cardUID string) error

	// UpdateBalance sets a user's balance and lifetime total spent.
	UpdateBalance(ctx context.Context, userID string, balance, totalSpent decimal.Decimal) error

	// GetAll retrieves all users.
	GetAll(ctx context.Context) ([]*domain.User, error)
}
