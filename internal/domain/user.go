package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a transit account holder.
type User struct {
	ID         string
	Email      string
	Name       string
	CardUID    string // canonical card identifier, empty until a card is linked
	Balance    decimal.Decimal
	TotalSpent decimal.Decimal
	CreatedAt  time.Time
}
