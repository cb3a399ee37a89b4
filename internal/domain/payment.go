package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is an immutable audit record of a single settlement attempt,
// either a ride debit or an external recharge credit.
type Payment struct {
	ID            string
	UserID        string
	RideID        string // empty for recharges
	Amount        decimal.Decimal
	BalanceBefore decimal.Decimal
	BalanceAfter  decimal.Decimal
	Status        PaymentStatus
	Reason        string
	CreatedAt     time.Time
}
