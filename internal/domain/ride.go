package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusInProgress          RideStatus = "IN_PROGRESS"
	RideStatusCompleted           RideStatus = "COMPLETED"
	RideStatusInsufficientBalance RideStatus = "INSUFFICIENT_BALANCE"
)

// PaymentStatus represents the settlement status of a ride.
type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusSuccess PaymentStatus = "SUCCESS"
	PaymentStatusFailed  PaymentStatus = "FAILED"
)

// Ride represents a single card-tap trip. A ride is opened by an ENTRY
// tap and settled exactly once by the matching EXIT tap.
type Ride struct {
	ID            string
	UserID        string
	Status        RideStatus
	StartTime     time.Time
	StartLat      float64
	StartLng      float64
	EndTime       time.Time // zero until settled
	EndLat        float64
	EndLng        float64
	DistanceKm    float64
	DurationMin   float64
	Fare          decimal.Decimal
	PaymentStatus PaymentStatus
	CreatedAt     time.Time
}

// Open reports whether the ride has not been settled yet.
func (r *Ride) Open() bool {
	return r.Status == RideStatusInProgress
}
