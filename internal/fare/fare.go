// Package fare computes trip fares under a configured tariff.
package fare

import "github.com/shopspring/decimal"

// Tariff holds the fare structure for a deployment.
type Tariff struct {
	BaseFare      decimal.Decimal // flat starting charge
	PerKmRate     decimal.Decimal // charge per kilometer
	PerMinuteRate decimal.Decimal // charge per minute beyond the free window
	FreeMinutes   float64         // minutes before time-based charging starts
	MinimumFare   decimal.Decimal // floor
	MaximumFare   decimal.Decimal // ceiling
}

// DefaultTariff returns the tariff used when no configuration overrides
// are present.
func DefaultTariff() Tariff {
	return Tariff{
		BaseFare:      decimal.NewFromFloat(10.0),
		PerKmRate:     decimal.NewFromFloat(5.0),
		PerMinuteRate: decimal.NewFromFloat(0.5),
		FreeMinutes:   5.0,
		MinimumFare:   decimal.NewFromFloat(15.0),
		MaximumFare:   decimal.NewFromFloat(100.0),
	}
}

// Calculate returns the fare for a trip of the given distance and
// duration, clamped to [MinimumFare, MaximumFare] and rounded to two
// decimal places.
//
// Precondition: distanceKm and durationMinutes are non-negative.
// Negative inputs are a caller error and are not validated here.
func (t Tariff) Calculate(distanceKm, durationMinutes float64) decimal.Decimal {
	amount := t.BaseFare.Add(decimal.NewFromFloat(distanceKm).Mul(t.PerKmRate))

	if durationMinutes > t.FreeMinutes {
		billable := decimal.NewFromFloat(durationMinutes - t.FreeMinutes)
		amount = amount.Add(billable.Mul(t.PerMinuteRate))
	}

	if amount.LessThan(t.MinimumFare) {
		amount = t.MinimumFare
	}
	if amount.GreaterThan(t.MaximumFare) {
		amount = t.MaximumFare
	}

	return amount.Round(2)
}
