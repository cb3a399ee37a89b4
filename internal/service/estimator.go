package service

import (
	"context"

	"faregate/internal/domain"
)

// DistanceEstimator supplies the trip distance used for fare
// calculation. A routing backend implements this against a maps API;
// deployments without one fall back to FixedRateEstimator.
type DistanceEstimator interface {
	Estimate(ctx context.Context, start, end domain.Coordinates, durationMinutes float64) (float64, error)
}

// FixedRateEstimator estimates distance as a linear function of trip
// duration. It ignores coordinates entirely.
type FixedRateEstimator struct {
	KmPerMinute float64
}

// NewFixedRateEstimator creates a FixedRateEstimator.
func NewFixedRateEstimator(kmPerMinute float64) *FixedRateEstimator {
	return &FixedRateEstimator{KmPerMinute: kmPerMinute}
}

// Estimate returns durationMinutes * KmPerMinute.
func (e *FixedRateEstimator) Estimate(_ context.Context, _, _ domain.Coordinates, durationMinutes float64) (float64, error) {
	return durationMinutes * e.KmPerMinute, nil
}
