package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"faregate/internal/domain"
)

// RideCacheStore caches settled rides for the dashboard read surface.
// Only closed rides are cached: once settled a ride is immutable, so
// entries never need invalidation.
type RideCacheStore struct {
	client *redis.Client
}

// NewRideCacheStore creates a new RideCacheStore.
func NewRideCacheStore(client *redis.Client) *RideCacheStore {
	return &RideCacheStore{client: client}
}

const (
	rideCachePrefix = "cache:ride:"
	rideCacheTTL    = 10 * time.Minute
)

// CachedRide is the cached representation of a settled ride.
type CachedRide struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	Status        string  `json:"status"`
	StartTime     string  `json:"start_time"`
	EndTime       string  `json:"end_time"`
	StartLat      float64 `json:"start_lat"`
	StartLng      float64 `json:"start_lng"`
	EndLat        float64 `json:"end_lat"`
	EndLng        float64 `json:"end_lng"`
	DistanceKm    float64 `json:"distance_km"`
	DurationMin   float64 `json:"duration_min"`
	Fare          string  `json:"fare"`
	PaymentStatus string  `json:"payment_status"`
}

// Get retrieves a ride from cache. A miss returns (nil, nil).
func (s *RideCacheStore) Get(ctx context.Context, rideID string) (*CachedRide, error) {
	data, err := s.client.Get(ctx, rideCachePrefix+rideID).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var ride CachedRide
	if err := json.Unmarshal(data, &ride); err != nil {
		return nil, err
	}
	return &ride, nil
}

// Set stores a settled ride in cache. Open rides are ignored.
func (s *RideCacheStore) Set(ctx context.Context, ride *domain.Ride) error {
	if ride.Open() {
		return nil
	}

	cached := CachedRide{
		ID:            ride.ID,
		UserID:        ride.UserID,
		Status:        string(ride.Status),
		StartTime:     ride.StartTime.Format(time.RFC3339),
		EndTime:       ride.EndTime.Format(time.RFC3339),
		StartLat:      ride.StartLat,
		StartLng:      ride.StartLng,
		EndLat:        ride.EndLat,
		EndLng:        ride.EndLng,
		DistanceKm:    ride.DistanceKm,
		DurationMin:   ride.DurationMin,
		Fare:          ride.Fare.String(),
		PaymentStatus: string(ride.PaymentStatus),
	}

	data, err := json.Marshal(cached)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, rideCachePrefix+ride.ID, data, rideCacheTTL).Err()
}
