package redis

import (
	"context"
	"time"

	"faregate/internal/domain"
)

// TapLockStoreInterface defines the interface for tap debouncing.
type TapLockStoreInterface interface {
	AcquireTapLock(ctx context.Context, cardUID string, ttl time.Duration) (bool, error)
}

// RideCacheStoreInterface defines the interface for settled-ride caching.
type RideCacheStoreInterface interface {
	Get(ctx context.Context, rideID string) (*CachedRide, error)
	Set(ctx context.Context, ride *domain.Ride) error
}

// Ensure concrete types implement interfaces.
var (
	_ TapLockStoreInterface   = (*TapLockStore)(nil)
	_ RideCacheStoreInterface = (*RideCacheStore)(nil)
)
