package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// TapLockStore debounces card taps in Redis. A tap takes a short-lived
// SETNX lock keyed by card UID; while the lock is live, repeat taps of
// the same card (reader double-fire) are rejected. The lock expires on
// its own and is never released explicitly.
type TapLockStore struct {
	client *redis.Client
}

// NewTapLockStore creates a new TapLockStore.
func NewTapLockStore(client *redis.Client) *TapLockStore {
	return &TapLockStore{client: client}
}

// AcquireTapLock attempts to acquire the debounce lock for the given
// card. Returns true if acquired, false if a tap for this card is
// already inside the window.
func (s *TapLockStore) AcquireTapLock(ctx context.Context, cardUID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("tap:%s", cardUID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}
