package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// minVersionTTL keeps a day's version counter alive far longer than any cached list, so a
// counter that expires and restarts can never resurrect a live entry.
const minVersionTTL = 24 * time.Hour

// SlotCache stores serialized free-slot lists per physician and day with a short TTL.
//
// Entries are keyed by a per-day version. Invalidate bumps the version instead of deleting, so a
// list read from the store before a claim and written back after it lands under a version no
// reader asks for any more.
type SlotCache struct {
	client     redis.UniversalClient
	ttl        time.Duration
	versionTTL time.Duration
}

func NewSlotCache(client redis.UniversalClient, ttl time.Duration) *SlotCache {
	versionTTL := minVersionTTL
	if 2*ttl > versionTTL {
		versionTTL = 2 * ttl
	}
	return &SlotCache{client: client, ttl: ttl, versionTTL: versionTTL}
}

func freeSlotsVersionKey(physicianID uuid.UUID, day string) string {
	return fmt.Sprintf("slots:ver:%s:%s", physicianID.String(), day)
}

func freeSlotsKey(physicianID uuid.UUID, day string, version int64) string {
	return fmt.Sprintf("slots:free:%s:%s:v%d", physicianID.String(), day, version)
}

// Version returns the day's current cache version; zero until the first invalidation.
func (c *SlotCache) Version(ctx context.Context, physicianID uuid.UUID, day string) (int64, error) {
	v, err := c.client.Get(ctx, freeSlotsVersionKey(physicianID, day)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get free slots version: %w", err)
	}
	return v, nil
}

func (c *SlotCache) Get(ctx context.Context, physicianID uuid.UUID, day string, version int64) ([]byte, bool, error) {
	data, err := c.client.Get(ctx, freeSlotsKey(physicianID, day, version)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get free slots: %w", err)
	}
	return data, true, nil
}

// Set stores data under version, which must be the version read before the store was queried.
func (c *SlotCache) Set(ctx context.Context, physicianID uuid.UUID, day string, version int64, data []byte) error {
	if err := c.client.Set(ctx, freeSlotsKey(physicianID, day, version), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("set free slots: %w", err)
	}
	return nil
}

func (c *SlotCache) Invalidate(ctx context.Context, physicianID uuid.UUID, day string) error {
	key := freeSlotsVersionKey(physicianID, day)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, key)
		pipe.Expire(ctx, key, c.versionTTL)
		return nil
	})
	if err != nil {
		return fmt.Errorf("invalidate free slots: %w", err)
	}
	return nil
}
