package vehicle

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheTTL = 5 * time.Minute

// Cache keeps the latest live state in redis so the read path can skip
// postgres for hot vehicles.
type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	if rdb == nil {
		return nil
	}
	return &Cache{rdb: rdb}
}

func cacheKey(vehicleID string) string {
	return "vehicle:" + vehicleID + ":state"
}

func (c *Cache) Set(ctx context.Context, vehicleID string, st State) {
	if c == nil {
		return
	}
	b, err := json.Marshal(st)
	if err != nil {
		return
	}
	_ = c.rdb.Set(ctx, cacheKey(vehicleID), b, cacheTTL).Err()
}

func (c *Cache) Get(ctx context.Context, vehicleID string) (State, bool) {
	if c == nil {
		return State{}, false
	}
	b, err := c.rdb.Get(ctx, cacheKey(vehicleID)).Bytes()
	if err != nil {
		return State{}, false
	}
	var st State
	if err := json.Unmarshal(b, &st); err != nil {
		return State{}, false
	}
	return st, true
}

func (c *Cache) Invalidate(ctx context.Context, vehicleID string) {
	if c == nil {
		return
	}
	_ = c.rdb.Del(ctx, cacheKey(vehicleID)).Err()
}
