// Package cache keeps the per-(psychiatrist, day) booked-slot sets in Redis.
// Entries live only long enough to serve one availability view and are
// invalidated after every booking or cancellation touching the pair, so a
// cache hit can never hide a fresh booking for longer than the TTL.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"telepsychiatry-server/internal/config"
)

const (
	slotKeyPrefix = "booked-slots:"
	slotTTL       = 60 * time.Second
	opTimeout     = 2 * time.Second
)

// BookedSlots is the Redis-backed booked-slot cache.
type BookedSlots struct {
	rdb    *redis.Client
	logger *zap.Logger
}

// NewBookedSlots connects the cache client. Returns an error when Redis is
// unreachable so the caller can decide to run uncached instead.
func NewBookedSlots(cfg config.RedisConfig, logger *zap.Logger) (*BookedSlots, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, err
	}
	return &BookedSlots{rdb: rdb, logger: logger}, nil
}

func slotKey(psychiatristID, isoDay string) string {
	return slotKeyPrefix + psychiatristID + ":" + isoDay
}

// Get returns the cached labels and whether the key was present. Redis
// failures degrade to a miss.
func (c *BookedSlots) Get(psychiatristID, isoDay string) ([]string, bool) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	raw, err := c.rdb.Get(ctx, slotKey(psychiatristID, isoDay)).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn("booked-slot cache read failed", zap.Error(err))
		return nil, false
	}
	var labels []string
	if err := json.Unmarshal([]byte(raw), &labels); err != nil {
		c.logger.Warn("booked-slot cache entry corrupt", zap.Error(err))
		return nil, false
	}
	return labels, true
}

// Set stores the labels for a short TTL; best-effort.
func (c *BookedSlots) Set(psychiatristID, isoDay string, labels []string) {
	raw, err := json.Marshal(labels)
	if err != nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := c.rdb.Set(ctx, slotKey(psychiatristID, isoDay), raw, slotTTL).Err(); err != nil {
		c.logger.Warn("booked-slot cache write failed", zap.Error(err))
	}
}

// Invalidate drops the entry after a booking or cancellation for the pair.
func (c *BookedSlots) Invalidate(psychiatristID, isoDay string) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()
	if err := c.rdb.Del(ctx, slotKey(psychiatristID, isoDay)).Err(); err != nil {
		c.logger.Warn("booked-slot cache invalidation failed", zap.Error(err))
	}
}
