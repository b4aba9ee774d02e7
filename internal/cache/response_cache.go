// Package cache holds the redis-backed response cache for pipeline runs.
// Entries are write-once and immutable: two identical requests within the
// expiry window get the identical route without a planner round-trip.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/motomuse/service-routes/internal/pipeline"
)

const keyPrefix = "routes:outcome:"

// ResponseCache caches pipeline outcomes keyed by a hash of the
// preferences (the start point is part of the preferences value).
type ResponseCache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New creates a ResponseCache with the given entry expiry.
func New(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *ResponseCache {
	return &ResponseCache{rdb: rdb, ttl: ttl, logger: logger}
}

// Key derives the cache key for a preferences value. Preferences are
// plain data, so the canonical JSON encoding is a stable identity.
func Key(prefs pipeline.Preferences) (string, error) {
	raw, err := json.Marshal(prefs)
	if err != nil {
		return "", fmt.Errorf("marshal preferences for cache key: %w", err)
	}
	sum := sha256.Sum256(raw)
	return keyPrefix + hex.EncodeToString(sum[:]), nil
}

// Get returns the cached outcome for key, or ok=false on a miss. Cache
// errors are demoted to misses so a redis outage never fails a request.
func (c *ResponseCache) Get(ctx context.Context, key string) (*pipeline.Outcome, bool) {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("cache read failed", zap.Error(err))
		}
		return nil, false
	}

	var outcome pipeline.Outcome
	if err := json.Unmarshal(raw, &outcome); err != nil {
		c.logger.Warn("cache entry undecodable, ignoring", zap.Error(err))
		return nil, false
	}
	return &outcome, true
}

// Put stores the outcome under key. SetNX keeps entries write-once: a
// concurrent run that lost the race leaves the winner's entry untouched.
func (c *ResponseCache) Put(ctx context.Context, key string, outcome *pipeline.Outcome) {
	raw, err := json.Marshal(outcome)
	if err != nil {
		c.logger.Warn("cache encode failed", zap.Error(err))
		return
	}
	if err := c.rdb.SetNX(ctx, key, raw, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.Error(err))
	}
}
