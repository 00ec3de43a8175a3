package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nutriscan-ai/platform/pkg/common/logger"
	"github.com/nutriscan-ai/platform/pkg/common/models"
	"github.com/redis/go-redis/v9"
)

// ResultCache keeps recent prediction results in Redis, keyed by the
// profile fingerprint. The pipeline is fully deterministic, so a cached
// result is indistinguishable from a recomputed one. Cache unavailability is
// never fatal; every failure degrades to a recompute.
type ResultCache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

func NewResultCache(client *redis.Client, prefix string, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, prefix: prefix, ttl: ttl}
}

func (c *ResultCache) key(fingerprint string) string {
	return fmt.Sprintf("%s:%s", c.prefix, fingerprint)
}

// Get returns the cached result for a profile fingerprint, if present.
func (c *ResultCache) Get(ctx context.Context, fingerprint string) (*models.PredictionResult, bool) {
	data, err := c.client.Get(ctx, c.key(fingerprint)).Bytes()
	if err != nil {
		if err != redis.Nil {
			logger.Log.WithError(err).Warn("result cache read failed")
		}
		return nil, false
	}
	var result models.PredictionResult
	if err := json.Unmarshal(data, &result); err != nil {
		logger.Log.WithError(err).Warn("result cache entry corrupt, dropping")
		c.client.Del(ctx, c.key(fingerprint))
		return nil, false
	}
	return &result, true
}

// Put stores a result under the profile fingerprint with the configured TTL.
func (c *ResultCache) Put(ctx context.Context, fingerprint string, result *models.PredictionResult) {
	data, err := json.Marshal(result)
	if err != nil {
		logger.Log.WithError(err).Warn("result cache marshal failed")
		return
	}
	if err := c.client.Set(ctx, c.key(fingerprint), data, c.ttl).Err(); err != nil {
		logger.Log.WithError(err).Warn("result cache write failed")
	}
}
