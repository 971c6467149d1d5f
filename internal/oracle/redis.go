package oracle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vanallenlab/almanac/internal/category"
)

const redisKeyPrefix = "almanac:exists:"

// RedisCache keeps oracle answers in redis for a TTL so repeated searches
// across processes skip the knowledgebase. The cache is best effort: redis
// failures are logged and the lookup falls through to the inner oracle.
// Inner oracle errors are returned as-is and never cached.
type RedisCache struct {
	inner  Oracle
	fold   Folding
	client redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

// NewRedisCache wraps inner. A nil logger uses slog.Default.
func NewRedisCache(inner Oracle, client redis.Cmdable, ttl time.Duration, logger *slog.Logger) *RedisCache {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisCache{
		inner:  inner,
		fold:   FoldingOf(inner),
		client: client,
		ttl:    ttl,
		logger: logger.With("component", "oracle-cache"),
	}
}

// Exists implements Oracle.
func (r *RedisCache) Exists(ctx context.Context, c category.Category, candidate string) (bool, error) {
	return r.cached(ctx, r.key(c.String(), candidate), func() (bool, error) {
		return r.inner.Exists(ctx, c, candidate)
	})
}

// ExistsAttributeName implements Oracle.
func (r *RedisCache) ExistsAttributeName(ctx context.Context, candidate string) (bool, error) {
	return r.cached(ctx, r.key("attribute-name", candidate), func() (bool, error) {
		return r.inner.ExistsAttributeName(ctx, candidate)
	})
}

func (r *RedisCache) cached(ctx context.Context, key string, fetch func() (bool, error)) (bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		return val == "1", nil
	case errors.Is(err, redis.Nil):
	default:
		r.logger.Warn("cache get failed", "key", key, "error", err)
	}

	ok, err := fetch()
	if err != nil {
		return false, err
	}

	stored := "0"
	if ok {
		stored = "1"
	}
	if err := r.client.Set(ctx, key, stored, r.ttl).Err(); err != nil {
		r.logger.Warn("cache set failed", "key", key, "error", err)
	}
	return ok, nil
}

// Folding implements Folder.
func (r *RedisCache) Folding() Folding {
	return r.fold
}

func (r *RedisCache) key(kind, candidate string) string {
	return fmt.Sprintf("%s%s:%s", redisKeyPrefix, kind, r.fold.Key(candidate))
}
