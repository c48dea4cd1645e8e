package content

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultCacheTTL = 5 * time.Minute

// CachedCatalog is a read-through Redis cache over another Catalog.
// Question and topic data is immutable, so staleness only matters for
// the TTL window after seeding. Cache failures degrade to the inner
// catalog rather than failing the request.
type CachedCatalog struct {
	inner  Catalog
	client *redis.Client
	ttl    time.Duration
}

// NewCachedCatalog wraps inner with a Redis cache. A zero ttl uses the
// default of 5 minutes.
func NewCachedCatalog(inner Catalog, client *redis.Client, ttl time.Duration) *CachedCatalog {
	if ttl == 0 {
		ttl = defaultCacheTTL
	}
	return &CachedCatalog{inner: inner, client: client, ttl: ttl}
}

func (c *CachedCatalog) QuestionsByTopic(ctx context.Context, topicID int) ([]Question, error) {
	key := fmt.Sprintf("catalog:topic:%d:questions", topicID)

	if data, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var questions []Question
		if err := json.Unmarshal(data, &questions); err == nil {
			return questions, nil
		}
		// Corrupt entry: drop it and refetch.
		c.client.Del(ctx, key)
	} else if err != redis.Nil {
		slog.Warn("catalog cache read failed", "key", key, "error", err)
	}

	questions, err := c.inner.QuestionsByTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(questions); err == nil {
		if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
			slog.Warn("catalog cache write failed", "key", key, "error", err)
		}
	}
	return questions, nil
}

func (c *CachedCatalog) Question(ctx context.Context, id int) (Question, error) {
	return c.inner.Question(ctx, id)
}

func (c *CachedCatalog) Topics(ctx context.Context, stage string) ([]Topic, error) {
	return c.inner.Topics(ctx, stage)
}
