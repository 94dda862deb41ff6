// Package cache fronts the article store with a Redis key/value layer.
// Staleness up to each key's TTL is accepted by design; a cache outage
// degrades to store queries and is never a correctness failure, so all
// errors here are logged and swallowed.
package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-pkgz/lgr"
	"github.com/redis/go-redis/v9"

	"github.com/kaitech/newspulse/pkg/domain"
)

// TTLs per query shape, chosen by staleness tolerance
const (
	TTLBreaking       = 60 * time.Second
	TTLCategory       = 5 * time.Minute
	TTLTrending       = 2 * time.Minute
	TTLAnalytics      = 5 * time.Minute
	TTLTrendingTopics = 15 * time.Minute
	TTLDailyInsights  = 24 * time.Hour
)

// breakingListKey is the capped most-recent-20 list backing realtime
// notification history
const (
	breakingListKey = "breaking-news-alerts"
	breakingListCap = 20
)

// Cache is a thin JSON layer over a Redis client
type Cache struct {
	client *redis.Client
}

// New connects to Redis using a redis:// URL
func New(url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Cache{client: redis.NewClient(opts)}, nil
}

// Close releases the client connection
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ping verifies the Redis connection
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Get loads the cached JSON value into dest, reporting whether there was a
// hit. Transport errors count as misses.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) bool {
	data, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err != redis.Nil {
			lgr.Printf("[WARN] cache get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		lgr.Printf("[WARN] cache decode %s: %v", key, err)
		return false
	}
	return true
}

// Set stores a JSON value under the key with the given TTL
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	data, err := json.Marshal(value)
	if err != nil {
		lgr.Printf("[WARN] cache encode %s: %v", key, err)
		return
	}
	if err := c.client.Set(ctx, key, data, ttl).Err(); err != nil {
		lgr.Printf("[WARN] cache set %s: %v", key, err)
	}
}

// PushBreaking prepends breaking articles to the alert history, trimming it
// to the most recent entries
func (c *Cache) PushBreaking(ctx context.Context, articles []domain.Article) {
	if len(articles) == 0 {
		return
	}

	pipe := c.client.Pipeline()
	for _, a := range articles {
		data, err := json.Marshal(a)
		if err != nil {
			lgr.Printf("[WARN] encode breaking article %s: %v", a.URL, err)
			continue
		}
		pipe.LPush(ctx, breakingListKey, data)
	}
	pipe.LTrim(ctx, breakingListKey, 0, breakingListCap-1)

	if _, err := pipe.Exec(ctx); err != nil {
		lgr.Printf("[WARN] push breaking alerts: %v", err)
	}
}

// RecentBreaking returns the capped alert history, newest first
func (c *Cache) RecentBreaking(ctx context.Context) []domain.Article {
	values, err := c.client.LRange(ctx, breakingListKey, 0, breakingListCap-1).Result()
	if err != nil {
		if err != redis.Nil {
			lgr.Printf("[WARN] read breaking alerts: %v", err)
		}
		return nil
	}

	articles := make([]domain.Article, 0, len(values))
	for _, v := range values {
		var a domain.Article
		if err := json.Unmarshal([]byte(v), &a); err != nil {
			lgr.Printf("[WARN] decode breaking alert: %v", err)
			continue
		}
		articles = append(articles, a)
	}
	return articles
}
