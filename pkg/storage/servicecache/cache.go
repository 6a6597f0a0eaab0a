// Package servicecache remembers which services a store has already
// written, so repeated train status messages skip the service upsert.
package servicecache

import (
	"context"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	redisstore "github.com/eko/gocache/store/redis/v4"
	"github.com/redis/go-redis/v9"
)

const defaultExpiration = 36 * time.Hour

type Cache struct {
	cache *cache.Cache[string]
}

// New stores entries in Redis. Services run for at most a day, so entries
// expire after expiration (36h when zero).
func New(client *redis.Client, expiration time.Duration) *Cache {
	if expiration == 0 {
		expiration = defaultExpiration
	}

	redisStore := redisstore.NewRedis(client, store.WithExpiration(expiration))

	return &Cache{cache: cache.New[string](redisStore)}
}

func key(rid string) string {
	return fmt.Sprintf("pushport:service:%s", rid)
}

// Seen reports whether the service has been marked. A nil cache has seen
// nothing.
func (c *Cache) Seen(ctx context.Context, rid string) bool {
	if c == nil {
		return false
	}

	value, err := c.cache.Get(ctx, key(rid))
	return err == nil && value != ""
}

func (c *Cache) Mark(ctx context.Context, rid string, uid string) error {
	if c == nil {
		return nil
	}

	return c.cache.Set(ctx, key(rid), uid)
}
