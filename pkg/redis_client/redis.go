package redis_client

import (
	"context"

	"github.com/adjust/rmq/v5"
	"github.com/redis/go-redis/v9"
	"github.com/travigo/pushport/pkg/config"
)

type Connection struct {
	Client *redis.Client
	Queues rmq.Connection
}

// Connect pings the configured Redis and opens an rmq connection on it.
// Background rmq errors are sent to errChan when it is not nil.
func Connect(ctx context.Context, redisConfig config.RedisConfig, errChan chan<- error) (*Connection, error) {
	options := &redis.Options{
		Addr: redisConfig.Address,
		DB:   redisConfig.Database,
	}
	if redisConfig.Password != "" {
		options.Password = redisConfig.Password
	}

	client := redis.NewClient(options)

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, err
	}

	queues, err := rmq.OpenConnectionWithRedisClient("pushport", client, errChan)
	if err != nil {
		return nil, err
	}

	return &Connection{Client: client, Queues: queues}, nil
}
