package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "booksvc:seq:"

// Redis keeps counters in Redis and relies on INCR for atomicity.
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Next(ctx context.Context, name string) (int64, error) {
	id, err := r.client.Incr(ctx, redisKeyPrefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("sequence %s: %w", name, err)
	}
	return id, nil
}

// Ping reports whether the Redis server is reachable.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
