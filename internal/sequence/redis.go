package sequence

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "nameplate:seq:"

// Redis allocates counter values with INCR so multiple directory instances
// share one gap-free sequence per counter.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Next(ctx context.Context, counter string) (uint64, error) {
	n, err := r.client.Incr(ctx, keyPrefix+counter).Result()
	if err != nil {
		return 0, fmt.Errorf("incr counter %s: %w", counter, err)
	}
	// INCR yields 1 on first use; shift into the post-reserved range.
	return Reserved + uint64(n) - 1, nil
}

func (r *Redis) Current(ctx context.Context, counter string) (uint64, error) {
	n, err := r.client.Get(ctx, keyPrefix+counter).Uint64()
	if err != nil {
		if err == redis.Nil {
			return Reserved, nil
		}
		return 0, fmt.Errorf("get counter %s: %w", counter, err)
	}
	return Reserved + n, nil
}
