package store

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// redisKeyPrefix namespaces cache keys in a shared Redis.
const redisKeyPrefix = "quality:cache:"

// redisCmd is the subset of redis.Cmdable the cache uses.
type redisCmd interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
}

// RedisOptions configures the Redis response cache.
type RedisOptions struct {
	Address  string `yaml:"address" mapstructure:"address"`
	Password string `yaml:"password" mapstructure:"password"`
	DB       int    `yaml:"db" mapstructure:"db"`
}

// RedisCache implements Cache on Redis. Expiry is native, so
// DeleteExpired has nothing to do.
type RedisCache struct {
	client  redisCmd
	closeFn func() error
}

// NewRedisCache connects to Redis and verifies the connection.
func NewRedisCache(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Address,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close() //nolint:errcheck
		return nil, eris.Wrapf(err, "redis: ping %s", opts.Address)
	}
	return &RedisCache{client: client, closeFn: client.Close}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	v, err := c.client.Get(ctx, redisKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrapf(err, "redis: get %s", key)
	}
	return v, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return eris.Wrapf(c.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err(), "redis: set %s", key)
}

func (c *RedisCache) DeleteExpired(context.Context) (int, error) {
	return 0, nil
}

// Close releases the connection.
func (c *RedisCache) Close() error {
	if c.closeFn == nil {
		return nil
	}
	return c.closeFn()
}
