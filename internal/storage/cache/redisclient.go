package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// setIfGeneration writes KEYS[1] only while KEYS[2] still holds ARGV[3].
// A missing generation key reads as "0".
var setIfGeneration = redis.NewScript(`
local gen = redis.call('GET', KEYS[2]) or '0'
if gen ~= ARGV[3] then
	return 0
end
if tonumber(ARGV[2]) > 0 then
	redis.call('SET', KEYS[1], ARGV[1], 'PX', ARGV[2])
else
	redis.call('SET', KEYS[1], ARGV[1])
end
return 1
`)

// RedisClient implements CacheClient on go-redis. Values are JSON encoded.
type RedisClient struct {
	rdb *redis.Client
}

func NewRedisClient(addr, password string, db int) (*RedisClient, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return &RedisClient{rdb: rdb}, nil
}

// Get decodes the value at key into dest. A missing key returns redis.Nil.
func (c *RedisClient) Get(ctx context.Context, key string, dest interface{}) error {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}

func (c *RedisClient) Generation(ctx context.Context, genKey string) (int64, error) {
	gen, err := c.rdb.Get(ctx, genKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (c *RedisClient) SetIfGeneration(ctx context.Context, key string, value interface{}, ttl time.Duration, genKey string, gen int64) (bool, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return false, err
	}
	stored, err := setIfGeneration.Run(ctx, c.rdb, []string{key, genKey}, encoded, ttl.Milliseconds(), gen).Int()
	if err != nil {
		return false, fmt.Errorf("conditional set of %s: %w", key, err)
	}
	return stored == 1, nil
}

// Bump increments genKey and deletes keys in a single MULTI/EXEC.
func (c *RedisClient) Bump(ctx context.Context, genKey string, keys ...string) error {
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		if len(keys) > 0 {
			pipe.Del(ctx, keys...)
		}
		return nil
	})
	return err
}

func (c *RedisClient) Close() error {
	return c.rdb.Close()
}
