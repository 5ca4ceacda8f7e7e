package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type Config struct {
	Addr     string
	Password string
	DB       int
}

type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg *Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisClient{Client: client}, nil
}

func NewFromClient(client *redis.Client) *RedisClient {
	return &RedisClient{Client: client}
}

func (r *RedisClient) Close() error {
	return r.Client.Close()
}

// GetJSON decodes the value at key into dst. A miss returns false with no error.
func (r *RedisClient) GetJSON(ctx context.Context, key string, dst any) (bool, error) {
	val, err := r.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (r *RedisClient) SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return r.Client.Set(ctx, key, data, ttl).Err()
}

// Generation returns the current version counter of a key namespace.
// Cache keys embed it so a single INCR invalidates the whole namespace.
func (r *RedisClient) Generation(ctx context.Context, namespace string) (int64, error) {
	gen, err := r.Client.Get(ctx, namespace+":gen").Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

func (r *RedisClient) BumpGeneration(ctx context.Context, namespace string) error {
	return r.Client.Incr(ctx, namespace+":gen").Err()
}

// Reserve claims key for ttl. It returns false when the key is already held.
func (r *RedisClient) Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	return r.Client.SetNX(ctx, key, 1, ttl).Result()
}

func (r *RedisClient) Release(ctx context.Context, key string) error {
	return r.Client.Del(ctx, key).Err()
}
