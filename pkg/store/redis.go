package store

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// RedisOptions configures the shared Redis connection.
type RedisOptions struct {
	Host       string
	Port       string
	Password   string
	MaxRetries int
	// RetryDelay is the initial backoff interval between connect attempts.
	RetryDelay time.Duration
}

// InitRedisClient connects to Redis, retrying with exponential backoff until
// the configured attempt budget is exhausted.
func InitRedisClient(ctx context.Context, opts RedisOptions) (*redis.Client, error) {
	addr := opts.Host + ":" + opts.Port

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     opts.Password,
		DB:           0, // use default DB
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	attempts := opts.MaxRetries
	if attempts <= 0 {
		attempts = 5
	}

	ping := func() error {
		if _, err := client.Ping(ctx).Result(); err != nil {
			logrus.Warnf("Redis connection to %s failed: %v, retrying...", addr, err)
			return err
		}
		return nil
	}

	b := backoff.NewExponentialBackOff()
	if opts.RetryDelay > 0 {
		b.InitialInterval = opts.RetryDelay
	}
	policy := backoff.WithContext(backoff.WithMaxRetries(b, uint64(attempts-1)), ctx)
	if err := backoff.Retry(ping, policy); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s after %d attempts: %w", addr, attempts, err)
	}

	logrus.Infof("connected to Redis at %s", addr)
	return client, nil
}

// RedisKV implements KV on a Redis client. Dismissals and session markers
// share one client but live under distinct key prefixes.
type RedisKV struct {
	client *redis.Client
}

// NewRedisKV wraps a Redis client as a KV.
func NewRedisKV(client *redis.Client) *RedisKV {
	return &RedisKV{client: client}
}

func (r *RedisKV) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to get %s: %w", key, err)
	}
	return val, true, nil
}

func (r *RedisKV) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := r.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

func (r *RedisKV) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}
	return nil
}
