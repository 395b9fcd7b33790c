package recent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

const maxTxRetries = 3

// RedisOptions configures the Redis connection.
type RedisOptions struct {
	// URL is the Redis connection string (e.g., "redis://localhost:6379/0")
	URL string
	// TTL expires idle lists. Zero keeps them forever.
	TTL            time.Duration
	ConnectTimeout time.Duration
}

// RedisStore keeps each list as a JSON array under its storage key.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(opts RedisOptions) (*RedisStore, error) {
	if opts.URL == "" {
		opts.URL = "redis://localhost:6379"
	}
	if opts.ConnectTimeout == 0 {
		opts.ConnectTimeout = 5 * time.Second
	}

	redisOpts, err := redis.ParseURL(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	redisOpts.DialTimeout = opts.ConnectTimeout

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), opts.ConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{client: client, ttl: opts.TTL}, nil
}

// List returns the owner's list, empty when none is stored.
func (s *RedisStore) List(ctx context.Context, owner string) ([]Entry, error) {
	return s.read(ctx, s.client, StorageKey(owner))
}

type getter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) read(ctx context.Context, c getter, key string) ([]Entry, error) {
	data, err := c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return []Entry{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read recent list: %w", err)
	}

	var list []Entry
	if err := sonic.Unmarshal(data, &list); err != nil {
		// a corrupt value is treated as empty and overwritten on next push
		return []Entry{}, nil
	}
	return list, nil
}

// Push records e with optimistic locking on the key and returns the new
// list. Concurrent writers retry; the last one wins.
func (s *RedisStore) Push(ctx context.Context, owner string, e Entry) ([]Entry, error) {
	key := StorageKey(owner)
	var next []Entry

	txf := func(tx *redis.Tx) error {
		current, err := s.read(ctx, tx, key)
		if err != nil {
			return err
		}
		next = Push(current, e)

		data, err := sonic.Marshal(next)
		if err != nil {
			return fmt.Errorf("failed to encode recent list: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}

	for i := 0; i < maxTxRetries; i++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, redis.TxFailedErr) {
			return nil, err
		}
	}
	return nil, fmt.Errorf("recent list update conflicted %d times", maxTxRetries)
}

// Clear deletes the owner's list.
func (s *RedisStore) Clear(ctx context.Context, owner string) error {
	if err := s.client.Del(ctx, StorageKey(owner)).Err(); err != nil {
		return fmt.Errorf("failed to clear recent list: %w", err)
	}
	return nil
}

// Ping checks the connection, for health reporting.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
