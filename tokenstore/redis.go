package tokenstore

import (
	"context"
	"fmt"
	"time"

	"github.com/jrsteele09/fee-portal/internal/errors"
	"github.com/redis/go-redis/v9"
)

// RedisStorage keeps namespaces in Redis under "<prefix><namespace>:<key>".
// Every write refreshes the key TTL.
type RedisStorage struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisStorage creates a Redis-backed storage. A zero ttl stores keys without expiry.
func NewRedisStorage(client redis.UniversalClient, ttl time.Duration) *RedisStorage {
	return &RedisStorage{
		client: client,
		prefix: "portal:",
		ttl:    ttl,
	}
}

var _ Storage = (*RedisStorage)(nil)

// DialRedis connects and pings, failing fast on a bad address
func DialRedis(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("tokenstore: redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (r *RedisStorage) key(namespace, key string) string {
	return r.prefix + namespace + ":" + key
}

func (r *RedisStorage) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	if namespace == "" {
		return nil, errors.ErrInvalidNamespace
	}
	val, err := r.client.Get(ctx, r.key(namespace, key)).Bytes()
	if err == redis.Nil {
		return nil, errors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("tokenstore: redis get: %w", err)
	}
	return val, nil
}

func (r *RedisStorage) Set(ctx context.Context, namespace, key string, value []byte) error {
	if namespace == "" {
		return errors.ErrInvalidNamespace
	}
	if err := r.client.Set(ctx, r.key(namespace, key), value, r.ttl).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis set: %w", err)
	}
	return nil
}

func (r *RedisStorage) Delete(ctx context.Context, namespace, key string) error {
	if namespace == "" {
		return errors.ErrInvalidNamespace
	}
	if err := r.client.Del(ctx, r.key(namespace, key)).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis del: %w", err)
	}
	return nil
}

func (r *RedisStorage) Clear(ctx context.Context, namespace string) error {
	if namespace == "" {
		return errors.ErrInvalidNamespace
	}

	var keys []string
	iter := r.client.Scan(ctx, 0, r.key(namespace, "*"), 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("tokenstore: redis scan: %w", err)
	}
	if len(keys) == 0 {
		return nil
	}
	if err := r.client.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("tokenstore: redis del: %w", err)
	}
	return nil
}
