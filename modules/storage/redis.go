package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisFacility stores entries as plain Redis strings under a key prefix.
type RedisFacility struct {
	client *redis.Client
	prefix string
}

var _ Facility = (*RedisFacility)(nil)

// OpenRedis connects to addr and verifies the connection.
func OpenRedis(ctx context.Context, addr, prefix string) (*RedisFacility, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		PoolSize:     10,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisFacility(client, prefix), nil
}

// NewRedisFacility wraps an existing client.
func NewRedisFacility(client *redis.Client, prefix string) *RedisFacility {
	return &RedisFacility{client: client, prefix: prefix}
}

// Get retrieves a value.
func (f *RedisFacility) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := f.client.Get(ctx, f.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get error: %w", err)
	}
	return val, true, nil
}

// Set stores a value without expiry.
func (f *RedisFacility) Set(ctx context.Context, key, value string) error {
	if err := f.client.Set(ctx, f.prefix+key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set error: %w", err)
	}
	return nil
}

// Remove deletes a key.
func (f *RedisFacility) Remove(ctx context.Context, key string) error {
	if err := f.client.Del(ctx, f.prefix+key).Err(); err != nil {
		return fmt.Errorf("redis delete error: %w", err)
	}
	return nil
}

// ListKeys scans every key under the prefix and returns them without it.
func (f *RedisFacility) ListKeys(ctx context.Context) ([]string, error) {
	keys := []string{}
	var cursor uint64

	for {
		batch, next, err := f.client.Scan(ctx, cursor, f.prefix+"*", 100).Result()
		if err != nil {
			return nil, fmt.Errorf("redis scan error: %w", err)
		}
		for _, k := range batch {
			keys = append(keys, strings.TrimPrefix(k, f.prefix))
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}

	return keys, nil
}

// Ping checks the connection.
func (f *RedisFacility) Ping(ctx context.Context) error {
	return f.client.Ping(ctx).Err()
}

// Close closes the client.
func (f *RedisFacility) Close() error {
	return f.client.Close()
}
