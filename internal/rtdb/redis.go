package rtdb

import (
	"context"
	"encoding/json"
	"strings"

	"immigration-case-portal/backend/pkg/config"

	"github.com/redis/go-redis/v9"
)

// RedisClient implements Client on top of Redis. Every leaf value is a
// JSON string stored under "<prefix>:<path>"; parent reads are served by
// a prefix scan. There is no cross-key atomicity, which matches the
// consistency the rest of the system expects from this store.
type RedisClient struct {
	rdb    *redis.Client
	prefix string
}

// NewRedisClient creates a store client from application configuration
func NewRedisClient() *RedisClient {
	cfg := config.Get()
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.ExternalStore.Addr,
		Password: cfg.ExternalStore.Password,
		DB:       cfg.ExternalStore.DB,
	})
	return &RedisClient{rdb: rdb, prefix: cfg.ExternalStore.KeyPrefix}
}

// NewRedisClientWith wraps an existing redis client, mainly for tests
// against a local instance
func NewRedisClientWith(rdb *redis.Client, prefix string) *RedisClient {
	return &RedisClient{rdb: rdb, prefix: prefix}
}

func (c *RedisClient) key(path string) string {
	return c.prefix + ":" + normalizePath(path)
}

// Get reads a leaf value, or assembles children when path is a parent
func (c *RedisClient) Get(ctx context.Context, path string) (Snapshot, error) {
	path = normalizePath(path)

	val, err := c.rdb.Get(ctx, c.key(path)).Result()
	if err == nil {
		return NewSnapshot(json.RawMessage(val)), nil
	}
	if err != redis.Nil {
		return Snapshot{}, err
	}

	// Not a leaf; collect children by prefix scan.
	childPrefix := c.key(path) + "/"
	var keys []string
	iter := c.rdb.Scan(ctx, 0, childPrefix+"*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return Snapshot{}, err
	}
	if len(keys) == 0 {
		return Snapshot{}, nil
	}

	values, err := c.rdb.MGet(ctx, keys...).Result()
	if err != nil {
		return Snapshot{}, err
	}

	children := make(map[string]json.RawMessage, len(keys))
	for i, k := range keys {
		s, ok := values[i].(string)
		if !ok {
			// Deleted between scan and fetch
			continue
		}
		rel := strings.TrimPrefix(k, childPrefix)
		children[rel] = json.RawMessage(s)
	}

	raw, err := assemble(children)
	if err != nil {
		return Snapshot{}, err
	}
	return NewSnapshot(raw), nil
}

// Set writes a leaf value
func (c *RedisClient) Set(ctx context.Context, path string, value any) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, c.key(path), string(data), 0).Err()
}

// Update merges fields into the leaf object at path
func (c *RedisClient) Update(ctx context.Context, path string, fields map[string]any) error {
	key := c.key(path)

	existing, err := c.rdb.Get(ctx, key).Result()
	if err != nil && err != redis.Nil {
		return err
	}

	merged, err := mergeLeaf(json.RawMessage(existing), fields)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, key, string(merged), 0).Err()
}

// Delete removes the leaf at path and all of its children
func (c *RedisClient) Delete(ctx context.Context, path string) error {
	path = normalizePath(path)

	keys := []string{c.key(path)}
	iter := c.rdb.Scan(ctx, 0, c.key(path)+"/*", 0).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// Ping verifies connectivity
func (c *RedisClient) Ping(ctx context.Context) error {
	return c.rdb.Ping(ctx).Err()
}
