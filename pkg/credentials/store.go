package credentials

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"
)

// DefaultStoreKey is the Redis key holding the credential list.
const DefaultStoreKey = "placement-analyzer:api-keys"

// Store persists an ordered credential list.
type Store interface {
	Load(ctx context.Context) ([]string, error)
	Save(ctx context.Context, keys []string) error
}

// RedisStore keeps the credential list in a Redis list under a fixed key.
type RedisStore struct {
	redis *redis.Client
	key   string
}

// NewRedisStore creates a store on redisClient. An empty key selects DefaultStoreKey.
func NewRedisStore(redisClient *redis.Client, key string) *RedisStore {
	if redisClient == nil {
		panic("redis client cannot be nil")
	}
	if key == "" {
		key = DefaultStoreKey
	}
	return &RedisStore{redis: redisClient, key: key}
}

// Load returns the stored credentials in order. A missing key yields an empty list.
func (s *RedisStore) Load(ctx context.Context) ([]string, error) {
	keys, err := s.redis.LRange(ctx, s.key, 0, -1).Result()
	if err != nil && err != redis.Nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	return keys, nil
}

// Save replaces the stored list atomically. Saving an empty list removes the key.
func (s *RedisStore) Save(ctx context.Context, keys []string) error {
	_, err := s.redis.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.key)
		if len(keys) > 0 {
			values := make([]interface{}, len(keys))
			for i, k := range keys {
				values[i] = k
			}
			pipe.RPush(ctx, s.key, values...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis save credentials: %w", err)
	}
	return nil
}

// MemoryStore is a process-local Store.
type MemoryStore struct {
	mu   sync.Mutex
	keys []string
}

// NewMemoryStore creates a store seeded with keys.
func NewMemoryStore(keys ...string) *MemoryStore {
	return &MemoryStore{keys: append([]string(nil), keys...)}
}

// Load returns a copy of the stored list.
func (s *MemoryStore) Load(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.keys...), nil
}

// Save replaces the stored list.
func (s *MemoryStore) Save(_ context.Context, keys []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append([]string(nil), keys...)
	return nil
}

// Add appends key unless it is blank or already present.
func Add(keys []string, key string) []string {
	key = strings.TrimSpace(key)
	if key == "" {
		return keys
	}
	for _, k := range keys {
		if k == key {
			return keys
		}
	}
	return append(keys, key)
}

// Remove deletes the entry at index. Out-of-range indexes are ignored.
func Remove(keys []string, index int) []string {
	if index < 0 || index >= len(keys) {
		return keys
	}
	out := make([]string, 0, len(keys)-1)
	out = append(out, keys[:index]...)
	return append(out, keys[index+1:]...)
}

// Mask renders a credential for logs and listings.
func Mask(key string) string {
	if len(key) <= 8 {
		return strings.Repeat("*", len(key))
	}
	return key[:4] + strings.Repeat("*", 4) + key[len(key)-4:]
}

// Fingerprint returns a stable short digest identifying key without revealing it.
func Fingerprint(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:6])
}
