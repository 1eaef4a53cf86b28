package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const mirrorKeyPrefix = "ksel:result:"

// RedisMirror keeps a copy of rendered results in Redis so that a restarted
// process still has something to fall back on when the registry is slow.
// It is never consulted for fresh lookups.
type RedisMirror struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisMirror(client *redis.Client, ttl time.Duration) *RedisMirror {
	return &RedisMirror{client: client, ttl: ttl}
}

func MirrorKey(key string) string {
	return mirrorKeyPrefix + key
}

func (m *RedisMirror) Save(ctx context.Context, e Entry) error {
	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal mirror entry: %w", err)
	}
	if err := m.client.Set(ctx, MirrorKey(e.Key), data, m.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", e.Key, err)
	}
	return nil
}

// Load returns (entry, true, nil) on a hit and (zero, false, nil) on a miss.
func (m *RedisMirror) Load(ctx context.Context, key string) (Entry, bool, error) {
	val, err := m.client.Get(ctx, MirrorKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	var e Entry
	if err := json.Unmarshal([]byte(val), &e); err != nil {
		return Entry{}, false, fmt.Errorf("unmarshal mirror entry: %w", err)
	}
	return e, true, nil
}
