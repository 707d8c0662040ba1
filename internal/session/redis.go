package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "voxlit:session:"

// RedisStore shares sessions between API replicas. State is stored as JSON.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// NewRedisStoreFromURL parses a redis:// URL and pings the server.
func NewRedisStoreFromURL(ctx context.Context, rawURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(client, ttl), nil
}

func Key(id string) string {
	return keyPrefix + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (State, bool, error) {
	raw, err := s.client.Get(ctx, Key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("get session %s: %w", id, err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, false, fmt.Errorf("decode session %s: %w", id, err)
	}
	return st, true, nil
}

func (s *RedisStore) Put(ctx context.Context, id string, st State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", id, err)
	}
	if err := s.client.Set(ctx, Key(id), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("put session %s: %w", id, err)
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
