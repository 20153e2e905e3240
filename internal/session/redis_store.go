// Package session persists the reader's position so a story can resume where it was left.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"storyscroll/internal/domain"
)

// ErrNotFound is returned when no position is stored for a story
var ErrNotFound = errors.New("position not found")

// DefaultPrefix namespaces position keys
const DefaultPrefix = "storyscroll:position:"

// PositionStore saves and restores positions per story
type PositionStore interface {
	SavePosition(ctx context.Context, story string, pos domain.Position) error
	LoadPosition(ctx context.Context, story string) (domain.Position, error)
	Clear(ctx context.Context, story string) error
	Close() error
}

// positionData is the JSON stored per story
type positionData struct {
	Section  int       `json:"section"`
	Pathname string    `json:"pathname"`
	SavedAt  time.Time `json:"saved_at"`
}

// RedisStore implements PositionStore using Redis
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redisURL and verifies the connection
func NewRedisStore(redisURL, prefix string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return NewRedisStoreWithClient(client, prefix, ttl), nil
}

// NewRedisStoreWithClient creates a store from an existing Redis client
func NewRedisStoreWithClient(client *redis.Client, prefix string, ttl time.Duration) *RedisStore {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &RedisStore{client: client, prefix: prefix, ttl: ttl}
}

func (s *RedisStore) key(story string) string {
	return s.prefix + story
}

// SavePosition stores pos for story. A zero TTL keeps it forever.
func (s *RedisStore) SavePosition(ctx context.Context, story string, pos domain.Position) error {
	data, err := json.Marshal(positionData{
		Section:  pos.Section,
		Pathname: pos.Pathname,
		SavedAt:  time.Now(),
	})
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}

	if err := s.client.Set(ctx, s.key(story), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}

// LoadPosition returns the stored position for story, or ErrNotFound
func (s *RedisStore) LoadPosition(ctx context.Context, story string) (domain.Position, error) {
	raw, err := s.client.Get(ctx, s.key(story)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Position{}, ErrNotFound
	}
	if err != nil {
		return domain.Position{}, fmt.Errorf("load position: %w", err)
	}

	var data positionData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return domain.Position{}, fmt.Errorf("unmarshal position: %w", err)
	}
	return domain.Position{Section: data.Section, Pathname: data.Pathname}, nil
}

// Clear deletes the stored position for story
func (s *RedisStore) Clear(ctx context.Context, story string) error {
	if err := s.client.Del(ctx, s.key(story)).Err(); err != nil {
		return fmt.Errorf("clear position: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks if Redis is reachable
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
