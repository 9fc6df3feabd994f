package drafts

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/goliatone/go-capsulo/internal/content"
)

const defaultRedisPrefix = "capsulo:draft:"

// RedisStore keeps drafts as JSON strings in Redis. A positive TTL expires
// drafts that were abandoned.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	*broadcaster
}

var (
	_ Store  = (*RedisStore)(nil)
	_ Lister = (*RedisStore)(nil)
)

// RedisOption customizes a RedisStore.
type RedisOption func(*RedisStore)

// WithRedisPrefix sets the key prefix.
func WithRedisPrefix(prefix string) RedisOption {
	return func(s *RedisStore) {
		if strings.TrimSpace(prefix) != "" {
			s.prefix = prefix
		}
	}
}

// WithRedisTTL sets the draft expiry. Zero keeps drafts forever.
func WithRedisTTL(ttl time.Duration) RedisOption {
	return func(s *RedisStore) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// NewRedisStore connects to url and checks the connection.
func NewRedisStore(ctx context.Context, url string, opts ...RedisOption) (*RedisStore, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("drafts: parse redis url: %w", err)
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("drafts: connect redis: %w", err)
	}
	return NewRedisStoreWithClient(client, opts...), nil
}

// NewRedisStoreWithClient wraps an existing client.
func NewRedisStoreWithClient(client *redis.Client, opts ...RedisOption) *RedisStore {
	s := &RedisStore{client: client, prefix: defaultRedisPrefix, broadcaster: newBroadcaster()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Close releases the client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Get(ctx context.Context, key string) (*content.Document, error) {
	key, err := normalizeKey(key)
	if err != nil {
		return nil, err
	}
	raw, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("drafts: load %s: %w", key, err)
	}
	return decode(key, raw)
}

func (s *RedisStore) Set(ctx context.Context, key string, doc *content.Document) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	raw, err := encode(doc)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.prefix+key, raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("drafts: persist %s: %w", key, err)
	}
	s.publish(key, ActionSet)
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	key, err := normalizeKey(key)
	if err != nil {
		return err
	}
	removed, err := s.client.Del(ctx, s.prefix+key).Result()
	if err != nil {
		return fmt.Errorf("drafts: delete %s: %w", key, err)
	}
	if removed > 0 {
		s.publish(key, ActionDelete)
	}
	return nil
}

func (s *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, strings.TrimPrefix(iter.Val(), s.prefix))
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	slices.Sort(keys)
	return keys, nil
}
