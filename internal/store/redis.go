package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	"github.com/redis/go-redis/v9"
	"github.com/rgehrsitz/quotego/internal/domain"
)

const draftKeyPrefix = "quotego:draft:"

// RedisDraftCache keeps unfinished drafts in Redis with an expiry
type RedisDraftCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisDraftCache connects to the Redis server at url
// (redis://[:password@]host:port/db) and checks the connection.
func NewRedisDraftCache(url string, ttl time.Duration) (*RedisDraftCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return NewRedisDraftCacheFromClient(client, ttl), nil
}

// NewRedisDraftCacheFromClient wraps an existing client
func NewRedisDraftCacheFromClient(client *redis.Client, ttl time.Duration) *RedisDraftCache {
	if ttl <= 0 {
		ttl = DefaultDraftTTL
	}
	return &RedisDraftCache{client: client, ttl: ttl}
}

func draftKey(id string) string {
	return draftKeyPrefix + id
}

func (c *RedisDraftCache) SaveDraft(ctx context.Context, draft *domain.QuoteDraft) error {
	data, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("failed to encode draft %s: %w", draft.ID, err)
	}
	if err := c.client.Set(ctx, draftKey(draft.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache draft %s: %w", draft.ID, err)
	}
	return nil
}

func (c *RedisDraftCache) LoadDraft(ctx context.Context, id string) (*domain.QuoteDraft, error) {
	data, err := c.client.Get(ctx, draftKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("draft %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load draft %s: %w", id, err)
	}
	return decodeDraft(id, data)
}

func (c *RedisDraftCache) DeleteDraft(ctx context.Context, id string) error {
	if err := c.client.Del(ctx, draftKey(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete draft %s: %w", id, err)
	}
	return nil
}

// GetClient returns the underlying Redis client
func (c *RedisDraftCache) GetClient() *redis.Client {
	return c.client
}

// Close closes the Redis connection
func (c *RedisDraftCache) Close() error {
	return c.client.Close()
}
