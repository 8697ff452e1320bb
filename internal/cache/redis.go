package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/BranchCode/FlowPilot/internal/models"
	backend "github.com/redis/go-redis/v9"
)

// DefaultTTL is how long cached states and replies live.
const DefaultTTL = 24 * time.Hour

// RedisCache implements Cache using Redis.
type RedisCache struct {
	client *backend.Client
	prefix string
	ttl    time.Duration
}

// Option configures the Redis cache.
type Option func(*RedisCache)

// WithTTL sets the expiration for cached entries.
func WithTTL(ttl time.Duration) Option {
	return func(c *RedisCache) { c.ttl = ttl }
}

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(c *RedisCache) { c.prefix = prefix }
}

// New creates a Redis cache connected to the given address.
func New(address, password string, db int, opts ...Option) *RedisCache {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a Redis cache from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *RedisCache {
	c := &RedisCache{
		client: client,
		prefix: "flowpilot:",
		ttl:    DefaultTTL,
	}
	for _, opt := range opts {
		opt(c)
	}
	slog.Debug("cache.NewFromClient: Redis cache created", "prefix", c.prefix, "ttl", c.ttl)
	return c
}

func (c *RedisCache) stateKey(sessionID string) string {
	return c.prefix + "state:" + sessionID
}

func (c *RedisCache) replyKey(sessionID, prompt string) string {
	sum := sha256.Sum256([]byte(prompt))
	return c.prefix + "cache:" + sessionID + ":" + hex.EncodeToString(sum[:])
}

// GetState implements Cache.
func (c *RedisCache) GetState(ctx context.Context, sessionID string) (*models.TurnState, error) {
	data, err := c.client.Get(ctx, c.stateKey(sessionID)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached state: %w", err)
	}
	var state models.TurnState
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached state: %w", err)
	}
	slog.Debug("RedisCache.GetState: cache hit", "sessionID", sessionID)
	return &state, nil
}

// SetState implements Cache.
func (c *RedisCache) SetState(ctx context.Context, sessionID string, state models.TurnState) error {
	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	if err := c.client.Set(ctx, c.stateKey(sessionID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache state: %w", err)
	}
	return nil
}

// GetReply implements Cache.
func (c *RedisCache) GetReply(ctx context.Context, sessionID, prompt string) (*models.WorkflowReply, error) {
	data, err := c.client.Get(ctx, c.replyKey(sessionID, prompt)).Bytes()
	if errors.Is(err, backend.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cached reply: %w", err)
	}
	var reply models.WorkflowReply
	if err := json.Unmarshal(data, &reply); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached reply: %w", err)
	}
	slog.Debug("RedisCache.GetReply: cache hit", "sessionID", sessionID)
	return &reply, nil
}

// SetReply implements Cache.
func (c *RedisCache) SetReply(ctx context.Context, sessionID, prompt string, reply models.WorkflowReply) error {
	data, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal reply: %w", err)
	}
	if err := c.client.Set(ctx, c.replyKey(sessionID, prompt), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache reply: %w", err)
	}
	return nil
}
