// Package redis provides a write-through Redis cache in front of a conversation store.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/dukex/taskflow/pkg/models"
	"github.com/dukex/taskflow/pkg/persistence"
)

const (
	// DefaultTTL bounds how long an untouched conversation stays cached.
	DefaultTTL = time.Hour

	keyPrefix = "taskflow:conversation:"
)

// ConversationCache serves Load from Redis and writes every change through to
// the wrapped repository first. Cache faults are logged and never fail a call.
type ConversationCache struct {
	client goredis.UniversalClient
	inner  persistence.ConversationRepository
	ttl    time.Duration
	logger *slog.Logger
}

// NewConversationCache wraps inner with a Redis cache.
func NewConversationCache(
	logger *slog.Logger,
	client goredis.UniversalClient,
	inner persistence.ConversationRepository,
	ttl time.Duration,
) *ConversationCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}

	return &ConversationCache{
		client: client,
		inner:  inner,
		ttl:    ttl,
		logger: logger.With("module", "conversation_cache"),
	}
}

// Key returns the cache key of a conversation.
func Key(conversationID, userID string) string {
	return keyPrefix + userID + ":" + conversationID
}

// Load returns the cached state, filling the cache from the store on a miss.
func (c *ConversationCache) Load(ctx context.Context, conversationID, userID string) (models.ConversationState, error) {
	key := Key(conversationID, userID)

	raw, err := c.client.Get(ctx, key).Bytes()

	switch {
	case err == nil:
		var state models.ConversationState

		if err := json.Unmarshal(raw, &state); err == nil {
			return state, nil
		}

		c.logger.WarnContext(ctx, "Discarding unreadable cached conversation", "key", key)
	case errors.Is(err, goredis.Nil):
	default:
		c.logger.WarnContext(ctx, "Conversation cache read failed", "key", key, "error", err)
	}

	state, err := c.inner.Load(ctx, conversationID, userID)
	if err != nil {
		return models.ConversationState{}, err
	}

	c.store(ctx, state)

	return state, nil
}

// Save writes to the store, then refreshes the cache.
func (c *ConversationCache) Save(ctx context.Context, state models.ConversationState) error {
	err := c.inner.Save(ctx, state)
	if err != nil {
		return err
	}

	c.store(ctx, state)

	return nil
}

// Reset resets the stored conversation and evicts it.
func (c *ConversationCache) Reset(ctx context.Context, conversationID, userID string) error {
	err := c.inner.Reset(ctx, conversationID, userID)

	c.evict(ctx, Key(conversationID, userID))

	return err
}

// ListStale always asks the store.
func (c *ConversationCache) ListStale(ctx context.Context, before time.Time) ([]models.ConversationState, error) {
	return c.inner.ListStale(ctx, before)
}

func (c *ConversationCache) store(ctx context.Context, state models.ConversationState) {
	key := Key(state.ConversationID, state.UserID)

	data, err := json.Marshal(state)
	if err != nil {
		c.logger.WarnContext(ctx, "Failed to encode conversation for cache", "key", key, "error", err)
		c.evict(ctx, key)

		return
	}

	err = c.client.Set(ctx, key, data, c.ttl).Err()
	if err != nil {
		c.logger.WarnContext(ctx, "Conversation cache write failed", "key", key, "error", err)
		c.evict(ctx, key)
	}
}

func (c *ConversationCache) evict(ctx context.Context, key string) {
	err := c.client.Del(ctx, key).Err()
	if err != nil {
		c.logger.WarnContext(ctx, "Conversation cache eviction failed", "key", key, "error", err)
	}
}

// Persistence decorates a persistence layer so its conversations go through the cache.
type Persistence struct {
	persistence.Persistence

	client        goredis.UniversalClient
	conversations *ConversationCache
}

// WithCache wraps base with a conversation cache backed by client.
func WithCache(logger *slog.Logger, base persistence.Persistence, client goredis.UniversalClient, ttl time.Duration) *Persistence {
	return &Persistence{
		Persistence:   base,
		client:        client,
		conversations: NewConversationCache(logger, client, base.Conversations(), ttl),
	}
}

// Conversations returns the cached conversation repository.
func (p *Persistence) Conversations() persistence.ConversationRepository {
	return p.conversations
}

// HealthCheck checks the wrapped store and Redis.
func (p *Persistence) HealthCheck(ctx context.Context) error {
	err := p.Persistence.HealthCheck(ctx)
	if err != nil {
		return err
	}

	err = p.client.Ping(ctx).Err()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}

	return nil
}

// Close closes Redis and the wrapped store.
func (p *Persistence) Close(ctx context.Context) error {
	return errors.Join(p.client.Close(), p.Persistence.Close(ctx))
}

// NewClient connects to the Redis server at url (redis://[:password@]host:port/db).
func NewClient(ctx context.Context, logger *slog.Logger, url string) (goredis.UniversalClient, error) {
	options, err := goredis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := goredis.NewClient(options)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = client.Ping(pingCtx).Err()
	if err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.InfoContext(ctx, "Connected to Redis", "addr", options.Addr, "db", options.DB)

	return client, nil
}
