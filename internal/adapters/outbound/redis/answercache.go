// Package redis provides a Redis implementation of the AnswerCache port.
//
// Each answer view is stored as JSON under prefix:answer:variant:destination
// with a configurable TTL.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/archon-research/answer-relay/internal/domain/entity"
	"github.com/archon-research/answer-relay/internal/ports/outbound"
)

// Compile-time check that AnswerCache implements outbound.AnswerCache
var _ outbound.AnswerCache = (*AnswerCache)(nil)

// Config holds Redis cache configuration.
type Config struct {
	// Addr is the Redis server address (e.g., "localhost:6379")
	Addr string
	// Password for Redis authentication (empty for no auth)
	Password string
	// DB is the Redis database number (0-15)
	DB int
	// TTL is how long a cached view lives before expiring
	TTL time.Duration
	// KeyPrefix is prepended to all cache keys
	KeyPrefix string
}

// ConfigDefaults returns sensible defaults for Redis cache configuration.
func ConfigDefaults() Config {
	return Config{
		Addr:      "localhost:6379",
		Password:  "",
		DB:        0,
		TTL:       time.Hour,
		KeyPrefix: "relay",
	}
}

// AnswerCache is a Redis implementation of the outbound.AnswerCache port.
type AnswerCache struct {
	client    *redis.Client
	ttl       time.Duration
	keyPrefix string
	logger    *slog.Logger
}

// NewAnswerCache creates a new Redis answer cache.
func NewAnswerCache(cfg Config, logger *slog.Logger) (*AnswerCache, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis address is required")
	}

	defaults := ConfigDefaults()
	if cfg.TTL == 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = defaults.KeyPrefix
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	if logger == nil {
		logger = slog.Default()
	}

	return &AnswerCache{
		client:    client,
		ttl:       cfg.TTL,
		keyPrefix: cfg.KeyPrefix,
		logger:    logger.With("component", "redis-answer-cache"),
	}, nil
}

// Ping checks the Redis connection.
func (c *AnswerCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis connection.
func (c *AnswerCache) Close() error {
	return c.client.Close()
}

func (c *AnswerCache) key(destination, variant string) string {
	return fmt.Sprintf("%s:answer:%s:%s", c.keyPrefix, variant, destination)
}

// SetAnswer caches view, replacing any previous view of the same account.
func (c *AnswerCache) SetAnswer(ctx context.Context, view *entity.AnswerView) error {
	data, err := json.Marshal(view)
	if err != nil {
		return fmt.Errorf("failed to marshal answer view: %w", err)
	}
	key := c.key(view.Destination, view.Variant)
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache answer: %w", err)
	}
	c.logger.Debug("cached answer", "key", key)
	return nil
}

// GetAnswer returns the cached view or outbound.ErrCacheMiss.
func (c *AnswerCache) GetAnswer(ctx context.Context, destination string, variant entity.AnswerVariant) (*entity.AnswerView, error) {
	data, err := c.client.Get(ctx, c.key(destination, variant.String())).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, outbound.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get answer: %w", err)
	}

	var view entity.AnswerView
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answer view: %w", err)
	}
	return &view, nil
}
