// Package cache keeps the event listings in Redis in front of the store.
// Single-event reads go straight to the store; every successful mutation
// bumps a generation counter so earlier listings are never served again.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"ms-calendar/internal/logger"
	"ms-calendar/internal/models"
)

const (
	DefaultTTL    = 30 * time.Second
	generationKey = "calendar:events:gen"
)

// Store is the subset of the event store the cache wraps.
type Store interface {
	ListAll(ctx context.Context) ([]models.Event, error)
	ListByPriority(ctx context.Context, priority int) ([]models.Event, error)
	GetByID(ctx context.Context, id int64) (*models.Event, error)
	Insert(ctx context.Context, in models.EventInput) (*models.Event, error)
	UpdateByID(ctx context.Context, id int64, in models.EventInput) (*models.Event, error)
	DeleteByID(ctx context.Context, id int64) (*models.Event, error)
	Ping(ctx context.Context) error
}

type CachedStore struct {
	Store  Store
	Client *redis.Client
	TTL    time.Duration
	Logger *logger.Logger
}

func NewCachedStore(store Store, client *redis.Client, ttl time.Duration, log *logger.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &CachedStore{Store: store, Client: client, TTL: ttl, Logger: log}
}

// Connect opens a client and checks it answers.
func Connect(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: 10,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return client, nil
}

func (c *CachedStore) ListAll(ctx context.Context) ([]models.Event, error) {
	return c.cached(ctx, "all", func() ([]models.Event, error) {
		return c.Store.ListAll(ctx)
	})
}

func (c *CachedStore) ListByPriority(ctx context.Context, priority int) ([]models.Event, error) {
	return c.cached(ctx, fmt.Sprintf("priority:%d", priority), func() ([]models.Event, error) {
		return c.Store.ListByPriority(ctx, priority)
	})
}

func (c *CachedStore) GetByID(ctx context.Context, id int64) (*models.Event, error) {
	return c.Store.GetByID(ctx, id)
}

func (c *CachedStore) Insert(ctx context.Context, in models.EventInput) (*models.Event, error) {
	ev, err := c.Store.Insert(ctx, in)
	if err == nil {
		c.invalidate(ctx)
	}
	return ev, err
}

func (c *CachedStore) UpdateByID(ctx context.Context, id int64, in models.EventInput) (*models.Event, error) {
	ev, err := c.Store.UpdateByID(ctx, id, in)
	if err == nil {
		c.invalidate(ctx)
	}
	return ev, err
}

func (c *CachedStore) DeleteByID(ctx context.Context, id int64) (*models.Event, error) {
	ev, err := c.Store.DeleteByID(ctx, id)
	if err == nil {
		c.invalidate(ctx)
	}
	return ev, err
}

// Ping reports the store's health only; a Redis outage degrades to uncached reads.
func (c *CachedStore) Ping(ctx context.Context) error {
	return c.Store.Ping(ctx)
}

// cached serves name from Redis when present. Redis failures are logged and
// fall through to load.
func (c *CachedStore) cached(ctx context.Context, name string, load func() ([]models.Event, error)) ([]models.Event, error) {
	gen, err := c.Client.Get(ctx, generationKey).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to read generation: %v", err))
		return load()
	}
	key := fmt.Sprintf("calendar:events:%d:%s", gen, name)

	if raw, err := c.Client.Get(ctx, key).Bytes(); err == nil {
		var events []models.Event
		if err := json.Unmarshal(raw, &events); err == nil {
			c.Logger.Debug("CACHE", fmt.Sprintf("hit %s", key))
			return events, nil
		}
		c.Logger.Warn("CACHE", fmt.Sprintf("Discarding corrupt entry %s", key))
	} else if !errors.Is(err, redis.Nil) {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to read %s: %v", key, err))
	}

	events, err := load()
	if err != nil {
		return nil, err
	}

	if raw, err := json.Marshal(events); err == nil {
		if err := c.Client.Set(ctx, key, raw, c.TTL).Err(); err != nil {
			c.Logger.Warn("CACHE", fmt.Sprintf("Failed to store %s: %v", key, err))
		}
	}
	return events, nil
}

func (c *CachedStore) invalidate(ctx context.Context) {
	if err := c.Client.Incr(ctx, generationKey).Err(); err != nil {
		c.Logger.Warn("CACHE", fmt.Sprintf("Failed to invalidate listings: %v", err))
	}
}
