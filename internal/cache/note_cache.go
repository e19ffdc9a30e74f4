// Package cache provides the Redis-backed note cache used by the
// cache-aside store. Entries are JSON snapshots of committed note rows
// keyed by a resource-kind prefix plus the note id, so a shared Redis
// instance never confuses note 7 with some other entity 7. Each entry
// expires on its own TTL; there is no cross-key coordination.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/notes-keeper/internal/config"
	"github.com/iliyamo/notes-keeper/internal/repository"
)

// NoteCache is the surface the cache-aside store talks to. Get reports a
// miss with found=false and a nil error; errors mean the cache itself is
// unhealthy and callers should fall through to the database.
type NoteCache interface {
	Get(ctx context.Context, id uint64) (*repository.Note, bool, error)
	Set(ctx context.Context, n *repository.Note) error
	Delete(ctx context.Context, id uint64) error
}

type redisNoteCache struct {
	rdb    *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisNoteCache builds a NoteCache over the given client. It returns
// nil when caching is disabled or no client is available; the store treats
// a nil cache as "always miss, never populate".
func NewRedisNoteCache(cfg config.CacheConfig, rdb *redis.Client) NoteCache {
	if !cfg.Enabled || rdb == nil {
		return nil
	}
	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &redisNoteCache{rdb: rdb, prefix: cfg.Prefix, ttl: ttl}
}

func (c *redisNoteCache) key(id uint64) string {
	return fmt.Sprintf("%s:%d", c.prefix, id)
}

func (c *redisNoteCache) Get(ctx context.Context, id uint64) (*repository.Note, bool, error) {
	bs, err := c.rdb.Get(ctx, c.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var n repository.Note
	if err := json.Unmarshal(bs, &n); err != nil {
		// A corrupt entry is as good as a miss; drop it so the next write
		// replaces it cleanly.
		_ = c.rdb.Del(ctx, c.key(id)).Err()
		return nil, false, nil
	}
	return &n, true, nil
}

func (c *redisNoteCache) Set(ctx context.Context, n *repository.Note) error {
	bs, err := json.Marshal(n)
	if err != nil {
		return err
	}
	return c.rdb.SetEx(ctx, c.key(n.ID), bs, c.ttl).Err()
}

func (c *redisNoteCache) Delete(ctx context.Context, id uint64) error {
	return c.rdb.Del(ctx, c.key(id)).Err()
}
