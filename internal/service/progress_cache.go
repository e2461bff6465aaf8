package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"invest_edu_backend/pkg/logger"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// ProgressCache holds each user's completed-lesson id set. The store stays authoritative;
// entries are filled on read and deleted on every progress write.
//
// Every Invalidate bumps the user's generation. A reader takes Generation before querying
// the store and passes it to Set, which drops the fill if a write happened in between.
type ProgressCache interface {
	Get(ctx context.Context, userID uint) ([]string, bool)
	Generation(ctx context.Context, userID uint) int64
	Set(ctx context.Context, userID uint, generation int64, lessonIDs []string)
	Invalidate(ctx context.Context, userID uint)
}

type cachedSet struct {
	ids       []string
	expiresAt time.Time
}

type MemoryProgressCache struct {
	mu          sync.RWMutex
	ttl         time.Duration
	entries     map[uint]cachedSet
	generations map[uint]int64
	now         func() time.Time
}

func NewMemoryProgressCache(ttl time.Duration) *MemoryProgressCache {
	return &MemoryProgressCache{
		ttl:         ttl,
		entries:     make(map[uint]cachedSet),
		generations: make(map[uint]int64),
		now:         time.Now,
	}
}

func (c *MemoryProgressCache) WithClock(now func() time.Time) *MemoryProgressCache {
	c.now = now
	return c
}

func (c *MemoryProgressCache) Get(_ context.Context, userID uint) ([]string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[userID]
	if !ok || !c.now().Before(e.expiresAt) {
		return nil, false
	}
	out := make([]string, len(e.ids))
	copy(out, e.ids)
	return out, true
}

func (c *MemoryProgressCache) Generation(_ context.Context, userID uint) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generations[userID]
}

func (c *MemoryProgressCache) Set(_ context.Context, userID uint, generation int64, lessonIDs []string) {
	ids := make([]string, len(lessonIDs))
	copy(ids, lessonIDs)
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generations[userID] != generation {
		return
	}
	c.entries[userID] = cachedSet{ids: ids, expiresAt: c.now().Add(c.ttl)}
}

func (c *MemoryProgressCache) Invalidate(_ context.Context, userID uint) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[userID]++
	delete(c.entries, userID)
}

// Sweep removes expired entries and returns how many were dropped.
func (c *MemoryProgressCache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	removed := 0
	for id, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// generationTTL outlives any in-flight read, so an expired counter cannot resurrect
// a generation a slow reader still holds.
const generationTTL = 24 * time.Hour

type RedisProgressCache struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisProgressCache(rdb *redis.Client, ttl time.Duration) *RedisProgressCache {
	return &RedisProgressCache{rdb: rdb, ttl: ttl}
}

func progressCacheKey(userID uint) string {
	return fmt.Sprintf("progress:completed:%d", userID)
}

func progressGenerationKey(userID uint) string {
	return fmt.Sprintf("progress:generation:%d", userID)
}

// Redis failures degrade to a cache miss; the caller reads the store instead.
func (c *RedisProgressCache) Get(ctx context.Context, userID uint) ([]string, bool) {
	data, err := c.rdb.Get(ctx, progressCacheKey(userID)).Bytes()
	if err != nil {
		return nil, false
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, false
	}
	return ids, true
}

func (c *RedisProgressCache) Generation(ctx context.Context, userID uint) int64 {
	gen, err := c.rdb.Get(ctx, progressGenerationKey(userID)).Int64()
	if err != nil {
		return 0
	}
	return gen
}

// Set writes under WATCH on the generation key so a concurrent Invalidate aborts the fill.
func (c *RedisProgressCache) Set(ctx context.Context, userID uint, generation int64, lessonIDs []string) {
	data, err := json.Marshal(lessonIDs)
	if err != nil {
		return
	}
	genKey := progressGenerationKey(userID)
	err = c.rdb.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, progressCacheKey(userID), data, c.ttl)
			return nil
		})
		return err
	}, genKey)
	if err != nil && !errors.Is(err, redis.TxFailedErr) {
		logger.Log.Warn("progress cache fill failed", zap.Uint("user_id", userID), zap.Error(err))
	}
}

func (c *RedisProgressCache) Invalidate(ctx context.Context, userID uint) {
	genKey := progressGenerationKey(userID)
	_, err := c.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, genKey)
		pipe.Expire(ctx, genKey, generationTTL)
		pipe.Del(ctx, progressCacheKey(userID))
		return nil
	})
	if err != nil {
		logger.Log.Warn("progress cache invalidation failed, entry may be stale until TTL",
			zap.Uint("user_id", userID),
			zap.Duration("ttl", c.ttl),
			zap.Error(err),
		)
	}
}

// NoopProgressCache always misses.
type NoopProgressCache struct{}

func (NoopProgressCache) Get(context.Context, uint) ([]string, bool) { return nil, false }
func (NoopProgressCache) Generation(context.Context, uint) int64      { return 0 }
func (NoopProgressCache) Set(context.Context, uint, int64, []string) {}
func (NoopProgressCache) Invalidate(context.Context, uint)           {}
