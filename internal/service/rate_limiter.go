package service

import (
	"context"
	"fmt"
	"invest_edu_backend/internal/util"
	"invest_edu_backend/pkg/logger"
	"invest_edu_backend/pkg/monitoring"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

type RateDecision struct {
	Allowed   bool
	Remaining int
	ResetIn   time.Duration
}

// RateLimiter is a fixed-window request counter keyed by caller.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (RateDecision, error)
	SetLimits(maxRequests int, window time.Duration)
}

type fixedWindow struct {
	start time.Time
	count int
}

type MemoryRateLimiter struct {
	mu          sync.Mutex
	maxRequests int
	window      time.Duration
	windows     map[string]*fixedWindow
	now         func() time.Time
}

func NewMemoryRateLimiter(maxRequests int, window time.Duration) *MemoryRateLimiter {
	return &MemoryRateLimiter{
		maxRequests: maxRequests,
		window:      window,
		windows:     make(map[string]*fixedWindow),
		now:         time.Now,
	}
}

// WithClock replaces the time source; used by tests.
func (l *MemoryRateLimiter) WithClock(now func() time.Time) *MemoryRateLimiter {
	l.now = now
	return l
}

func (l *MemoryRateLimiter) SetLimits(maxRequests int, window time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxRequests = maxRequests
	l.window = window
}

func (l *MemoryRateLimiter) Allow(_ context.Context, key string) (RateDecision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.windows[key]
	if !ok || !now.Before(w.start.Add(l.window)) {
		w = &fixedWindow{start: now}
		l.windows[key] = w
	}

	resetIn := w.start.Add(l.window).Sub(now)
	if w.count >= l.maxRequests {
		return RateDecision{Allowed: false, Remaining: 0, ResetIn: resetIn}, nil
	}
	w.count++
	return RateDecision{Allowed: true, Remaining: l.maxRequests - w.count, ResetIn: resetIn}, nil
}

// Sweep drops windows that have already expired and returns how many were removed.
func (l *MemoryRateLimiter) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	removed := 0
	for key, w := range l.windows {
		if !now.Before(w.start.Add(l.window)) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// RedisRateLimiter shares windows across instances: INCR per key, expiry set on the first hit.
type RedisRateLimiter struct {
	rdb         *redis.Client
	prefix      string
	mu          sync.RWMutex
	maxRequests int
	window      time.Duration
}

func NewRedisRateLimiter(rdb *redis.Client, maxRequests int, window time.Duration) *RedisRateLimiter {
	return &RedisRateLimiter{
		rdb:         rdb,
		prefix:      "ratelimit:",
		maxRequests: maxRequests,
		window:      window,
	}
}

func (l *RedisRateLimiter) SetLimits(maxRequests int, window time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.maxRequests = maxRequests
	l.window = window
}

func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (RateDecision, error) {
	l.mu.RLock()
	maxRequests, window := l.maxRequests, l.window
	l.mu.RUnlock()

	redisKey := l.prefix + key
	count, err := l.rdb.Incr(ctx, redisKey).Result()
	if err != nil {
		return RateDecision{}, err
	}
	if count == 1 {
		if err := l.rdb.PExpire(ctx, redisKey, window).Err(); err != nil {
			return RateDecision{}, err
		}
	}

	ttl, err := l.rdb.PTTL(ctx, redisKey).Result()
	if err != nil {
		return RateDecision{}, err
	}
	if ttl < 0 {
		// key survived without an expiry; start a fresh window
		if err := l.rdb.PExpire(ctx, redisKey, window).Err(); err != nil {
			return RateDecision{}, err
		}
		ttl = window
	}

	if int(count) > maxRequests {
		return RateDecision{Allowed: false, Remaining: 0, ResetIn: ttl}, nil
	}
	return RateDecision{Allowed: true, Remaining: maxRequests - int(count), ResetIn: ttl}, nil
}

// enforceRateLimit returns a *util.RateLimitedError when the window is exhausted.
// Limiter backend errors fail open and are logged.
func enforceRateLimit(ctx context.Context, limiter RateLimiter, scope string, userID uint) error {
	if limiter == nil {
		return nil
	}
	decision, err := limiter.Allow(ctx, fmt.Sprintf("%s:%d", scope, userID))
	if err != nil {
		logger.Log.Error("rate limiter unavailable, allowing request",
			zap.String("scope", scope),
			zap.Uint("user_id", userID),
			zap.Error(err),
		)
		return nil
	}
	if !decision.Allowed {
		monitoring.RateLimitRejections.WithLabelValues(scope).Inc()
		return &util.RateLimitedError{RetryAfter: decision.ResetIn}
	}
	return nil
}
