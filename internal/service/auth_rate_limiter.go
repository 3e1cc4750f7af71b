package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// AuthRateLimiter throttles credential-sensitive operations per key
// (normalized email). Exceeding the window surfaces as ErrRateLimited,
// which handlers report as 429; nothing is retried automatically.
type AuthRateLimiter interface {
	Allow(key string) bool
}

type authRateLimiter struct {
	mu     sync.Mutex
	window time.Duration
	max    int
	hits   map[string][]time.Time
}

// NewAuthRateLimiter creates an in-memory limiter.
func NewAuthRateLimiter(window time.Duration, max int) AuthRateLimiter {
	if max <= 0 {
		max = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	return &authRateLimiter{
		window: window,
		max:    max,
		hits:   make(map[string][]time.Time),
	}
}

func (l *authRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now().UTC()
	cutoff := now.Add(-l.window)
	entries := l.hits[key]
	kept := entries[:0]
	for _, ts := range entries {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}
	if len(kept) >= l.max {
		l.hits[key] = kept
		return false
	}
	kept = append(kept, now)
	l.hits[key] = kept
	return true
}

const redisAuthAllowScript = `
local current = redis.call("INCR", KEYS[1])
if current == 1 then
  redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return current
`

type redisAuthRateLimiter struct {
	client redisEvaler
	window time.Duration
	max    int
	prefix string
}

type redisEvaler interface {
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

func NewRedisAuthRateLimiter(client *redis.Client, window time.Duration, max int) AuthRateLimiter {
	if client == nil {
		return nil
	}
	if window <= 0 {
		window = time.Minute
	}
	if max <= 0 {
		max = 1
	}
	return &redisAuthRateLimiter{
		client: client,
		window: window,
		max:    max,
		prefix: "auth:rl:",
	}
}

func (l *redisAuthRateLimiter) Allow(key string) bool {
	if l == nil || l.client == nil {
		return true
	}
	normalizedKey := strings.ToLower(strings.TrimSpace(key))
	if normalizedKey == "" {
		return false
	}
	ctx, cancel := storeContext()
	defer cancel()

	redisKey := l.prefix + normalizedKey
	seconds := int(l.window.Seconds())
	if seconds <= 0 {
		seconds = 60
	}

	result, err := l.client.Eval(ctx, redisAuthAllowScript, []string{redisKey}, seconds).Result()
	if err != nil {
		// Limiter errors fail open.
		return true
	}
	current, ok := result.(int64)
	if !ok {
		return true
	}
	return current <= int64(l.max)
}
