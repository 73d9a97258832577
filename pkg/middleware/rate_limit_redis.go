package middleware

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"eatme/pkg/logger"

	"github.com/redis/go-redis/v9"
)

const rateLimitKeyPrefix = "eatme:ratelimit:"

// tokenBucketScript keeps {tokens, refilled_ms} per caller. One token comes back every
// interval_ms up to capacity. Returns {allowed, tokens_left, retry_after_ms}.
var tokenBucketScript = redis.NewScript(`
local key = KEYS[1]
local now_ms = tonumber(ARGV[1])
local capacity = tonumber(ARGV[2])
local interval_ms = tonumber(ARGV[3])
local ttl_ms = tonumber(ARGV[4])

local state = redis.call('HMGET', key, 'tokens', 'refilled_ms')
local tokens = tonumber(state[1])
local refilled = tonumber(state[2])
if tokens == nil or refilled == nil then
	tokens = capacity
	refilled = now_ms
end

local elapsed = math.max(0, now_ms - refilled)
local earned = math.floor(elapsed / interval_ms)
if earned > 0 then
	tokens = math.min(capacity, tokens + earned)
	refilled = refilled + earned * interval_ms
end

local allowed = 0
local retry_ms = 0
if tokens > 0 then
	allowed = 1
	tokens = tokens - 1
else
	retry_ms = math.max(0, interval_ms - (now_ms - refilled))
end

redis.call('HSET', key, 'tokens', tokens, 'refilled_ms', refilled)
redis.call('PEXPIRE', key, ttl_ms)
return {allowed, tokens, retry_ms}
`)

// RedisRateLimiter is a token bucket shared by every instance through Redis. limit
// requests may burst, then one more is allowed every window/limit. Redis errors let
// the request through.
type RedisRateLimiter struct {
	client   redis.Scripter
	limit    int
	window   time.Duration
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger
}

func NewRedisRateLimiter(client redis.Scripter, limit int, window time.Duration, log *logger.Logger) *RedisRateLimiter {
	interval := window / time.Duration(max(limit, 1))
	if interval < time.Millisecond {
		interval = time.Millisecond
	}
	return &RedisRateLimiter{
		client:   client,
		limit:    limit,
		window:   window,
		interval: interval,
		now:      time.Now,
		log:      log,
	}
}

func (rl *RedisRateLimiter) Allow(ctx context.Context, key string) (bool, time.Duration) {
	if key == "" {
		return true, 0
	}

	vals, err := tokenBucketScript.Run(ctx, rl.client, []string{rateLimitKeyPrefix + key},
		rl.now().UnixMilli(),
		rl.limit,
		rl.interval.Milliseconds(),
		rl.window.Milliseconds(),
	).Slice()
	if err != nil {
		rl.log.Warn("Rate limit check failed, allowing request", "caller", key, "error", err)
		return true, 0
	}
	if len(vals) != 3 {
		rl.log.Warn("Unexpected rate limit script result", "caller", key, "result", fmt.Sprint(vals))
		return true, 0
	}

	if toInt64(vals[0]) == 1 {
		return true, 0
	}
	return false, time.Duration(toInt64(vals[2])) * time.Millisecond
}

// Stop is a no-op; the bucket state lives in Redis.
func (rl *RedisRateLimiter) Stop() {}

func toInt64(v any) int64 {
	switch n := v.(type) {
	case int64:
		return n
	case int:
		return int64(n)
	case string:
		i, _ := strconv.ParseInt(n, 10, 64)
		return i
	}
	return 0
}
