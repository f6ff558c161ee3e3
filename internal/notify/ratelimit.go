package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/IQTechSolutions/ConectOne-sub011/internal/domain"
)

// RateLimiter throttles outbound deliveries per channel with an atomic Redis
// Lua script. Checking and incrementing in one round trip avoids the GET then
// INCR race when several dispatch workers share the counters.
type RateLimiter struct {
	redis  *redis.Client
	limits map[domain.NotifyChannel]ChannelLimit

	limitScript *redis.Script
}

// ChannelLimit defines delivery limits for one channel.
type ChannelLimit struct {
	PerSecond int
	PerMinute int
	PerDay    int
}

// ChannelLimits holds the default limits. Email tracks the SES sending quota;
// push is bounded by the relay provider.
var ChannelLimits = map[domain.NotifyChannel]ChannelLimit{
	domain.ChannelEmail: {PerSecond: 14, PerMinute: 800, PerDay: 50000},
	domain.ChannelPush:  {PerSecond: 50, PerMinute: 3000, PerDay: 200000},
}

// The script checks every window BEFORE incrementing so a denied call leaves
// the counters untouched, and sets the TTL only on the first increment.
const channelLimitLuaScript = `
local secondKey = KEYS[1]
local minuteKey = KEYS[2]
local dailyKey = KEYS[3]
local increment = tonumber(ARGV[1])
local secondLimit = tonumber(ARGV[2])
local minuteLimit = tonumber(ARGV[3])
local dailyLimit = tonumber(ARGV[4])
local secondTTL = tonumber(ARGV[5])
local minuteTTL = tonumber(ARGV[6])
local dailyTTL = tonumber(ARGV[7])

local secCurrent = tonumber(redis.call("GET", secondKey) or "0")
local minCurrent = tonumber(redis.call("GET", minuteKey) or "0")
local dayCurrent = tonumber(redis.call("GET", dailyKey) or "0")

if secCurrent + increment > secondLimit then
    return {0, 1, secCurrent}
end
if minCurrent + increment > minuteLimit then
    return {0, 2, minCurrent}
end
if dayCurrent + increment > dailyLimit then
    return {0, 3, dayCurrent}
end

local newSec = redis.call("INCRBY", secondKey, increment)
if newSec == increment then
    redis.call("EXPIRE", secondKey, secondTTL)
end

local newMin = redis.call("INCRBY", minuteKey, increment)
if newMin == increment then
    redis.call("EXPIRE", minuteKey, minuteTTL)
end

local newDay = redis.call("INCRBY", dailyKey, increment)
if newDay == increment then
    redis.call("EXPIRE", dailyKey, dailyTTL)
end

return {1, 0, newDay}
`

// NewRateLimiter creates a rate limiter with a pre-compiled Lua script and
// the default channel limits.
func NewRateLimiter(redisClient *redis.Client) *RateLimiter {
	limits := make(map[domain.NotifyChannel]ChannelLimit, len(ChannelLimits))
	for ch, l := range ChannelLimits {
		limits[ch] = l
	}
	return &RateLimiter{
		redis:       redisClient,
		limits:      limits,
		limitScript: redis.NewScript(channelLimitLuaScript),
	}
}

// SetEmailPerSecond caps the email send rate to the SES account quota.
// Call before the dispatch workers start; the limits map is not locked.
func (r *RateLimiter) SetEmailPerSecond(n int) {
	if n <= 0 {
		return
	}
	l := r.limits[domain.ChannelEmail]
	l.PerSecond = n
	r.limits[domain.ChannelEmail] = l
}

// CheckAndIncrement atomically reserves n delivery slots on the channel.
// When denied, waitTime says how long the caller should back off. A spent
// daily budget is an error so workers stop hammering the counters.
func (r *RateLimiter) CheckAndIncrement(ctx context.Context, channel domain.NotifyChannel, n int) (allowed bool, waitTime time.Duration, err error) {
	limits, ok := r.limits[channel]
	if !ok {
		return false, 0, fmt.Errorf("unknown channel: %s", channel)
	}

	now := time.Now()

	secondKey := fmt.Sprintf("ratelimit:%s:sec:%d", channel, now.Unix())
	minuteKey := fmt.Sprintf("ratelimit:%s:min:%d", channel, now.Unix()/60)
	dailyKey := fmt.Sprintf("ratelimit:%s:day:%s", channel, now.Format("2006-01-02"))

	result, err := r.limitScript.Run(ctx, r.redis,
		[]string{secondKey, minuteKey, dailyKey},
		n,
		limits.PerSecond,
		limits.PerMinute,
		limits.PerDay,
		2,     // second TTL
		120,   // minute TTL
		90000, // daily TTL (25 hours)
	).Slice()
	if err != nil {
		return false, 0, fmt.Errorf("rate limit check failed: %w", err)
	}

	allowedInt := result[0].(int64)
	denialReason := result[1].(int64)

	allowed = allowedInt == 1
	if !allowed {
		switch denialReason {
		case 1:
			waitTime = time.Second
		case 2:
			waitTime = time.Duration(60-now.Second()) * time.Second
		case 3:
			return false, 0, fmt.Errorf("daily limit exceeded for %s", channel)
		}
	}
	return allowed, waitTime, nil
}

// Usage returns the current counters and limits for a channel.
func (r *RateLimiter) Usage(ctx context.Context, channel domain.NotifyChannel) (map[string]int64, error) {
	limits, ok := r.limits[channel]
	if !ok {
		return nil, fmt.Errorf("unknown channel: %s", channel)
	}

	now := time.Now()
	secondKey := fmt.Sprintf("ratelimit:%s:sec:%d", channel, now.Unix())
	minuteKey := fmt.Sprintf("ratelimit:%s:min:%d", channel, now.Unix()/60)
	dailyKey := fmt.Sprintf("ratelimit:%s:day:%s", channel, now.Format("2006-01-02"))

	pipe := r.redis.Pipeline()
	secCmd := pipe.Get(ctx, secondKey)
	minCmd := pipe.Get(ctx, minuteKey)
	dayCmd := pipe.Get(ctx, dailyKey)
	pipe.Exec(ctx)

	sec, _ := secCmd.Int64()
	min, _ := minCmd.Int64()
	day, _ := dayCmd.Int64()

	return map[string]int64{
		"second_current": sec,
		"second_limit":   int64(limits.PerSecond),
		"minute_current": min,
		"minute_limit":   int64(limits.PerMinute),
		"daily_current":  day,
		"daily_limit":    int64(limits.PerDay),
	}, nil
}
