package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Lua scripts keep each key's read-check-write atomic on the Redis side,
// which is what makes the store safe behind multiple processes.
var (
	// incrWindowScript: KEYS[1] counter key; ARGV: n, limit, window_ms.
	// Returns {applied, count, pttl_ms}.
	incrWindowScript = redis.NewScript(`
local count = tonumber(redis.call('GET', KEYS[1]) or '0')
local n = tonumber(ARGV[1])
local limit = tonumber(ARGV[2])
local window = tonumber(ARGV[3])

if count + n > limit then
  return {0, count, redis.call('PTTL', KEYS[1])}
end

count = redis.call('INCRBY', KEYS[1], n)
if count == n then
  redis.call('PEXPIRE', KEYS[1], window)
end
return {1, count, redis.call('PTTL', KEYS[1])}
`)

	// appendLogScript: KEYS[1] zset key; ARGV: now_ms, window_ms, limit, n, seq.
	// Returns {applied, count, oldest_ms}.
	appendLogScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local n = tonumber(ARGV[4])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])

local applied = 0
if count + n <= limit then
  for i = 1, n do
    redis.call('ZADD', KEYS[1], now, ARGV[5] .. ':' .. i)
  end
  redis.call('PEXPIRE', KEYS[1], window)
  count = count + n
  applied = 1
end

local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
local oldest_ms = 0
if oldest[2] then
  oldest_ms = tonumber(oldest[2])
end
return {applied, count, oldest_ms}
`)

	// logStatusScript: KEYS[1] zset key; ARGV: now_ms, window_ms.
	// Returns {count, oldest_ms}.
	logStatusScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])

redis.call('ZREMRANGEBYSCORE', KEYS[1], '-inf', now - window)
local count = redis.call('ZCARD', KEYS[1])

local oldest = redis.call('ZRANGE', KEYS[1], 0, 0, 'WITHSCORES')
local oldest_ms = 0
if oldest[2] then
  oldest_ms = tonumber(oldest[2])
end
return {count, oldest_ms}
`)

	// takeTokensScript: KEYS[1] hash key; ARGV: now_ms, n, capacity,
	// rate_per_sec, consume. Balances travel as millitokens because Lua
	// numbers returned to Redis are truncated to integers.
	// Returns {applied, millitokens}.
	takeTokensScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local n = tonumber(ARGV[2])
local capacity = tonumber(ARGV[3])
local rate = tonumber(ARGV[4])
local consume = tonumber(ARGV[5])

local state = redis.call('HMGET', KEYS[1], 'tokens', 'last_refill')
local tokens = tonumber(state[1]) or capacity
local last_refill = tonumber(state[2]) or now

local elapsed = (now - last_refill) / 1000.0
tokens = math.min(capacity, tokens + elapsed * rate)

local applied = 0
if consume == 1 and tokens >= n then
  tokens = tokens - n
  applied = 1
end

redis.call('HSET', KEYS[1], 'tokens', tokens, 'last_refill', now)
-- Expire once a drained bucket would have fully refilled.
redis.call('PEXPIRE', KEYS[1], math.ceil(capacity / rate * 2000))

return {applied, math.floor(tokens * 1000)}
`)
)

// RedisStore implements Store on a Redis backend so limits hold across
// multiple processes. Counter state lives in plain keys, sliding-window
// logs in sorted sets, and token buckets in hashes; every key carries a
// TTL so stale clients age out of Redis on their own.
type RedisStore struct {
	client redis.UniversalClient
	prefix string
}

// RedisStoreOption configures a RedisStore.
type RedisStoreOption func(*RedisStore)

// WithKeyPrefix overrides the prefix prepended to every Redis key.
func WithKeyPrefix(prefix string) RedisStoreOption {
	return func(rs *RedisStore) {
		if prefix != "" {
			rs.prefix = prefix
		}
	}
}

// NewRedisStore creates a Redis-backed store.
func NewRedisStore(client redis.UniversalClient, opts ...RedisStoreOption) (*RedisStore, error) {
	if client == nil {
		return nil, ErrStoreRequired
	}

	rs := &RedisStore{
		client: client,
		prefix: "ratelimit",
	}

	for _, opt := range opts {
		opt(rs)
	}

	return rs, nil
}

// IncrWindow implements CounterStore.
func (rs *RedisStore) IncrWindow(ctx context.Context, key string, n, limit int, window time.Duration) (bool, int, time.Time, error) {
	res, err := incrWindowScript.Run(ctx, rs.client,
		[]string{rs.key("fw", key)},
		n, limit, window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return false, 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("%w: unexpected script reply", ErrStoreUnavailable)
	}

	resetAt := time.Now().Add(window)
	if res[2] > 0 {
		resetAt = time.Now().Add(time.Duration(res[2]) * time.Millisecond)
	}

	return res[0] == 1, int(res[1]), resetAt, nil
}

// WindowStatus implements CounterStore.
func (rs *RedisStore) WindowStatus(ctx context.Context, key string) (int, time.Time, error) {
	pipe := rs.client.TxPipeline()
	getCmd := pipe.Get(ctx, rs.key("fw", key))
	ttlCmd := pipe.PTTL(ctx, rs.key("fw", key))
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}

	count, err := strconv.Atoi(getCmd.Val())
	if err != nil {
		return 0, time.Time{}, nil
	}

	var resetAt time.Time
	if ttl := ttlCmd.Val(); ttl > 0 {
		resetAt = time.Now().Add(ttl)
	}
	return count, resetAt, nil
}

// DeleteCounter implements CounterStore.
func (rs *RedisStore) DeleteCounter(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.key("fw", key)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// AppendLog implements LogStore.
func (rs *RedisStore) AppendLog(ctx context.Context, key string, now time.Time, window time.Duration, limit, n int) (bool, int, time.Time, error) {
	// Members carry a per-call sequence so n entries with the same score
	// stay distinct in the sorted set.
	seq := strconv.FormatInt(now.UnixNano(), 36)

	res, err := appendLogScript.Run(ctx, rs.client,
		[]string{rs.key("sw", key)},
		now.UnixMilli(), window.Milliseconds(), limit, n, seq,
	).Int64Slice()
	if err != nil {
		return false, 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 3 {
		return false, 0, time.Time{}, fmt.Errorf("%w: unexpected script reply", ErrStoreUnavailable)
	}

	var oldest time.Time
	if res[2] > 0 {
		oldest = time.UnixMilli(res[2])
	}
	return res[0] == 1, int(res[1]), oldest, nil
}

// LogStatus implements LogStore.
func (rs *RedisStore) LogStatus(ctx context.Context, key string, now time.Time, window time.Duration) (int, time.Time, error) {
	res, err := logStatusScript.Run(ctx, rs.client,
		[]string{rs.key("sw", key)},
		now.UnixMilli(), window.Milliseconds(),
	).Int64Slice()
	if err != nil {
		return 0, time.Time{}, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return 0, time.Time{}, fmt.Errorf("%w: unexpected script reply", ErrStoreUnavailable)
	}

	var oldest time.Time
	if res[1] > 0 {
		oldest = time.UnixMilli(res[1])
	}
	return int(res[0]), oldest, nil
}

// DeleteLog implements LogStore.
func (rs *RedisStore) DeleteLog(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.key("sw", key)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

// TakeTokens implements BucketStore.
func (rs *RedisStore) TakeTokens(ctx context.Context, key string, n, capacity int, ratePerSec float64) (bool, float64, error) {
	return rs.runBucket(ctx, key, n, capacity, ratePerSec, true)
}

// BucketStatus implements BucketStore.
func (rs *RedisStore) BucketStatus(ctx context.Context, key string, capacity int, ratePerSec float64) (float64, error) {
	_, tokens, err := rs.runBucket(ctx, key, 0, capacity, ratePerSec, false)
	return tokens, err
}

// DeleteBucket implements BucketStore.
func (rs *RedisStore) DeleteBucket(ctx context.Context, key string) error {
	if err := rs.client.Del(ctx, rs.key("tb", key)).Err(); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (rs *RedisStore) runBucket(ctx context.Context, key string, n, capacity int, ratePerSec float64, consume bool) (bool, float64, error) {
	consumeFlag := 0
	if consume {
		consumeFlag = 1
	}

	res, err := takeTokensScript.Run(ctx, rs.client,
		[]string{rs.key("tb", key)},
		time.Now().UnixMilli(), n, capacity, ratePerSec, consumeFlag,
	).Int64Slice()
	if err != nil {
		return false, 0, errors.Join(ErrStoreUnavailable, err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("%w: unexpected script reply", ErrStoreUnavailable)
	}

	return res[0] == 1, float64(res[1]) / 1000, nil
}

func (rs *RedisStore) key(strategy, key string) string {
	return rs.prefix + ":" + strategy + ":" + key
}
