package redisqueue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// slidingWindowScript trims expired entries, counts survivors, and — if
// still under limit — admits the new request by adding a scored member.
// KEYS[1] = sorted-set key
// ARGV[1] = now (ms)
// ARGV[2] = window (ms)
// ARGV[3] = limit
// ARGV[4] = member (unique per request: "<now>-<nonce>")
// Returns {count_before_insert, oldest_surviving_score_or_0}.
var slidingWindowScript = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])
local member = ARGV[4]

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)
local count = redis.call('ZCARD', key)

local oldest = 0
local entries = redis.call('ZRANGE', key, 0, 0, 'WITHSCORES')
if #entries == 2 then
	oldest = tonumber(entries[2])
end

if count < limit then
	redis.call('ZADD', key, now, member)
	redis.call('PEXPIRE', key, window + 60000)
end

return {count, oldest}
`)

// fixedWindowScript increments the bucket counter and (re)sets its TTL in
// a single round trip.
// KEYS[1] = bucket key
// ARGV[1] = window (ms)
var fixedWindowScript = redis.NewScript(`
local key = KEYS[1]
local window = tonumber(ARGV[1])
local value = redis.call('INCR', key)
redis.call('PEXPIRE', key, window)
return value
`)

// SlidingWindow runs the sliding-window admission check as a single
// scripted round trip so the read, trim, and insert stay atomic.
func (s *Store) SlidingWindow(ctx context.Context, key string, now, windowMs, limit int64) (int64, int64, error) {
	member := fmt.Sprintf("%d-%s", now, nonce())
	res, err := slidingWindowScript.Run(ctx, s.client, []string{s.key(key)}, now, windowMs, limit, member).Slice()
	if err != nil {
		return 0, 0, fmt.Errorf("redisqueue: sliding window script: %w", err)
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("redisqueue: sliding window script: unexpected result shape")
	}
	count, _ := res[0].(int64)
	oldest, _ := res[1].(int64)
	return count, oldest, nil
}

// FixedWindowIncr runs the fixed-window increment as a single scripted
// round trip.
func (s *Store) FixedWindowIncr(ctx context.Context, key string, windowMs int64) (int64, error) {
	res, err := fixedWindowScript.Run(ctx, s.client, []string{s.key(key)}, windowMs).Int64()
	if err != nil {
		return 0, fmt.Errorf("redisqueue: fixed window script: %w", err)
	}
	return res, nil
}
