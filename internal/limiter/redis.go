package limiter

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrRedisUnavailable = errors.New("limiter redis unavailable")

var recordFailureLua = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local max = tonumber(ARGV[2])
local lockout = tonumber(ARGV[3])
local idle = tonumber(ARGV[4])

local lockedUntil = tonumber(redis.call('HGET', key, 'lockout_until') or '0')
if lockedUntil > 0 and lockedUntil <= now then
  redis.call('HSET', key, 'lockout_until', 0)
end

local attempts = redis.call('HINCRBY', key, 'attempts', 1)
if attempts >= max then
  redis.call('HSET', key, 'attempts', 0, 'lockout_until', now + lockout)
  redis.call('PEXPIRE', key, math.max(lockout, idle))
  return 1
end
redis.call('PEXPIRE', key, idle)
return 0
`)

// Redis is a Limiter shared by every process pointed at the same Redis.
type Redis struct {
	redis  redis.UniversalClient
	cfg    Config
	prefix string
	now    func() time.Time
}

func NewRedis(client redis.UniversalClient, cfg Config) *Redis {
	return &Redis{redis: client, cfg: cfg.withDefaults(), prefix: "bl:login:", now: time.Now}
}

func (l *Redis) key(username string) string {
	return l.prefix + username
}

func (l *Redis) BeforeAttempt(ctx context.Context, username string) (Status, error) {
	v, err := l.redis.HGet(ctx, l.key(username), "lockout_until").Int64()
	if errors.Is(err, redis.Nil) {
		return Status{}, nil
	}
	if err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	now := l.now().UnixMilli()
	if v > now {
		return Status{Locked: true, Remaining: time.Duration(v-now) * time.Millisecond}, nil
	}
	return Status{}, nil
}

func (l *Redis) RecordFailure(ctx context.Context, username string) (Status, error) {
	locked, err := recordFailureLua.Run(ctx, l.redis, []string{l.key(username)},
		l.now().UnixMilli(),
		l.cfg.MaxAttempts,
		l.cfg.LockoutDuration.Milliseconds(),
		counterTTL.Milliseconds(),
	).Int()
	if err != nil {
		return Status{}, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if locked == 1 {
		return Status{Locked: true, Remaining: l.cfg.LockoutDuration}, nil
	}
	return Status{}, nil
}

func (l *Redis) RecordSuccess(ctx context.Context, username string) error {
	if err := l.redis.Del(ctx, l.key(username)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}
