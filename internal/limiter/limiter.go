// Package limiter tracks consecutive failed logins per username and locks
// an account out once the failures reach a threshold.
package limiter

import (
	"context"
	"time"
)

const (
	DefaultMaxAttempts     = 5
	DefaultLockoutDuration = 10 * time.Minute
)

// idle failure counters are dropped after this long without a new failure
const counterTTL = 24 * time.Hour

type Config struct {
	MaxAttempts     int
	LockoutDuration time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = DefaultMaxAttempts
	}
	if c.LockoutDuration <= 0 {
		c.LockoutDuration = DefaultLockoutDuration
	}
	return c
}

type Status struct {
	Locked    bool
	Remaining time.Duration
}

// MinutesRemaining is the whole minutes left plus one, so the final
// seconds of a lockout still report 1.
func (s Status) MinutesRemaining() int {
	if !s.Locked {
		return 0
	}
	return int(s.Remaining.Milliseconds()/60000) + 1
}

type Limiter interface {
	// BeforeAttempt reports whether username is currently locked out.
	BeforeAttempt(ctx context.Context, username string) (Status, error)
	// RecordFailure counts a failed attempt and reports Locked when it triggered a lockout.
	RecordFailure(ctx context.Context, username string) (Status, error)
	// RecordSuccess clears both the counter and any lockout.
	RecordSuccess(ctx context.Context, username string) error
}
