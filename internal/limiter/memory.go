package limiter

import (
	"context"
	"sync"
	"time"
)

type state struct {
	attempts     int
	lockoutUntil int64 // unix nanoseconds, 0 when not locked
	lastFailure  int64 // unix nanoseconds
}

// stale reports whether s carries nothing that affects the next attempt.
func (s state) stale(now int64) bool {
	if s.lockoutUntil > now {
		return false
	}
	return s.attempts == 0 || s.lastFailure+int64(counterTTL) <= now
}

// Memory is a process-local Limiter. Counters are lost on restart.
type Memory struct {
	cfg      Config
	now      func() time.Time
	counters sync.Map // string -> state
}

func NewMemory(cfg Config) *Memory {
	return &Memory{cfg: cfg.withDefaults(), now: time.Now}
}

// NewMemoryWithClock is NewMemory with an injectable clock.
func NewMemoryWithClock(cfg Config, now func() time.Time) *Memory {
	return &Memory{cfg: cfg.withDefaults(), now: now}
}

func (m *Memory) BeforeAttempt(_ context.Context, username string) (Status, error) {
	v, ok := m.counters.Load(username)
	if !ok {
		return Status{}, nil
	}
	s := v.(state)
	now := m.now().UnixNano()
	if s.lockoutUntil > now {
		return Status{Locked: true, Remaining: time.Duration(s.lockoutUntil - now)}, nil
	}
	if s.stale(now) {
		m.counters.CompareAndDelete(username, s)
	}
	return Status{}, nil
}

func (m *Memory) RecordFailure(_ context.Context, username string) (Status, error) {
	for {
		now := m.now().UnixNano()
		cur, _ := m.counters.LoadOrStore(username, state{})
		old := cur.(state)

		next := old
		if next.stale(now) {
			next = state{}
		}
		next.attempts++
		next.lastFailure = now

		st := Status{}
		if next.attempts >= m.cfg.MaxAttempts {
			next.attempts = 0
			next.lockoutUntil = now + int64(m.cfg.LockoutDuration)
			st = Status{Locked: true, Remaining: m.cfg.LockoutDuration}
		}

		if m.counters.CompareAndSwap(username, old, next) {
			return st, nil
		}
	}
}

func (m *Memory) RecordSuccess(_ context.Context, username string) error {
	m.counters.Delete(username)
	return nil
}

// Prune drops every entry that is neither locked nor holding a recent
// failure, and returns how many were removed.
func (m *Memory) Prune() int {
	now := m.now().UnixNano()
	removed := 0
	m.counters.Range(func(k, v any) bool {
		if v.(state).stale(now) && m.counters.CompareAndDelete(k, v) {
			removed++
		}
		return true
	})
	return removed
}

func (m *Memory) size() int {
	n := 0
	m.counters.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}
