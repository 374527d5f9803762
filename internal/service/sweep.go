package service

import (
	"context"
	"errors"
	"time"

	"github.com/Skotchmaster/blog_service/internal/logging"
	"github.com/Skotchmaster/blog_service/internal/metrics"
)

type SweepResult struct {
	Tokens         int64
	Revocations    int64
	LimiterEntries int
}

// LimiterPruner is implemented by limiter backends that hold state in process.
type LimiterPruner interface {
	Prune() int
}

// Sweeper purges expired rows from the token store and the revocation
// registry. Validity checks compare against expiry themselves, so a missed
// sweep only costs disk space. Limiter, when set, is pruned of idle counters
// on the same schedule.
type Sweeper struct {
	Tokens      TokenStore
	Revocations RevocationStore
	Limiter     LimiterPruner
	Interval    time.Duration
	Now         func() time.Time
}

func (s *Sweeper) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *Sweeper) RunOnce(ctx context.Context) (SweepResult, error) {
	var res SweepResult
	now := s.now()

	n, tokErr := s.Tokens.PurgeExpiredTokens(ctx, now)
	res.Tokens = n
	metrics.TokensPurgedTotal.WithLabelValues("session_tokens").Add(float64(n))

	m, revErr := s.Revocations.PurgeExpiredRevocations(ctx, now)
	res.Revocations = m
	metrics.TokensPurgedTotal.WithLabelValues("revoked_tokens").Add(float64(m))

	if s.Limiter != nil {
		res.LimiterEntries = s.Limiter.Prune()
	}

	if err := errors.Join(tokErr, revErr); err != nil {
		return res, errors.Join(ErrStoreUnavailable, err)
	}
	return res, nil
}

// Run sweeps every Interval until ctx is done.
func (s *Sweeper) Run(ctx context.Context) {
	l := logging.FromContext(ctx).With("svc", "token_sweeper")

	interval := s.Interval
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := s.RunOnce(ctx)
			if err != nil {
				l.Error("token_sweep_failed", "error", err)
				continue
			}
			l.Info("token_sweep_completed", "tokens", res.Tokens, "revocations", res.Revocations, "limiter_entries", res.LimiterEntries)
		}
	}
}
