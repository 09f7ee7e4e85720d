// Package query contains the read-side application services: leaderboard
// pages, rating history, and achievement listings.
package query

import (
	"context"
	"errors"
	"fmt"

	"github.com/codm-arena/arena-hub/internal/domain/leaderboard"
	"github.com/codm-arena/arena-hub/internal/infrastructure/persistence/redis"
	"github.com/codm-arena/arena-hub/pkg/circuitbreaker"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

// DefaultLeaderboardLimit is the page size when the caller does not ask for
// a specific one.
const DefaultLeaderboardLimit = 10

// LeaderboardPageCache reads and writes cached leaderboard pages.
type LeaderboardPageCache interface {
	GetPage(ctx context.Context, mode string, limit int) ([]*leaderboard.Entry, error)
	SetPage(ctx context.Context, mode string, limit int, entries []*leaderboard.Entry) error
}

// LeaderboardQuery serves leaderboard pages. Reads go through the cache
// behind a circuit breaker; on a miss, a broken cache, or a disabled cache
// the page is computed from storage, so rankings survive a cache outage at
// the cost of extra load.
type LeaderboardQuery struct {
	repo     leaderboard.Repository
	cache    LeaderboardPageCache
	breaker  *circuitbreaker.CircuitBreaker
	maxLimit int
	log      *logger.Logger
}

// NewLeaderboardQuery creates a LeaderboardQuery. cache may be nil, which
// disables caching entirely.
func NewLeaderboardQuery(repo leaderboard.Repository, cache LeaderboardPageCache, maxLimit int, log *logger.Logger) *LeaderboardQuery {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	if log == nil {
		log = logger.Default()
	}
	return &LeaderboardQuery{
		repo:     repo,
		cache:    cache,
		breaker:  circuitbreaker.CacheBreaker(nil),
		maxLimit: maxLimit,
		log:      log.With(logger.Component("leaderboard")),
	}
}

// Get returns one leaderboard page. A non-positive limit takes the default
// page size; a limit above the cap is clamped, not rejected.
func (q *LeaderboardQuery) Get(ctx context.Context, mode leaderboard.Mode, limit int) ([]*leaderboard.Entry, error) {
	if limit <= 0 {
		limit = DefaultLeaderboardLimit
	}
	if limit > q.maxLimit {
		limit = q.maxLimit
	}

	if entries, ok := q.fromCache(ctx, mode, limit); ok {
		return entries, nil
	}

	records, err := q.repo.TopByRating(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load stat records: %w", err)
	}

	entries, err := leaderboard.Build(records, limit)
	if err != nil {
		return nil, err
	}

	q.storeInCache(ctx, mode, limit, entries)
	return entries, nil
}

// fromCache attempts a cache read through the breaker. Any failure - miss,
// open circuit, connection error - falls back to storage.
func (q *LeaderboardQuery) fromCache(ctx context.Context, mode leaderboard.Mode, limit int) ([]*leaderboard.Entry, bool) {
	if q.cache == nil {
		return nil, false
	}

	// Misses are expected and must not trip the breaker; only real cache
	// failures count against it.
	var entries []*leaderboard.Entry
	err := q.breaker.Execute(ctx, func(ctx context.Context) error {
		page, err := q.cache.GetPage(ctx, mode.String(), limit)
		if err != nil {
			if errors.Is(err, redis.ErrCacheMiss) {
				return nil
			}
			return err
		}
		entries = page
		return nil
	})
	if err != nil {
		if !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
			q.log.Warn("leaderboard cache read failed", logger.Err(err))
		}
		return nil, false
	}
	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

// storeInCache repopulates the cache after a storage read, best-effort.
func (q *LeaderboardQuery) storeInCache(ctx context.Context, mode leaderboard.Mode, limit int, entries []*leaderboard.Entry) {
	if q.cache == nil || len(entries) == 0 {
		return
	}

	err := q.breaker.Execute(ctx, func(ctx context.Context) error {
		return q.cache.SetPage(ctx, mode.String(), limit, entries)
	})
	if err != nil && !errors.Is(err, circuitbreaker.ErrCircuitOpen) {
		q.log.Warn("leaderboard cache write failed", logger.Err(err))
	}
}
