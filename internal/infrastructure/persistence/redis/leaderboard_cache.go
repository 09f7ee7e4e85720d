package redis

import (
	"context"
	"time"

	"github.com/codm-arena/arena-hub/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache stores computed leaderboard pages as JSON blobs keyed by
// (mode, limit). Ranks are positional and depend on the full ordering, so
// pages are cached whole and invalidated together; no per-player rank is
// ever cached.
type LeaderboardCache struct {
	cache *Cache
	ttl   time.Duration
}

// NewLeaderboardCache creates a LeaderboardCache with the given page TTL.
func NewLeaderboardCache(cache *Cache, ttl time.Duration) *LeaderboardCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &LeaderboardCache{cache: cache, ttl: ttl}
}

// GetPage returns a cached leaderboard page.
// Returns ErrCacheMiss when absent or expired.
func (lc *LeaderboardCache) GetPage(ctx context.Context, mode string, limit int) ([]*leaderboard.Entry, error) {
	var entries []*leaderboard.Entry
	if err := lc.cache.Get(ctx, LeaderboardKey(mode, limit), &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

// SetPage caches a computed leaderboard page.
func (lc *LeaderboardCache) SetPage(ctx context.Context, mode string, limit int, entries []*leaderboard.Entry) error {
	return lc.cache.Set(ctx, LeaderboardKey(mode, limit), entries, lc.ttl)
}

// Invalidate drops every cached leaderboard page. Called after rating
// mutations; the next read repopulates from storage.
func (lc *LeaderboardCache) Invalidate(ctx context.Context) error {
	return lc.cache.DeleteByPattern(ctx, PrefixLeaderboard+"*")
}
