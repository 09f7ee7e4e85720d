// Package jobs contains implementations of scheduled jobs for Arena Hub.
package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codm-arena/arena-hub/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// REFRESH LEADERBOARD JOB
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardPageCache caches computed leaderboard pages.
type LeaderboardPageCache interface {
	SetPage(ctx context.Context, mode string, limit int, entries []*leaderboard.Entry) error
}

// RefreshLeaderboardJob rebuilds the cached default leaderboard page from
// storage so the common read path stays warm between TTL expiries.
type RefreshLeaderboardJob struct {
	repo   leaderboard.Repository
	cache  LeaderboardPageCache
	limit  int
	logger *slog.Logger
}

// NewRefreshLeaderboardJob creates a new refresh leaderboard job.
func NewRefreshLeaderboardJob(repo leaderboard.Repository, cache LeaderboardPageCache, limit int, logger *slog.Logger) *RefreshLeaderboardJob {
	if logger == nil {
		logger = slog.Default()
	}
	if limit <= 0 {
		limit = 100
	}
	return &RefreshLeaderboardJob{
		repo:   repo,
		cache:  cache,
		limit:  limit,
		logger: logger,
	}
}

// Name returns the job name.
func (j *RefreshLeaderboardJob) Name() string {
	return "refresh_leaderboard"
}

// Run rebuilds and caches the default leaderboard page.
func (j *RefreshLeaderboardJob) Run(ctx context.Context) error {
	records, err := j.repo.TopByRating(ctx, j.limit)
	if err != nil {
		return fmt.Errorf("failed to load stat records: %w", err)
	}
	if len(records) == 0 {
		return nil
	}

	entries, err := leaderboard.Build(records, j.limit)
	if err != nil {
		return fmt.Errorf("failed to build leaderboard: %w", err)
	}

	if err := j.cache.SetPage(ctx, leaderboard.ModeAll.String(), j.limit, entries); err != nil {
		return fmt.Errorf("failed to cache leaderboard page: %w", err)
	}

	j.logger.Debug("leaderboard page refreshed", "entries", len(entries))
	return nil
}
