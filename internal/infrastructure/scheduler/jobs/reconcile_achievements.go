package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codm-arena/arena-hub/internal/domain/achievement"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECONCILE ACHIEVEMENTS JOB
// ══════════════════════════════════════════════════════════════════════════════

// PlayerLister enumerates every known player.
type PlayerLister interface {
	ListIDs(ctx context.Context) ([]rating.UserID, error)
}

// AchievementChecker evaluates and unlocks pending achievements for a player.
type AchievementChecker interface {
	CheckAndUnlock(ctx context.Context, userID rating.UserID) ([]*achievement.Definition, error)
}

// ReconcileAchievementsJob sweeps every player and unlocks achievements whose
// conditions are met but whose triggering event was missed. Unlocks are
// idempotent, so re-sweeping players that are already up to date is harmless.
type ReconcileAchievementsJob struct {
	players PlayerLister
	checker AchievementChecker
	logger  *slog.Logger
}

// NewReconcileAchievementsJob creates a new reconcile achievements job.
func NewReconcileAchievementsJob(players PlayerLister, checker AchievementChecker, logger *slog.Logger) *ReconcileAchievementsJob {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReconcileAchievementsJob{
		players: players,
		checker: checker,
		logger:  logger,
	}
}

// Name returns the job name.
func (j *ReconcileAchievementsJob) Name() string {
	return "reconcile_achievements"
}

// Run sweeps all players. Per-player failures are logged and counted but do
// not abort the sweep; only a failure to enumerate players does.
func (j *ReconcileAchievementsJob) Run(ctx context.Context) error {
	ids, err := j.players.ListIDs(ctx)
	if err != nil {
		return fmt.Errorf("failed to list players: %w", err)
	}

	var swept, unlocked, failed int
	for _, id := range ids {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		defs, err := j.checker.CheckAndUnlock(ctx, id)
		if err != nil {
			failed++
			j.logger.Warn("achievement sweep failed for player", "user_id", int64(id), "error", err)
			continue
		}

		swept++
		unlocked += len(defs)
	}

	j.logger.Info("achievement sweep completed",
		"players_swept", swept,
		"achievements_unlocked", unlocked,
		"players_failed", failed,
	)
	return nil
}
