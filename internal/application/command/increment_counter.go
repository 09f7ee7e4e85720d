package command

import (
	"context"
	"fmt"
	"time"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
	"github.com/codm-arena/arena-hub/pkg/keymutex"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// INCREMENT COUNTERS
// ══════════════════════════════════════════════════════════════════════════════

// IncrementCountersCommand bumps a player's stat counters without touching
// the rating, e.g. when a tournament registration completes.
type IncrementCountersCommand struct {
	UserID rating.UserID
	Delta  rating.CounterDelta
}

// IncrementCountersHandler applies counter increments and re-checks
// achievements, since counter thresholds are what most achievements watch.
type IncrementCountersHandler struct {
	stats        rating.StatsRepository
	locks        *keymutex.KeyedMutex
	achievements *CheckAchievementsHandler
	lockWait     time.Duration
	log          *logger.Logger
}

// NewIncrementCountersHandler creates an IncrementCountersHandler.
func NewIncrementCountersHandler(
	stats rating.StatsRepository,
	locks *keymutex.KeyedMutex,
	achievements *CheckAchievementsHandler,
	lockWait time.Duration,
	log *logger.Logger,
) *IncrementCountersHandler {
	if lockWait <= 0 {
		lockWait = 3 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}
	return &IncrementCountersHandler{
		stats:        stats,
		locks:        locks,
		achievements: achievements,
		lockWait:     lockWait,
		log:          log.With(logger.Component("counters")),
	}
}

// Execute applies the counter delta. The increment itself runs store-side;
// the lock only fences it against concurrent match application for the same
// player. A zero delta is a no-op.
func (h *IncrementCountersHandler) Execute(ctx context.Context, cmd IncrementCountersCommand) error {
	if !cmd.UserID.IsValid() {
		return shared.NewDomainError("rating", "IncrementCounters", shared.ErrInvalidID, "user id must be positive")
	}
	if cmd.Delta.IsZero() {
		return nil
	}
	if cmd.Delta.MatchesPlayed < 0 || cmd.Delta.MatchesWon < 0 ||
		cmd.Delta.TournamentsPlayed < 0 || cmd.Delta.TournamentsWon < 0 {
		return shared.NewDomainError("rating", "IncrementCounters", shared.ErrNegativeValue, "counter deltas cannot be negative")
	}

	lockCtx, cancel := context.WithTimeout(ctx, h.lockWait)
	defer cancel()

	release, err := h.locks.Lock(lockCtx, int64(cmd.UserID))
	if err != nil {
		return err
	}

	err = h.stats.IncrementCounters(ctx, cmd.UserID, cmd.Delta)
	release()
	if err != nil {
		return fmt.Errorf("failed to increment counters: %w", err)
	}

	if h.achievements != nil {
		if _, err := h.achievements.CheckAndUnlock(ctx, cmd.UserID); err != nil {
			h.log.Warn("achievement check failed", logger.UserID(int64(cmd.UserID)), logger.Err(err))
		}
	}

	return nil
}
