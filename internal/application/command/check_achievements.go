package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/codm-arena/arena-hub/internal/domain/achievement"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// CheckAchievementsHandler evaluates the full catalog against one player's
// current stats and unlocks whatever is newly earned. The operation is
// idempotent: duplicate unlocks are absorbed by the storage-level uniqueness
// of (user, achievement), so it is safe as an event trigger, a periodic
// sweep, and a manual re-check all at once.
type CheckAchievementsHandler struct {
	stats     rating.StatsRepository
	catalog   achievement.CatalogRepository
	unlocks   achievement.UnlockRepository
	evaluator *achievement.Evaluator
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewCheckAchievementsHandler creates a CheckAchievementsHandler.
// publisher may be nil, in which case no unlock events are emitted.
func NewCheckAchievementsHandler(
	stats rating.StatsRepository,
	catalog achievement.CatalogRepository,
	unlocks achievement.UnlockRepository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *CheckAchievementsHandler {
	if log == nil {
		log = logger.Default()
	}
	return &CheckAchievementsHandler{
		stats:     stats,
		catalog:   catalog,
		unlocks:   unlocks,
		evaluator: achievement.NewEvaluator(),
		publisher: publisher,
		log:       log.With(logger.Component("achievements")),
	}
}

// CheckAndUnlock evaluates and unlocks all newly earned achievements for a
// player, returning the definitions unlocked by this call. A player without
// a stat record yields no unlocks and no error; the trigger may simply have
// raced record creation.
func (h *CheckAchievementsHandler) CheckAndUnlock(ctx context.Context, userID rating.UserID) ([]*achievement.Definition, error) {
	if !userID.IsValid() {
		return nil, shared.NewDomainError("achievement", "CheckAndUnlock", shared.ErrInvalidID, "user id must be positive")
	}

	stats, err := h.stats.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, shared.ErrPlayerNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load player stats: %w", err)
	}

	catalog, err := h.catalog.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement catalog: %w", err)
	}

	unlockedIDs, err := h.unlocks.ListUnlockedIDs(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unlocked achievements: %w", err)
	}

	var unlocked []*achievement.Definition
	for _, def := range h.evaluator.Eligible(catalog, unlockedIDs, stats) {
		inserted, err := h.unlockOne(ctx, userID, def)
		if err != nil {
			return unlocked, err
		}
		if inserted {
			unlocked = append(unlocked, def)
		}
	}

	return unlocked, nil
}

// unlockOne records a single unlock and emits the unlock event when the
// insert actually happened (a concurrent evaluation may have won the race).
func (h *CheckAchievementsHandler) unlockOne(ctx context.Context, userID rating.UserID, def *achievement.Definition) (bool, error) {
	unlock, err := achievement.NewUnlock(userID, def.ID)
	if err != nil {
		return false, err
	}

	inserted, err := h.unlocks.InsertIfAbsent(ctx, unlock, def.Points)
	if err != nil {
		return false, fmt.Errorf("failed to unlock achievement %d: %w", def.ID, err)
	}
	if !inserted {
		return false, nil
	}

	h.log.Info("achievement unlocked",
		logger.UserID(int64(userID)),
		logger.AchievementID(def.ID),
		logger.String("achievement", def.Name),
		logger.Points(def.Points),
	)

	if h.publisher != nil {
		event := shared.AchievementUnlockedEvent{
			BaseEvent:     shared.NewBaseEvent(shared.EventAchievementUnlocked, userID.String()),
			UserID:        int64(userID),
			AchievementID: def.ID,
			Name:          def.Name,
			Points:        def.Points,
		}
		if err := h.publisher.Publish(event); err != nil {
			h.log.Warn("failed to publish achievement unlock", logger.UserID(int64(userID)), logger.Err(err))
		}
	}

	return true, nil
}
