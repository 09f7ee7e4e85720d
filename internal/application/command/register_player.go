package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REGISTER PLAYER
// ══════════════════════════════════════════════════════════════════════════════

// RegisterPlayerCommand enrolls a user in the rating system.
type RegisterPlayerCommand struct {
	UserID   rating.UserID
	Username string
}

// RegisterPlayerHandler creates the stat record for a new player and runs
// the first achievement check, which unlocks the creation-scoped
// achievements (account age, early adopter).
type RegisterPlayerHandler struct {
	stats        rating.StatsRepository
	achievements *CheckAchievementsHandler
	log          *logger.Logger
}

// NewRegisterPlayerHandler creates a RegisterPlayerHandler.
func NewRegisterPlayerHandler(
	stats rating.StatsRepository,
	achievements *CheckAchievementsHandler,
	log *logger.Logger,
) *RegisterPlayerHandler {
	if log == nil {
		log = logger.Default()
	}
	return &RegisterPlayerHandler{
		stats:        stats,
		achievements: achievements,
		log:          log.With(logger.Component("register_player")),
	}
}

// Execute creates the stat record. Registering a player twice is not an
// error; the existing record is left untouched and achievements are still
// re-checked, keeping the operation safe to retry.
func (h *RegisterPlayerHandler) Execute(ctx context.Context, cmd RegisterPlayerCommand) (*rating.PlayerStats, error) {
	stats, err := rating.NewPlayerStats(cmd.UserID, cmd.Username)
	if err != nil {
		return nil, err
	}

	if err := h.stats.Create(ctx, stats); err != nil {
		if !errors.Is(err, shared.ErrAlreadyExists) {
			return nil, fmt.Errorf("failed to create stat record: %w", err)
		}
		stats, err = h.stats.GetByID(ctx, cmd.UserID)
		if err != nil {
			return nil, fmt.Errorf("failed to load existing stat record: %w", err)
		}
	} else {
		h.log.Info("player registered",
			logger.UserID(int64(cmd.UserID)),
			logger.String("username", cmd.Username),
		)
	}

	if h.achievements != nil {
		if _, err := h.achievements.CheckAndUnlock(ctx, cmd.UserID); err != nil {
			h.log.Warn("achievement check failed", logger.UserID(int64(cmd.UserID)), logger.Err(err))
		}
	}

	return stats, nil
}
