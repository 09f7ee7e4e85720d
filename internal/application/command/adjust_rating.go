package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
	"github.com/codm-arena/arena-hub/pkg/keymutex"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADJUST RATING
// ══════════════════════════════════════════════════════════════════════════════

// AdjustRatingCommand sets a player's rating to an explicit value, outside
// the ELO math. Administrative use only.
type AdjustRatingCommand struct {
	UserID    rating.UserID
	NewRating int

	// RelatedID optionally references the support ticket or incident that
	// motivated the adjustment.
	RelatedID string
}

// AdjustRatingHandler applies manual rating adjustments. The adjustment
// still goes through the per-user lock and still writes a ledger row, so
// manual changes are just as traceable as match results.
type AdjustRatingHandler struct {
	stats     rating.StatsRepository
	locks     *keymutex.KeyedMutex
	cache     LeaderboardInvalidator
	publisher shared.EventPublisher
	lockWait  time.Duration
	log       *logger.Logger
}

// NewAdjustRatingHandler creates an AdjustRatingHandler.
func NewAdjustRatingHandler(
	stats rating.StatsRepository,
	locks *keymutex.KeyedMutex,
	cache LeaderboardInvalidator,
	publisher shared.EventPublisher,
	lockWait time.Duration,
	log *logger.Logger,
) *AdjustRatingHandler {
	if lockWait <= 0 {
		lockWait = 3 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}
	return &AdjustRatingHandler{
		stats:     stats,
		locks:     locks,
		cache:     cache,
		publisher: publisher,
		lockWait:  lockWait,
		log:       log.With(logger.Component("adjust_rating")),
	}
}

// Execute sets the player's rating and appends the manual-adjustment ledger
// row. Returns the recorded transition.
func (h *AdjustRatingHandler) Execute(ctx context.Context, cmd AdjustRatingCommand) (*rating.Transition, error) {
	if !cmd.UserID.IsValid() {
		return nil, shared.NewDomainError("rating", "AdjustRating", shared.ErrInvalidID, "user id must be positive")
	}
	if cmd.NewRating < 0 {
		return nil, shared.NewDomainError("rating", "AdjustRating", shared.ErrNegativeValue, "rating cannot be negative")
	}

	lockCtx, cancel := context.WithTimeout(ctx, h.lockWait)
	defer cancel()

	release, err := h.locks.Lock(lockCtx, int64(cmd.UserID))
	if err != nil {
		return nil, err
	}
	defer release()

	stats, err := h.stats.GetByID(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load player stats: %w", err)
	}

	transition, err := rating.NewTransition(
		uuid.NewString(), cmd.UserID,
		stats.Rating, cmd.NewRating,
		rating.ReasonManualAdjustment, cmd.RelatedID,
	)
	if err != nil {
		return nil, err
	}

	if err := h.stats.AdjustRating(ctx, transition); err != nil {
		return nil, fmt.Errorf("failed to adjust rating: %w", err)
	}

	h.log.Info("rating adjusted",
		logger.UserID(int64(cmd.UserID)),
		logger.Rating(cmd.NewRating),
		logger.RatingDelta(transition.Delta),
	)

	if h.publisher != nil {
		event := shared.RatingChangedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventRatingAdjusted, cmd.UserID.String()),
			UserID:    int64(cmd.UserID),
			OldRating: transition.OldRating,
			NewRating: transition.NewRating,
			Delta:     transition.Delta,
			Reason:    rating.ReasonManualAdjustment.String(),
		}
		if err := h.publisher.Publish(event); err != nil {
			h.log.Warn("failed to publish rating adjustment", logger.UserID(event.UserID), logger.Err(err))
		}
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.log.Warn("leaderboard invalidation failed", logger.Err(err))
		}
	}

	return transition, nil
}
