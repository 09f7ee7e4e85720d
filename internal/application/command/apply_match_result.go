// Package command contains the write-side application services of the
// gamification core: applying match results, adjusting ratings, bumping
// counters, and unlocking achievements.
package command

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
	"github.com/codm-arena/arena-hub/pkg/keymutex"
	"github.com/codm-arena/arena-hub/pkg/logger"
	"github.com/codm-arena/arena-hub/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// APPLY MATCH RESULT
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardInvalidator drops cached leaderboard pages after rating writes.
type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context) error
}

// ApplyMatchResultCommand carries one decided match outcome.
type ApplyMatchResultCommand struct {
	WinnerID   rating.UserID
	LoserID    rating.UserID
	Tournament bool
	RelatedID  string
}

// MatchResultHandler applies match outcomes to both participants: new
// ratings, counter increments, and ledger rows committed atomically, then
// achievement checks and cache invalidation as follow-up effects.
//
// The per-user lock pair guarantees no two matches mutate the same player's
// stats concurrently; lock waits that exceed the configured budget surface
// as conflicts and are retried with backoff.
type MatchResultHandler struct {
	stats        rating.StatsRepository
	locks        *keymutex.KeyedMutex
	retrier      *retry.Retrier
	achievements *CheckAchievementsHandler
	cache        LeaderboardInvalidator
	publisher    shared.EventPublisher
	lockWait     time.Duration
	log          *logger.Logger
}

// NewMatchResultHandler creates a MatchResultHandler.
// achievements, cache, and publisher may be nil; the corresponding follow-up
// effect is then skipped. Non-positive lockWait and retries take defaults.
func NewMatchResultHandler(
	stats rating.StatsRepository,
	locks *keymutex.KeyedMutex,
	achievements *CheckAchievementsHandler,
	cache LeaderboardInvalidator,
	publisher shared.EventPublisher,
	lockWait time.Duration,
	retries int,
	log *logger.Logger,
) *MatchResultHandler {
	if lockWait <= 0 {
		lockWait = 3 * time.Second
	}
	if log == nil {
		log = logger.Default()
	}
	return &MatchResultHandler{
		stats:        stats,
		locks:        locks,
		retrier:      retry.ConflictRetrier(retries),
		achievements: achievements,
		cache:        cache,
		publisher:    publisher,
		lockWait:     lockWait,
		log:          log.With(logger.Component("match_result")),
	}
}

// Execute applies one match outcome and returns both rating changes.
//
// The critical section - load stats, compute, persist - runs under both
// players' locks. Everything after the release (events, achievement checks,
// cache invalidation) is best-effort and never fails the match.
func (h *MatchResultHandler) Execute(ctx context.Context, cmd ApplyMatchResultCommand) (*rating.MatchResult, error) {
	if !cmd.WinnerID.IsValid() || !cmd.LoserID.IsValid() {
		return nil, shared.NewDomainError("rating", "ApplyMatchResult", shared.ErrInvalidID, "participant ids must be positive")
	}
	if cmd.WinnerID == cmd.LoserID {
		return nil, shared.ErrSamePlayer
	}

	var result *rating.MatchResult
	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		r, err := h.applyOnce(ctx, cmd)
		if err != nil {
			if errors.Is(err, keymutex.ErrLockTimeout) || errors.Is(err, shared.ErrConflict) {
				return retry.Retryable(shared.ErrLockTimeout)
			}
			return retry.Permanent(err)
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	h.log.Info("match result applied",
		logger.UserID(int64(cmd.WinnerID)),
		logger.OpponentID(int64(cmd.LoserID)),
		logger.RatingDelta(result.Winner.Delta),
		logger.MatchID(cmd.RelatedID),
	)

	h.afterApply(ctx, cmd, result)
	return result, nil
}

// applyOnce runs one attempt of the critical section.
func (h *MatchResultHandler) applyOnce(ctx context.Context, cmd ApplyMatchResultCommand) (*rating.MatchResult, error) {
	lockCtx, cancel := context.WithTimeout(ctx, h.lockWait)
	defer cancel()

	release, err := h.locks.LockPair(lockCtx, int64(cmd.WinnerID), int64(cmd.LoserID))
	if err != nil {
		return nil, err
	}
	defer release()

	winner, err := h.stats.GetByID(ctx, cmd.WinnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load winner stats: %w", err)
	}
	loser, err := h.stats.GetByID(ctx, cmd.LoserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load loser stats: %w", err)
	}

	result, err := rating.ComputeMatch(winner, loser)
	if err != nil {
		return nil, err
	}

	update, err := buildMatchUpdate(cmd, result)
	if err != nil {
		return nil, err
	}
	if err := h.stats.ApplyMatchUpdate(ctx, update); err != nil {
		return nil, fmt.Errorf("failed to persist match update: %w", err)
	}

	return result, nil
}

// buildMatchUpdate assembles the atomic persistence unit for one outcome.
// Tournament matches move the tournament counters; private matches move the
// match counters. The two ledger rows carry the match-scoped reasons.
func buildMatchUpdate(cmd ApplyMatchResultCommand, result *rating.MatchResult) (*rating.MatchUpdate, error) {
	winnerReason, loserReason := rating.ReasonMatchWin, rating.ReasonMatchLoss
	winnerCounter := rating.CounterDelta{MatchesPlayed: 1, MatchesWon: 1}
	loserCounter := rating.CounterDelta{MatchesPlayed: 1}

	if cmd.Tournament {
		winnerReason, loserReason = rating.ReasonTournamentResult, rating.ReasonTournamentResult
		winnerCounter = rating.CounterDelta{TournamentsPlayed: 1, TournamentsWon: 1}
		loserCounter = rating.CounterDelta{TournamentsPlayed: 1}
	}

	winnerTransition, err := rating.NewTransition(
		uuid.NewString(), result.Winner.UserID,
		result.Winner.OldRating, result.Winner.NewRating,
		winnerReason, cmd.RelatedID,
	)
	if err != nil {
		return nil, err
	}
	loserTransition, err := rating.NewTransition(
		uuid.NewString(), result.Loser.UserID,
		result.Loser.OldRating, result.Loser.NewRating,
		loserReason, cmd.RelatedID,
	)
	if err != nil {
		return nil, err
	}

	return &rating.MatchUpdate{
		Winner:        result.Winner,
		Loser:         result.Loser,
		WinnerCounter: winnerCounter,
		LoserCounter:  loserCounter,
		Transitions:   []*rating.Transition{winnerTransition, loserTransition},
	}, nil
}

// afterApply runs the best-effort follow-up effects of a committed match.
func (h *MatchResultHandler) afterApply(ctx context.Context, cmd ApplyMatchResultCommand, result *rating.MatchResult) {
	if h.publisher != nil {
		h.publishRatingChanged(cmd, result)
	}

	if h.cache != nil {
		if err := h.cache.Invalidate(ctx); err != nil {
			h.log.Warn("leaderboard invalidation failed", logger.Err(err))
		}
	}

	if h.achievements != nil {
		for _, id := range []rating.UserID{cmd.WinnerID, cmd.LoserID} {
			if _, err := h.achievements.CheckAndUnlock(ctx, id); err != nil {
				h.log.Warn("achievement check failed", logger.UserID(int64(id)), logger.Err(err))
			}
		}
	}
}

// publishRatingChanged emits one RatingChangedEvent per participant.
func (h *MatchResultHandler) publishRatingChanged(cmd ApplyMatchResultCommand, result *rating.MatchResult) {
	reason := rating.ReasonMatchWin
	if cmd.Tournament {
		reason = rating.ReasonTournamentResult
	}
	loserReason := rating.ReasonMatchLoss
	if cmd.Tournament {
		loserReason = rating.ReasonTournamentResult
	}

	for _, pair := range []struct {
		change rating.RatingChange
		reason rating.Reason
	}{
		{result.Winner, reason},
		{result.Loser, loserReason},
	} {
		event := shared.RatingChangedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventRatingChanged, pair.change.UserID.String()),
			UserID:    int64(pair.change.UserID),
			OldRating: pair.change.OldRating,
			NewRating: pair.change.NewRating,
			Delta:     pair.change.Delta,
			Reason:    pair.reason.String(),
		}
		if err := h.publisher.Publish(event); err != nil {
			h.log.Warn("failed to publish rating change", logger.UserID(event.UserID), logger.Err(err))
		}
	}
}
