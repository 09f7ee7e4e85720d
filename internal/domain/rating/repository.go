package rating

import (
	"context"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Contracts for the stat store and the transition ledger.
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// CounterDelta describes stat counter increments applied in one operation.
// All increments are executed store-side (SET x = x + n), never as
// read-modify-write from the application.
type CounterDelta struct {
	MatchesPlayed     int
	MatchesWon        int
	TournamentsPlayed int
	TournamentsWon    int
}

// IsZero reports whether the delta changes nothing.
func (d CounterDelta) IsZero() bool {
	return d == CounterDelta{}
}

// MatchUpdate is the atomic persistence unit for one match outcome: both
// players' new ratings, their counter increments, and the two ledger rows.
// The store applies all of it in a single transaction - both succeed or
// both fail, partial application is never visible.
type MatchUpdate struct {
	Winner        RatingChange
	Loser         RatingChange
	WinnerCounter CounterDelta
	LoserCounter  CounterDelta
	Transitions   []*Transition
}

// StatsRepository defines operations on the per-player stat records.
type StatsRepository interface {
	// Create inserts a fresh stat record.
	// Returns shared.ErrAlreadyExists if the user already has one.
	Create(ctx context.Context, stats *PlayerStats) error

	// GetByID returns the stat record for a player.
	// Returns shared.ErrPlayerNotFound if the player does not exist.
	GetByID(ctx context.Context, userID UserID) (*PlayerStats, error)

	// GetByIDs returns stat records for a set of players (missing IDs are skipped).
	GetByIDs(ctx context.Context, userIDs []UserID) ([]*PlayerStats, error)

	// ListIDs returns every known player ID in ascending order.
	// Used by the reconciliation sweep.
	ListIDs(ctx context.Context) ([]UserID, error)

	// ApplyMatchUpdate persists one match outcome atomically: rating updates,
	// counter increments, and ledger rows in a single transaction.
	ApplyMatchUpdate(ctx context.Context, update *MatchUpdate) error

	// IncrementCounters applies store-side counter increments for one player.
	// Returns shared.ErrPlayerNotFound if the player does not exist.
	IncrementCounters(ctx context.Context, userID UserID, delta CounterDelta) error

	// AwardAchievementPoints increments a player's achievement points store-side.
	AwardAchievementPoints(ctx context.Context, userID UserID, points int) error

	// AdjustRating sets a player's rating to a new value and appends the
	// matching manual-adjustment ledger row in the same transaction.
	AdjustRating(ctx context.Context, transition *Transition) error
}

// HistoryRepository is the append-only rating transition ledger.
// There is deliberately no update or delete API.
type HistoryRepository interface {
	// Append records a transition. Write-once.
	Append(ctx context.Context, transition *Transition) error

	// GetHistory returns a player's transitions, newest first.
	GetHistory(ctx context.Context, userID UserID, limit int) ([]*Transition, error)
}
