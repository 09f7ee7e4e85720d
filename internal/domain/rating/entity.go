// Package rating contains the ELO rating domain model for Arena Hub.
// It owns the pure rating mathematics, the per-player stat record, and the
// append-only transition ledger describing every rating change.
package rating

import (
	"fmt"
	"time"

	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// UserID identifies a player. IDs are assigned by the user store and are
// strictly increasing, which the "user_id" achievement condition relies on.
type UserID int64

// IsValid reports whether the ID is usable.
func (id UserID) IsValid() bool {
	return id > 0
}

// String returns the string representation of the ID.
func (id UserID) String() string {
	return fmt.Sprintf("%d", id)
}

// Reason describes why a rating changed.
type Reason string

const (
	// ReasonMatchWin - the player won a private match.
	ReasonMatchWin Reason = "match_win"
	// ReasonMatchLoss - the player lost a private match.
	ReasonMatchLoss Reason = "match_loss"
	// ReasonTournamentResult - the change came from a tournament match.
	ReasonTournamentResult Reason = "tournament_result"
	// ReasonManualAdjustment - an administrator adjusted the rating by hand.
	ReasonManualAdjustment Reason = "manual_adjustment"
)

// IsValid reports whether the reason is one of the known enum values.
func (r Reason) IsValid() bool {
	switch r {
	case ReasonMatchWin, ReasonMatchLoss, ReasonTournamentResult, ReasonManualAdjustment:
		return true
	}
	return false
}

// String returns the reason as stored in the ledger.
func (r Reason) String() string {
	return string(r)
}

// ══════════════════════════════════════════════════════════════════════════════
// PLAYER STATS
// ══════════════════════════════════════════════════════════════════════════════

// PlayerStats is the mutable per-player stat record. It is owned by the user
// store and mutated only through the rating engine and the achievement
// evaluator, never concurrently for the same UserID.
type PlayerStats struct {
	// UserID - the player this record belongs to.
	UserID UserID

	// Username - display name, carried for leaderboard rendering.
	Username string

	// Rating - current ELO rating. New players start at InitialRating.
	Rating int

	// MatchesPlayed - total private matches participated in.
	MatchesPlayed int

	// MatchesWon - total private matches won. Never exceeds MatchesPlayed.
	MatchesWon int

	// TournamentsPlayed - total tournaments registered and played.
	TournamentsPlayed int

	// TournamentsWon - total tournaments won.
	TournamentsWon int

	// AchievementPoints - sum of points of all unlocked achievements.
	AchievementPoints int

	// UpdatedAt - time of the last stat mutation.
	UpdatedAt time.Time
}

// NewPlayerStats creates a fresh stat record for a new player.
func NewPlayerStats(userID UserID, username string) (*PlayerStats, error) {
	if !userID.IsValid() {
		return nil, shared.NewDomainError("rating", "NewPlayerStats", shared.ErrInvalidID, "user id must be positive")
	}

	return &PlayerStats{
		UserID:    userID,
		Username:  username,
		Rating:    InitialRating,
		UpdatedAt: time.Now().UTC(),
	}, nil
}

// Validate checks the record's internal invariants.
func (s *PlayerStats) Validate() error {
	if !s.UserID.IsValid() {
		return shared.NewDomainError("rating", "Validate", shared.ErrInvalidID, "user id must be positive")
	}
	if s.MatchesPlayed < 0 || s.MatchesWon < 0 || s.TournamentsPlayed < 0 || s.TournamentsWon < 0 {
		return shared.NewDomainError("rating", "Validate", shared.ErrNegativeValue, "stat counters cannot be negative")
	}
	if s.MatchesWon > s.MatchesPlayed {
		return shared.ErrStatsInconsistent
	}
	if s.AchievementPoints < 0 {
		return shared.NewDomainError("rating", "Validate", shared.ErrNegativeValue, "achievement points cannot be negative")
	}
	return nil
}

// WinRate returns the match win percentage (0-100). Zero when no matches
// have been played, avoiding division by zero.
func (s *PlayerStats) WinRate() float64 {
	if s.MatchesPlayed == 0 {
		return 0
	}
	return float64(s.MatchesWon) / float64(s.MatchesPlayed) * 100
}

// IsProvisional reports whether the player is still in the volatile K-factor
// band (fewer than ProvisionalMatches matches played).
func (s *PlayerStats) IsProvisional() bool {
	return s.MatchesPlayed < ProvisionalMatches
}

// Clone creates a copy of the record.
func (s *PlayerStats) Clone() *PlayerStats {
	if s == nil {
		return nil
	}
	clone := *s
	return &clone
}

// ══════════════════════════════════════════════════════════════════════════════
// RATING TRANSITION (LEDGER RECORD)
// ══════════════════════════════════════════════════════════════════════════════

// Transition is one recorded rating change. Immutable once created;
// the ledger is append-only and is never replayed to derive live ratings.
type Transition struct {
	// ID - unique identifier of the ledger row.
	ID string

	// UserID - the affected player.
	UserID UserID

	// OldRating - rating before the change.
	OldRating int

	// NewRating - rating after the change.
	NewRating int

	// Delta - NewRating minus OldRating.
	Delta int

	// Reason - why the rating changed.
	Reason Reason

	// RelatedID - optional match or tournament identifier. Together with
	// UserID and Reason it serves as a deduplication aid for retried events.
	RelatedID string

	// CreatedAt - when the change was recorded.
	CreatedAt time.Time
}

// NewTransition creates a ledger record for a rating change.
func NewTransition(id string, userID UserID, oldRating, newRating int, reason Reason, relatedID string) (*Transition, error) {
	if !userID.IsValid() {
		return nil, shared.NewDomainError("rating", "NewTransition", shared.ErrInvalidID, "user id must be positive")
	}
	if !reason.IsValid() {
		return nil, shared.ErrInvalidReason
	}

	return &Transition{
		ID:        id,
		UserID:    userID,
		OldRating: oldRating,
		NewRating: newRating,
		Delta:     newRating - oldRating,
		Reason:    reason,
		RelatedID: relatedID,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// String returns a compact representation for logging.
func (t *Transition) String() string {
	return fmt.Sprintf("Transition{User: %d, %d -> %d (%+d), %s}",
		t.UserID, t.OldRating, t.NewRating, t.Delta, t.Reason)
}
