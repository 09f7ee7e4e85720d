// Package achievement contains the achievement catalog and the unlock
// evaluation engine. Achievements are named milestones with a threshold
// condition on a player's cumulative stats, awarding points once.
package achievement

import (
	"time"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Category groups achievements for display.
type Category string

const (
	CategoryTournament Category = "tournament"
	CategoryMatch      Category = "match"
	CategorySocial     Category = "social"
	CategorySpecial    Category = "special"
)

// IsValid reports whether the category is known.
func (c Category) IsValid() bool {
	switch c {
	case CategoryTournament, CategoryMatch, CategorySocial, CategorySpecial:
		return true
	}
	return false
}

// ConditionType selects the predicate used to evaluate an achievement.
// Unknown types always evaluate to false, so future condition types added
// by administrators never spuriously unlock on old code.
type ConditionType string

const (
	// ConditionAccountCreated - always true once the player exists.
	ConditionAccountCreated ConditionType = "account_created"
	// ConditionMatchesPlayed - matchesPlayed >= value.
	ConditionMatchesPlayed ConditionType = "matches_played"
	// ConditionMatchesWon - matchesWon >= value.
	ConditionMatchesWon ConditionType = "matches_won"
	// ConditionTournamentsPlayed - tournamentsPlayed >= value.
	ConditionTournamentsPlayed ConditionType = "tournaments_played"
	// ConditionTournamentsWon - tournamentsWon >= value.
	ConditionTournamentsWon ConditionType = "tournaments_won"
	// ConditionRating - current rating >= value.
	ConditionRating ConditionType = "elo_rating"
	// ConditionUserID - userID <= value. Rewards early adopters; ordinal,
	// not a condition on behavior.
	ConditionUserID ConditionType = "user_id"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT DEFINITION
// ══════════════════════════════════════════════════════════════════════════════

// Definition describes one achievement. Static reference data written by
// administrators; the core only reads it. Definitions are never deleted
// while unlock records reference them.
type Definition struct {
	// ID - catalog identifier.
	ID int64

	// Name - display name (e.g., "Guerrier").
	Name string

	// Description - what the player did to earn it.
	Description string

	// Icon - icon name for the client.
	Icon string

	// Category - display grouping.
	Category Category

	// Points - points awarded on unlock. Always positive.
	Points int

	// ConditionType - which predicate applies.
	ConditionType ConditionType

	// ConditionValue - numeric threshold for the predicate.
	ConditionValue int64
}

// Validate checks a definition before it enters the catalog.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return shared.NewDomainError("achievement", "Validate", shared.ErrInvalidInput, "name cannot be empty")
	}
	if d.Points <= 0 {
		return shared.ErrInvalidPoints
	}
	if !d.Category.IsValid() {
		return shared.NewDomainError("achievement", "Validate", shared.ErrInvalidInput, "unknown category")
	}
	if d.ConditionType == "" {
		return shared.ErrInvalidCondition
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT UNLOCK
// ══════════════════════════════════════════════════════════════════════════════

// Unlock records that a player earned an achievement. Created at most once
// per (UserID, AchievementID) pair - this uniqueness is a hard invariant,
// enforced by a composite key at the storage layer, not by an application
// existence check (which would race). Mutated later only to flip Notified.
type Unlock struct {
	// UserID - who unlocked it.
	UserID rating.UserID

	// AchievementID - which achievement.
	AchievementID int64

	// UnlockedAt - when it was unlocked.
	UnlockedAt time.Time

	// Notified - true once the client has displayed the unlock.
	Notified bool
}

// NewUnlock creates an unlock record.
func NewUnlock(userID rating.UserID, achievementID int64) (*Unlock, error) {
	if !userID.IsValid() {
		return nil, shared.NewDomainError("achievement", "NewUnlock", shared.ErrInvalidID, "user id must be positive")
	}
	if achievementID <= 0 {
		return nil, shared.NewDomainError("achievement", "NewUnlock", shared.ErrInvalidID, "achievement id must be positive")
	}

	return &Unlock{
		UserID:        userID,
		AchievementID: achievementID,
		UnlockedAt:    time.Now().UTC(),
		Notified:      false,
	}, nil
}

// UnlockedAchievement joins an unlock with its definition for display.
type UnlockedAchievement struct {
	Definition
	UnlockedAt time.Time
	Notified   bool
}
