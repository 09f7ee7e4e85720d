package achievement

import (
	"context"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
)

// ══════════════════════════════════════════════════════════════════════════════
// REPOSITORY INTERFACES
// Implementations live in infrastructure/persistence.
// ══════════════════════════════════════════════════════════════════════════════

// CatalogRepository reads the achievement catalog. The catalog is written
// directly by administrators; the core only reads it, loading a snapshot
// per evaluation and never mutating it in place.
type CatalogRepository interface {
	// ListAll returns every achievement definition, cheapest first.
	ListAll(ctx context.Context) ([]*Definition, error)

	// GetByID returns one definition.
	// Returns shared.ErrAchievementNotFound if absent.
	GetByID(ctx context.Context, id int64) (*Definition, error)
}

// UnlockRepository manages unlock records.
type UnlockRepository interface {
	// InsertIfAbsent records an unlock and awards the achievement's points
	// to the player in the same transaction. The insert is idempotent:
	// if the (userID, achievementID) pair already exists - including via a
	// concurrent evaluation - nothing happens, no points are double-awarded,
	// and inserted is false. Never fails on a duplicate.
	InsertIfAbsent(ctx context.Context, unlock *Unlock, points int) (inserted bool, err error)

	// ListUnlockedIDs returns the achievement IDs the player has unlocked.
	ListUnlockedIDs(ctx context.Context, userID rating.UserID) ([]int64, error)

	// ListUnlocks returns the player's unlocks joined with their
	// definitions, newest first, for profile display.
	ListUnlocks(ctx context.Context, userID rating.UserID) ([]*UnlockedAchievement, error)

	// MarkNotified flips the notified flag once the client displayed the
	// unlock. Idempotent.
	MarkNotified(ctx context.Context, userID rating.UserID, achievementID int64) error
}
