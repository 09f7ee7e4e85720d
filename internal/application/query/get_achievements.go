package query

import (
	"context"
	"fmt"
	"time"

	"github.com/codm-arena/arena-hub/internal/domain/achievement"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET ACHIEVEMENTS
// ══════════════════════════════════════════════════════════════════════════════

// AchievementStatus is one catalog entry annotated with the player's
// unlock state, for the profile achievements grid.
type AchievementStatus struct {
	achievement.Definition
	Unlocked   bool
	UnlockedAt time.Time
	Notified   bool
}

// AchievementsQuery serves achievement catalog and unlock listings.
type AchievementsQuery struct {
	catalog achievement.CatalogRepository
	unlocks achievement.UnlockRepository
}

// NewAchievementsQuery creates an AchievementsQuery.
func NewAchievementsQuery(catalog achievement.CatalogRepository, unlocks achievement.UnlockRepository) *AchievementsQuery {
	return &AchievementsQuery{catalog: catalog, unlocks: unlocks}
}

// Catalog returns every achievement definition, cheapest first.
func (q *AchievementsQuery) Catalog(ctx context.Context) ([]*achievement.Definition, error) {
	return q.catalog.ListAll(ctx)
}

// Unlocked returns the player's unlocks with their definitions, newest first.
func (q *AchievementsQuery) Unlocked(ctx context.Context, userID rating.UserID) ([]*achievement.UnlockedAchievement, error) {
	if !userID.IsValid() {
		return nil, shared.NewDomainError("achievement", "Unlocked", shared.ErrInvalidID, "user id must be positive")
	}
	return q.unlocks.ListUnlocks(ctx, userID)
}

// Progress returns the full catalog annotated with the player's unlock
// state, in catalog order.
func (q *AchievementsQuery) Progress(ctx context.Context, userID rating.UserID) ([]*AchievementStatus, error) {
	if !userID.IsValid() {
		return nil, shared.NewDomainError("achievement", "Progress", shared.ErrInvalidID, "user id must be positive")
	}

	catalog, err := q.catalog.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load achievement catalog: %w", err)
	}

	unlocked, err := q.unlocks.ListUnlocks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load unlocks: %w", err)
	}

	byID := make(map[int64]*achievement.UnlockedAchievement, len(unlocked))
	for _, u := range unlocked {
		byID[u.ID] = u
	}

	statuses := make([]*AchievementStatus, 0, len(catalog))
	for _, def := range catalog {
		status := &AchievementStatus{Definition: *def}
		if u, ok := byID[def.ID]; ok {
			status.Unlocked = true
			status.UnlockedAt = u.UnlockedAt
			status.Notified = u.Notified
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// MarkNotified flags an unlock as displayed to the player.
func (q *AchievementsQuery) MarkNotified(ctx context.Context, userID rating.UserID, achievementID int64) error {
	if !userID.IsValid() {
		return shared.NewDomainError("achievement", "MarkNotified", shared.ErrInvalidID, "user id must be positive")
	}
	return q.unlocks.MarkNotified(ctx, userID, achievementID)
}
