package query

import (
	"context"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET PLAYER STATS
// ══════════════════════════════════════════════════════════════════════════════

// StatsQuery serves per-player stat records.
type StatsQuery struct {
	stats rating.StatsRepository
}

// NewStatsQuery creates a StatsQuery.
func NewStatsQuery(stats rating.StatsRepository) *StatsQuery {
	return &StatsQuery{stats: stats}
}

// Get returns one player's stat record.
func (q *StatsQuery) Get(ctx context.Context, userID rating.UserID) (*rating.PlayerStats, error) {
	if !userID.IsValid() {
		return nil, shared.NewDomainError("rating", "GetStats", shared.ErrInvalidID, "user id must be positive")
	}
	return q.stats.GetByID(ctx, userID)
}

// GetMany returns stat records for a set of players, for match lobbies.
// Missing players are skipped.
func (q *StatsQuery) GetMany(ctx context.Context, userIDs []rating.UserID) ([]*rating.PlayerStats, error) {
	return q.stats.GetByIDs(ctx, userIDs)
}
