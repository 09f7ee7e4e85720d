package postgres

import (
	"context"
	"fmt"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardRepository implements leaderboard.Repository for PostgreSQL.
// Reads are lock-free and go straight at the covering
// (elo_rating DESC, id ASC) index.
type LeaderboardRepository struct {
	conn *Connection
}

// NewLeaderboardRepository creates a new LeaderboardRepository.
func NewLeaderboardRepository(conn *Connection) *LeaderboardRepository {
	return &LeaderboardRepository{conn: conn}
}

// TopByRating returns up to limit stat records ordered by rating descending,
// user ID ascending.
func (r *LeaderboardRepository) TopByRating(ctx context.Context, limit int) ([]*rating.PlayerStats, error) {
	query := `SELECT ` + statsColumns + `
		FROM users
		ORDER BY elo_rating DESC, id ASC
		LIMIT $1`

	rows, err := r.conn.Query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	return scanStatsRows(rows)
}
