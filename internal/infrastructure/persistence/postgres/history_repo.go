package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATING HISTORY REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// HistoryRepository implements rating.HistoryRepository for PostgreSQL.
// The elo_history table is append-only: this repository exposes no update
// or delete path and none exists in the schema layer above it.
type HistoryRepository struct {
	conn *Connection
}

// NewHistoryRepository creates a new HistoryRepository.
func NewHistoryRepository(conn *Connection) *HistoryRepository {
	return &HistoryRepository{conn: conn}
}

// Append records a transition. Write-once.
func (r *HistoryRepository) Append(ctx context.Context, t *rating.Transition) error {
	return insertTransition(ctx, r.conn, t)
}

// GetHistory returns a player's transitions, newest first. The secondary
// id sort keeps ordering stable for transitions sharing a timestamp, such
// as the two rows of one match.
func (r *HistoryRepository) GetHistory(ctx context.Context, userID rating.UserID, limit int) ([]*rating.Transition, error) {
	query := `
		SELECT id, user_id, old_elo, new_elo, change, reason, related_id, created_at
		FROM elo_history
		WHERE user_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`

	rows, err := r.conn.Query(ctx, query, int64(userID), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query rating history: %w", err)
	}
	defer rows.Close()

	var transitions []*rating.Transition
	for rows.Next() {
		var (
			t         rating.Transition
			userID    int64
			reason    string
			createdAt time.Time
		)

		err := rows.Scan(
			&t.ID,
			&userID,
			&t.OldRating,
			&t.NewRating,
			&t.Delta,
			&reason,
			&t.RelatedID,
			&createdAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan rating transition: %w", err)
		}

		t.UserID = rating.UserID(userID)
		t.Reason = rating.Reason(reason)
		t.CreatedAt = createdAt
		transitions = append(transitions, &t)
	}
	return transitions, rows.Err()
}
