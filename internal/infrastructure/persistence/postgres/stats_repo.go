package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATS REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

const statsColumns = `id, username, elo_rating, matches_played, matches_won,
	tournaments_played, tournaments_won, achievement_points, updated_at`

// StatsRepository implements rating.StatsRepository for PostgreSQL.
// Counter updates run store-side (SET x = x + n); the repository never does
// read-modify-write on counters.
type StatsRepository struct {
	conn *Connection
}

// NewStatsRepository creates a new StatsRepository.
func NewStatsRepository(conn *Connection) *StatsRepository {
	return &StatsRepository{conn: conn}
}

// Create inserts a fresh stat record.
func (r *StatsRepository) Create(ctx context.Context, s *rating.PlayerStats) error {
	query := `
		INSERT INTO users (
			id, username, elo_rating, matches_played, matches_won,
			tournaments_played, tournaments_won, achievement_points, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.conn.Exec(ctx, query,
		int64(s.UserID),
		s.Username,
		s.Rating,
		s.MatchesPlayed,
		s.MatchesWon,
		s.TournamentsPlayed,
		s.TournamentsWon,
		s.AchievementPoints,
		s.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrAlreadyExists
		}
		return fmt.Errorf("failed to create stat record: %w", err)
	}

	return nil
}

// GetByID returns the stat record for a player.
func (r *StatsRepository) GetByID(ctx context.Context, userID rating.UserID) (*rating.PlayerStats, error) {
	query := `SELECT ` + statsColumns + ` FROM users WHERE id = $1`

	row := r.conn.QueryRow(ctx, query, int64(userID))
	return scanStats(row)
}

// GetByIDs returns stat records for a set of players. Missing IDs are skipped.
func (r *StatsRepository) GetByIDs(ctx context.Context, userIDs []rating.UserID) ([]*rating.PlayerStats, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}

	ids := make([]int64, len(userIDs))
	for i, id := range userIDs {
		ids[i] = int64(id)
	}

	query := `SELECT ` + statsColumns + ` FROM users WHERE id = ANY($1) ORDER BY id`

	rows, err := r.conn.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query stat records: %w", err)
	}
	defer rows.Close()

	return scanStatsRows(rows)
}

// ListIDs returns every known player ID in ascending order.
func (r *StatsRepository) ListIDs(ctx context.Context) ([]rating.UserID, error) {
	rows, err := r.conn.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list player ids: %w", err)
	}
	defer rows.Close()

	var ids []rating.UserID
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan player id: %w", err)
		}
		ids = append(ids, rating.UserID(id))
	}
	return ids, rows.Err()
}

// ApplyMatchUpdate persists one match outcome atomically. Rating updates,
// counter increments, and both ledger rows commit together or not at all.
func (r *StatsRepository) ApplyMatchUpdate(ctx context.Context, update *rating.MatchUpdate) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		if err := applyRatingAndCounters(ctx, tx, update.Winner, update.WinnerCounter); err != nil {
			return err
		}
		if err := applyRatingAndCounters(ctx, tx, update.Loser, update.LoserCounter); err != nil {
			return err
		}
		for _, t := range update.Transitions {
			if err := insertTransition(ctx, tx, t); err != nil {
				return err
			}
		}
		return nil
	})
}

// IncrementCounters applies store-side counter increments for one player.
func (r *StatsRepository) IncrementCounters(ctx context.Context, userID rating.UserID, delta rating.CounterDelta) error {
	if delta.IsZero() {
		return nil
	}

	query := `
		UPDATE users SET
			matches_played = matches_played + $1,
			matches_won = matches_won + $2,
			tournaments_played = tournaments_played + $3,
			tournaments_won = tournaments_won + $4,
			updated_at = NOW()
		WHERE id = $5
	`

	tag, err := r.conn.Exec(ctx, query,
		delta.MatchesPlayed,
		delta.MatchesWon,
		delta.TournamentsPlayed,
		delta.TournamentsWon,
		int64(userID),
	)
	if err != nil {
		return fmt.Errorf("failed to increment counters: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrPlayerNotFound
	}

	return nil
}

// AwardAchievementPoints increments a player's achievement points store-side.
func (r *StatsRepository) AwardAchievementPoints(ctx context.Context, userID rating.UserID, points int) error {
	query := `
		UPDATE users SET
			achievement_points = achievement_points + $1,
			updated_at = NOW()
		WHERE id = $2
	`

	tag, err := r.conn.Exec(ctx, query, points, int64(userID))
	if err != nil {
		return fmt.Errorf("failed to award achievement points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrPlayerNotFound
	}

	return nil
}

// AdjustRating sets a player's rating and appends the manual-adjustment
// ledger row in the same transaction.
func (r *StatsRepository) AdjustRating(ctx context.Context, t *rating.Transition) error {
	return r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		query := `UPDATE users SET elo_rating = $1, updated_at = NOW() WHERE id = $2`

		tag, err := tx.Exec(ctx, query, t.NewRating, int64(t.UserID))
		if err != nil {
			return fmt.Errorf("failed to adjust rating: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrPlayerNotFound
		}

		return insertTransition(ctx, tx, t)
	})
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// applyRatingAndCounters updates one player's rating and counters in a tx.
func applyRatingAndCounters(ctx context.Context, tx pgx.Tx, change rating.RatingChange, delta rating.CounterDelta) error {
	query := `
		UPDATE users SET
			elo_rating = $1,
			matches_played = matches_played + $2,
			matches_won = matches_won + $3,
			tournaments_played = tournaments_played + $4,
			tournaments_won = tournaments_won + $5,
			updated_at = NOW()
		WHERE id = $6
	`

	tag, err := tx.Exec(ctx, query,
		change.NewRating,
		delta.MatchesPlayed,
		delta.MatchesWon,
		delta.TournamentsPlayed,
		delta.TournamentsWon,
		int64(change.UserID),
	)
	if err != nil {
		return fmt.Errorf("failed to update player %d: %w", change.UserID, err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrPlayerNotFound
	}

	return nil
}

// insertTransition appends one ledger row. Write-once, no upsert.
func insertTransition(ctx context.Context, q Querier, t *rating.Transition) error {
	query := `
		INSERT INTO elo_history (id, user_id, old_elo, new_elo, change, reason, related_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := q.Exec(ctx, query,
		t.ID,
		int64(t.UserID),
		t.OldRating,
		t.NewRating,
		t.Delta,
		string(t.Reason),
		t.RelatedID,
		t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to append rating transition: %w", err)
	}

	return nil
}

// scanStats scans one stat record row.
func scanStats(row pgx.Row) (*rating.PlayerStats, error) {
	var (
		s         rating.PlayerStats
		id        int64
		updatedAt time.Time
	)

	err := row.Scan(
		&id,
		&s.Username,
		&s.Rating,
		&s.MatchesPlayed,
		&s.MatchesWon,
		&s.TournamentsPlayed,
		&s.TournamentsWon,
		&s.AchievementPoints,
		&updatedAt,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrPlayerNotFound
		}
		return nil, fmt.Errorf("failed to scan stat record: %w", err)
	}

	s.UserID = rating.UserID(id)
	s.UpdatedAt = updatedAt
	return &s, nil
}

// scanStatsRows scans a stat record result set.
func scanStatsRows(rows pgx.Rows) ([]*rating.PlayerStats, error) {
	var records []*rating.PlayerStats
	for rows.Next() {
		var (
			s         rating.PlayerStats
			id        int64
			updatedAt time.Time
		)

		err := rows.Scan(
			&id,
			&s.Username,
			&s.Rating,
			&s.MatchesPlayed,
			&s.MatchesWon,
			&s.TournamentsPlayed,
			&s.TournamentsWon,
			&s.AchievementPoints,
			&updatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stat record: %w", err)
		}

		s.UserID = rating.UserID(id)
		s.UpdatedAt = updatedAt
		records = append(records, &s)
	}
	return records, rows.Err()
}
