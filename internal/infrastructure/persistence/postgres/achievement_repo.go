package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/codm-arena/arena-hub/internal/domain/achievement"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// ACHIEVEMENT CATALOG REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

const definitionColumns = `id, name, description, icon, category, points, condition_type, condition_value`

// CatalogRepository implements achievement.CatalogRepository for PostgreSQL.
type CatalogRepository struct {
	conn *Connection
}

// NewCatalogRepository creates a new CatalogRepository.
func NewCatalogRepository(conn *Connection) *CatalogRepository {
	return &CatalogRepository{conn: conn}
}

// ListAll returns every achievement definition, cheapest first.
func (r *CatalogRepository) ListAll(ctx context.Context) ([]*achievement.Definition, error) {
	query := `SELECT ` + definitionColumns + ` FROM achievements ORDER BY points ASC, id ASC`

	rows, err := r.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query achievement catalog: %w", err)
	}
	defer rows.Close()

	var defs []*achievement.Definition
	for rows.Next() {
		def, err := scanDefinition(rows)
		if err != nil {
			return nil, err
		}
		defs = append(defs, def)
	}
	return defs, rows.Err()
}

// GetByID returns one definition.
func (r *CatalogRepository) GetByID(ctx context.Context, id int64) (*achievement.Definition, error) {
	query := `SELECT ` + definitionColumns + ` FROM achievements WHERE id = $1`

	def, err := scanDefinition(r.conn.QueryRow(ctx, query, id))
	if err != nil {
		if IsNoRows(err) {
			return nil, shared.ErrAchievementNotFound
		}
		return nil, err
	}
	return def, nil
}

// ══════════════════════════════════════════════════════════════════════════════
// UNLOCK REPOSITORY
// ══════════════════════════════════════════════════════════════════════════════

// UnlockRepository implements achievement.UnlockRepository for PostgreSQL.
// Idempotence rests on the UNIQUE (user_id, achievement_id) constraint, not
// on application-level existence checks.
type UnlockRepository struct {
	conn *Connection
}

// NewUnlockRepository creates a new UnlockRepository.
func NewUnlockRepository(conn *Connection) *UnlockRepository {
	return &UnlockRepository{conn: conn}
}

// InsertIfAbsent records an unlock and awards its points in one transaction.
// ON CONFLICT DO NOTHING makes concurrent duplicate evaluations collapse to
// a single unlock: the losing insert affects zero rows and the points update
// is skipped.
func (r *UnlockRepository) InsertIfAbsent(ctx context.Context, unlock *achievement.Unlock, points int) (bool, error) {
	inserted := false

	err := r.conn.WithTx(ctx, func(tx pgx.Tx) error {
		query := `
			INSERT INTO user_achievements (user_id, achievement_id, unlocked_at, notified)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (user_id, achievement_id) DO NOTHING
		`

		tag, err := tx.Exec(ctx, query,
			int64(unlock.UserID),
			unlock.AchievementID,
			unlock.UnlockedAt,
			unlock.Notified,
		)
		if err != nil {
			if IsForeignKeyViolation(err) {
				return shared.ErrPlayerNotFound
			}
			return fmt.Errorf("failed to insert unlock: %w", err)
		}

		if tag.RowsAffected() == 0 {
			return nil
		}
		inserted = true

		if points == 0 {
			return nil
		}

		pointsQuery := `
			UPDATE users SET
				achievement_points = achievement_points + $1,
				updated_at = NOW()
			WHERE id = $2
		`
		if _, err := tx.Exec(ctx, pointsQuery, points, int64(unlock.UserID)); err != nil {
			return fmt.Errorf("failed to award unlock points: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	return inserted, nil
}

// ListUnlockedIDs returns the achievement IDs the player has unlocked.
func (r *UnlockRepository) ListUnlockedIDs(ctx context.Context, userID rating.UserID) ([]int64, error) {
	query := `SELECT achievement_id FROM user_achievements WHERE user_id = $1 ORDER BY achievement_id`

	rows, err := r.conn.Query(ctx, query, int64(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query unlocked ids: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan unlocked id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListUnlocks returns the player's unlocks joined with their definitions,
// newest first.
func (r *UnlockRepository) ListUnlocks(ctx context.Context, userID rating.UserID) ([]*achievement.UnlockedAchievement, error) {
	query := `
		SELECT a.id, a.name, a.description, a.icon, a.category, a.points,
			   a.condition_type, a.condition_value,
			   ua.unlocked_at, ua.notified
		FROM user_achievements ua
		JOIN achievements a ON a.id = ua.achievement_id
		WHERE ua.user_id = $1
		ORDER BY ua.unlocked_at DESC, a.id DESC
	`

	rows, err := r.conn.Query(ctx, query, int64(userID))
	if err != nil {
		return nil, fmt.Errorf("failed to query unlocks: %w", err)
	}
	defer rows.Close()

	var unlocks []*achievement.UnlockedAchievement
	for rows.Next() {
		var (
			u             achievement.UnlockedAchievement
			category      string
			conditionType string
		)

		err := rows.Scan(
			&u.Definition.ID,
			&u.Definition.Name,
			&u.Definition.Description,
			&u.Definition.Icon,
			&category,
			&u.Definition.Points,
			&conditionType,
			&u.Definition.ConditionValue,
			&u.UnlockedAt,
			&u.Notified,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan unlock: %w", err)
		}

		u.Definition.Category = achievement.Category(category)
		u.Definition.ConditionType = achievement.ConditionType(conditionType)
		unlocks = append(unlocks, &u)
	}
	return unlocks, rows.Err()
}

// MarkNotified flips the notified flag. Idempotent: marking an already
// notified unlock changes nothing.
func (r *UnlockRepository) MarkNotified(ctx context.Context, userID rating.UserID, achievementID int64) error {
	query := `
		UPDATE user_achievements SET notified = TRUE
		WHERE user_id = $1 AND achievement_id = $2
	`

	tag, err := r.conn.Exec(ctx, query, int64(userID), achievementID)
	if err != nil {
		return fmt.Errorf("failed to mark unlock notified: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrAchievementNotFound
	}

	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Helpers
// ─────────────────────────────────────────────────────────────────────────────

// scanDefinition scans one catalog row.
func scanDefinition(row pgx.Row) (*achievement.Definition, error) {
	var (
		def           achievement.Definition
		category      string
		conditionType string
	)

	err := row.Scan(
		&def.ID,
		&def.Name,
		&def.Description,
		&def.Icon,
		&category,
		&def.Points,
		&conditionType,
		&def.ConditionValue,
	)
	if err != nil {
		if IsNoRows(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan achievement definition: %w", err)
	}

	def.Category = achievement.Category(category)
	def.ConditionType = achievement.ConditionType(conditionType)
	return &def, nil
}
