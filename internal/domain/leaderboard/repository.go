package leaderboard

import (
	"context"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
)

// Repository reads the raw stat records ordered for ranking. Reads are
// lock-free: they never synchronize with writers beyond normal storage-layer
// read consistency and may observe slightly stale data.
type Repository interface {
	// TopByRating returns up to limit stat records ordered by rating
	// descending, user ID ascending.
	TopByRating(ctx context.Context, limit int) ([]*rating.PlayerStats, error)
}
