package query

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET RATING HISTORY
// ══════════════════════════════════════════════════════════════════════════════

// DefaultHistoryLimit is the history page size when the caller does not ask
// for a specific one.
const DefaultHistoryLimit = 20

// DailyRatingPoint is one day of a player's rating trajectory, for charts.
type DailyRatingPoint struct {
	// Day in YYYY-MM-DD form, UTC.
	Day string `json:"day"`

	// Rating at the end of the day (the newest transition's NewRating).
	Rating int `json:"rating"`

	// NetDelta is the sum of all deltas that day.
	NetDelta int `json:"net_delta"`

	// Changes counts the transitions that day.
	Changes int `json:"changes"`
}

// HistoryQuery serves a player's rating transition ledger.
type HistoryQuery struct {
	history  rating.HistoryRepository
	maxLimit int
}

// NewHistoryQuery creates a HistoryQuery.
func NewHistoryQuery(history rating.HistoryRepository, maxLimit int) *HistoryQuery {
	if maxLimit <= 0 {
		maxLimit = 100
	}
	return &HistoryQuery{history: history, maxLimit: maxLimit}
}

// Get returns a player's transitions, newest first. A non-positive limit
// takes the default page size; a limit above the cap is clamped. A player
// with no transitions yields an empty page, not an error.
func (q *HistoryQuery) Get(ctx context.Context, userID rating.UserID, limit int) ([]*rating.Transition, error) {
	if !userID.IsValid() {
		return nil, shared.NewDomainError("rating", "GetHistory", shared.ErrInvalidID, "user id must be positive")
	}
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	if limit > q.maxLimit {
		limit = q.maxLimit
	}

	transitions, err := q.history.GetHistory(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}
	return transitions, nil
}

// GetDaily returns the player's recent history folded into per-day points,
// oldest day first. Days without changes are absent, not zero-filled.
func (q *HistoryQuery) GetDaily(ctx context.Context, userID rating.UserID, limit int) ([]*DailyRatingPoint, error) {
	transitions, err := q.Get(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	return foldDaily(transitions), nil
}

// foldDaily groups transitions by UTC calendar day. The input is newest
// first, so the first transition seen for a day carries its closing rating.
func foldDaily(transitions []*rating.Transition) []*DailyRatingPoint {
	byDay := make(map[string]*DailyRatingPoint)
	for _, t := range transitions {
		day := t.CreatedAt.UTC().Format(time.DateOnly)
		point, ok := byDay[day]
		if !ok {
			point = &DailyRatingPoint{Day: day, Rating: t.NewRating}
			byDay[day] = point
		}
		point.NetDelta += t.Delta
		point.Changes++
	}

	points := make([]*DailyRatingPoint, 0, len(byDay))
	for _, p := range byDay {
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool {
		return points[i].Day < points[j].Day
	})
	return points
}
