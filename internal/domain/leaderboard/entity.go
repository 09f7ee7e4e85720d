// Package leaderboard contains the derived ranking model. A leaderboard is
// computed on demand from player stat records; entries are never persisted
// and rank is positional, not stored on the player record.
package leaderboard

import (
	"math"
	"sort"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Mode filters the leaderboard by game mode. Reserved for future per-mode
// boards; ModeAll is a no-op filter and unrecognized values pass through
// unchanged rather than erroring.
type Mode string

// ModeAll is the unfiltered leaderboard.
const ModeAll Mode = "all"

// String returns the mode, defaulting to "all" when empty.
func (m Mode) String() string {
	if m == "" {
		return string(ModeAll)
	}
	return string(m)
}

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is one row of the computed leaderboard.
type Entry struct {
	// Rank - 1-based position. Tied ratings still get distinct consecutive
	// ranks, ordered by the UserID tie-break.
	Rank int `json:"rank"`

	// UserID - the player.
	UserID rating.UserID `json:"user_id"`

	// Username - display name.
	Username string `json:"username"`

	// Rating - current ELO rating.
	Rating int `json:"rating"`

	// WinRate - matchesWon / matchesPlayed * 100, one decimal place,
	// zero when no matches played.
	WinRate float64 `json:"win_rate"`

	// Raw counters, carried for profile display.
	MatchesPlayed     int `json:"matches_played"`
	MatchesWon        int `json:"matches_won"`
	TournamentsPlayed int `json:"tournaments_played"`
	TournamentsWon    int `json:"tournaments_won"`
	AchievementPoints int `json:"achievement_points"`
}

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// Build computes the leaderboard from a set of stat records.
//
// Sort order is rating descending with UserID ascending as the secondary
// key, which makes the ordering total and reproducible: two calls over the
// same records always produce identical output, tie-break included.
func Build(records []*rating.PlayerStats, limit int) ([]*Entry, error) {
	if limit <= 0 {
		return nil, shared.ErrInvalidLimit
	}

	sorted := make([]*rating.PlayerStats, len(records))
	copy(sorted, records)

	sort.Slice(sorted, func(i, j int) bool {
		if sorted[i].Rating != sorted[j].Rating {
			return sorted[i].Rating > sorted[j].Rating
		}
		return sorted[i].UserID < sorted[j].UserID
	})

	if len(sorted) > limit {
		sorted = sorted[:limit]
	}

	entries := make([]*Entry, 0, len(sorted))
	for i, s := range sorted {
		entries = append(entries, &Entry{
			Rank:              i + 1,
			UserID:            s.UserID,
			Username:          s.Username,
			Rating:            s.Rating,
			WinRate:           roundWinRate(s.WinRate()),
			MatchesPlayed:     s.MatchesPlayed,
			MatchesWon:        s.MatchesWon,
			TournamentsPlayed: s.TournamentsPlayed,
			TournamentsWon:    s.TournamentsWon,
			AchievementPoints: s.AchievementPoints,
		})
	}

	return entries, nil
}

// roundWinRate rounds to one decimal place.
func roundWinRate(rate float64) float64 {
	return math.Round(rate*10) / 10
}
