package rating

import (
	"math"

	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// RATING POLICY CONSTANTS
// ══════════════════════════════════════════════════════════════════════════════

// Policy constants. The K-factor table is policy, not engine logic:
// the engine itself is K-factor-agnostic and callers select K from this table.
const (
	// InitialRating is the rating assigned to new players.
	InitialRating = 1200

	// ProvisionalMatches is the matches-played threshold below which the
	// volatile K-factor applies. A player with exactly this many matches
	// already uses the stable K.
	ProvisionalMatches = 30

	// KFactorProvisional is the K-factor for players still calibrating.
	KFactorProvisional = 32

	// KFactorStable is the K-factor for established players.
	KFactorStable = 16
)

// KFactorFor returns the K-factor for a player with the given number of
// matches played. The pre-update value must be passed: the match being
// applied does not count toward its own K selection.
func KFactorFor(matchesPlayed int) int {
	if matchesPlayed < ProvisionalMatches {
		return KFactorProvisional
	}
	return KFactorStable
}

// ══════════════════════════════════════════════════════════════════════════════
// ELO ENGINE
// ══════════════════════════════════════════════════════════════════════════════

// ExpectedScore returns the probability of the player beating the opponent
// under the ELO model: 1 / (1 + 10^((opponent-player)/400)).
func ExpectedScore(playerRating, opponentRating int) float64 {
	return 1 / (1 + math.Pow(10, float64(opponentRating-playerRating)/400))
}

// ComputeRating computes a player's new rating from a single match outcome.
//
// newRating = round(playerRating + kFactor * (actualScore - expectedScore))
// where actualScore is 1.0 for a win and 0.0 for a loss. Rounding is
// round-half-away-from-zero (math.Round); tests pin the exact values.
//
// The function is pure and deterministic: no side effects, no store access.
func ComputeRating(playerRating, opponentRating int, playerWon bool, kFactor int) (int, error) {
	if kFactor <= 0 {
		return 0, shared.ErrInvalidKFactor
	}

	expected := ExpectedScore(playerRating, opponentRating)

	actual := 0.0
	if playerWon {
		actual = 1.0
	}

	return int(math.Round(float64(playerRating) + float64(kFactor)*(actual-expected))), nil
}

// RatingChange is the before/after snapshot for one participant of a match.
type RatingChange struct {
	UserID    UserID `json:"user_id"`
	OldRating int    `json:"old_rating"`
	NewRating int    `json:"new_rating"`
	Delta     int    `json:"delta"`
}

// MatchResult is the outcome of applying one match to both participants.
type MatchResult struct {
	Winner RatingChange `json:"winner"`
	Loser  RatingChange `json:"loser"`
}

// ComputeMatch computes both participants' new ratings from one match.
// Both computations use the same (old, old) rating pair - not sequential
// mutation - so the two updates are order-independent and symmetric.
// K-factors are selected per player from their pre-update matches played.
func ComputeMatch(winner, loser *PlayerStats) (*MatchResult, error) {
	if winner.UserID == loser.UserID {
		return nil, shared.ErrSamePlayer
	}

	winnerK := KFactorFor(winner.MatchesPlayed)
	loserK := KFactorFor(loser.MatchesPlayed)

	newWinnerRating, err := ComputeRating(winner.Rating, loser.Rating, true, winnerK)
	if err != nil {
		return nil, err
	}
	newLoserRating, err := ComputeRating(loser.Rating, winner.Rating, false, loserK)
	if err != nil {
		return nil, err
	}

	return &MatchResult{
		Winner: RatingChange{
			UserID:    winner.UserID,
			OldRating: winner.Rating,
			NewRating: newWinnerRating,
			Delta:     newWinnerRating - winner.Rating,
		},
		Loser: RatingChange{
			UserID:    loser.UserID,
			OldRating: loser.Rating,
			NewRating: newLoserRating,
			Delta:     newLoserRating - loser.Rating,
		},
	}, nil
}
