package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

func TestExpectedScore(t *testing.T) {
	assert.InDelta(t, 0.5, ExpectedScore(1200, 1200), 1e-9)

	// A 400-point gap gives the stronger player ~10:1 odds.
	assert.InDelta(t, 0.909, ExpectedScore(1600, 1200), 0.001)
	assert.InDelta(t, 0.091, ExpectedScore(1200, 1600), 0.001)

	// Complementary by construction.
	assert.InDelta(t, 1.0, ExpectedScore(1400, 1250)+ExpectedScore(1250, 1400), 1e-9)
}

func TestComputeRatingEqualOpponents(t *testing.T) {
	newRating, err := ComputeRating(1200, 1200, true, 32)
	require.NoError(t, err)
	assert.Equal(t, 1216, newRating)

	newRating, err = ComputeRating(1200, 1200, false, 32)
	require.NoError(t, err)
	assert.Equal(t, 1184, newRating)
}

func TestComputeRatingUpsets(t *testing.T) {
	// An underdog win moves more points than a favorite win.
	underdog, err := ComputeRating(1200, 1400, true, 32)
	require.NoError(t, err)
	favorite, err := ComputeRating(1400, 1200, true, 32)
	require.NoError(t, err)

	assert.Greater(t, underdog-1200, favorite-1400)

	// The favorite losing to a much weaker player loses close to the
	// full K; the reverse loss costs almost nothing.
	crushed, err := ComputeRating(1800, 1200, false, 32)
	require.NoError(t, err)
	assert.Equal(t, 1769, crushed)

	expected, err := ComputeRating(1200, 1800, false, 32)
	require.NoError(t, err)
	assert.Equal(t, 1199, expected)
}

func TestComputeRatingInvalidKFactor(t *testing.T) {
	_, err := ComputeRating(1200, 1200, true, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidKFactor)

	_, err = ComputeRating(1200, 1200, true, -16)
	assert.ErrorIs(t, err, shared.ErrInvalidKFactor)
}

func TestKFactorBoundary(t *testing.T) {
	assert.Equal(t, KFactorProvisional, KFactorFor(0))
	assert.Equal(t, KFactorProvisional, KFactorFor(29))
	assert.Equal(t, KFactorStable, KFactorFor(30), "exactly the threshold uses the stable K")
	assert.Equal(t, KFactorStable, KFactorFor(500))
}

func TestComputeMatchMixedKFactors(t *testing.T) {
	winner := &PlayerStats{UserID: 1, Rating: 1200, MatchesPlayed: 5}
	loser := &PlayerStats{UserID: 2, Rating: 1300, MatchesPlayed: 40}

	result, err := ComputeMatch(winner, loser)
	require.NoError(t, err)

	assert.Equal(t, 1220, result.Winner.NewRating)
	assert.Equal(t, 20, result.Winner.Delta)
	assert.Equal(t, 1290, result.Loser.NewRating)
	assert.Equal(t, -10, result.Loser.Delta)
}

func TestComputeMatchUsesPreUpdateRatings(t *testing.T) {
	// Both sides are computed from the same (old, old) pair, so the
	// result is identical regardless of which side is computed first.
	// With equal K-factors the deltas mirror each other exactly.
	winner := &PlayerStats{UserID: 1, Rating: 1450, MatchesPlayed: 100}
	loser := &PlayerStats{UserID: 2, Rating: 1390, MatchesPlayed: 100}

	result, err := ComputeMatch(winner, loser)
	require.NoError(t, err)
	assert.Equal(t, -result.Loser.Delta, result.Winner.Delta)
}

func TestComputeMatchDoesNotMutateInputs(t *testing.T) {
	winner := &PlayerStats{UserID: 1, Rating: 1200, MatchesPlayed: 5}
	loser := &PlayerStats{UserID: 2, Rating: 1300, MatchesPlayed: 40}

	_, err := ComputeMatch(winner, loser)
	require.NoError(t, err)
	assert.Equal(t, 1200, winner.Rating)
	assert.Equal(t, 1300, loser.Rating)
}

func TestComputeMatchSamePlayer(t *testing.T) {
	p := &PlayerStats{UserID: 1, Rating: 1200}
	_, err := ComputeMatch(p, p)
	assert.ErrorIs(t, err, shared.ErrSamePlayer)
}

func TestComputeRatingDeterministic(t *testing.T) {
	first, err := ComputeRating(1234, 1567, true, 16)
	require.NoError(t, err)
	for i := 0; i < 100; i++ {
		again, err := ComputeRating(1234, 1567, true, 16)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
