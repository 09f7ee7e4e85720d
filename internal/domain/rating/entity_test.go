package rating

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

func TestNewPlayerStats(t *testing.T) {
	stats, err := NewPlayerStats(1, "nova")
	require.NoError(t, err)
	assert.Equal(t, InitialRating, stats.Rating)
	assert.Zero(t, stats.MatchesPlayed)
	assert.True(t, stats.IsProvisional())

	_, err = NewPlayerStats(0, "nova")
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestPlayerStatsValidate(t *testing.T) {
	valid := &PlayerStats{UserID: 1, Rating: 1200, MatchesPlayed: 10, MatchesWon: 5}
	assert.NoError(t, valid.Validate())

	inconsistent := &PlayerStats{UserID: 1, MatchesPlayed: 5, MatchesWon: 6}
	assert.ErrorIs(t, inconsistent.Validate(), shared.ErrStatsInconsistent)

	negative := &PlayerStats{UserID: 1, MatchesPlayed: -1}
	assert.ErrorIs(t, negative.Validate(), shared.ErrNegativeValue)
}

func TestWinRate(t *testing.T) {
	assert.Zero(t, (&PlayerStats{}).WinRate())
	assert.InDelta(t, 50.0, (&PlayerStats{MatchesPlayed: 10, MatchesWon: 5}).WinRate(), 1e-9)
	assert.InDelta(t, 100.0/3, (&PlayerStats{MatchesPlayed: 3, MatchesWon: 1}).WinRate(), 1e-9)
}

func TestIsProvisional(t *testing.T) {
	assert.True(t, (&PlayerStats{MatchesPlayed: 29}).IsProvisional())
	assert.False(t, (&PlayerStats{MatchesPlayed: 30}).IsProvisional())
}

func TestCloneIsIndependent(t *testing.T) {
	original := &PlayerStats{UserID: 1, Rating: 1200}
	clone := original.Clone()
	clone.Rating = 1500
	assert.Equal(t, 1200, original.Rating)

	var nilStats *PlayerStats
	assert.Nil(t, nilStats.Clone())
}

func TestNewTransition(t *testing.T) {
	transition, err := NewTransition("id-1", 1, 1200, 1216, ReasonMatchWin, "match-9")
	require.NoError(t, err)
	assert.Equal(t, 16, transition.Delta)
	assert.Equal(t, "match-9", transition.RelatedID)
	assert.False(t, transition.CreatedAt.IsZero())

	_, err = NewTransition("id-2", 0, 1200, 1216, ReasonMatchWin, "")
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewTransition("id-3", 1, 1200, 1216, "rigged", "")
	assert.ErrorIs(t, err, shared.ErrInvalidReason)
}

func TestReasonIsValid(t *testing.T) {
	for _, r := range []Reason{ReasonMatchWin, ReasonMatchLoss, ReasonTournamentResult, ReasonManualAdjustment} {
		assert.True(t, r.IsValid())
	}
	assert.False(t, Reason("rigged").IsValid())
	assert.False(t, Reason("").IsValid())
}
