package command

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codm-arena/arena-hub/internal/domain/achievement"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

func testCatalog() []*achievement.Definition {
	return []*achievement.Definition{
		{ID: 1, Name: "Premier Pas", Category: achievement.CategorySpecial, Points: 5, ConditionType: achievement.ConditionAccountCreated},
		{ID: 2, Name: "Guerrier", Category: achievement.CategoryMatch, Points: 15, ConditionType: achievement.ConditionMatchesPlayed, ConditionValue: 10},
		{ID: 3, Name: "Master ELO", Category: achievement.CategoryMatch, Points: 200, ConditionType: achievement.ConditionRating, ConditionValue: 1800},
		{ID: 4, Name: "Membre Fondateur", Category: achievement.CategorySpecial, Points: 500, ConditionType: achievement.ConditionUserID, ConditionValue: 100},
		{ID: 5, Name: "Social", Category: achievement.CategorySocial, Points: 30, ConditionType: "messages_sent", ConditionValue: 100},
	}
}

func newCheckHandler(stats *fakeStatsRepo) (*CheckAchievementsHandler, *fakeUnlockRepo, *fakePublisher) {
	publisher := &fakePublisher{}
	unlocks := newFakeUnlockRepo(stats)
	handler := NewCheckAchievementsHandler(
		stats, &fakeCatalogRepo{defs: testCatalog()}, unlocks, publisher, quietLogger(),
	)
	return handler, unlocks, publisher
}

func TestCheckAndUnlockNewPlayer(t *testing.T) {
	// A brand-new low-ID player earns the creation and early-adopter
	// achievements immediately, nothing else.
	stats := newFakeStatsRepo(player(7, 1200, 0, 0))
	handler, unlocks, publisher := newCheckHandler(stats)

	unlocked, err := handler.CheckAndUnlock(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, unlocked, 2)
	assert.Equal(t, "Premier Pas", unlocked[0].Name)
	assert.Equal(t, "Membre Fondateur", unlocked[1].Name)

	ids, err := unlocks.ListUnlockedIDs(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids)
	assert.Equal(t, 505, stats.get(7).AchievementPoints)
	assert.Len(t, publisher.ofType(shared.EventAchievementUnlocked), 2)
}

func TestCheckAndUnlockIsIdempotent(t *testing.T) {
	stats := newFakeStatsRepo(player(7, 1200, 0, 0))
	handler, _, publisher := newCheckHandler(stats)

	first, err := handler.CheckAndUnlock(context.Background(), 7)
	require.NoError(t, err)
	require.NotEmpty(t, first)

	second, err := handler.CheckAndUnlock(context.Background(), 7)
	require.NoError(t, err)
	assert.Empty(t, second)
	assert.Equal(t, 505, stats.get(7).AchievementPoints)
	assert.Len(t, publisher.ofType(shared.EventAchievementUnlocked), len(first))
}

func TestCheckAndUnlockLateRegistrant(t *testing.T) {
	// User 101 is past the founder cutoff: user_id 101 <= 100 is false.
	stats := newFakeStatsRepo(player(101, 1200, 0, 0))
	handler, unlocks, _ := newCheckHandler(stats)

	_, err := handler.CheckAndUnlock(context.Background(), 101)
	require.NoError(t, err)

	ids, err := unlocks.ListUnlockedIDs(context.Background(), 101)
	require.NoError(t, err)
	assert.Equal(t, []int64{1}, ids)
}

func TestCheckAndUnlockRatingThreshold(t *testing.T) {
	stats := newFakeStatsRepo(player(200, 1800, 60, 45))
	handler, unlocks, _ := newCheckHandler(stats)

	_, err := handler.CheckAndUnlock(context.Background(), 200)
	require.NoError(t, err)

	ids, err := unlocks.ListUnlockedIDs(context.Background(), 200)
	require.NoError(t, err)
	assert.Contains(t, ids, int64(3), "exactly 1800 meets the >= 1800 condition")
}

func TestCheckAndUnlockUnknownConditionNeverUnlocks(t *testing.T) {
	// The social achievement uses a condition type this build does not
	// evaluate; it must stay locked no matter the stats.
	stats := newFakeStatsRepo(player(200, 2500, 1000, 900))
	handler, unlocks, _ := newCheckHandler(stats)

	_, err := handler.CheckAndUnlock(context.Background(), 200)
	require.NoError(t, err)

	ids, err := unlocks.ListUnlockedIDs(context.Background(), 200)
	require.NoError(t, err)
	assert.NotContains(t, ids, int64(5))
}

func TestCheckAndUnlockMissingPlayer(t *testing.T) {
	stats := newFakeStatsRepo()
	handler, _, _ := newCheckHandler(stats)

	unlocked, err := handler.CheckAndUnlock(context.Background(), 42)
	require.NoError(t, err)
	assert.Empty(t, unlocked)
}

func TestCheckAndUnlockInvalidID(t *testing.T) {
	stats := newFakeStatsRepo()
	handler, _, _ := newCheckHandler(stats)

	_, err := handler.CheckAndUnlock(context.Background(), 0)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestCheckAndUnlockConcurrentRace(t *testing.T) {
	// Two evaluations racing on the same player: the storage-level
	// idempotency keeps points single-awarded regardless of interleaving.
	stats := newFakeStatsRepo(player(7, 1200, 10, 5))
	handler, _, _ := newCheckHandler(stats)

	done := make(chan struct{}, 2)
	for i := 0; i < 2; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			_, _ = handler.CheckAndUnlock(context.Background(), rating.UserID(7))
		}()
	}
	<-done
	<-done

	assert.Equal(t, 5+15+500, stats.get(7).AchievementPoints)
}
