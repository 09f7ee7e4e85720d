package jobs

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codm-arena/arena-hub/internal/domain/achievement"
	"github.com/codm-arena/arena-hub/internal/domain/leaderboard"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
)

type fakeLister struct {
	ids []rating.UserID
	err error
}

func (f *fakeLister) ListIDs(_ context.Context) ([]rating.UserID, error) {
	return f.ids, f.err
}

type fakeChecker struct {
	mu      sync.Mutex
	checked []rating.UserID
	failFor map[rating.UserID]error
	unlocks map[rating.UserID]int
}

func (f *fakeChecker) CheckAndUnlock(_ context.Context, userID rating.UserID) ([]*achievement.Definition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.checked = append(f.checked, userID)
	if err := f.failFor[userID]; err != nil {
		return nil, err
	}
	defs := make([]*achievement.Definition, f.unlocks[userID])
	for i := range defs {
		defs[i] = &achievement.Definition{ID: int64(i + 1)}
	}
	return defs, nil
}

func TestReconcileSweepsAllPlayers(t *testing.T) {
	lister := &fakeLister{ids: []rating.UserID{1, 2, 3}}
	checker := &fakeChecker{unlocks: map[rating.UserID]int{2: 1}}
	job := NewReconcileAchievementsJob(lister, checker, slog.Default())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, []rating.UserID{1, 2, 3}, checker.checked)
}

func TestReconcileContinuesPastPlayerFailures(t *testing.T) {
	lister := &fakeLister{ids: []rating.UserID{1, 2, 3}}
	checker := &fakeChecker{failFor: map[rating.UserID]error{2: errors.New("storage hiccup")}}
	job := NewReconcileAchievementsJob(lister, checker, slog.Default())

	require.NoError(t, job.Run(context.Background()), "per-player failures do not fail the sweep")
	assert.Len(t, checker.checked, 3)
}

func TestReconcileFailsWhenListingFails(t *testing.T) {
	lister := &fakeLister{err: errors.New("connection refused")}
	job := NewReconcileAchievementsJob(lister, &fakeChecker{}, slog.Default())

	assert.Error(t, job.Run(context.Background()))
}

func TestReconcileStopsOnCancelledContext(t *testing.T) {
	lister := &fakeLister{ids: []rating.UserID{1, 2, 3}}
	checker := &fakeChecker{}
	job := NewReconcileAchievementsJob(lister, checker, slog.Default())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, job.Run(ctx))
	assert.Empty(t, checker.checked)
}

type fakeBoardRepo struct {
	records []*rating.PlayerStats
	err     error
}

func (f *fakeBoardRepo) TopByRating(_ context.Context, limit int) ([]*rating.PlayerStats, error) {
	if f.err != nil {
		return nil, f.err
	}
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}

type fakePageStore struct {
	mu      sync.Mutex
	mode    string
	limit   int
	entries []*leaderboard.Entry
	calls   int
}

func (f *fakePageStore) SetPage(_ context.Context, mode string, limit int, entries []*leaderboard.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mode, f.limit, f.entries = mode, limit, entries
	f.calls++
	return nil
}

func TestRefreshLeaderboardCachesRankedPage(t *testing.T) {
	repo := &fakeBoardRepo{records: []*rating.PlayerStats{
		{UserID: 2, Rating: 1500},
		{UserID: 1, Rating: 1700},
	}}
	store := &fakePageStore{}
	job := NewRefreshLeaderboardJob(repo, store, 50, slog.Default())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, "all", store.mode)
	assert.Equal(t, 50, store.limit)
	require.Len(t, store.entries, 2)
	assert.Equal(t, rating.UserID(1), store.entries[0].UserID)
}

func TestRefreshLeaderboardSkipsEmptyBoard(t *testing.T) {
	store := &fakePageStore{}
	job := NewRefreshLeaderboardJob(&fakeBoardRepo{}, store, 50, slog.Default())

	require.NoError(t, job.Run(context.Background()))
	assert.Zero(t, store.calls, "nothing to cache for an empty board")
}

func TestRefreshLeaderboardPropagatesStorageError(t *testing.T) {
	job := NewRefreshLeaderboardJob(&fakeBoardRepo{err: errors.New("down")}, &fakePageStore{}, 50, slog.Default())
	assert.Error(t, job.Run(context.Background()))
}
