package query

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codm-arena/arena-hub/internal/domain/leaderboard"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/infrastructure/persistence/redis"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

func quietLogger() *logger.Logger {
	return logger.New(io.Discard, logger.LevelError)
}

type fakeBoardRepo struct {
	records []*rating.PlayerStats
	calls   int
	err     error
}

func (r *fakeBoardRepo) TopByRating(_ context.Context, limit int) ([]*rating.PlayerStats, error) {
	r.calls++
	if r.err != nil {
		return nil, r.err
	}
	if len(r.records) > limit {
		return r.records[:limit], nil
	}
	return r.records, nil
}

type pageKey struct {
	mode  string
	limit int
}

type fakePageCache struct {
	mu    sync.Mutex
	pages map[pageKey][]*leaderboard.Entry
	err   error
}

func newFakePageCache() *fakePageCache {
	return &fakePageCache{pages: make(map[pageKey][]*leaderboard.Entry)}
}

func (c *fakePageCache) GetPage(_ context.Context, mode string, limit int) ([]*leaderboard.Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	page, ok := c.pages[pageKey{mode, limit}]
	if !ok {
		return nil, redis.ErrCacheMiss
	}
	return page, nil
}

func (c *fakePageCache) SetPage(_ context.Context, mode string, limit int, entries []*leaderboard.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.pages[pageKey{mode, limit}] = entries
	return nil
}

func boardRecord(id rating.UserID, elo, played, won int) *rating.PlayerStats {
	return &rating.PlayerStats{
		UserID:        id,
		Username:      "player-" + id.String(),
		Rating:        elo,
		MatchesPlayed: played,
		MatchesWon:    won,
		UpdatedAt:     time.Now().UTC(),
	}
}

func TestLeaderboardGetRanksAndCaches(t *testing.T) {
	repo := &fakeBoardRepo{records: []*rating.PlayerStats{
		boardRecord(3, 1500, 10, 7),
		boardRecord(1, 1700, 30, 21),
		boardRecord(2, 1500, 8, 2),
	}}
	cache := newFakePageCache()
	q := NewLeaderboardQuery(repo, cache, 100, quietLogger())

	entries, err := q.Get(context.Background(), leaderboard.ModeAll, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)

	assert.Equal(t, 1, entries[0].Rank)
	assert.Equal(t, rating.UserID(1), entries[0].UserID)
	// Tied at 1500: lower user ID ranks higher.
	assert.Equal(t, rating.UserID(2), entries[1].UserID)
	assert.Equal(t, rating.UserID(3), entries[2].UserID)
	assert.InDelta(t, 70.0, entries[2].WinRate, 0.001)

	// Second read comes from the cache.
	_, err = q.Get(context.Background(), leaderboard.ModeAll, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.calls)
}

func TestLeaderboardCacheOutageFallsBackToStorage(t *testing.T) {
	repo := &fakeBoardRepo{records: []*rating.PlayerStats{boardRecord(1, 1400, 4, 2)}}
	cache := newFakePageCache()
	cache.err = errors.New("connection refused")
	q := NewLeaderboardQuery(repo, cache, 100, quietLogger())

	entries, err := q.Get(context.Background(), leaderboard.ModeAll, 10)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 1, repo.calls)
}

func TestLeaderboardWithoutCache(t *testing.T) {
	repo := &fakeBoardRepo{records: []*rating.PlayerStats{boardRecord(1, 1400, 0, 0)}}
	q := NewLeaderboardQuery(repo, nil, 100, quietLogger())

	entries, err := q.Get(context.Background(), leaderboard.ModeAll, 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Zero(t, entries[0].WinRate, "no matches played means zero win rate")
}

func TestLeaderboardLimitClamping(t *testing.T) {
	var records []*rating.PlayerStats
	for i := 1; i <= 50; i++ {
		records = append(records, boardRecord(rating.UserID(i), 1200+i, 0, 0))
	}
	repo := &fakeBoardRepo{records: records}
	q := NewLeaderboardQuery(repo, nil, 25, quietLogger())

	entries, err := q.Get(context.Background(), leaderboard.ModeAll, 9999)
	require.NoError(t, err)
	assert.Len(t, entries, 25)

	entries, err = q.Get(context.Background(), leaderboard.ModeAll, 0)
	require.NoError(t, err)
	assert.Len(t, entries, DefaultLeaderboardLimit)
}

func TestLeaderboardStorageFailure(t *testing.T) {
	repo := &fakeBoardRepo{err: errors.New("connection reset")}
	q := NewLeaderboardQuery(repo, nil, 100, quietLogger())

	_, err := q.Get(context.Background(), leaderboard.ModeAll, 10)
	assert.Error(t, err)
}
