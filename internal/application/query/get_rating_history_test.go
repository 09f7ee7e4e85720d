package query

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

type fakeHistoryRepo struct {
	transitions map[rating.UserID][]*rating.Transition
	lastLimit   int
}

func (r *fakeHistoryRepo) Append(_ context.Context, t *rating.Transition) error {
	if r.transitions == nil {
		r.transitions = make(map[rating.UserID][]*rating.Transition)
	}
	// Prepend: the contract serves newest first.
	r.transitions[t.UserID] = append([]*rating.Transition{t}, r.transitions[t.UserID]...)
	return nil
}

func (r *fakeHistoryRepo) GetHistory(_ context.Context, userID rating.UserID, limit int) ([]*rating.Transition, error) {
	r.lastLimit = limit
	ts := r.transitions[userID]
	if len(ts) > limit {
		ts = ts[:limit]
	}
	return ts, nil
}

func transitionAt(userID rating.UserID, oldElo, newElo int, at time.Time) *rating.Transition {
	return &rating.Transition{
		ID:        at.Format(time.RFC3339Nano),
		UserID:    userID,
		OldRating: oldElo,
		NewRating: newElo,
		Delta:     newElo - oldElo,
		Reason:    rating.ReasonMatchWin,
		CreatedAt: at,
	}
}

func TestHistoryGetNewestFirst(t *testing.T) {
	repo := &fakeHistoryRepo{}
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Append(context.Background(), transitionAt(1, 1200, 1216, base)))
	require.NoError(t, repo.Append(context.Background(), transitionAt(1, 1216, 1232, base.Add(time.Hour))))

	q := NewHistoryQuery(repo, 100)
	transitions, err := q.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	require.Len(t, transitions, 2)
	assert.Equal(t, 1232, transitions[0].NewRating)
	assert.Equal(t, 1216, transitions[1].NewRating)
}

func TestHistoryLimitClamping(t *testing.T) {
	repo := &fakeHistoryRepo{}
	q := NewHistoryQuery(repo, 50)

	_, err := q.Get(context.Background(), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, DefaultHistoryLimit, repo.lastLimit)

	_, err = q.Get(context.Background(), 1, 9999)
	require.NoError(t, err)
	assert.Equal(t, 50, repo.lastLimit)
}

func TestHistoryEmptyPlayer(t *testing.T) {
	q := NewHistoryQuery(&fakeHistoryRepo{}, 100)

	transitions, err := q.Get(context.Background(), 1, 10)
	require.NoError(t, err)
	assert.Empty(t, transitions)

	_, err = q.Get(context.Background(), 0, 10)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestHistoryDailyFolding(t *testing.T) {
	repo := &fakeHistoryRepo{}
	day1 := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Append(context.Background(), transitionAt(1, 1200, 1216, day1)))
	require.NoError(t, repo.Append(context.Background(), transitionAt(1, 1216, 1210, day1.Add(2*time.Hour))))
	require.NoError(t, repo.Append(context.Background(), transitionAt(1, 1210, 1230, day2)))

	q := NewHistoryQuery(repo, 100)
	points, err := q.GetDaily(context.Background(), 1, 50)
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, "2026-03-01", points[0].Day)
	assert.Equal(t, 1210, points[0].Rating, "closing rating is the day's newest transition")
	assert.Equal(t, 10, points[0].NetDelta)
	assert.Equal(t, 2, points[0].Changes)

	assert.Equal(t, "2026-03-02", points[1].Day)
	assert.Equal(t, 1230, points[1].Rating)
	assert.Equal(t, 20, points[1].NetDelta)
	assert.Equal(t, 1, points[1].Changes)
}
