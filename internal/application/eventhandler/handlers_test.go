package eventhandler

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/codm-arena/arena-hub/internal/application/command"
	"github.com/codm-arena/arena-hub/internal/domain/achievement"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
	"github.com/codm-arena/arena-hub/internal/infrastructure/messaging"
	"github.com/codm-arena/arena-hub/pkg/keymutex"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

// The handler tests run the real command stack against in-memory storage,
// wired through a synchronous bus, so one published event exercises the
// full path: event -> command -> storage -> follow-up events.

type memStats struct {
	players map[rating.UserID]*rating.PlayerStats
	history []*rating.Transition
}

func newMemStats(players ...*rating.PlayerStats) *memStats {
	m := &memStats{players: make(map[rating.UserID]*rating.PlayerStats)}
	for _, p := range players {
		m.players[p.UserID] = p
	}
	return m
}

func (m *memStats) Create(_ context.Context, s *rating.PlayerStats) error {
	if _, ok := m.players[s.UserID]; ok {
		return shared.ErrAlreadyExists
	}
	m.players[s.UserID] = s.Clone()
	return nil
}

func (m *memStats) GetByID(_ context.Context, id rating.UserID) (*rating.PlayerStats, error) {
	s, ok := m.players[id]
	if !ok {
		return nil, shared.ErrPlayerNotFound
	}
	return s.Clone(), nil
}

func (m *memStats) GetByIDs(_ context.Context, ids []rating.UserID) ([]*rating.PlayerStats, error) {
	var out []*rating.PlayerStats
	for _, id := range ids {
		if s, ok := m.players[id]; ok {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (m *memStats) ListIDs(_ context.Context) ([]rating.UserID, error) {
	var ids []rating.UserID
	for id := range m.players {
		ids = append(ids, id)
	}
	return ids, nil
}

func (m *memStats) ApplyMatchUpdate(_ context.Context, u *rating.MatchUpdate) error {
	for _, pair := range []struct {
		change rating.RatingChange
		delta  rating.CounterDelta
	}{{u.Winner, u.WinnerCounter}, {u.Loser, u.LoserCounter}} {
		s, ok := m.players[pair.change.UserID]
		if !ok {
			return shared.ErrPlayerNotFound
		}
		s.Rating = pair.change.NewRating
		s.MatchesPlayed += pair.delta.MatchesPlayed
		s.MatchesWon += pair.delta.MatchesWon
		s.TournamentsPlayed += pair.delta.TournamentsPlayed
		s.TournamentsWon += pair.delta.TournamentsWon
	}
	m.history = append(m.history, u.Transitions...)
	return nil
}

func (m *memStats) IncrementCounters(_ context.Context, id rating.UserID, d rating.CounterDelta) error {
	s, ok := m.players[id]
	if !ok {
		return shared.ErrPlayerNotFound
	}
	s.MatchesPlayed += d.MatchesPlayed
	s.MatchesWon += d.MatchesWon
	s.TournamentsPlayed += d.TournamentsPlayed
	s.TournamentsWon += d.TournamentsWon
	return nil
}

func (m *memStats) AwardAchievementPoints(_ context.Context, id rating.UserID, points int) error {
	s, ok := m.players[id]
	if !ok {
		return shared.ErrPlayerNotFound
	}
	s.AchievementPoints += points
	return nil
}

func (m *memStats) AdjustRating(_ context.Context, t *rating.Transition) error {
	s, ok := m.players[t.UserID]
	if !ok {
		return shared.ErrPlayerNotFound
	}
	s.Rating = t.NewRating
	m.history = append(m.history, t)
	return nil
}

type memCatalog struct{ defs []*achievement.Definition }

func (c *memCatalog) ListAll(_ context.Context) ([]*achievement.Definition, error) { return c.defs, nil }
func (c *memCatalog) GetByID(_ context.Context, id int64) (*achievement.Definition, error) {
	for _, d := range c.defs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, shared.ErrAchievementNotFound
}

type memUnlocks struct {
	stats    *memStats
	unlocked map[rating.UserID]map[int64]bool
}

func newMemUnlocks(stats *memStats) *memUnlocks {
	return &memUnlocks{stats: stats, unlocked: make(map[rating.UserID]map[int64]bool)}
}

func (u *memUnlocks) InsertIfAbsent(ctx context.Context, unlock *achievement.Unlock, points int) (bool, error) {
	if u.unlocked[unlock.UserID] == nil {
		u.unlocked[unlock.UserID] = make(map[int64]bool)
	}
	if u.unlocked[unlock.UserID][unlock.AchievementID] {
		return false, nil
	}
	u.unlocked[unlock.UserID][unlock.AchievementID] = true
	return true, u.stats.AwardAchievementPoints(ctx, unlock.UserID, points)
}

func (u *memUnlocks) ListUnlockedIDs(_ context.Context, id rating.UserID) ([]int64, error) {
	var ids []int64
	for achID := range u.unlocked[id] {
		ids = append(ids, achID)
	}
	return ids, nil
}

func (u *memUnlocks) ListUnlocks(_ context.Context, _ rating.UserID) ([]*achievement.UnlockedAchievement, error) {
	return nil, nil
}

func (u *memUnlocks) MarkNotified(_ context.Context, _ rating.UserID, _ int64) error { return nil }

func TestMatchCompletedEventDrivesFullPipeline(t *testing.T) {
	stats := newMemStats(
		&rating.PlayerStats{UserID: 1, Username: "alpha", Rating: 1200},
		&rating.PlayerStats{UserID: 2, Username: "beta", Rating: 1200},
	)
	unlocks := newMemUnlocks(stats)
	catalog := &memCatalog{defs: []*achievement.Definition{
		{ID: 1, Name: "Premier Pas", Category: achievement.CategorySpecial, Points: 5, ConditionType: achievement.ConditionAccountCreated},
	}}

	log := logger.New(io.Discard, logger.LevelError)
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.AsyncMode = false
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer bus.Close()

	achievements := command.NewCheckAchievementsHandler(stats, catalog, unlocks, bus, log)
	matches := command.NewMatchResultHandler(stats, keymutex.New(), achievements, nil, bus, time.Second, 0, log)

	require.NoError(t, NewMatchCompletedHandler(matches, log).Register(bus))

	event := shared.MatchCompletedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventMatchCompleted, "match-1"),
		WinnerID:  1,
		LoserID:   2,
		RelatedID: "match-1",
	}
	require.NoError(t, bus.Publish(event))

	winner, err := stats.GetByID(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, 1216, winner.Rating)
	assert.Equal(t, 1, winner.MatchesPlayed)
	assert.Equal(t, 5, winner.AchievementPoints)

	loser, err := stats.GetByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, 1184, loser.Rating)
}

func TestChatMessageEventTriggersAchievementCheck(t *testing.T) {
	stats := newMemStats(&rating.PlayerStats{UserID: 9, Username: "gamma", Rating: 1200})
	unlocks := newMemUnlocks(stats)
	catalog := &memCatalog{defs: []*achievement.Definition{
		{ID: 1, Name: "Premier Pas", Category: achievement.CategorySpecial, Points: 5, ConditionType: achievement.ConditionAccountCreated},
	}}

	log := logger.New(io.Discard, logger.LevelError)
	busCfg := messaging.DefaultInMemoryEventBusConfig()
	busCfg.AsyncMode = false
	bus := messaging.NewInMemoryEventBus(busCfg)
	defer bus.Close()

	achievements := command.NewCheckAchievementsHandler(stats, catalog, unlocks, bus, log)
	require.NoError(t, NewChatMessageHandler(achievements, log).Register(bus))

	event := shared.ChatMessageReceivedEvent{
		BaseEvent: shared.NewBaseEvent(shared.EventChatMessageReceived, "room-1"),
		UserID:    9,
		RoomID:    "room-1",
	}
	require.NoError(t, bus.Publish(event))

	player, err := stats.GetByID(context.Background(), 9)
	require.NoError(t, err)
	assert.Equal(t, 5, player.AchievementPoints)
}
