package command

import (
	"context"
	"sort"
	"sync"

	"github.com/codm-arena/arena-hub/internal/domain/achievement"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
)

// In-memory repository fakes shared by the command tests. They mirror the
// storage contracts exactly, including the idempotent unlock insert and the
// not-found sentinels.

type fakeStatsRepo struct {
	mu      sync.Mutex
	players map[rating.UserID]*rating.PlayerStats

	history []*rating.Transition

	// failNext makes the next mutating call fail with this error.
	failNext error
}

func newFakeStatsRepo(players ...*rating.PlayerStats) *fakeStatsRepo {
	repo := &fakeStatsRepo{players: make(map[rating.UserID]*rating.PlayerStats)}
	for _, p := range players {
		repo.players[p.UserID] = p.Clone()
	}
	return repo
}

func (r *fakeStatsRepo) takeFailure() error {
	err := r.failNext
	r.failNext = nil
	return err
}

func (r *fakeStatsRepo) Create(_ context.Context, s *rating.PlayerStats) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.players[s.UserID]; ok {
		return shared.ErrAlreadyExists
	}
	r.players[s.UserID] = s.Clone()
	return nil
}

func (r *fakeStatsRepo) GetByID(_ context.Context, userID rating.UserID) (*rating.PlayerStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.players[userID]
	if !ok {
		return nil, shared.ErrPlayerNotFound
	}
	return s.Clone(), nil
}

func (r *fakeStatsRepo) GetByIDs(_ context.Context, userIDs []rating.UserID) ([]*rating.PlayerStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*rating.PlayerStats
	for _, id := range userIDs {
		if s, ok := r.players[id]; ok {
			out = append(out, s.Clone())
		}
	}
	return out, nil
}

func (r *fakeStatsRepo) ListIDs(_ context.Context) ([]rating.UserID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]rating.UserID, 0, len(r.players))
	for id := range r.players {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeStatsRepo) ApplyMatchUpdate(_ context.Context, update *rating.MatchUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}

	for _, pair := range []struct {
		change rating.RatingChange
		delta  rating.CounterDelta
	}{
		{update.Winner, update.WinnerCounter},
		{update.Loser, update.LoserCounter},
	} {
		s, ok := r.players[pair.change.UserID]
		if !ok {
			return shared.ErrPlayerNotFound
		}
		s.Rating = pair.change.NewRating
		s.MatchesPlayed += pair.delta.MatchesPlayed
		s.MatchesWon += pair.delta.MatchesWon
		s.TournamentsPlayed += pair.delta.TournamentsPlayed
		s.TournamentsWon += pair.delta.TournamentsWon
	}
	r.history = append(r.history, update.Transitions...)
	return nil
}

func (r *fakeStatsRepo) IncrementCounters(_ context.Context, userID rating.UserID, delta rating.CounterDelta) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	s, ok := r.players[userID]
	if !ok {
		return shared.ErrPlayerNotFound
	}
	s.MatchesPlayed += delta.MatchesPlayed
	s.MatchesWon += delta.MatchesWon
	s.TournamentsPlayed += delta.TournamentsPlayed
	s.TournamentsWon += delta.TournamentsWon
	return nil
}

func (r *fakeStatsRepo) AwardAchievementPoints(_ context.Context, userID rating.UserID, points int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.players[userID]
	if !ok {
		return shared.ErrPlayerNotFound
	}
	s.AchievementPoints += points
	return nil
}

func (r *fakeStatsRepo) AdjustRating(_ context.Context, t *rating.Transition) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.takeFailure(); err != nil {
		return err
	}
	s, ok := r.players[t.UserID]
	if !ok {
		return shared.ErrPlayerNotFound
	}
	s.Rating = t.NewRating
	r.history = append(r.history, t)
	return nil
}

func (r *fakeStatsRepo) get(userID rating.UserID) *rating.PlayerStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.players[userID].Clone()
}

func (r *fakeStatsRepo) transitions() []*rating.Transition {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*rating.Transition(nil), r.history...)
}

type fakeCatalogRepo struct {
	defs []*achievement.Definition
}

func (r *fakeCatalogRepo) ListAll(_ context.Context) ([]*achievement.Definition, error) {
	return r.defs, nil
}

func (r *fakeCatalogRepo) GetByID(_ context.Context, id int64) (*achievement.Definition, error) {
	for _, d := range r.defs {
		if d.ID == id {
			return d, nil
		}
	}
	return nil, shared.ErrAchievementNotFound
}

type unlockKey struct {
	user rating.UserID
	ach  int64
}

type fakeUnlockRepo struct {
	mu       sync.Mutex
	stats    *fakeStatsRepo
	unlocked map[unlockKey]*achievement.Unlock
}

func newFakeUnlockRepo(stats *fakeStatsRepo) *fakeUnlockRepo {
	return &fakeUnlockRepo{stats: stats, unlocked: make(map[unlockKey]*achievement.Unlock)}
}

func (r *fakeUnlockRepo) InsertIfAbsent(ctx context.Context, unlock *achievement.Unlock, points int) (bool, error) {
	r.mu.Lock()
	key := unlockKey{unlock.UserID, unlock.AchievementID}
	if _, ok := r.unlocked[key]; ok {
		r.mu.Unlock()
		return false, nil
	}
	r.unlocked[key] = unlock
	r.mu.Unlock()

	return true, r.stats.AwardAchievementPoints(ctx, unlock.UserID, points)
}

func (r *fakeUnlockRepo) ListUnlockedIDs(_ context.Context, userID rating.UserID) ([]int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var ids []int64
	for key := range r.unlocked {
		if key.user == userID {
			ids = append(ids, key.ach)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (r *fakeUnlockRepo) ListUnlocks(_ context.Context, userID rating.UserID) ([]*achievement.UnlockedAchievement, error) {
	return nil, nil
}

func (r *fakeUnlockRepo) MarkNotified(_ context.Context, userID rating.UserID, achievementID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.unlocked[unlockKey{userID, achievementID}]
	if !ok {
		return shared.ErrAchievementNotFound
	}
	u.Notified = true
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []shared.Event
}

func (p *fakePublisher) Publish(event shared.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *fakePublisher) ofType(eventType shared.EventType) []shared.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []shared.Event
	for _, e := range p.events {
		if e.EventType() == eventType {
			out = append(out, e)
		}
	}
	return out
}

type fakeInvalidator struct {
	mu    sync.Mutex
	calls int
}

func (f *fakeInvalidator) Invalidate(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return nil
}

func (f *fakeInvalidator) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}
