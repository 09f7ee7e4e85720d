package ws

import (
	"github.com/codm-arena/arena-hub/internal/application/command"
	"github.com/codm-arena/arena-hub/internal/application/query"
)

// Services bundles the application services the gateway exposes. Players
// reach the read side and their own profile over the socket; the admin
// write operations are served over plain HTTP on the same listener.
type Services struct {
	Register     *command.RegisterPlayerHandler
	Adjust       *command.AdjustRatingHandler
	Counters     *command.IncrementCountersHandler
	Leaderboards *query.LeaderboardQuery
	History      *query.HistoryQuery
	Achievements *query.AchievementsQuery
	Stats        *query.StatsQuery
}
