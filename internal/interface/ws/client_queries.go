package ws

import (
	"context"
	"encoding/json"
	"time"

	"github.com/codm-arena/arena-hub/internal/domain/leaderboard"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// READ-SIDE MESSAGE HANDLERS
// ══════════════════════════════════════════════════════════════════════════════

const queryTimeout = 5 * time.Second

// LimitMsg carries an optional page size.
type LimitMsg struct {
	Limit int `json:"limit"`
}

// AckAchievementMsg acknowledges a displayed unlock.
type AckAchievementMsg struct {
	AchievementID int64 `json:"achievement_id"`
}

func (c *Client) queryCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), queryTimeout)
}

func (c *Client) handleGetLeaderboard(data json.RawMessage) {
	if c.hub.services == nil || c.hub.services.Leaderboards == nil {
		c.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "leaderboard unavailable"}})
		return
	}
	var msg LimitMsg
	_ = json.Unmarshal(data, &msg)

	ctx, cancel := c.queryCtx()
	defer cancel()

	entries, err := c.hub.services.Leaderboards.Get(ctx, leaderboard.ModeAll, msg.Limit)
	if err != nil {
		c.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "failed to load leaderboard"}})
		return
	}
	c.sendJSON(Envelope{T: MsgLeaderboardData, Data: entries})
}

func (c *Client) handleGetHistory(data json.RawMessage) {
	if c.hub.services == nil || c.hub.services.History == nil {
		c.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "history unavailable"}})
		return
	}
	var msg LimitMsg
	_ = json.Unmarshal(data, &msg)

	ctx, cancel := c.queryCtx()
	defer cancel()

	transitions, err := c.hub.services.History.Get(ctx, rating.UserID(c.userID), msg.Limit)
	if err != nil {
		c.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "failed to load history"}})
		return
	}
	c.sendJSON(Envelope{T: MsgHistoryData, Data: transitions})
}

func (c *Client) handleGetAchievements() {
	if c.hub.services == nil || c.hub.services.Achievements == nil {
		c.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "achievements unavailable"}})
		return
	}

	ctx, cancel := c.queryCtx()
	defer cancel()

	progress, err := c.hub.services.Achievements.Progress(ctx, rating.UserID(c.userID))
	if err != nil {
		c.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "failed to load achievements"}})
		return
	}
	c.sendJSON(Envelope{T: MsgAchievementsData, Data: progress})
}

func (c *Client) handleGetProfile() {
	if c.hub.services == nil || c.hub.services.Stats == nil {
		c.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "profile unavailable"}})
		return
	}

	ctx, cancel := c.queryCtx()
	defer cancel()

	stats, err := c.hub.services.Stats.Get(ctx, rating.UserID(c.userID))
	if err != nil {
		c.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "profile not found"}})
		return
	}
	c.sendJSON(Envelope{T: MsgProfileData, Data: stats})
}

func (c *Client) handleAckAchievement(data json.RawMessage) {
	if c.hub.services == nil || c.hub.services.Achievements == nil {
		return
	}
	var msg AckAchievementMsg
	if err := json.Unmarshal(data, &msg); err != nil || msg.AchievementID <= 0 {
		return
	}

	ctx, cancel := c.queryCtx()
	defer cancel()

	if err := c.hub.services.Achievements.MarkNotified(ctx, rating.UserID(c.userID), msg.AchievementID); err != nil {
		c.log.Debug("failed to mark achievement notified", logger.Err(err))
	}
}
