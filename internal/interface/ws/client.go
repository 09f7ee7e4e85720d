// Package ws implements the real-time gateway. Connected players exchange
// room-scoped chat messages and receive push notifications for rating
// changes and achievement unlocks. The gateway publishes chat activity to
// the event bus; the gamification core consumes it as a trigger, message
// content never leaves this package.
package ws

import (
	"encoding/json"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"github.com/codm-arena/arena-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// MESSAGE ENVELOPES
// ══════════════════════════════════════════════════════════════════════════════

// Inbound message types.
const (
	MsgChat            = "chat"
	MsgJoinRoom        = "join_room"
	MsgLeaveRoom       = "leave_room"
	MsgGetLeaderboard  = "leaderboard"
	MsgGetHistory      = "history"
	MsgGetAchievements = "achievements"
	MsgGetProfile      = "profile"
	MsgAckAchievement  = "ack_achievement"
)

// Outbound message types.
const (
	MsgChatDelivered       = "chat_delivered"
	MsgRatingChanged       = "rating_changed"
	MsgAchievementUnlocked = "achievement_unlocked"
	MsgLeaderboardData     = "leaderboard_data"
	MsgHistoryData         = "history_data"
	MsgAchievementsData    = "achievements_data"
	MsgProfileData         = "profile_data"
	MsgError               = "error"
)

// InEnvelope is the single-pass decode wrapper for inbound messages.
type InEnvelope struct {
	T string          `json:"t"`
	D json.RawMessage `json:"d"`
}

// Envelope wraps outbound messages.
type Envelope struct {
	T    string `json:"t"`
	Data any    `json:"d,omitempty"`
}

// ChatMsg is an inbound chat message.
type ChatMsg struct {
	RoomID string `json:"room_id"`
	Text   string `json:"text"`
}

// RoomMsg selects a room for join/leave.
type RoomMsg struct {
	RoomID string `json:"room_id"`
}

// ChatDeliveredMsg is a chat message fanned out to a room.
type ChatDeliveredMsg struct {
	RoomID   string `json:"room_id"`
	UserID   int64  `json:"user_id"`
	Username string `json:"username"`
	Text     string `json:"text"`
	SentAt   string `json:"sent_at"`
}

// ErrorMsg carries an error to the client.
type ErrorMsg struct {
	Msg string `json:"msg"`
}

const maxChatTextLen = 500

// ══════════════════════════════════════════════════════════════════════════════
// CLIENT
// ══════════════════════════════════════════════════════════════════════════════

// Client is one WebSocket connection bound to an authenticated player.
// Room membership lives on the hub, not here: the run loop is the only
// goroutine that tracks which room a client is in.
type Client struct {
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
	limiter  *rate.Limiter
	userID   int64
	username string
	log      *logger.Logger
}

func newClient(hub *Hub, conn *websocket.Conn, userID int64, username string) *Client {
	return &Client{
		hub:      hub,
		conn:     conn,
		send:     make(chan []byte, hub.cfg.SendBufferSize),
		limiter:  rate.NewLimiter(rate.Limit(hub.cfg.MessagesPerSecond), hub.cfg.MessageBurst),
		userID:   userID,
		username: username,
		log:      hub.log.With(logger.UserID(userID)),
	}
}

// readPump reads inbound messages until the connection drops. Messages
// beyond the per-connection rate budget are dropped, not fatal; the limiter
// protects the bus, not the socket.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.hub.cfg.MaxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.hub.cfg.PongTimeout))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.log.Debug("websocket read error", logger.Err(err))
			}
			return
		}

		if !c.limiter.Allow() {
			c.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "rate limit exceeded"}})
			continue
		}

		c.handleMessage(raw)
	}
}

// writePump drains the send buffer and keeps the connection alive with
// pings. One goroutine per connection owns all writes.
func (c *Client) writePump() {
	ticker := time.NewTicker(c.hub.cfg.PingInterval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.hub.cfg.WriteTimeout))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage routes one inbound message.
func (c *Client) handleMessage(raw []byte) {
	var env InEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		c.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "malformed message"}})
		return
	}

	switch env.T {
	case MsgChat:
		c.handleChat(env.D)
	case MsgJoinRoom:
		c.handleJoinRoom(env.D)
	case MsgLeaveRoom:
		select {
		case c.hub.leaveRoom <- c:
		case <-c.hub.done:
		}
	case MsgGetLeaderboard:
		c.handleGetLeaderboard(env.D)
	case MsgGetHistory:
		c.handleGetHistory(env.D)
	case MsgGetAchievements:
		c.handleGetAchievements()
	case MsgGetProfile:
		c.handleGetProfile()
	case MsgAckAchievement:
		c.handleAckAchievement(env.D)
	default:
		c.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "unknown message type"}})
	}
}

func (c *Client) handleChat(data json.RawMessage) {
	var msg ChatMsg
	if err := json.Unmarshal(data, &msg); err != nil {
		return
	}

	text := truncateText(strings.TrimSpace(msg.Text), maxChatTextLen)
	if text == "" {
		return
	}

	// An empty room ID is forwarded as-is; the hub resolves it to the
	// sender's current room on the run loop.
	select {
	case c.hub.chat <- &chatDelivery{client: c, roomID: msg.RoomID, text: text}:
	case <-c.hub.done:
	}
}

func (c *Client) handleJoinRoom(data json.RawMessage) {
	var msg RoomMsg
	if err := json.Unmarshal(data, &msg); err != nil || msg.RoomID == "" {
		return
	}
	select {
	case c.hub.joinRoom <- &roomChange{client: c, roomID: msg.RoomID}:
	case <-c.hub.done:
	}
}

// truncateText caps text at max bytes without splitting a multi-byte rune,
// so the fanned-out message stays valid UTF-8.
func truncateText(text string, max int) string {
	if len(text) <= max {
		return text
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}

// sendJSON marshals and queues one message. A full buffer drops the
// message; the client is too slow and will be caught by ping timeouts.
func (c *Client) sendJSON(msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		c.log.Warn("failed to marshal outbound message", logger.Err(err))
		return
	}
	c.sendRaw(data)
}

func (c *Client) sendRaw(data []byte) {
	defer func() { recover() }()
	select {
	case c.send <- data:
	default:
	}
}
