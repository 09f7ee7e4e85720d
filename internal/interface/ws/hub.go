package ws

import (
	"encoding/json"
	"time"

	"github.com/codm-arena/arena-hub/config"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// HUB
// ══════════════════════════════════════════════════════════════════════════════

// chatDelivery is one chat message on its way through the hub.
type chatDelivery struct {
	client *Client
	roomID string
	text   string
}

// roomChange moves a client into a room.
type roomChange struct {
	client *Client
	roomID string
}

// userPush is a notification addressed to every connection of one player.
type userPush struct {
	userID  int64
	payload []byte
}

// Hub owns all connected clients and room membership. All state is
// confined to the run loop; clients talk to the hub exclusively through
// channels.
type Hub struct {
	cfg       config.ChatConfig
	publisher shared.EventPublisher
	services  *Services
	log       *logger.Logger

	register   chan *Client
	unregister chan *Client
	joinRoom   chan *roomChange
	leaveRoom  chan *Client
	chat       chan *chatDelivery
	push       chan *userPush
	done       chan struct{}

	clients  map[*Client]bool
	byUser   map[int64]map[*Client]bool
	rooms    map[string]map[*Client]bool
	memberOf map[*Client]string
}

// NewHub creates a Hub. publisher may be nil; chat then stays gateway-local
// and never reaches the gamification core. services may be nil; the
// read-side messages then answer with errors.
func NewHub(cfg config.ChatConfig, publisher shared.EventPublisher, services *Services, log *logger.Logger) *Hub {
	if log == nil {
		log = logger.Default()
	}
	return &Hub{
		cfg:        cfg,
		publisher:  publisher,
		services:   services,
		log:        log.With(logger.Component("ws_hub")),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		joinRoom:   make(chan *roomChange),
		leaveRoom:  make(chan *Client),
		chat:       make(chan *chatDelivery, 64),
		push:       make(chan *userPush, 64),
		done:       make(chan struct{}),
	}
}

// Run processes hub events until Stop. Must run in its own goroutine.
func (h *Hub) Run() {
	h.clients = make(map[*Client]bool)
	h.byUser = make(map[int64]map[*Client]bool)
	h.rooms = make(map[string]map[*Client]bool)
	h.memberOf = make(map[*Client]string)

	for {
		select {
		case c := <-h.register:
			h.addClient(c)
		case c := <-h.unregister:
			h.removeClient(c)
		case rc := <-h.joinRoom:
			h.moveToRoom(rc.client, rc.roomID)
		case c := <-h.leaveRoom:
			h.moveToRoom(c, "")
		case d := <-h.chat:
			h.deliverChat(d)
		case p := <-h.push:
			for c := range h.byUser[p.userID] {
				c.sendRaw(p.payload)
			}
		case <-h.done:
			for c := range h.clients {
				close(c.send)
			}
			return
		}
	}
}

// Stop shuts the hub down and closes every client's send channel.
func (h *Hub) Stop() {
	close(h.done)
}

// NotifyUser pushes a message to every connection of one player. Safe to
// call from any goroutine; no-op for offline players.
func (h *Hub) NotifyUser(userID int64, msg any) {
	data, err := json.Marshal(msg)
	if err != nil {
		h.log.Warn("failed to marshal push", logger.Err(err))
		return
	}
	select {
	case h.push <- &userPush{userID: userID, payload: data}:
	case <-h.done:
	}
}

// RegisterNotifications subscribes the hub to the core events worth pushing
// to connected players.
func (h *Hub) RegisterNotifications(bus shared.EventSubscriber) error {
	if err := bus.Subscribe(shared.EventAchievementUnlocked, h.onAchievementUnlocked); err != nil {
		return err
	}
	if err := bus.Subscribe(shared.EventRatingChanged, h.onRatingChanged); err != nil {
		return err
	}
	return bus.Subscribe(shared.EventRatingAdjusted, h.onRatingChanged)
}

func (h *Hub) onAchievementUnlocked(event shared.Event) error {
	e, ok := event.(shared.AchievementUnlockedEvent)
	if !ok {
		return nil
	}
	h.NotifyUser(e.UserID, Envelope{T: MsgAchievementUnlocked, Data: e.Payload()})
	return nil
}

func (h *Hub) onRatingChanged(event shared.Event) error {
	e, ok := event.(shared.RatingChangedEvent)
	if !ok {
		return nil
	}
	h.NotifyUser(e.UserID, Envelope{T: MsgRatingChanged, Data: e.Payload()})
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Run-loop internals (single goroutine, no locking)
// ─────────────────────────────────────────────────────────────────────────────

func (h *Hub) addClient(c *Client) {
	h.clients[c] = true
	if h.byUser[c.userID] == nil {
		h.byUser[c.userID] = make(map[*Client]bool)
	}
	h.byUser[c.userID][c] = true
	h.log.Debug("client connected", logger.UserID(c.userID), logger.Int("connections", len(h.clients)))
}

func (h *Hub) removeClient(c *Client) {
	if !h.clients[c] {
		return
	}
	delete(h.clients, c)
	h.moveToRoom(c, "")

	if conns := h.byUser[c.userID]; conns != nil {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.byUser, c.userID)
		}
	}
	close(c.send)
	h.log.Debug("client disconnected", logger.UserID(c.userID), logger.Int("connections", len(h.clients)))
}

func (h *Hub) moveToRoom(c *Client, roomID string) {
	if current := h.memberOf[c]; current != "" {
		if members := h.rooms[current]; members != nil {
			delete(members, c)
			if len(members) == 0 {
				delete(h.rooms, current)
			}
		}
	}
	if roomID == "" {
		delete(h.memberOf, c)
		return
	}
	h.memberOf[c] = roomID
	if h.rooms[roomID] == nil {
		h.rooms[roomID] = make(map[*Client]bool)
	}
	h.rooms[roomID][c] = true
}

// deliverChat fans one message out to the sender's room and publishes the
// activity event. The sender gets the delivery too, as the echo.
// An empty room ID means "whatever room the sender is in right now"; the
// membership lookup happens here, on run-loop-owned state.
func (h *Hub) deliverChat(d *chatDelivery) {
	if d.roomID == "" {
		d.roomID = h.memberOf[d.client]
	}
	if d.roomID == "" {
		d.client.sendJSON(Envelope{T: MsgError, Data: ErrorMsg{Msg: "join a room first"}})
		return
	}

	delivered := Envelope{T: MsgChatDelivered, Data: ChatDeliveredMsg{
		RoomID:   d.roomID,
		UserID:   d.client.userID,
		Username: d.client.username,
		Text:     d.text,
		SentAt:   time.Now().UTC().Format(time.RFC3339),
	}}
	data, err := json.Marshal(delivered)
	if err != nil {
		h.log.Warn("failed to marshal chat delivery", logger.Err(err))
		return
	}

	for member := range h.rooms[d.roomID] {
		member.sendRaw(data)
	}

	if h.publisher != nil {
		event := shared.ChatMessageReceivedEvent{
			BaseEvent: shared.NewBaseEvent(shared.EventChatMessageReceived, d.roomID),
			UserID:    d.client.userID,
			RoomID:    d.roomID,
		}
		if err := h.publisher.Publish(event); err != nil {
			h.log.Warn("failed to publish chat event", logger.Err(err))
		}
	}
}
