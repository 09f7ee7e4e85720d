package eventhandler

import (
	"context"
	"fmt"

	"github.com/codm-arena/arena-hub/internal/application/command"
	"github.com/codm-arena/arena-hub/internal/domain/rating"
	"github.com/codm-arena/arena-hub/internal/domain/shared"
	"github.com/codm-arena/arena-hub/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHAT MESSAGE RECEIVED
// ══════════════════════════════════════════════════════════════════════════════

// ChatMessageHandler re-checks achievements when a player sends a chat
// message. Social conditions are not evaluated yet, so today this only
// catches up players whose earlier triggers were missed; the subscription
// exists so that enabling a social condition requires no new wiring.
type ChatMessageHandler struct {
	achievements *command.CheckAchievementsHandler
	log          *logger.Logger
}

// NewChatMessageHandler creates a ChatMessageHandler.
func NewChatMessageHandler(achievements *command.CheckAchievementsHandler, log *logger.Logger) *ChatMessageHandler {
	if log == nil {
		log = logger.Default()
	}
	return &ChatMessageHandler{
		achievements: achievements,
		log:          log.With(logger.Component("chat_message_handler")),
	}
}

// Register subscribes the handler to chat message events.
func (h *ChatMessageHandler) Register(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventChatMessageReceived, h.Handle)
}

// Handle runs an achievement check for the message author.
func (h *ChatMessageHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.ChatMessageReceivedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}

	if _, err := h.achievements.CheckAndUnlock(context.Background(), rating.UserID(e.UserID)); err != nil {
		h.log.Warn("achievement check failed",
			logger.UserID(e.UserID),
			logger.RoomID(e.RoomID),
			logger.Err(err),
		)
		return err
	}
	return nil
}
