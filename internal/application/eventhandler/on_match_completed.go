// Package eventhandler subscribes the application commands to the domain
// event bus. Handlers translate events into commands and absorb failures:
// the bus never propagates handler errors back to publishers.
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
// MATCH COMPLETED
// ══════════════════════════════════════════════════════════════════════════════

// MatchCompletedHandler applies ratings when a match concludes. This is the
// main write path of the gamification core: the match subsystem publishes
// the outcome and this handler does everything downstream.
type MatchCompletedHandler struct {
	matches *command.MatchResultHandler
	log     *logger.Logger
}

// NewMatchCompletedHandler creates a MatchCompletedHandler.
func NewMatchCompletedHandler(matches *command.MatchResultHandler, log *logger.Logger) *MatchCompletedHandler {
	if log == nil {
		log = logger.Default()
	}
	return &MatchCompletedHandler{
		matches: matches,
		log:     log.With(logger.Component("match_completed_handler")),
	}
}

// Register subscribes the handler to match completion events.
func (h *MatchCompletedHandler) Register(bus shared.EventSubscriber) error {
	return bus.Subscribe(shared.EventMatchCompleted, h.Handle)
}

// Handle applies one match completion event.
func (h *MatchCompletedHandler) Handle(event shared.Event) error {
	e, ok := event.(shared.MatchCompletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type %s", event.EventType())
	}

	cmd := command.ApplyMatchResultCommand{
		WinnerID:   rating.UserID(e.WinnerID),
		LoserID:    rating.UserID(e.LoserID),
		Tournament: e.Tournament,
		RelatedID:  e.RelatedID,
	}

	if _, err := h.matches.Execute(context.Background(), cmd); err != nil {
		h.log.Error("failed to apply match result",
			logger.UserID(e.WinnerID),
			logger.OpponentID(e.LoserID),
			logger.MatchID(e.RelatedID),
			logger.Err(err),
		)
		return err
	}
	return nil
}
