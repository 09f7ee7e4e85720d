package shared

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types - these drive the event-driven triggers of the
// gamification core. Each event represents something significant that happened.
const (
	// Match events
	EventMatchCompleted      EventType = "match.completed"
	EventRatingApplied       EventType = "match.rating_applied"
	EventTournamentCompleted EventType = "tournament.completed"

	// Rating events
	EventRatingChanged   EventType = "rating.changed"
	EventRatingAdjusted  EventType = "rating.adjusted"
	EventCountersUpdated EventType = "rating.counters_updated"

	// Achievement events
	EventAchievementUnlocked EventType = "achievement.unlocked"
	EventAchievementNotified EventType = "achievement.notified"

	// Chat events (delivered by the real-time gateway)
	EventChatMessageReceived EventType = "chat.message_received"

	// System events
	EventReconcileCompleted EventType = "system.reconcile_completed"
)

// Event is the base interface for all domain events.
type Event interface {
	// EventType returns the type of the event.
	EventType() EventType

	// OccurredAt returns when the event occurred.
	OccurredAt() time.Time

	// AggregateID returns the ID of the aggregate that produced this event.
	AggregateID() string

	// Payload returns the event data as a map for serialization.
	Payload() map[string]interface{}
}

// EventHandler processes a single event.
type EventHandler func(event Event) error

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber registers handlers for event types.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
}

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
}

// EventType implements Event interface.
func (e BaseEvent) EventType() EventType {
	return e.Type
}

// OccurredAt implements Event interface.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// AggregateID implements Event interface.
func (e BaseEvent) AggregateID() string {
	return e.AggregateId
}

// NewBaseEvent creates a new base event with a fresh correlation ID.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:          eventType,
		Timestamp:     time.Now().UTC(),
		AggregateId:   aggregateID,
		CorrelationID: uuid.NewString(),
	}
}

// MatchCompletedEvent is emitted when a match or tournament final concludes.
// The gamification core consumes it to apply ratings and check achievements.
type MatchCompletedEvent struct {
	BaseEvent
	WinnerID   int64  `json:"winner_id"`
	LoserID    int64  `json:"loser_id"`
	Tournament bool   `json:"tournament"`
	RelatedID  string `json:"related_id,omitempty"`
}

// Payload implements Event interface.
func (e MatchCompletedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"winner_id":  e.WinnerID,
		"loser_id":   e.LoserID,
		"tournament": e.Tournament,
		"related_id": e.RelatedID,
	}
}

// RatingChangedEvent is emitted for each participant after a rating update.
type RatingChangedEvent struct {
	BaseEvent
	UserID    int64  `json:"user_id"`
	OldRating int    `json:"old_rating"`
	NewRating int    `json:"new_rating"`
	Delta     int    `json:"delta"`
	Reason    string `json:"reason"`
}

// Payload implements Event interface.
func (e RatingChangedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":    e.UserID,
		"old_rating": e.OldRating,
		"new_rating": e.NewRating,
		"delta":      e.Delta,
		"reason":     e.Reason,
	}
}

// AchievementUnlockedEvent is emitted when a user unlocks an achievement.
type AchievementUnlockedEvent struct {
	BaseEvent
	UserID        int64  `json:"user_id"`
	AchievementID int64  `json:"achievement_id"`
	Name          string `json:"name"`
	Points        int    `json:"points"`
}

// Payload implements Event interface.
func (e AchievementUnlockedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id":        e.UserID,
		"achievement_id": e.AchievementID,
		"name":           e.Name,
		"points":         e.Points,
	}
}

// ChatMessageReceivedEvent is emitted by the real-time gateway when a chat
// message is delivered. The core only uses it as an achievement-check trigger;
// message content stays in the chat subsystem.
type ChatMessageReceivedEvent struct {
	BaseEvent
	UserID int64  `json:"user_id"`
	RoomID string `json:"room_id"`
}

// Payload implements Event interface.
func (e ChatMessageReceivedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"user_id": e.UserID,
		"room_id": e.RoomID,
	}
}
