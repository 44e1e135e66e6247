package core

import (
	"time"

	"github.com/google/uuid"
)

// EventType enumerates domain events.
type EventType string

const (
	EventPointsAdded     EventType = "points_added"
	EventLevelUp         EventType = "level_up"
	EventBenefitClaimed  EventType = "benefit_claimed"
	EventAuthChanged     EventType = "auth_changed"
	EventStandingCleared EventType = "standing_cleared"
)

// Event represents an immutable domain event. ID lets downstream sinks
// (webhooks, analytics) deduplicate redeliveries.
type Event struct {
	ID            string         `json:"id"`
	Type          EventType      `json:"type"`
	Time          time.Time      `json:"time"`
	UserID        UserID         `json:"user_id"`
	Delta         int64          `json:"delta,omitempty"`
	Total         int64          `json:"total,omitempty"`
	Level         int            `json:"level,omitempty"`
	Streak        int            `json:"streak,omitempty"`
	BenefitID     string         `json:"benefit_id,omitempty"`
	Savings       float64        `json:"savings,omitempty"`
	Authenticated bool           `json:"authenticated,omitempty"`
	Metadata      map[string]any `json:"metadata,omitempty"`
}

func NewPointsAdded(user UserID, delta int64, total int64) Event {
	return Event{ID: uuid.NewString(), Type: EventPointsAdded, Time: time.Now().UTC(), UserID: user, Delta: delta, Total: total}
}

func NewLevelUp(user UserID, level int) Event {
	return Event{ID: uuid.NewString(), Type: EventLevelUp, Time: time.Now().UTC(), UserID: user, Level: level}
}

func NewBenefitClaimed(user UserID, benefitID string, savings float64) Event {
	return Event{ID: uuid.NewString(), Type: EventBenefitClaimed, Time: time.Now().UTC(), UserID: user, BenefitID: benefitID, Savings: savings}
}

// NewAuthChanged describes an authentication transition together with the
// standing known at sign-in. The bridge in the engine package is its only
// intended consumer.
func NewAuthChanged(user UserID, authenticated bool, points int64, level int, streak int) Event {
	return Event{ID: uuid.NewString(), Type: EventAuthChanged, Time: time.Now().UTC(), UserID: user, Authenticated: authenticated, Total: points, Level: level, Streak: streak}
}

func NewStandingCleared(user UserID) Event {
	return Event{ID: uuid.NewString(), Type: EventStandingCleared, Time: time.Now().UTC(), UserID: user}
}
