// Package shared contains common domain types, errors, and events that are
// used across all domain packages.
package shared

import (
	"time"
)

// EventType represents the type of domain event.
type EventType string

// Domain event types. Each event represents something significant that
// happened in the gamification core.
const (
	// Point events
	EventPointsAwarded  EventType = "points.awarded"
	EventPointsAdjusted EventType = "points.adjusted"
	EventLevelUp        EventType = "points.level_up"

	// Streak events
	EventStreakUpdated EventType = "streak.updated"
	EventStreakBroken  EventType = "streak.broken"

	// Badge events
	EventBadgeEarned  EventType = "badge.earned"
	EventBadgeCreated EventType = "badge.created"

	// Leaderboard events
	EventRanksRebuilt EventType = "leaderboard.ranks_rebuilt"
	EventRankChanged  EventType = "leaderboard.rank_changed"

	// Notification events
	EventNotificationSent   EventType = "notification.sent"
	EventNotificationFailed EventType = "notification.failed"
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

// BaseEvent provides common event functionality.
type BaseEvent struct {
	Type          EventType `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	AggregateId   string    `json:"aggregate_id"`
	Version       int       `json:"version"`
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

// NewBaseEvent creates a new base event.
func NewBaseEvent(eventType EventType, aggregateID string) BaseEvent {
	return BaseEvent{
		Type:        eventType,
		Timestamp:   time.Now().UTC(),
		AggregateId: aggregateID,
		Version:     1,
	}
}

// WithCorrelationID sets the correlation ID for tracing.
func (e BaseEvent) WithCorrelationID(id string) BaseEvent {
	e.CorrelationID = id
	return e
}

// ═══════════════════════════════════════════════════════════════════════════
// Point Events
// ═══════════════════════════════════════════════════════════════════════════

// PointsAwardedEvent is emitted when a user gains points.
type PointsAwardedEvent struct {
	BaseEvent
	OrganizationID string `json:"organization_id"`
	Amount         int    `json:"amount"`
	Reason         string `json:"reason"`
	NewPoints      int    `json:"new_points"`
}

// Payload implements Event interface.
func (e PointsAwardedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"organization_id": e.OrganizationID,
		"amount":          e.Amount,
		"reason":          e.Reason,
		"new_points":      e.NewPoints,
	}
}

// NewPointsAwardedEvent creates a new PointsAwardedEvent.
func NewPointsAwardedEvent(userID, organizationID string, amount, newPoints int, reason string) PointsAwardedEvent {
	return PointsAwardedEvent{
		BaseEvent:      NewBaseEvent(EventPointsAwarded, userID),
		OrganizationID: organizationID,
		Amount:         amount,
		Reason:         reason,
		NewPoints:      newPoints,
	}
}

// LevelUpEvent is emitted when a user's level increases.
type LevelUpEvent struct {
	BaseEvent
	OldLevel int `json:"old_level"`
	NewLevel int `json:"new_level"`
	Points   int `json:"points"`
}

// Payload implements Event interface.
func (e LevelUpEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"old_level": e.OldLevel,
		"new_level": e.NewLevel,
		"points":    e.Points,
	}
}

// NewLevelUpEvent creates a new LevelUpEvent.
func NewLevelUpEvent(userID string, oldLevel, newLevel, points int) LevelUpEvent {
	return LevelUpEvent{
		BaseEvent: NewBaseEvent(EventLevelUp, userID),
		OldLevel:  oldLevel,
		NewLevel:  newLevel,
		Points:    points,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Streak Events
// ═══════════════════════════════════════════════════════════════════════════

// StreakUpdatedEvent is emitted when a user's streak changes.
type StreakUpdatedEvent struct {
	BaseEvent
	CurrentStreak int  `json:"current_streak"`
	LongestStreak int  `json:"longest_streak"`
	WasBroken     bool `json:"was_broken"`
}

// Payload implements Event interface.
func (e StreakUpdatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"current_streak": e.CurrentStreak,
		"longest_streak": e.LongestStreak,
		"was_broken":     e.WasBroken,
	}
}

// NewStreakUpdatedEvent creates a new StreakUpdatedEvent.
func NewStreakUpdatedEvent(userID string, current, longest int, wasBroken bool) StreakUpdatedEvent {
	eventType := EventStreakUpdated
	if wasBroken {
		eventType = EventStreakBroken
	}
	return StreakUpdatedEvent{
		BaseEvent:     NewBaseEvent(eventType, userID),
		CurrentStreak: current,
		LongestStreak: longest,
		WasBroken:     wasBroken,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Badge Events
// ═══════════════════════════════════════════════════════════════════════════

// BadgeEarnedEvent is emitted when a user earns a badge.
type BadgeEarnedEvent struct {
	BaseEvent
	BadgeID        string `json:"badge_id"`
	BadgeName      string `json:"badge_name"`
	OrganizationID string `json:"organization_id"`
	PointsReward   int    `json:"points_reward"`
}

// Payload implements Event interface.
func (e BadgeEarnedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"badge_id":        e.BadgeID,
		"badge_name":      e.BadgeName,
		"organization_id": e.OrganizationID,
		"points_reward":   e.PointsReward,
	}
}

// NewBadgeEarnedEvent creates a new BadgeEarnedEvent.
func NewBadgeEarnedEvent(userID, badgeID, badgeName, organizationID string, pointsReward int) BadgeEarnedEvent {
	return BadgeEarnedEvent{
		BaseEvent:      NewBaseEvent(EventBadgeEarned, userID),
		BadgeID:        badgeID,
		BadgeName:      badgeName,
		OrganizationID: organizationID,
		PointsReward:   pointsReward,
	}
}

// BadgeCreatedEvent is emitted when a badge definition is created.
type BadgeCreatedEvent struct {
	BaseEvent
	OrganizationID string `json:"organization_id"`
	Name           string `json:"name"`
	CriteriaType   string `json:"criteria_type"`
}

// Payload implements Event interface.
func (e BadgeCreatedEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"organization_id": e.OrganizationID,
		"name":            e.Name,
		"criteria_type":   e.CriteriaType,
	}
}

// NewBadgeCreatedEvent creates a new BadgeCreatedEvent.
func NewBadgeCreatedEvent(badgeID, organizationID, name, criteriaType string) BadgeCreatedEvent {
	return BadgeCreatedEvent{
		BaseEvent:      NewBaseEvent(EventBadgeCreated, badgeID),
		OrganizationID: organizationID,
		Name:           name,
		CriteriaType:   criteriaType,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Leaderboard Events
// ═══════════════════════════════════════════════════════════════════════════

// RanksRebuiltEvent is emitted after ranks are recomputed for an organization
// and period.
type RanksRebuiltEvent struct {
	BaseEvent
	Period       string `json:"period"`
	TotalEntries int    `json:"total_entries"`
}

// Payload implements Event interface.
func (e RanksRebuiltEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"period":        e.Period,
		"total_entries": e.TotalEntries,
	}
}

// NewRanksRebuiltEvent creates a new RanksRebuiltEvent.
func NewRanksRebuiltEvent(organizationID, period string, totalEntries int) RanksRebuiltEvent {
	return RanksRebuiltEvent{
		BaseEvent:    NewBaseEvent(EventRanksRebuilt, organizationID),
		Period:       period,
		TotalEntries: totalEntries,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Notification Events
// ═══════════════════════════════════════════════════════════════════════════

// NotificationSentEvent is emitted when a gamification notification is handed
// to a delivery channel. Delivery itself is out of scope; subscribers that own
// a channel (in-app inbox, digest builder) consume this.
type NotificationSentEvent struct {
	BaseEvent
	Kind    string                 `json:"kind"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// Payload implements Event interface.
func (e NotificationSentEvent) Payload() map[string]interface{} {
	return map[string]interface{}{
		"kind":    e.Kind,
		"details": e.Details,
	}
}

// NewNotificationSentEvent creates a new NotificationSentEvent.
func NewNotificationSentEvent(userID, kind string, details map[string]interface{}) NotificationSentEvent {
	return NotificationSentEvent{
		BaseEvent: NewBaseEvent(EventNotificationSent, userID),
		Kind:      kind,
		Details:   details,
	}
}

// ═══════════════════════════════════════════════════════════════════════════
// Event Handling
// ═══════════════════════════════════════════════════════════════════════════

// EventHandler processes a domain event.
type EventHandler interface {
	Handle(event Event) error
}

// EventHandlerFunc adapts a function to the EventHandler interface.
type EventHandlerFunc func(event Event) error

// Handle implements EventHandler.
func (f EventHandlerFunc) Handle(event Event) error {
	return f(event)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(event Event) error
}

// EventSubscriber subscribes handlers to event types.
type EventSubscriber interface {
	Subscribe(eventType EventType, handler EventHandler) error
	SubscribeAll(handler EventHandler) error
}

// EventBus combines publishing and subscribing.
type EventBus interface {
	EventPublisher
	EventSubscriber
	Close() error
}
