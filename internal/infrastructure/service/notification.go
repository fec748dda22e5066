// Package service implements infrastructure adapters for the narrow
// collaborator interfaces the application layer depends on.
package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/lumina-lms/lumina-gamification/internal/application/command"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ID GENERATOR
// ══════════════════════════════════════════════════════════════════════════════

// UUIDGenerator implements command.IDGenerator with random UUIDs.
type UUIDGenerator struct{}

// NewUUIDGenerator creates a new UUIDGenerator.
func NewUUIDGenerator() *UUIDGenerator {
	return &UUIDGenerator{}
}

// NewID returns a new random UUID string.
func (g *UUIDGenerator) NewID() string {
	return uuid.New().String()
}

// ══════════════════════════════════════════════════════════════════════════════
// NOTIFICATION DISPATCHERS
// ══════════════════════════════════════════════════════════════════════════════

// LoggingDispatcher implements command.NotificationDispatcher by writing the
// notification to the log. Used in development and as a safe default until a
// real delivery channel (email, push, in-app) is wired up.
type LoggingDispatcher struct {
	log *logger.Logger
}

// NewLoggingDispatcher creates a new LoggingDispatcher.
func NewLoggingDispatcher(log *logger.Logger) *LoggingDispatcher {
	return &LoggingDispatcher{
		log: log.With(logger.Component("notification_dispatcher")),
	}
}

// Notify logs the notification.
func (d *LoggingDispatcher) Notify(ctx context.Context, userID string, kind command.NotificationKind, payload map[string]interface{}) error {
	d.log.Info("notification dispatched",
		logger.UserID(userID),
		logger.String("kind", string(kind)),
		logger.Any("payload", payload),
	)
	return nil
}

// EventBusDispatcher implements command.NotificationDispatcher by publishing
// a NotificationSentEvent. Whatever owns an actual delivery channel (in-app
// inbox, digest job) subscribes to the bus; this service never talks to
// email or push providers directly.
type EventBusDispatcher struct {
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewEventBusDispatcher creates a new EventBusDispatcher.
func NewEventBusDispatcher(publisher shared.EventPublisher, log *logger.Logger) *EventBusDispatcher {
	return &EventBusDispatcher{
		publisher: publisher,
		log:       log.With(logger.Component("notification_dispatcher")),
	}
}

// Notify publishes the notification as an event.
func (d *EventBusDispatcher) Notify(ctx context.Context, userID string, kind command.NotificationKind, payload map[string]interface{}) error {
	return d.publisher.Publish(shared.NewNotificationSentEvent(userID, string(kind), payload))
}

// NoopDispatcher implements command.NotificationDispatcher and drops every
// notification. Used when notifications are disabled by configuration.
type NoopDispatcher struct{}

// NewNoopDispatcher creates a new NoopDispatcher.
func NewNoopDispatcher() *NoopDispatcher {
	return &NoopDispatcher{}
}

// Notify does nothing.
func (d *NoopDispatcher) Notify(context.Context, string, command.NotificationKind, map[string]interface{}) error {
	return nil
}
