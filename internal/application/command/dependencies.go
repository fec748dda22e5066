// Package command contains write operations (CQRS - Commands).
package command

import "context"

// ══════════════════════════════════════════════════════════════════════════════
// EXTERNAL COLLABORATORS
// Narrow interfaces consumed by the command handlers and implemented by the
// infrastructure layer. Injected explicitly, never referenced as globals.
// ══════════════════════════════════════════════════════════════════════════════

// NotificationKind classifies outgoing gamification notifications.
type NotificationKind string

const (
	NotificationBadgeEarned   NotificationKind = "badge_earned"
	NotificationLevelUp       NotificationKind = "level_up"
	NotificationPointsChanged NotificationKind = "points_changed"
)

// NotificationDispatcher delivers notifications to users. Dispatch is
// fire-and-forget from the caller's perspective: a failed delivery is logged
// by the caller and never blocks or fails the triggering operation.
type NotificationDispatcher interface {
	Notify(ctx context.Context, userID string, kind NotificationKind, payload map[string]interface{}) error
}

// IDGenerator produces unique identifiers for new records.
type IDGenerator interface {
	NewID() string
}
