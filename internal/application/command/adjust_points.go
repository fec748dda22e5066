package command

import (
	"context"
	"fmt"

	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// ADJUST POINTS COMMAND
// Manual admin correction, outside the gamified-award path. The delta may be
// negative. The per-user total is floored at zero; the windowed leaderboard
// buckets are not clamped, so a deduction is visible in the period it lands
// in. Adjustments never trigger the badge check.
// ══════════════════════════════════════════════════════════════════════════════

// AdjustPointsCommand contains the data for a manual point adjustment.
type AdjustPointsCommand struct {
	UserID         string
	OrganizationID string

	// Delta may be positive or negative, but not zero.
	Delta int

	// Reason documents why the adjustment was made.
	Reason string

	// AdjustedBy identifies the admin performing the adjustment.
	AdjustedBy string
}

// Validate validates the command.
func (c AdjustPointsCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("adjust_points: user_id is required")
	}
	if c.Delta == 0 {
		return fmt.Errorf("adjust_points: delta cannot be zero")
	}
	if c.Reason == "" {
		return fmt.Errorf("adjust_points: reason is required")
	}
	return nil
}

// AdjustPointsResult contains the outcome of an adjustment.
type AdjustPointsResult struct {
	OldPoints int
	NewPoints int
	OldLevel  int
	NewLevel  int
}

// AdjustPointsHandler handles the AdjustPointsCommand.
type AdjustPointsHandler struct {
	ledger     *LedgerService
	dispatcher NotificationDispatcher
	publisher  shared.EventPublisher
	log        *logger.Logger
}

// NewAdjustPointsHandler creates a new AdjustPointsHandler.
func NewAdjustPointsHandler(
	ledger *LedgerService,
	dispatcher NotificationDispatcher,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *AdjustPointsHandler {
	return &AdjustPointsHandler{
		ledger:     ledger,
		dispatcher: dispatcher,
		publisher:  publisher,
		log:        log.With(logger.Component("adjust_points")),
	}
}

// Handle executes the adjustment.
func (h *AdjustPointsHandler) Handle(ctx context.Context, cmd AdjustPointsCommand) (*AdjustPointsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	change, err := h.ledger.credit(ctx, cmd.UserID, cmd.OrganizationID, cmd.Delta, true)
	if err != nil {
		return nil, fmt.Errorf("adjust_points: %w", err)
	}

	event := shared.NewPointsAwardedEvent(
		cmd.UserID, cmd.OrganizationID, cmd.Delta, int(change.NewPoints), cmd.Reason)
	event.Type = shared.EventPointsAdjusted
	_ = h.publisher.Publish(event)

	payload := map[string]interface{}{
		"delta":       cmd.Delta,
		"new_points":  int(change.NewPoints),
		"reason":      cmd.Reason,
		"adjusted_by": cmd.AdjustedBy,
	}
	if err := h.dispatcher.Notify(ctx, cmd.UserID, NotificationPointsChanged, payload); err != nil {
		h.log.Warn("adjustment notification failed",
			logger.UserID(cmd.UserID), logger.Err(err))
	}

	h.log.Info("points adjusted",
		logger.UserID(cmd.UserID),
		logger.PointsAmount(cmd.Delta),
		logger.PointsReason(cmd.Reason),
		logger.String("adjusted_by", cmd.AdjustedBy),
	)

	return &AdjustPointsResult{
		OldPoints: int(change.OldPoints),
		NewPoints: int(change.NewPoints),
		OldLevel:  int(change.OldLevel),
		NewLevel:  int(change.NewLevel),
	}, nil
}
