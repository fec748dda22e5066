package command

import (
	"context"
	"fmt"

	"github.com/lumina-lms/lumina-gamification/internal/domain/gamification"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD POINTS COMMAND
// The primary entry point for gamified point awards: applies the windowed
// ledger update, recomputes the level, then re-checks badges since the new
// points or level may newly satisfy total_points / level_reached criteria.
// ══════════════════════════════════════════════════════════════════════════════

// AwardPointsCommand contains the data for a point award.
type AwardPointsCommand struct {
	// UserID is the user receiving the points.
	UserID string

	// OrganizationID scopes the user's leaderboard entry. Required only the
	// first time a user is awarded, when state is created lazily.
	OrganizationID string

	// Amount must be positive. Manual deductions go through AdjustPoints.
	Amount int

	// Reason describes what the points are for, e.g. "lesson_completed".
	Reason string
}

// Validate validates the command.
func (c AwardPointsCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("award_points: user_id is required")
	}
	if c.Amount <= 0 {
		return fmt.Errorf("award_points: amount must be positive, got %d", c.Amount)
	}
	if c.Reason == "" {
		return fmt.Errorf("award_points: reason is required")
	}
	return nil
}

// AwardPointsResult contains the outcome of a point award.
type AwardPointsResult struct {
	NewPoints int
	NewLevel  int
	LeveledUp bool

	// AwardedBadgeIDs are badges newly earned as a consequence of this award.
	AwardedBadgeIDs []string
}

// AwardPointsHandler handles the AwardPointsCommand.
type AwardPointsHandler struct {
	ledger      *LedgerService
	checkBadges *CheckAndAwardBadgesHandler
	dispatcher  NotificationDispatcher
	publisher   shared.EventPublisher
	log         *logger.Logger
}

// NewAwardPointsHandler creates a new AwardPointsHandler.
func NewAwardPointsHandler(
	ledger *LedgerService,
	checkBadges *CheckAndAwardBadgesHandler,
	dispatcher NotificationDispatcher,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *AwardPointsHandler {
	return &AwardPointsHandler{
		ledger:      ledger,
		checkBadges: checkBadges,
		dispatcher:  dispatcher,
		publisher:   publisher,
		log:         log.With(logger.Component("award_points")),
	}
}

// Handle executes the award.
func (h *AwardPointsHandler) Handle(ctx context.Context, cmd AwardPointsCommand) (*AwardPointsResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	change, err := h.ledger.credit(ctx, cmd.UserID, cmd.OrganizationID, cmd.Amount, false)
	if err != nil {
		return nil, fmt.Errorf("award_points: %w", err)
	}

	result := &AwardPointsResult{
		NewPoints: int(change.NewPoints),
		NewLevel:  int(change.NewLevel),
		LeveledUp: change.LeveledUp(),
	}

	_ = h.publisher.Publish(shared.NewPointsAwardedEvent(
		cmd.UserID, cmd.OrganizationID, cmd.Amount, result.NewPoints, cmd.Reason))

	if result.LeveledUp {
		h.handleLevelUp(ctx, cmd.UserID, change.OldLevel, change.NewLevel, result.NewPoints)
	}

	h.log.Info("points awarded",
		logger.UserID(cmd.UserID),
		logger.PointsAmount(cmd.Amount),
		logger.PointsReason(cmd.Reason),
		logger.LevelValue(result.NewLevel),
	)

	// New points or level may newly satisfy badge criteria; badge rewards
	// loop internally until no badge is newly earned.
	badges, err := h.checkBadges.Handle(ctx, CheckAndAwardBadgesCommand{UserID: cmd.UserID})
	if err != nil {
		return nil, fmt.Errorf("award_points: badge check failed: %w", err)
	}
	result.AwardedBadgeIDs = badges.AwardedBadgeIDs

	// Badge rewards may have pushed points further; report the final totals.
	if badges.PointsCredited > 0 {
		state, err := h.ledger.state(ctx, cmd.UserID)
		if err == nil {
			result.NewPoints = int(state.Points)
			result.NewLevel = int(state.Level)
			result.LeveledUp = result.LeveledUp || state.Level > change.OldLevel
		}
	}

	return result, nil
}

// handleLevelUp publishes the level-up event and requests a notification.
// Fire-and-forget: a delivery failure never fails the award.
func (h *AwardPointsHandler) handleLevelUp(ctx context.Context, userID string, oldLevel, newLevel gamification.Level, points int) {
	_ = h.publisher.Publish(shared.NewLevelUpEvent(userID, int(oldLevel), int(newLevel), points))

	payload := map[string]interface{}{
		"old_level": int(oldLevel),
		"new_level": int(newLevel),
		"points":    points,
	}
	if err := h.dispatcher.Notify(ctx, userID, NotificationLevelUp, payload); err != nil {
		h.log.Warn("level-up notification failed",
			logger.UserID(userID), logger.LevelValue(int(newLevel)), logger.Err(err))
	}
}
