package command

import (
	"context"
	"fmt"

	"github.com/lumina-lms/lumina-gamification/internal/domain/badge"
	"github.com/lumina-lms/lumina-gamification/internal/domain/gamification"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CHECK AND AWARD BADGES COMMAND
// Evaluates every active, not-yet-earned badge for a user and awards the ones
// whose criteria are now satisfied. Badge rewards credit points, which can in
// turn satisfy total_points or level_reached badges, so the check runs in
// passes until a pass awards nothing new. Termination is guaranteed: each
// badge is awarded at most once and the badge set is finite.
// ══════════════════════════════════════════════════════════════════════════════

// CheckAndAwardBadgesCommand identifies the user to check.
type CheckAndAwardBadgesCommand struct {
	UserID string
}

// Validate validates the command.
func (c CheckAndAwardBadgesCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("check_badges: user_id is required")
	}
	return nil
}

// CheckAndAwardBadgesResult lists what the check awarded.
type CheckAndAwardBadgesResult struct {
	// AwardedBadgeIDs are the badges newly awarded by this invocation, in
	// award order.
	AwardedBadgeIDs []string

	// PointsCredited is the sum of badge rewards credited.
	PointsCredited int
}

// CheckAndAwardBadgesHandler handles the CheckAndAwardBadgesCommand.
type CheckAndAwardBadgesHandler struct {
	badges     badge.Repository
	awards     badge.AwardRepository
	evaluator  *badge.Evaluator
	ledger     *LedgerService
	idGen      IDGenerator
	dispatcher NotificationDispatcher
	publisher  shared.EventPublisher
	log        *logger.Logger
}

// NewCheckAndAwardBadgesHandler creates a new CheckAndAwardBadgesHandler.
func NewCheckAndAwardBadgesHandler(
	badges badge.Repository,
	awards badge.AwardRepository,
	evaluator *badge.Evaluator,
	ledger *LedgerService,
	idGen IDGenerator,
	dispatcher NotificationDispatcher,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *CheckAndAwardBadgesHandler {
	return &CheckAndAwardBadgesHandler{
		badges:     badges,
		awards:     awards,
		evaluator:  evaluator,
		ledger:     ledger,
		idGen:      idGen,
		dispatcher: dispatcher,
		publisher:  publisher,
		log:        log.With(logger.Component("check_badges")),
	}
}

// Handle executes the check-and-award cycle for a user.
//
// Safe to invoke concurrently for the same user: the (userID, badgeID)
// uniqueness constraint in the award store is the single source of truth, and
// a uniqueness collision is treated as success-already-happened, never as an
// error.
func (h *CheckAndAwardBadgesHandler) Handle(ctx context.Context, cmd CheckAndAwardBadgesCommand) (*CheckAndAwardBadgesResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	state, err := h.ledger.state(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("check_badges: failed to load user state: %w", err)
	}

	activeBadges, err := h.badges.FindActiveByOrganization(ctx, state.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("check_badges: failed to load badges: %w", err)
	}

	earned, err := h.awards.BadgeIDsForUser(ctx, cmd.UserID)
	if err != nil {
		return nil, fmt.Errorf("check_badges: failed to load existing awards: %w", err)
	}
	if earned == nil {
		earned = make(map[string]bool)
	}

	result := &CheckAndAwardBadgesResult{}

	// Fixpoint loop: keep running passes while a pass awards something new.
	for {
		awardedThisPass, err := h.runPass(ctx, cmd.UserID, state.OrganizationID, activeBadges, earned, result)
		if err != nil {
			return nil, err
		}
		if !awardedThisPass {
			break
		}
	}

	return result, nil
}

// runPass evaluates every remaining badge once. Returns true if at least one
// badge was newly awarded.
func (h *CheckAndAwardBadgesHandler) runPass(
	ctx context.Context,
	userID, organizationID string,
	activeBadges []*badge.Badge,
	earned map[string]bool,
	result *CheckAndAwardBadgesResult,
) (bool, error) {
	awardedThisPass := false

	for _, b := range activeBadges {
		if earned[b.ID] {
			continue
		}

		eval, err := h.evaluator.Evaluate(ctx, userID, b)
		if err != nil {
			return false, fmt.Errorf("check_badges: evaluation failed for badge %s: %w", b.ID, err)
		}
		if !eval.Earned {
			continue
		}

		created, err := h.award(ctx, userID, organizationID, b, eval)
		if err != nil {
			return false, err
		}

		// A uniqueness collision means a concurrent check already awarded
		// this badge; either way the user has it now.
		earned[b.ID] = true
		if !created {
			continue
		}

		awardedThisPass = true
		result.AwardedBadgeIDs = append(result.AwardedBadgeIDs, b.ID)
		result.PointsCredited += b.PointsReward
	}

	return awardedThisPass, nil
}

// award attempts to create the award record and apply its side effects.
// Returns false when the badge was already awarded (idempotent no-op).
func (h *CheckAndAwardBadgesHandler) award(
	ctx context.Context,
	userID, organizationID string,
	b *badge.Badge,
	eval badge.Evaluation,
) (bool, error) {
	record, err := badge.NewAward(h.idGen.NewID(), userID, b.ID, eval.Current, eval.Target)
	if err != nil {
		return false, fmt.Errorf("check_badges: failed to build award: %w", err)
	}

	if err := h.awards.Create(ctx, record); err != nil {
		if shared.IsAlreadyExists(err) {
			h.log.Debug("badge already awarded, skipping",
				logger.UserID(userID), logger.BadgeID(b.ID))
			return false, nil
		}
		return false, fmt.Errorf("check_badges: failed to create award: %w", err)
	}

	if err := h.badges.IncrementTotalAwarded(ctx, b.ID); err != nil {
		// The award itself succeeded; a stale counter is tolerable.
		h.log.Warn("failed to increment badge award counter",
			logger.BadgeID(b.ID), logger.Err(err))
	}

	if b.PointsReward > 0 {
		change, err := h.ledger.credit(ctx, userID, organizationID, b.PointsReward, false)
		if err != nil {
			// The award record exists and must not be rolled back; surface
			// the credit failure so the caller can retry the points path.
			return true, fmt.Errorf("check_badges: failed to credit badge reward: %w", err)
		}
		// A reward can cross a level boundary just like a direct award.
		if change.LeveledUp() {
			h.handleLevelUp(ctx, userID, change)
		}
	}

	_ = h.publisher.Publish(shared.NewBadgeEarnedEvent(userID, b.ID, b.Name, organizationID, b.PointsReward))

	h.notify(ctx, userID, b, eval)

	h.log.Info("badge awarded",
		logger.UserID(userID),
		logger.BadgeID(b.ID),
		logger.PointsAmount(b.PointsReward),
	)

	return true, nil
}

// handleLevelUp publishes the level-up event and requests a notification
// when a badge reward crossed a level boundary. Fire-and-forget, same as the
// direct award path.
func (h *CheckAndAwardBadgesHandler) handleLevelUp(ctx context.Context, userID string, change gamification.PointsChange) {
	_ = h.publisher.Publish(shared.NewLevelUpEvent(
		userID, int(change.OldLevel), int(change.NewLevel), int(change.NewPoints)))

	payload := map[string]interface{}{
		"old_level": int(change.OldLevel),
		"new_level": int(change.NewLevel),
		"points":    int(change.NewPoints),
	}
	if err := h.dispatcher.Notify(ctx, userID, NotificationLevelUp, payload); err != nil {
		h.log.Warn("level-up notification failed",
			logger.UserID(userID), logger.LevelValue(int(change.NewLevel)), logger.Err(err))
	}
}

// notify requests a badge_earned notification. Fire-and-forget: a delivery
// failure is logged and never fails the award.
func (h *CheckAndAwardBadgesHandler) notify(ctx context.Context, userID string, b *badge.Badge, eval badge.Evaluation) {
	payload := map[string]interface{}{
		"badge_id":      b.ID,
		"badge_name":    b.Name,
		"rarity":        string(b.Rarity),
		"points_reward": b.PointsReward,
		"current":       eval.Current,
		"target":        eval.Target,
	}
	if err := h.dispatcher.Notify(ctx, userID, NotificationBadgeEarned, payload); err != nil {
		h.log.Warn("badge notification failed",
			logger.UserID(userID), logger.BadgeID(b.ID), logger.Err(err))
	}
}
