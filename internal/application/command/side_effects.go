package command

import (
	"context"

	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// SIDE-EFFECT BOUNDARY
// Gamification must never fail the domain action that triggered it: a lesson
// marked complete stays complete even if awarding its points blows up. Host
// code that awards points or checks badges as a side effect of another action
// calls through this boundary, where errors are logged and swallowed. When
// the same operations are the primary action (an admin awarding manually),
// call the handlers directly so errors surface.
// ══════════════════════════════════════════════════════════════════════════════

// SideEffects wraps the gamification commands for fire-and-forget use.
type SideEffects struct {
	awardPoints    *AwardPointsHandler
	checkBadges    *CheckAndAwardBadgesHandler
	recordActivity *RecordActivityHandler
	log            *logger.Logger
}

// NewSideEffects creates the side-effect boundary.
func NewSideEffects(
	awardPoints *AwardPointsHandler,
	checkBadges *CheckAndAwardBadgesHandler,
	recordActivity *RecordActivityHandler,
	log *logger.Logger,
) *SideEffects {
	return &SideEffects{
		awardPoints:    awardPoints,
		checkBadges:    checkBadges,
		recordActivity: recordActivity,
		log:            log.With(logger.Component("gamification_side_effects")),
	}
}

// AwardPoints awards points as a side effect. Errors are logged, never
// returned.
func (s *SideEffects) AwardPoints(ctx context.Context, cmd AwardPointsCommand) {
	if _, err := s.awardPoints.Handle(ctx, cmd); err != nil {
		s.log.Error("side-effect point award failed",
			logger.UserID(cmd.UserID),
			logger.PointsAmount(cmd.Amount),
			logger.PointsReason(cmd.Reason),
			logger.Err(err))
	}
}

// CheckBadges runs the badge check as a side effect. Errors are logged,
// never returned.
func (s *SideEffects) CheckBadges(ctx context.Context, userID string) {
	if _, err := s.checkBadges.Handle(ctx, CheckAndAwardBadgesCommand{UserID: userID}); err != nil {
		s.log.Error("side-effect badge check failed",
			logger.UserID(userID),
			logger.Err(err))
	}
}

// RecordActivity updates the streak as a side effect. Errors are logged,
// never returned.
func (s *SideEffects) RecordActivity(ctx context.Context, cmd RecordActivityCommand) {
	if _, err := s.recordActivity.Handle(ctx, cmd); err != nil {
		s.log.Error("side-effect activity record failed",
			logger.UserID(cmd.UserID),
			logger.Err(err))
	}
}
