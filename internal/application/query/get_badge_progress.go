package query

import (
	"context"

	"github.com/lumina-lms/lumina-gamification/internal/domain/badge"
	"github.com/lumina-lms/lumina-gamification/internal/domain/gamification"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER BADGE PROGRESS QUERY
// Drives the "available badges with progress bars" view: every badge in the
// user's organization with earned status and current/target progress. Hidden
// badges stay invisible until earned.
// ══════════════════════════════════════════════════════════════════════════════

// GetUserBadgeProgressQuery identifies the user.
type GetUserBadgeProgressQuery struct {
	UserID string
}

// BadgeProgressDTO is one badge with the user's progress toward it.
type BadgeProgressDTO struct {
	BadgeID      string `json:"badge_id"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	IconURL      string `json:"icon_url,omitempty"`
	Rarity       string `json:"rarity"`
	PointsReward int    `json:"points_reward"`
	Earned       bool   `json:"earned"`
	Current      int    `json:"current"`
	Target       int    `json:"target"`
}

// GetUserBadgeProgressResult contains the badge list.
type GetUserBadgeProgressResult struct {
	Badges      []BadgeProgressDTO `json:"badges"`
	EarnedCount int                `json:"earned_count"`
}

// GetUserBadgeProgressHandler handles badge progress reads.
type GetUserBadgeProgressHandler struct {
	states    gamification.StateRepository
	badges    badge.Repository
	awards    badge.AwardRepository
	evaluator *badge.Evaluator
	log       *logger.Logger
}

// NewGetUserBadgeProgressHandler creates a new GetUserBadgeProgressHandler.
func NewGetUserBadgeProgressHandler(
	states gamification.StateRepository,
	badges badge.Repository,
	awards badge.AwardRepository,
	evaluator *badge.Evaluator,
	log *logger.Logger,
) *GetUserBadgeProgressHandler {
	return &GetUserBadgeProgressHandler{
		states:    states,
		badges:    badges,
		awards:    awards,
		evaluator: evaluator,
		log:       log.With(logger.Component("get_badge_progress")),
	}
}

// Handle executes the badge progress query.
func (h *GetUserBadgeProgressHandler) Handle(ctx context.Context, query GetUserBadgeProgressQuery) (*GetUserBadgeProgressResult, error) {
	if query.UserID == "" {
		return nil, shared.NewDomainError("query", "GetUserBadgeProgress", shared.ErrInvalidID, "user ID is required")
	}

	state, err := h.states.FindByUserID(ctx, query.UserID)
	if err != nil {
		return nil, shared.WrapError("query", "GetUserBadgeProgress", shared.ErrNotFound, "user state not found", err)
	}

	activeBadges, err := h.badges.FindActiveByOrganization(ctx, state.OrganizationID)
	if err != nil {
		return nil, shared.WrapError("query", "GetUserBadgeProgress", shared.ErrNotFound, "failed to load badges", err)
	}

	userAwards, err := h.awards.FindByUser(ctx, query.UserID)
	if err != nil {
		return nil, shared.WrapError("query", "GetUserBadgeProgress", shared.ErrNotFound, "failed to load awards", err)
	}
	earnedProgress := make(map[string]*badge.Award, len(userAwards))
	for _, a := range userAwards {
		earnedProgress[a.BadgeID] = a
	}

	result := &GetUserBadgeProgressResult{Badges: []BadgeProgressDTO{}}

	for _, b := range activeBadges {
		award, earned := earnedProgress[b.ID]

		// Hidden badges are omitted until earned.
		if b.IsHidden && !earned {
			continue
		}

		dto := BadgeProgressDTO{
			BadgeID:      b.ID,
			Name:         b.Name,
			Description:  b.Description,
			IconURL:      b.IconURL,
			Rarity:       string(b.Rarity),
			PointsReward: b.PointsReward,
			Earned:       earned,
		}

		if earned {
			dto.Current = award.ProgressCurrent
			dto.Target = award.ProgressTarget
			result.EarnedCount++
		} else {
			eval, err := h.evaluator.Evaluate(ctx, query.UserID, b)
			if err != nil {
				return nil, err
			}
			dto.Current = eval.Current
			dto.Target = eval.Target
		}

		result.Badges = append(result.Badges, dto)
	}

	return result, nil
}
