package query

import (
	"context"
	"time"

	"github.com/lumina-lms/lumina-gamification/internal/domain/gamification"
	"github.com/lumina-lms/lumina-gamification/internal/domain/leaderboard"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET USER STATE QUERY
// The user's own progression view: points, level, progress bar, streak, and
// the effective windowed totals (a bucket whose window has elapsed reads as
// zero even before the next award rolls it over).
// ══════════════════════════════════════════════════════════════════════════════

// GetUserStateQuery identifies the user.
type GetUserStateQuery struct {
	UserID string
}

// GetUserStateResult contains the user's progression snapshot.
type GetUserStateResult struct {
	UserID              string     `json:"user_id"`
	OrganizationID      string     `json:"organization_id"`
	Points              int        `json:"points"`
	Level               int        `json:"level"`
	ProgressToNextLevel float64    `json:"progress_to_next_level"`
	PointsToNextLevel   int        `json:"points_to_next_level"`
	CurrentStreak       int        `json:"current_streak"`
	LongestStreak       int        `json:"longest_streak"`
	LastActivityDate    *time.Time `json:"last_activity_date,omitempty"`
	DailyPoints         int        `json:"daily_points"`
	WeeklyPoints        int        `json:"weekly_points"`
	MonthlyPoints       int        `json:"monthly_points"`
	AllTimePoints       int        `json:"all_time_points"`
}

// GetUserStateHandler handles user state reads.
type GetUserStateHandler struct {
	states  gamification.StateRepository
	entries leaderboard.EntryRepository
	log     *logger.Logger

	now func() time.Time
}

// NewGetUserStateHandler creates a new GetUserStateHandler.
func NewGetUserStateHandler(
	states gamification.StateRepository,
	entries leaderboard.EntryRepository,
	log *logger.Logger,
) *GetUserStateHandler {
	return &GetUserStateHandler{
		states:  states,
		entries: entries,
		log:     log.With(logger.Component("get_user_state")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the user state query.
func (h *GetUserStateHandler) Handle(ctx context.Context, query GetUserStateQuery) (*GetUserStateResult, error) {
	if query.UserID == "" {
		return nil, shared.NewDomainError("query", "GetUserState", shared.ErrInvalidID, "user ID is required")
	}

	state, err := h.states.FindByUserID(ctx, query.UserID)
	if err != nil {
		return nil, err
	}

	result := &GetUserStateResult{
		UserID:              state.UserID,
		OrganizationID:      state.OrganizationID,
		Points:              int(state.Points),
		Level:               int(state.Level),
		ProgressToNextLevel: state.ProgressToNextLevel(),
		PointsToNextLevel:   int(gamification.PointsToNextLevel(state.Points)),
		CurrentStreak:       state.Streak.Current,
		LongestStreak:       state.Streak.Longest,
	}
	if state.Streak.HasActivity() {
		last := state.Streak.LastActivityDate
		result.LastActivityDate = &last
	}

	entry, err := h.entries.FindByUser(ctx, query.UserID, state.OrganizationID)
	if err != nil {
		if !shared.IsNotFound(err) {
			return nil, err
		}
		// No awards yet; windowed totals are all zero.
		return result, nil
	}

	now := h.now()
	result.DailyPoints = entry.EffectivePointsFor(leaderboard.PeriodDaily, now)
	result.WeeklyPoints = entry.EffectivePointsFor(leaderboard.PeriodWeekly, now)
	result.MonthlyPoints = entry.EffectivePointsFor(leaderboard.PeriodMonthly, now)
	result.AllTimePoints = entry.AllTimePoints

	return result, nil
}
