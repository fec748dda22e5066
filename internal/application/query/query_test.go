package query

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-lms/lumina-gamification/internal/domain/badge"
	"github.com/lumina-lms/lumina-gamification/internal/domain/gamification"
	"github.com/lumina-lms/lumina-gamification/internal/domain/leaderboard"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// FAKES
// ══════════════════════════════════════════════════════════════════════════════

type memStates map[string]*gamification.UserGamificationState

func (m memStates) FindByUserID(_ context.Context, userID string) (*gamification.UserGamificationState, error) {
	s, ok := m[userID]
	if !ok {
		return nil, shared.ErrStateNotFound
	}
	return s, nil
}
func (m memStates) Save(_ context.Context, s *gamification.UserGamificationState) error {
	m[s.UserID] = s
	return nil
}
func (m memStates) FindByOrganization(_ context.Context, orgID string) ([]*gamification.UserGamificationState, error) {
	var out []*gamification.UserGamificationState
	for _, s := range m {
		if s.OrganizationID == orgID {
			out = append(out, s)
		}
	}
	return out, nil
}

type memEntries map[string]*leaderboard.Entry

func (m memEntries) FindByUser(_ context.Context, userID, orgID string) (*leaderboard.Entry, error) {
	e, ok := m[userID+"/"+orgID]
	if !ok {
		return nil, shared.ErrLedgerEntryNotFound
	}
	return e, nil
}
func (m memEntries) FindByOrganization(_ context.Context, orgID string) ([]*leaderboard.Entry, error) {
	var out []*leaderboard.Entry
	for _, e := range m {
		if e.OrganizationID == orgID {
			out = append(out, e)
		}
	}
	return out, nil
}
func (m memEntries) Save(_ context.Context, e *leaderboard.Entry) error {
	m[e.UserID+"/"+e.OrganizationID] = e
	return nil
}
func (m memEntries) SaveRanks(_ context.Context, entries []*leaderboard.Entry, period leaderboard.Period) error {
	return nil
}

type memBadges map[string]*badge.Badge

func (m memBadges) FindByID(_ context.Context, id string) (*badge.Badge, error) {
	b, ok := m[id]
	if !ok {
		return nil, shared.ErrBadgeNotFound
	}
	return b, nil
}
func (m memBadges) FindActiveByOrganization(_ context.Context, orgID string) ([]*badge.Badge, error) {
	var out []*badge.Badge
	for _, b := range m {
		if b.OrganizationID == orgID && b.IsActive {
			out = append(out, b)
		}
	}
	return out, nil
}
func (m memBadges) FindByOrganization(_ context.Context, orgID string) ([]*badge.Badge, error) {
	var out []*badge.Badge
	for _, b := range m {
		if b.OrganizationID == orgID {
			out = append(out, b)
		}
	}
	return out, nil
}
func (m memBadges) Save(_ context.Context, b *badge.Badge) error { m[b.ID] = b; return nil }
func (m memBadges) IncrementTotalAwarded(_ context.Context, id string) error {
	if b, ok := m[id]; ok {
		b.TotalAwarded++
	}
	return nil
}

type memAwards map[string]*badge.Award

func (m memAwards) Create(_ context.Context, a *badge.Award) error {
	key := a.UserID + "/" + a.BadgeID
	if _, ok := m[key]; ok {
		return shared.ErrBadgeAlreadyAwarded
	}
	m[key] = a
	return nil
}
func (m memAwards) FindByUser(_ context.Context, userID string) ([]*badge.Award, error) {
	var out []*badge.Award
	for _, a := range m {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}
func (m memAwards) BadgeIDsForUser(_ context.Context, userID string) (map[string]bool, error) {
	out := make(map[string]bool)
	for _, a := range m {
		if a.UserID == userID {
			out[a.BadgeID] = true
		}
	}
	return out, nil
}

type staticMetrics struct {
	courseCount int
}

func (s staticMetrics) HasCompletedCourse(context.Context, string, string) (bool, error) {
	return false, nil
}
func (s staticMetrics) CompletedCourseCount(context.Context, string) (int, error) {
	return s.courseCount, nil
}
func (s staticMetrics) MaxPassedAssessmentScore(context.Context, string) (int, error) { return 0, nil }
func (s staticMetrics) CurrentPoints(context.Context, string) (int, error)            { return 0, nil }
func (s staticMetrics) CurrentLevel(context.Context, string) (int, error)             { return 1, nil }
func (s staticMetrics) CurrentStreak(context.Context, string) (int, error)            { return 0, nil }
func (s staticMetrics) CompletedModuleCount(context.Context, string) (int, error)     { return 0, nil }
func (s staticMetrics) PerfectScoreAttemptCount(context.Context, string) (int, error) { return 0, nil }

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
}

func seedEntry(t *testing.T, entries memEntries, userID string, points int, now time.Time) *leaderboard.Entry {
	t.Helper()
	e, err := leaderboard.NewEntry(userID, "org-1")
	require.NoError(t, err)
	e.AddPoints(points, now)
	require.NoError(t, entries.Save(context.Background(), e))
	return e
}

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD
// ══════════════════════════════════════════════════════════════════════════════

func TestGetLeaderboard_RanksAndPaginates(t *testing.T) {
	entries := memEntries{}
	now := time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)
	seedEntry(t, entries, "user-a", 100, now)
	seedEntry(t, entries, "user-b", 300, now)
	seedEntry(t, entries, "user-c", 200, now)

	handler := NewGetLeaderboardHandler(entries, nil, quietLogger())
	handler.now = func() time.Time { return now }

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{
		OrganizationID: "org-1",
		Period:         leaderboard.PeriodDaily,
		RequesterID:    "user-a",
		Page:           1,
		Limit:          2,
	})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "user-b", result.Entries[0].UserID)
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, "user-c", result.Entries[1].UserID)
	assert.Equal(t, 2, result.Entries[1].Rank)
	assert.True(t, result.HasMore)
	assert.Equal(t, 3, result.TotalCount)
	assert.Equal(t, 3, result.RequesterRank, "requester outside the page still gets their rank")
}

func TestGetLeaderboard_SecondPage(t *testing.T) {
	entries := memEntries{}
	now := time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)
	seedEntry(t, entries, "user-a", 100, now)
	seedEntry(t, entries, "user-b", 300, now)
	seedEntry(t, entries, "user-c", 200, now)

	handler := NewGetLeaderboardHandler(entries, nil, quietLogger())
	handler.now = func() time.Time { return now }

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{
		OrganizationID: "org-1",
		Period:         leaderboard.PeriodDaily,
		Page:           2,
		Limit:          2,
	})
	require.NoError(t, err)

	require.Len(t, result.Entries, 1)
	assert.Equal(t, "user-a", result.Entries[0].UserID)
	assert.Equal(t, 3, result.Entries[0].Rank)
	assert.False(t, result.HasMore)
}

func TestGetLeaderboard_StaleDailyBucketRanksLast(t *testing.T) {
	entries := memEntries{}
	yesterday := time.Date(2025, time.March, 11, 10, 0, 0, 0, time.UTC)
	today := time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)
	seedEntry(t, entries, "user-stale", 100, yesterday)
	seedEntry(t, entries, "user-fresh", 50, today)

	handler := NewGetLeaderboardHandler(entries, nil, quietLogger())
	handler.now = func() time.Time { return today }

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{
		OrganizationID: "org-1",
		Period:         leaderboard.PeriodDaily,
		Page:           1,
		Limit:          10,
	})
	require.NoError(t, err)

	require.Len(t, result.Entries, 2)
	assert.Equal(t, "user-fresh", result.Entries[0].UserID, "today's only earner leads")
	assert.Equal(t, 1, result.Entries[0].Rank)
	assert.Equal(t, 50, result.Entries[0].Points)
	assert.Equal(t, "user-stale", result.Entries[1].UserID)
	assert.Equal(t, 0, result.Entries[1].Points, "yesterday's bucket reads as zero today")
}

func TestGetLeaderboard_Validation(t *testing.T) {
	handler := NewGetLeaderboardHandler(memEntries{}, nil, quietLogger())
	ctx := context.Background()

	_, err := handler.Handle(ctx, GetLeaderboardQuery{Period: leaderboard.PeriodDaily})
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = handler.Handle(ctx, GetLeaderboardQuery{OrganizationID: "org-1", Period: "yearly"})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestGetLeaderboard_EmptyOrganization(t *testing.T) {
	handler := NewGetLeaderboardHandler(memEntries{}, nil, quietLogger())

	result, err := handler.Handle(context.Background(), GetLeaderboardQuery{
		OrganizationID: "org-1", Period: leaderboard.PeriodAllTime,
	})
	require.NoError(t, err)
	assert.Empty(t, result.Entries)
	assert.Zero(t, result.TotalCount)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET USER BADGE PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

func badgeProgressHandler(t *testing.T, badges memBadges, awards memAwards, metrics badge.MetricsProvider) *GetUserBadgeProgressHandler {
	t.Helper()
	states := memStates{}
	state, err := gamification.NewUserGamificationState("user-1", "org-1")
	require.NoError(t, err)
	require.NoError(t, states.Save(context.Background(), state))

	evaluator := badge.NewEvaluator(metrics, quietLogger())
	return NewGetUserBadgeProgressHandler(states, badges, awards, evaluator, quietLogger())
}

func TestGetUserBadgeProgress(t *testing.T) {
	earned, err := badge.NewBadge("badge-earned", "org-1", "Done",
		badge.Criteria{Type: badge.CriteriaCoursesCompletedCount, TargetValue: 1}, badge.RarityCommon, 10)
	require.NoError(t, err)
	inProgress, err := badge.NewBadge("badge-progress", "org-1", "Working",
		badge.Criteria{Type: badge.CriteriaCoursesCompletedCount, TargetValue: 5}, badge.RarityRare, 50)
	require.NoError(t, err)

	awards := memAwards{}
	award, err := badge.NewAward("a1", "user-1", "badge-earned", 1, 1)
	require.NoError(t, err)
	require.NoError(t, awards.Create(context.Background(), award))

	handler := badgeProgressHandler(t,
		memBadges{earned.ID: earned, inProgress.ID: inProgress},
		awards, staticMetrics{courseCount: 2})

	result, err := handler.Handle(context.Background(), GetUserBadgeProgressQuery{UserID: "user-1"})
	require.NoError(t, err)

	require.Len(t, result.Badges, 2)
	assert.Equal(t, 1, result.EarnedCount)

	byID := make(map[string]BadgeProgressDTO)
	for _, dto := range result.Badges {
		byID[dto.BadgeID] = dto
	}

	assert.True(t, byID["badge-earned"].Earned)
	assert.Equal(t, 1, byID["badge-earned"].Current, "earned badge shows its award-time snapshot")

	assert.False(t, byID["badge-progress"].Earned)
	assert.Equal(t, 2, byID["badge-progress"].Current)
	assert.Equal(t, 5, byID["badge-progress"].Target)
}

func TestGetUserBadgeProgress_HiddenUnearnedExcluded(t *testing.T) {
	hidden, err := badge.NewBadge("badge-hidden", "org-1", "Secret",
		badge.Criteria{Type: badge.CriteriaCoursesCompletedCount, TargetValue: 10}, badge.RarityLegendary, 500)
	require.NoError(t, err)
	hidden.IsHidden = true

	visible, err := badge.NewBadge("badge-visible", "org-1", "Open",
		badge.Criteria{Type: badge.CriteriaCoursesCompletedCount, TargetValue: 3}, badge.RarityCommon, 10)
	require.NoError(t, err)

	handler := badgeProgressHandler(t,
		memBadges{hidden.ID: hidden, visible.ID: visible},
		memAwards{}, staticMetrics{courseCount: 1})

	result, err := handler.Handle(context.Background(), GetUserBadgeProgressQuery{UserID: "user-1"})
	require.NoError(t, err)

	require.Len(t, result.Badges, 1)
	assert.Equal(t, "badge-visible", result.Badges[0].BadgeID)
}

func TestGetUserBadgeProgress_HiddenEarnedIncluded(t *testing.T) {
	hidden, err := badge.NewBadge("badge-hidden", "org-1", "Secret",
		badge.Criteria{Type: badge.CriteriaCoursesCompletedCount, TargetValue: 1}, badge.RarityEpic, 100)
	require.NoError(t, err)
	hidden.IsHidden = true

	awards := memAwards{}
	award, err := badge.NewAward("a1", "user-1", "badge-hidden", 1, 1)
	require.NoError(t, err)
	require.NoError(t, awards.Create(context.Background(), award))

	handler := badgeProgressHandler(t, memBadges{hidden.ID: hidden}, awards, staticMetrics{})

	result, err := handler.Handle(context.Background(), GetUserBadgeProgressQuery{UserID: "user-1"})
	require.NoError(t, err)

	require.Len(t, result.Badges, 1)
	assert.True(t, result.Badges[0].Earned)
}

// ══════════════════════════════════════════════════════════════════════════════
// GET USER STATE
// ══════════════════════════════════════════════════════════════════════════════

func TestGetUserState(t *testing.T) {
	states := memStates{}
	state, err := gamification.NewUserGamificationState("user-1", "org-1")
	require.NoError(t, err)
	_, err = state.AddPoints(150)
	require.NoError(t, err)
	state.RecordActivity(time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC))
	require.NoError(t, states.Save(context.Background(), state))

	entries := memEntries{}
	entry, err := leaderboard.NewEntry("user-1", "org-1")
	require.NoError(t, err)
	entry.AddPoints(150, time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC))
	require.NoError(t, entries.Save(context.Background(), entry))

	handler := NewGetUserStateHandler(states, entries, quietLogger())
	handler.now = func() time.Time {
		return time.Date(2025, time.March, 12, 10, 0, 0, 0, time.UTC)
	}

	result, err := handler.Handle(context.Background(), GetUserStateQuery{UserID: "user-1"})
	require.NoError(t, err)

	assert.Equal(t, 150, result.Points)
	assert.Equal(t, 2, result.Level)
	assert.InDelta(t, 50.0, result.ProgressToNextLevel, 0.001)
	assert.Equal(t, 50, result.PointsToNextLevel)
	assert.Equal(t, 1, result.CurrentStreak)

	// Yesterday's daily bucket reads as zero today; week and month carry over.
	assert.Equal(t, 0, result.DailyPoints)
	assert.Equal(t, 150, result.WeeklyPoints)
	assert.Equal(t, 150, result.MonthlyPoints)
	assert.Equal(t, 150, result.AllTimePoints)
}

func TestGetUserState_NoEntryYet(t *testing.T) {
	states := memStates{}
	state, err := gamification.NewUserGamificationState("user-1", "org-1")
	require.NoError(t, err)
	require.NoError(t, states.Save(context.Background(), state))

	handler := NewGetUserStateHandler(states, memEntries{}, quietLogger())

	result, err := handler.Handle(context.Background(), GetUserStateQuery{UserID: "user-1"})
	require.NoError(t, err)
	assert.Zero(t, result.AllTimePoints)
	assert.Equal(t, 1, result.Level)
}

func TestGetUserState_NotFound(t *testing.T) {
	handler := NewGetUserStateHandler(memStates{}, memEntries{}, quietLogger())

	_, err := handler.Handle(context.Background(), GetUserStateQuery{UserID: "ghost"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
