package leaderboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryWithPoints(t *testing.T, userID string, points int, now time.Time) *Entry {
	t.Helper()
	entry, err := NewEntry(userID, "org-1")
	require.NoError(t, err)
	if points != 0 {
		entry.AddPoints(points, now)
	}
	return entry
}

func TestComputeRanks_DescendingOrder(t *testing.T) {
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	entries := []*Entry{
		entryWithPoints(t, "user-a", 100, now),
		entryWithPoints(t, "user-b", 300, now),
		entryWithPoints(t, "user-c", 200, now),
	}

	ranked := ComputeRanks(entries, PeriodDaily, now)

	assert.Equal(t, "user-b", ranked[0].UserID)
	assert.Equal(t, "user-c", ranked[1].UserID)
	assert.Equal(t, "user-a", ranked[2].UserID)
	assert.Equal(t, 1, ranked[0].Daily.Rank)
	assert.Equal(t, 2, ranked[1].Daily.Rank)
	assert.Equal(t, 3, ranked[2].Daily.Rank)
}

func TestComputeRanks_TieBrokenByUserID(t *testing.T) {
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	entries := []*Entry{
		entryWithPoints(t, "user-z", 200, now),
		entryWithPoints(t, "user-a", 200, now),
		entryWithPoints(t, "user-m", 200, now),
	}

	ranked := ComputeRanks(entries, PeriodDaily, now)

	assert.Equal(t, "user-a", ranked[0].UserID)
	assert.Equal(t, "user-m", ranked[1].UserID)
	assert.Equal(t, "user-z", ranked[2].UserID)
}

func TestComputeRanks_Deterministic(t *testing.T) {
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	build := func(order []string) []*Entry {
		entries := make([]*Entry, 0, len(order))
		for _, id := range order {
			entries = append(entries, entryWithPoints(t, id, 150, now))
		}
		return entries
	}

	first := ComputeRanks(build([]string{"u3", "u1", "u2"}), PeriodWeekly, now)
	second := ComputeRanks(build([]string{"u2", "u3", "u1"}), PeriodWeekly, now)

	for i := range first {
		assert.Equal(t, first[i].UserID, second[i].UserID, "input order must not affect ranks")
	}
}

func TestComputeRanks_PerPeriodIndependence(t *testing.T) {
	now := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)
	a := entryWithPoints(t, "user-a", 50, now)
	b := entryWithPoints(t, "user-b", 10, now)

	// user-b has more all-time points from an earlier window.
	b.AllTimePoints = 500

	ComputeRanks([]*Entry{a, b}, PeriodDaily, now)
	ComputeRanks([]*Entry{a, b}, PeriodAllTime, now)

	assert.Equal(t, 1, a.Daily.Rank)
	assert.Equal(t, 2, b.Daily.Rank)
	assert.Equal(t, 1, b.AllTimeRank)
	assert.Equal(t, 2, a.AllTimeRank)
}

func TestComputeRanks_ElapsedWindowScoresZero(t *testing.T) {
	yesterday := time.Date(2025, time.March, 11, 9, 0, 0, 0, time.UTC)
	today := time.Date(2025, time.March, 12, 9, 0, 0, 0, time.UTC)

	stale := entryWithPoints(t, "user-stale", 100, yesterday)
	fresh := entryWithPoints(t, "user-fresh", 50, today)

	require.Equal(t, 0, stale.EffectivePointsFor(PeriodDaily, today))
	require.Equal(t, 50, fresh.EffectivePointsFor(PeriodDaily, today))

	ranked := ComputeRanks([]*Entry{stale, fresh}, PeriodDaily, today)

	assert.Equal(t, "user-fresh", ranked[0].UserID, "today's only earner leads the daily board")
	assert.Equal(t, 1, fresh.Daily.Rank)
	assert.Equal(t, 2, stale.Daily.Rank)

	// The stale bucket still counts toward the unwindowed total.
	ComputeRanks([]*Entry{stale, fresh}, PeriodAllTime, today)
	assert.Equal(t, 1, stale.AllTimeRank)
	assert.Equal(t, 2, fresh.AllTimeRank)
}

func TestComputeRanks_Empty(t *testing.T) {
	ranked := ComputeRanks(nil, PeriodDaily, time.Now())
	assert.Empty(t, ranked)
}
