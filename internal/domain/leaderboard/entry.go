// Package leaderboard contains the windowed point ledger and rank
// computation. Every (user, organization) pair owns one Entry holding four
// point totals: three windowed buckets that reset on rollover, and an
// unwindowed all-time total.
package leaderboard

import (
	"strings"
	"time"

	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// PERIOD
// ══════════════════════════════════════════════════════════════════════════════

// Period identifies one of the leaderboard time windows.
type Period string

const (
	PeriodDaily   Period = "daily"
	PeriodWeekly  Period = "weekly"
	PeriodMonthly Period = "monthly"
	PeriodAllTime Period = "all_time"
)

// AllPeriods lists every period in a stable order.
func AllPeriods() []Period {
	return []Period{PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAllTime}
}

// IsValid checks that the period is one of the known values.
func (p Period) IsValid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAllTime:
		return true
	}
	return false
}

// ParsePeriod parses a period string, accepting the common "alltime" and
// "allTime" spellings.
func ParsePeriod(s string) (Period, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily":
		return PeriodDaily, nil
	case "weekly":
		return PeriodWeekly, nil
	case "monthly":
		return PeriodMonthly, nil
	case "all_time", "alltime":
		return PeriodAllTime, nil
	}
	return "", shared.ErrInvalidPeriod
}

// WindowStart returns the canonical window start for the period containing t.
// All-time has no window and returns the zero time.
func (p Period) WindowStart(t time.Time) time.Time {
	switch p {
	case PeriodDaily:
		return timeutil.StartOfDay(t)
	case PeriodWeekly:
		return timeutil.StartOfWeek(t)
	case PeriodMonthly:
		return timeutil.StartOfMonth(t)
	default:
		return time.Time{}
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// WINDOW BUCKET
// ══════════════════════════════════════════════════════════════════════════════

// WindowBucket is a point total valid only within [WindowStart,
// WindowStart + period length). Rank is valid only as of the last rank
// recomputation for its organization and period.
type WindowBucket struct {
	Points      int
	WindowStart time.Time
	Rank        int
}

// apply adds amount to the bucket, first resetting it if the stored window
// has elapsed. Stale points are discarded, never carried forward. Negative
// amounts (manual adjustments) follow the same rules with no floor at zero;
// clamping is the caller's policy, not the ledger's.
func (b *WindowBucket) apply(amount int, windowStart time.Time) {
	if b.WindowStart.Before(windowStart) {
		b.Points = amount
		b.WindowStart = windowStart
		return
	}
	b.Points += amount
}

// ══════════════════════════════════════════════════════════════════════════════
// METRICS
// ══════════════════════════════════════════════════════════════════════════════

// Metrics are denormalized read-mostly counters shown alongside leaderboard
// rows. External collaborators update them; the ledger only stores them.
type Metrics struct {
	CoursesCompleted   int
	LessonsCompleted   int
	AssessmentsPassed  int
	AverageScore       float64
	TotalTimeSpent     int64
	CertificatesEarned int
	BadgesEarned       int
	CurrentStreak      int
	LongestStreak      int
}

// ══════════════════════════════════════════════════════════════════════════════
// ENTRY
// ══════════════════════════════════════════════════════════════════════════════

// Entry is the windowed point ledger for one user in one organization.
// Created lazily on the user's first award.
type Entry struct {
	UserID         string
	OrganizationID string

	Daily   WindowBucket
	Weekly  WindowBucket
	Monthly WindowBucket

	AllTimePoints int
	AllTimeRank   int

	Metrics   Metrics
	CreatedAt time.Time
	UpdatedAt time.Time

	// Version supports optimistic locking so concurrent awards for the same
	// entry cannot silently lose an update.
	Version int
}

// NewEntry creates an empty ledger entry for a user in an organization.
func NewEntry(userID, organizationID string) (*Entry, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, shared.NewDomainError("leaderboard", "NewEntry", shared.ErrInvalidID, "user ID cannot be empty")
	}
	if strings.TrimSpace(organizationID) == "" {
		return nil, shared.NewDomainError("leaderboard", "NewEntry", shared.ErrInvalidID, "organization ID cannot be empty")
	}

	now := time.Now().UTC()
	return &Entry{
		UserID:         userID,
		OrganizationID: organizationID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// AddPoints applies an award (or a negative manual adjustment) to every
// bucket, rolling over any bucket whose window has elapsed relative to now.
// The all-time total accumulates unconditionally.
func (e *Entry) AddPoints(amount int, now time.Time) {
	e.Daily.apply(amount, PeriodDaily.WindowStart(now))
	e.Weekly.apply(amount, PeriodWeekly.WindowStart(now))
	e.Monthly.apply(amount, PeriodMonthly.WindowStart(now))
	e.AllTimePoints += amount
	e.UpdatedAt = now.UTC()
}

// PointsFor returns the point total for a period as of the stored window.
func (e *Entry) PointsFor(period Period) int {
	switch period {
	case PeriodDaily:
		return e.Daily.Points
	case PeriodWeekly:
		return e.Weekly.Points
	case PeriodMonthly:
		return e.Monthly.Points
	default:
		return e.AllTimePoints
	}
}

// RankFor returns the last computed rank for a period.
func (e *Entry) RankFor(period Period) int {
	switch period {
	case PeriodDaily:
		return e.Daily.Rank
	case PeriodWeekly:
		return e.Weekly.Rank
	case PeriodMonthly:
		return e.Monthly.Rank
	default:
		return e.AllTimeRank
	}
}

// SetRank stores a freshly computed rank for a period.
func (e *Entry) SetRank(period Period, rank int) {
	switch period {
	case PeriodDaily:
		e.Daily.Rank = rank
	case PeriodWeekly:
		e.Weekly.Rank = rank
	case PeriodMonthly:
		e.Monthly.Rank = rank
	default:
		e.AllTimeRank = rank
	}
}

// EffectivePointsFor returns the period's points, treating a bucket whose
// window has elapsed as zero. Used by reads so a stale bucket never shows
// last window's total.
func (e *Entry) EffectivePointsFor(period Period, now time.Time) int {
	if period == PeriodAllTime {
		return e.AllTimePoints
	}

	var bucket WindowBucket
	switch period {
	case PeriodDaily:
		bucket = e.Daily
	case PeriodWeekly:
		bucket = e.Weekly
	case PeriodMonthly:
		bucket = e.Monthly
	}

	if bucket.WindowStart.Before(period.WindowStart(now)) {
		return 0
	}
	return bucket.Points
}
