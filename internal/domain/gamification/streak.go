package gamification

import (
	"time"

	"github.com/lumina-lms/lumina-gamification/pkg/timeutil"
)

// ══════════════════════════════════════════════════════════════════════════════
// STREAK
// ══════════════════════════════════════════════════════════════════════════════

// Streak tracks consecutive days of activity. All dates are compared at
// calendar-day granularity in UTC.
type Streak struct {
	Current          int
	Longest          int
	LastActivityDate time.Time
}

// NewStreak creates an empty streak with no recorded activity.
func NewStreak() Streak {
	return Streak{}
}

// HasActivity reports whether any activity has been recorded.
func (s Streak) HasActivity() bool {
	return !s.LastActivityDate.IsZero()
}

// RecordActivity updates the streak for an activity on the given date and
// returns the new streak. The second return value reports whether the streak
// was broken by a gap of more than one day.
//
// Multiple activities on the same day are counted once. A date earlier than
// the last recorded activity (clock skew, backfilled events) leaves the
// streak untouched rather than corrupting it.
func (s Streak) RecordActivity(date time.Time) (Streak, bool) {
	if !s.HasActivity() {
		s.Current = 1
		if s.Longest < 1 {
			s.Longest = 1
		}
		s.LastActivityDate = timeutil.StartOfDay(date)
		return s, false
	}

	daysDiff := timeutil.DaysBetween(s.LastActivityDate, date)

	broken := false
	switch {
	case daysDiff == 0:
		// Same day, already counted.
		return s, false
	case daysDiff == 1:
		s.Current++
	case daysDiff > 1:
		s.Current = 1
		broken = true
	default:
		// Out-of-order date, ignore.
		return s, false
	}

	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.LastActivityDate = timeutil.StartOfDay(date)

	return s, broken
}

// IsActiveOn reports whether the streak is still alive as of the given date,
// meaning the last activity was today or yesterday relative to that date.
func (s Streak) IsActiveOn(date time.Time) bool {
	if !s.HasActivity() {
		return false
	}
	diff := timeutil.DaysBetween(s.LastActivityDate, date)
	return diff >= 0 && diff <= 1
}
