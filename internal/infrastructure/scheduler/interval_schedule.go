package scheduler

import (
	"fmt"
	"time"
)

// IntervalSchedule fires at a fixed spacing, each run anchored to the
// previous one rather than to the wall clock. The rank rebuild runs on one
// of these: leaderboard staleness is then bounded by the interval no matter
// when the worker process started.
type IntervalSchedule struct {
	Interval time.Duration
}

// NewIntervalSchedule creates a schedule that fires every interval.
func NewIntervalSchedule(interval time.Duration) *IntervalSchedule {
	return &IntervalSchedule{
		Interval: interval,
	}
}

// Next returns the first firing time after t.
func (s *IntervalSchedule) Next(t time.Time) time.Time {
	return t.Add(s.Interval)
}

// String renders the schedule in "@every" notation for logs and job listings.
func (s *IntervalSchedule) String() string {
	return fmt.Sprintf("@every %s", s.Interval.String())
}
