package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 10, 30, 0, 0, time.UTC)
}

func TestStreak_FirstActivity(t *testing.T) {
	s := NewStreak()

	s, broken := s.RecordActivity(day(2025, time.March, 1))

	assert.False(t, broken)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 1, s.Longest)
	assert.True(t, s.HasActivity())
}

func TestStreak_ConsecutiveDaysIncrement(t *testing.T) {
	s := NewStreak()

	s, _ = s.RecordActivity(day(2025, time.March, 1))
	s, broken := s.RecordActivity(day(2025, time.March, 2))
	assert.False(t, broken)
	assert.Equal(t, 2, s.Current)

	s, broken = s.RecordActivity(day(2025, time.March, 3))
	assert.False(t, broken)
	assert.Equal(t, 3, s.Current)
	assert.Equal(t, 3, s.Longest)
}

func TestStreak_SameDayCountedOnce(t *testing.T) {
	s := NewStreak()

	s, _ = s.RecordActivity(day(2025, time.March, 1))
	s, _ = s.RecordActivity(day(2025, time.March, 2))

	// Two more activities the same day change nothing.
	s, broken := s.RecordActivity(time.Date(2025, time.March, 2, 23, 59, 0, 0, time.UTC))
	assert.False(t, broken)
	assert.Equal(t, 2, s.Current)

	s, broken = s.RecordActivity(day(2025, time.March, 2))
	assert.False(t, broken)
	assert.Equal(t, 2, s.Current)
}

func TestStreak_GapResetsToOne(t *testing.T) {
	s := NewStreak()

	s, _ = s.RecordActivity(day(2025, time.March, 1))
	s, _ = s.RecordActivity(day(2025, time.March, 2))
	s, _ = s.RecordActivity(day(2025, time.March, 3))

	s, broken := s.RecordActivity(day(2025, time.March, 7))

	assert.True(t, broken)
	assert.Equal(t, 1, s.Current)
	assert.Equal(t, 3, s.Longest, "longest streak survives the reset")
}

func TestStreak_LongestTracksBestRun(t *testing.T) {
	s := NewStreak()

	s, _ = s.RecordActivity(day(2025, time.March, 1))
	s, _ = s.RecordActivity(day(2025, time.March, 2))
	s, _ = s.RecordActivity(day(2025, time.March, 10)) // reset
	s, _ = s.RecordActivity(day(2025, time.March, 11))
	s, _ = s.RecordActivity(day(2025, time.March, 12))
	s, _ = s.RecordActivity(day(2025, time.March, 13))

	assert.Equal(t, 4, s.Current)
	assert.Equal(t, 4, s.Longest)
}

func TestStreak_OutOfOrderDateIgnored(t *testing.T) {
	s := NewStreak()

	s, _ = s.RecordActivity(day(2025, time.March, 5))
	s, _ = s.RecordActivity(day(2025, time.March, 6))

	before := s
	s, broken := s.RecordActivity(day(2025, time.March, 2))

	assert.False(t, broken)
	assert.Equal(t, before, s, "earlier date must not change the streak")
}

func TestStreak_MidnightBoundary(t *testing.T) {
	s := NewStreak()

	s, _ = s.RecordActivity(time.Date(2025, time.March, 1, 23, 59, 59, 0, time.UTC))
	s, broken := s.RecordActivity(time.Date(2025, time.March, 2, 0, 0, 1, 0, time.UTC))

	assert.False(t, broken)
	assert.Equal(t, 2, s.Current, "two seconds apart across midnight is consecutive days")
}

func TestStreak_IsActiveOn(t *testing.T) {
	s := NewStreak()
	assert.False(t, s.IsActiveOn(day(2025, time.March, 1)))

	s, _ = s.RecordActivity(day(2025, time.March, 1))
	assert.True(t, s.IsActiveOn(day(2025, time.March, 1)))
	assert.True(t, s.IsActiveOn(day(2025, time.March, 2)))
	assert.False(t, s.IsActiveOn(day(2025, time.March, 3)))
}
