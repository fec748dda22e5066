package gamification

import (
	"strings"
	"time"

	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// USER GAMIFICATION STATE
// ══════════════════════════════════════════════════════════════════════════════

// UserGamificationState is the per-user progression aggregate: cumulative
// points, the level derived from them, and the activity streak.
//
// Level is always derived from Points through CalculateLevel; every mutation
// that changes Points recomputes it, so the two can never drift apart.
type UserGamificationState struct {
	UserID         string
	OrganizationID string
	Points         Points
	Level          Level
	Streak         Streak
	CreatedAt      time.Time
	UpdatedAt      time.Time

	// Version supports optimistic locking in persistence.
	Version int
}

// NewUserGamificationState creates a fresh state for a user: zero points,
// level 1, no streak.
func NewUserGamificationState(userID, organizationID string) (*UserGamificationState, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, shared.NewDomainError("gamification", "NewState", shared.ErrInvalidID, "user ID cannot be empty")
	}
	if strings.TrimSpace(organizationID) == "" {
		return nil, shared.NewDomainError("gamification", "NewState", shared.ErrInvalidID, "organization ID cannot be empty")
	}

	now := time.Now().UTC()
	return &UserGamificationState{
		UserID:         userID,
		OrganizationID: organizationID,
		Points:         0,
		Level:          1,
		Streak:         NewStreak(),
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// PointsChange describes the outcome of a point mutation.
type PointsChange struct {
	OldPoints Points
	NewPoints Points
	OldLevel  Level
	NewLevel  Level
}

// LeveledUp reports whether the change crossed a level boundary upward.
func (c PointsChange) LeveledUp() bool {
	return c.NewLevel > c.OldLevel
}

// AddPoints applies a positive point award and recomputes the level.
func (s *UserGamificationState) AddPoints(amount int) (PointsChange, error) {
	if amount <= 0 {
		return PointsChange{}, shared.NewDomainError("gamification", "AddPoints", shared.ErrValueOutOfRange, "award amount must be positive")
	}
	return s.applyDelta(Points(amount)), nil
}

// AdjustPoints applies a manual correction, which may be negative. The total
// is floored at zero so a correction can never produce a negative balance.
func (s *UserGamificationState) AdjustPoints(delta int) (PointsChange, error) {
	if delta == 0 {
		return PointsChange{}, shared.NewDomainError("gamification", "AdjustPoints", shared.ErrInvalidInput, "adjustment delta cannot be zero")
	}
	return s.applyDelta(Points(delta)), nil
}

func (s *UserGamificationState) applyDelta(delta Points) PointsChange {
	change := PointsChange{
		OldPoints: s.Points,
		OldLevel:  s.Level,
	}

	s.Points = s.Points.Add(delta)
	if s.Points < 0 {
		s.Points = 0
	}
	s.Level = CalculateLevel(s.Points)
	s.UpdatedAt = time.Now().UTC()

	change.NewPoints = s.Points
	change.NewLevel = s.Level
	return change
}

// RecordActivity updates the streak for activity on the given date.
// Returns true if the streak was broken.
func (s *UserGamificationState) RecordActivity(date time.Time) bool {
	updated, broken := s.Streak.RecordActivity(date)
	if updated == s.Streak {
		return false
	}
	s.Streak = updated
	s.UpdatedAt = time.Now().UTC()
	return broken
}

// ProgressToNextLevel returns how far the user is through the current level,
// as a percentage in [0, 100].
func (s *UserGamificationState) ProgressToNextLevel() float64 {
	return ProgressToNextLevel(s.Points, s.Level)
}
