// Package gamification contains the core progression model: cumulative
// points, derived levels, and activity streaks. This is pure business logic
// with no external dependencies.
package gamification

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Points represents a user's cumulative point total.
type Points int

// IsValid checks that the point total is non-negative.
func (p Points) IsValid() bool {
	return p >= 0
}

// Add returns the point total after applying a delta.
func (p Points) Add(delta Points) Points {
	return p + delta
}

// Level represents a user's level, derived deterministically from points.
// Levels start at 1.
type Level int

// IsValid checks that the level is positive.
func (l Level) IsValid() bool {
	return l >= 1
}

// PointsPerLevel is the size of each level's point range.
const PointsPerLevel = 100

// ══════════════════════════════════════════════════════════════════════════════
// LEVEL CALCULATOR
// ══════════════════════════════════════════════════════════════════════════════

// CalculateLevel derives the level from a cumulative point total.
// Every PointsPerLevel points is one level: 0-99 is level 1, 100-199 is
// level 2, and so on. Negative totals (possible only through manual
// adjustments) still map to level 1.
func CalculateLevel(points Points) Level {
	if points < 0 {
		return 1
	}
	return Level(int(points)/PointsPerLevel + 1)
}

// PointsForLevel returns the minimum cumulative points required for a level.
func PointsForLevel(level Level) Points {
	if level <= 1 {
		return 0
	}
	return Points((int(level) - 1) * PointsPerLevel)
}

// ProgressToNextLevel returns how far the user is through the current level,
// as a percentage in [0, 100]. The current level spans
// [(level-1)*PointsPerLevel, level*PointsPerLevel).
func ProgressToNextLevel(points Points, level Level) float64 {
	floor := PointsForLevel(level)
	progress := float64(points-floor) / float64(PointsPerLevel) * 100

	if progress < 0 {
		return 0
	}
	if progress > 100 {
		return 100
	}
	return progress
}

// PointsToNextLevel returns how many points are still needed to reach the
// next level. Never negative.
func PointsToNextLevel(points Points) Points {
	level := CalculateLevel(points)
	needed := PointsForLevel(level+1) - points
	if needed < 0 {
		return 0
	}
	return needed
}
