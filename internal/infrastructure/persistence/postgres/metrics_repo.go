// Package postgres implements the PostgreSQL persistence layer for the
// Lumina gamification service.
package postgres

import (
	"context"
	"fmt"

	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS PROVIDER IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// MetricsRepository implements badge.MetricsProvider against the LMS schema.
// Course, module, and assessment progress live in tables owned by the core
// LMS; this repository only reads them. Points, level, and streak come from
// our own gamification_states table.
//
// Every failure is reported as shared.ErrMetricsUnavailable so the badge
// evaluator refuses to award rather than guessing.
type MetricsRepository struct {
	conn *Connection
}

// NewMetricsRepository creates a new MetricsRepository.
func NewMetricsRepository(conn *Connection) *MetricsRepository {
	return &MetricsRepository{conn: conn}
}

// HasCompletedCourse reports whether the user completed a specific course.
func (r *MetricsRepository) HasCompletedCourse(ctx context.Context, userID, courseID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM course_enrollments
			WHERE user_id = $1 AND course_id = $2 AND completed_at IS NOT NULL
		)
	`

	var completed bool
	if err := r.conn.QueryRow(ctx, query, userID, courseID).Scan(&completed); err != nil {
		return false, metricsErr("HasCompletedCourse", err)
	}
	return completed, nil
}

// CompletedCourseCount returns how many courses the user has completed.
func (r *MetricsRepository) CompletedCourseCount(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM course_enrollments
		WHERE user_id = $1 AND completed_at IS NOT NULL
	`

	return r.countQuery(ctx, "CompletedCourseCount", query, userID)
}

// MaxPassedAssessmentScore returns the user's best passing score, or 0 when
// no attempt has passed yet.
func (r *MetricsRepository) MaxPassedAssessmentScore(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COALESCE(MAX(score), 0) FROM assessment_attempts
		WHERE user_id = $1 AND passed
	`

	return r.countQuery(ctx, "MaxPassedAssessmentScore", query, userID)
}

// CurrentPoints returns the user's all-time points, 0 for unknown users.
func (r *MetricsRepository) CurrentPoints(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COALESCE(
			(SELECT points FROM gamification_states WHERE user_id = $1), 0
		)
	`

	return r.countQuery(ctx, "CurrentPoints", query, userID)
}

// CurrentLevel returns the user's level, 1 for unknown users.
func (r *MetricsRepository) CurrentLevel(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COALESCE(
			(SELECT level FROM gamification_states WHERE user_id = $1), 1
		)
	`

	return r.countQuery(ctx, "CurrentLevel", query, userID)
}

// CurrentStreak returns the user's current consecutive-day streak.
func (r *MetricsRepository) CurrentStreak(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COALESCE(
			(SELECT current_streak FROM gamification_states WHERE user_id = $1), 0
		)
	`

	return r.countQuery(ctx, "CurrentStreak", query, userID)
}

// CompletedModuleCount returns how many course modules the user completed.
func (r *MetricsRepository) CompletedModuleCount(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM module_progress
		WHERE user_id = $1 AND completed_at IS NOT NULL
	`

	return r.countQuery(ctx, "CompletedModuleCount", query, userID)
}

// PerfectScoreAttemptCount returns how many assessments the user finished
// with a 100% score.
func (r *MetricsRepository) PerfectScoreAttemptCount(ctx context.Context, userID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM assessment_attempts
		WHERE user_id = $1 AND score = 100
	`

	return r.countQuery(ctx, "PerfectScoreAttemptCount", query, userID)
}

func (r *MetricsRepository) countQuery(ctx context.Context, op, query string, args ...interface{}) (int, error) {
	var n int
	if err := r.conn.QueryRow(ctx, query, args...).Scan(&n); err != nil {
		return 0, metricsErr(op, err)
	}
	return n, nil
}

func metricsErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %v", shared.ErrMetricsUnavailable, op, err)
}
