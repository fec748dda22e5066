package badge

import (
	"context"

	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// METRICS PROVIDER
// ══════════════════════════════════════════════════════════════════════════════

// MetricsProvider is the read-only view of user learning metrics that badge
// criteria are measured against. Implementations never decide "earned" —
// they only report numbers. Any method may fail transiently with
// shared.ErrMetricsUnavailable; the evaluator propagates that instead of
// awarding on uncertain data.
type MetricsProvider interface {
	HasCompletedCourse(ctx context.Context, userID, courseID string) (bool, error)
	CompletedCourseCount(ctx context.Context, userID string) (int, error)
	MaxPassedAssessmentScore(ctx context.Context, userID string) (int, error)
	CurrentPoints(ctx context.Context, userID string) (int, error)
	CurrentLevel(ctx context.Context, userID string) (int, error)
	CurrentStreak(ctx context.Context, userID string) (int, error)
	CompletedModuleCount(ctx context.Context, userID string) (int, error)
	PerfectScoreAttemptCount(ctx context.Context, userID string) (int, error)
}

// ══════════════════════════════════════════════════════════════════════════════
// EVALUATION
// ══════════════════════════════════════════════════════════════════════════════

// Evaluation is the outcome of checking one badge's criteria for one user.
type Evaluation struct {
	Earned  bool
	Current int
	Target  int
}

// Evaluator checks badge criteria against user metrics.
type Evaluator struct {
	metrics MetricsProvider
	log     *logger.Logger
}

// NewEvaluator creates a criteria evaluator.
func NewEvaluator(metrics MetricsProvider, log *logger.Logger) *Evaluator {
	return &Evaluator{
		metrics: metrics,
		log:     log.With(logger.Component("badge_evaluator")),
	}
}

// Evaluate dispatches on the badge's criteria type and reports whether the
// user has earned it, along with current/target progress.
//
// Reserved or unrecognized criteria types never satisfy: the evaluator logs
// a warning and reports earned=false rather than erroring, so one
// misconfigured badge cannot break an award pass.
func (e *Evaluator) Evaluate(ctx context.Context, userID string, b *Badge) (Evaluation, error) {
	target := b.Criteria.TargetValue

	switch b.Criteria.Type {
	case CriteriaCourseCompletion:
		completed, err := e.metrics.HasCompletedCourse(ctx, userID, b.Criteria.SpecificCourseID)
		if err != nil {
			return Evaluation{}, shared.WrapError("badge", "Evaluate", shared.ErrServiceUnavailable, "metrics read failed", err)
		}
		// No partial progress for a single-course badge.
		current := 0
		if completed {
			current = 1
		}
		return Evaluation{Earned: completed, Current: current, Target: 1}, nil

	case CriteriaCoursesCompletedCount:
		return e.thresholdEvaluation(target)(e.metrics.CompletedCourseCount(ctx, userID))

	case CriteriaAssessmentScore:
		return e.thresholdEvaluation(target)(e.metrics.MaxPassedAssessmentScore(ctx, userID))

	case CriteriaConsecutiveDays:
		return e.thresholdEvaluation(target)(e.metrics.CurrentStreak(ctx, userID))

	case CriteriaTotalPoints:
		return e.thresholdEvaluation(target)(e.metrics.CurrentPoints(ctx, userID))

	case CriteriaLevelReached:
		return e.thresholdEvaluation(target)(e.metrics.CurrentLevel(ctx, userID))

	case CriteriaModulesCompleted:
		return e.thresholdEvaluation(target)(e.metrics.CompletedModuleCount(ctx, userID))

	case CriteriaPerfectScore:
		return e.thresholdEvaluation(target)(e.metrics.PerfectScoreAttemptCount(ctx, userID))

	default:
		e.log.Warn("unrecognized badge criteria type, treating as not earned",
			logger.BadgeID(b.ID),
			logger.CriteriaType(string(b.Criteria.Type)),
			logger.UserID(userID),
		)
		return Evaluation{Earned: false, Current: 0, Target: target}, nil
	}
}

// thresholdEvaluation builds the common "current >= target" evaluation from
// a metric read.
func (e *Evaluator) thresholdEvaluation(target int) func(current int, err error) (Evaluation, error) {
	return func(current int, err error) (Evaluation, error) {
		if err != nil {
			return Evaluation{}, shared.WrapError("badge", "Evaluate", shared.ErrServiceUnavailable, "metrics read failed", err)
		}
		return Evaluation{
			Earned:  current >= target,
			Current: current,
			Target:  target,
		}, nil
	}
}
