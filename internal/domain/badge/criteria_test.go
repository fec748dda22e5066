package badge

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// fakeMetrics returns canned values for every metric.
type fakeMetrics struct {
	completedCourses map[string]bool
	courseCount      int
	maxScore         int
	points           int
	level            int
	streak           int
	moduleCount      int
	perfectScores    int
	err              error
}

func (f *fakeMetrics) HasCompletedCourse(_ context.Context, _, courseID string) (bool, error) {
	return f.completedCourses[courseID], f.err
}
func (f *fakeMetrics) CompletedCourseCount(context.Context, string) (int, error) {
	return f.courseCount, f.err
}
func (f *fakeMetrics) MaxPassedAssessmentScore(context.Context, string) (int, error) {
	return f.maxScore, f.err
}
func (f *fakeMetrics) CurrentPoints(context.Context, string) (int, error) { return f.points, f.err }
func (f *fakeMetrics) CurrentLevel(context.Context, string) (int, error)  { return f.level, f.err }
func (f *fakeMetrics) CurrentStreak(context.Context, string) (int, error) { return f.streak, f.err }
func (f *fakeMetrics) CompletedModuleCount(context.Context, string) (int, error) {
	return f.moduleCount, f.err
}
func (f *fakeMetrics) PerfectScoreAttemptCount(context.Context, string) (int, error) {
	return f.perfectScores, f.err
}

func quietLogger() *logger.Logger {
	return logger.New(logger.Options{Output: io.Discard, Level: logger.LevelFatal})
}

func testBadge(t *testing.T, criteria Criteria) *Badge {
	t.Helper()
	b, err := NewBadge("badge-1", "org-1", "Test Badge", criteria, RarityCommon, 25)
	require.NoError(t, err)
	return b
}

func TestEvaluator_CourseCompletion(t *testing.T) {
	metrics := &fakeMetrics{completedCourses: map[string]bool{"course-go": true}}
	evaluator := NewEvaluator(metrics, quietLogger())

	b := testBadge(t, Criteria{Type: CriteriaCourseCompletion, SpecificCourseID: "course-go"})

	eval, err := evaluator.Evaluate(context.Background(), "user-1", b)
	require.NoError(t, err)
	assert.True(t, eval.Earned)
	assert.Equal(t, 1, eval.Current)
	assert.Equal(t, 1, eval.Target)

	b2 := testBadge(t, Criteria{Type: CriteriaCourseCompletion, SpecificCourseID: "course-rust"})
	eval, err = evaluator.Evaluate(context.Background(), "user-1", b2)
	require.NoError(t, err)
	assert.False(t, eval.Earned)
	assert.Equal(t, 0, eval.Current)
	assert.Equal(t, 1, eval.Target)
}

func TestEvaluator_ThresholdCriteria(t *testing.T) {
	metrics := &fakeMetrics{
		courseCount:   3,
		maxScore:      85,
		points:        420,
		level:         5,
		streak:        7,
		moduleCount:   12,
		perfectScores: 2,
	}
	evaluator := NewEvaluator(metrics, quietLogger())

	tests := []struct {
		name        string
		criteria    Criteria
		wantEarned  bool
		wantCurrent int
	}{
		{"courses completed met", Criteria{Type: CriteriaCoursesCompletedCount, TargetValue: 3}, true, 3},
		{"courses completed unmet", Criteria{Type: CriteriaCoursesCompletedCount, TargetValue: 5}, false, 3},
		{"assessment score met", Criteria{Type: CriteriaAssessmentScore, TargetValue: 80}, true, 85},
		{"assessment score unmet", Criteria{Type: CriteriaAssessmentScore, TargetValue: 90}, false, 85},
		{"consecutive days met", Criteria{Type: CriteriaConsecutiveDays, TargetValue: 7}, true, 7},
		{"total points met", Criteria{Type: CriteriaTotalPoints, TargetValue: 400}, true, 420},
		{"level reached unmet", Criteria{Type: CriteriaLevelReached, TargetValue: 10}, false, 5},
		{"modules completed met", Criteria{Type: CriteriaModulesCompleted, TargetValue: 10}, true, 12},
		{"perfect score met", Criteria{Type: CriteriaPerfectScore, TargetValue: 1}, true, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := testBadge(t, tt.criteria)
			eval, err := evaluator.Evaluate(context.Background(), "user-1", b)
			require.NoError(t, err)
			assert.Equal(t, tt.wantEarned, eval.Earned)
			assert.Equal(t, tt.wantCurrent, eval.Current)
			assert.Equal(t, tt.criteria.TargetValue, eval.Target)
		})
	}
}

func TestEvaluator_ReservedTypesNeverEarn(t *testing.T) {
	metrics := &fakeMetrics{points: 100000, level: 100, streak: 365}
	evaluator := NewEvaluator(metrics, quietLogger())

	for _, ct := range []CriteriaType{CriteriaFirstCourse, CriteriaFastLearner, CriteriaHelpingOthers, CriteriaCustom} {
		t.Run(string(ct), func(t *testing.T) {
			b := testBadge(t, Criteria{Type: ct, TargetValue: 1})
			eval, err := evaluator.Evaluate(context.Background(), "user-1", b)
			require.NoError(t, err, "reserved criteria must not error")
			assert.False(t, eval.Earned)
			assert.Equal(t, 0, eval.Current)
		})
	}
}

func TestEvaluator_MetricsFailurePropagates(t *testing.T) {
	metrics := &fakeMetrics{err: shared.ErrMetricsUnavailable}
	evaluator := NewEvaluator(metrics, quietLogger())

	b := testBadge(t, Criteria{Type: CriteriaTotalPoints, TargetValue: 100})

	_, err := evaluator.Evaluate(context.Background(), "user-1", b)
	assert.ErrorIs(t, err, shared.ErrServiceUnavailable, "no award decision on uncertain data")
}

func TestCriteria_Validate(t *testing.T) {
	assert.NoError(t, Criteria{Type: CriteriaTotalPoints, TargetValue: 100}.Validate())

	err := Criteria{Type: "bogus", TargetValue: 1}.Validate()
	assert.ErrorIs(t, err, shared.ErrInvalidInput)

	err = Criteria{Type: CriteriaCourseCompletion}.Validate()
	assert.ErrorIs(t, err, shared.ErrMissingCourseRef)

	err = Criteria{Type: CriteriaLevelReached, TargetValue: 0}.Validate()
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)
}
