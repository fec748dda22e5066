package badge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
)

func TestNewBadge(t *testing.T) {
	b, err := NewBadge("badge-1", "org-1", "Course Finisher",
		Criteria{Type: CriteriaCoursesCompletedCount, TargetValue: 1},
		RarityCommon, 50)
	require.NoError(t, err)

	assert.True(t, b.IsActive)
	assert.False(t, b.IsHidden)
	assert.Equal(t, 0, b.TotalAwarded)
}

func TestNewBadge_Validation(t *testing.T) {
	valid := Criteria{Type: CriteriaTotalPoints, TargetValue: 100}

	_, err := NewBadge("", "org-1", "Name", valid, RarityCommon, 0)
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewBadge("badge-1", "org-1", "", valid, RarityCommon, 0)
	assert.ErrorIs(t, err, shared.ErrEmptyValue)

	_, err = NewBadge("badge-1", "org-1", "Name", valid, "mythic", 0)
	assert.ErrorIs(t, err, shared.ErrInvalidRarity)

	_, err = NewBadge("badge-1", "org-1", "Name", valid, RarityCommon, -10)
	assert.ErrorIs(t, err, shared.ErrNegativeValue)

	_, err = NewBadge("badge-1", "org-1", "Name", Criteria{Type: "bogus", TargetValue: 1}, RarityCommon, 0)
	assert.ErrorIs(t, err, shared.ErrUnknownCriteriaType)
}

func TestBadge_RecordAward(t *testing.T) {
	b, err := NewBadge("badge-1", "org-1", "Name",
		Criteria{Type: CriteriaTotalPoints, TargetValue: 100}, RarityRare, 25)
	require.NoError(t, err)

	b.RecordAward()
	b.RecordAward()
	assert.Equal(t, 2, b.TotalAwarded)
}

func TestNewAward(t *testing.T) {
	award, err := NewAward("award-1", "user-1", "badge-1", 3, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, award.ProgressCurrent)
	assert.False(t, award.EarnedAt.IsZero())

	_, err = NewAward("", "user-1", "badge-1", 0, 1)
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}
