// Package badge contains badge definitions, the criteria evaluator, and the
// award records. Badges are scoped to an organization; a user earns a given
// badge at most once, ever.
package badge

import (
	"strings"
	"time"

	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// VALUE OBJECTS
// ══════════════════════════════════════════════════════════════════════════════

// Rarity classifies how exclusive a badge is. Display-only; it carries no
// behavior in the core.
type Rarity string

const (
	RarityCommon    Rarity = "common"
	RarityUncommon  Rarity = "uncommon"
	RarityRare      Rarity = "rare"
	RarityEpic      Rarity = "epic"
	RarityLegendary Rarity = "legendary"
)

// IsValid checks that the rarity is one of the known values.
func (r Rarity) IsValid() bool {
	switch r {
	case RarityCommon, RarityUncommon, RarityRare, RarityEpic, RarityLegendary:
		return true
	}
	return false
}

// CriteriaType selects which metric a badge's progress is measured against.
type CriteriaType string

const (
	CriteriaCourseCompletion      CriteriaType = "course_completion"
	CriteriaCoursesCompletedCount CriteriaType = "courses_completed_count"
	CriteriaAssessmentScore       CriteriaType = "assessment_score"
	CriteriaConsecutiveDays       CriteriaType = "consecutive_days"
	CriteriaTotalPoints           CriteriaType = "total_points"
	CriteriaLevelReached          CriteriaType = "level_reached"
	CriteriaModulesCompleted      CriteriaType = "modules_completed"
	CriteriaPerfectScore          CriteriaType = "perfect_score"

	// Reserved types. The evaluator treats these as never earned until an
	// evaluation is defined for them.
	CriteriaFirstCourse   CriteriaType = "first_course"
	CriteriaFastLearner   CriteriaType = "fast_learner"
	CriteriaHelpingOthers CriteriaType = "helping_others"
	CriteriaCustom        CriteriaType = "custom"
)

// IsKnown checks that the type is part of the closed criteria set, including
// the reserved types.
func (ct CriteriaType) IsKnown() bool {
	switch ct {
	case CriteriaCourseCompletion, CriteriaCoursesCompletedCount,
		CriteriaAssessmentScore, CriteriaConsecutiveDays,
		CriteriaTotalPoints, CriteriaLevelReached,
		CriteriaModulesCompleted, CriteriaPerfectScore,
		CriteriaFirstCourse, CriteriaFastLearner,
		CriteriaHelpingOthers, CriteriaCustom:
		return true
	}
	return false
}

// Criteria defines what a user must do to earn a badge.
type Criteria struct {
	Type             CriteriaType
	TargetValue      int
	SpecificCourseID string
}

// Validate checks the criteria for structural problems.
func (c Criteria) Validate() error {
	if !c.Type.IsKnown() {
		return shared.ErrUnknownCriteriaType
	}
	if c.Type == CriteriaCourseCompletion && strings.TrimSpace(c.SpecificCourseID) == "" {
		return shared.ErrMissingCourseRef
	}
	if c.Type != CriteriaCourseCompletion && c.TargetValue <= 0 {
		return shared.ErrInvalidTargetValue
	}
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// BADGE
// ══════════════════════════════════════════════════════════════════════════════

// Badge is a definable achievement scoped to one organization.
type Badge struct {
	ID             string
	OrganizationID string
	Name           string
	Description    string
	IconURL        string
	Criteria       Criteria
	Rarity         Rarity
	PointsReward   int
	IsActive       bool

	// Hidden badges are omitted from "available" listings until earned.
	IsHidden bool

	// TotalAwarded counts how many users have earned this badge.
	TotalAwarded int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewBadge creates a badge definition. Badges start active.
func NewBadge(id, organizationID, name string, criteria Criteria, rarity Rarity, pointsReward int) (*Badge, error) {
	if strings.TrimSpace(id) == "" {
		return nil, shared.NewDomainError("badge", "NewBadge", shared.ErrInvalidID, "badge ID cannot be empty")
	}
	if strings.TrimSpace(organizationID) == "" {
		return nil, shared.NewDomainError("badge", "NewBadge", shared.ErrInvalidID, "organization ID cannot be empty")
	}
	if strings.TrimSpace(name) == "" {
		return nil, shared.NewDomainError("badge", "NewBadge", shared.ErrEmptyValue, "badge name cannot be empty")
	}
	if err := criteria.Validate(); err != nil {
		return nil, err
	}
	if !rarity.IsValid() {
		return nil, shared.ErrInvalidRarity
	}
	if pointsReward < 0 {
		return nil, shared.NewDomainError("badge", "NewBadge", shared.ErrNegativeValue, "points reward cannot be negative")
	}

	now := time.Now().UTC()
	return &Badge{
		ID:             id,
		OrganizationID: organizationID,
		Name:           name,
		Criteria:       criteria,
		Rarity:         rarity,
		PointsReward:   pointsReward,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

// Deactivate removes the badge from award consideration without deleting
// existing awards.
func (b *Badge) Deactivate() {
	b.IsActive = false
	b.UpdatedAt = time.Now().UTC()
}

// RecordAward increments the award counter.
func (b *Badge) RecordAward() {
	b.TotalAwarded++
	b.UpdatedAt = time.Now().UTC()
}

// ══════════════════════════════════════════════════════════════════════════════
// USER BADGE AWARD
// ══════════════════════════════════════════════════════════════════════════════

// Award records that a user earned a badge. Created once, immutable after;
// there is no unaward operation.
type Award struct {
	ID            string
	UserID        string
	BadgeID       string
	EarnedAt      time.Time
	RelatedEntity string

	// Progress snapshot captured at award time.
	ProgressCurrent int
	ProgressTarget  int
}

// NewAward creates an award record with the progress snapshot at earn time.
func NewAward(id, userID, badgeID string, current, target int) (*Award, error) {
	if strings.TrimSpace(id) == "" || strings.TrimSpace(userID) == "" || strings.TrimSpace(badgeID) == "" {
		return nil, shared.NewDomainError("badge", "NewAward", shared.ErrInvalidID, "award requires id, user ID, and badge ID")
	}
	return &Award{
		ID:              id,
		UserID:          userID,
		BadgeID:         badgeID,
		EarnedAt:        time.Now().UTC(),
		ProgressCurrent: current,
		ProgressTarget:  target,
	}, nil
}
