package command

import (
	"context"
	"fmt"

	"github.com/lumina-lms/lumina-gamification/internal/domain/badge"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// CREATE BADGE COMMAND
// ══════════════════════════════════════════════════════════════════════════════

// CreateBadgeCommand contains a new badge definition.
type CreateBadgeCommand struct {
	OrganizationID   string
	Name             string
	Description      string
	IconURL          string
	CriteriaType     string
	TargetValue      int
	SpecificCourseID string
	Rarity           string
	PointsReward     int
	IsHidden         bool
}

// Validate validates the command. Structural criteria checks live on the
// domain type; this only catches what the constructor cannot.
func (c CreateBadgeCommand) Validate() error {
	if c.OrganizationID == "" {
		return fmt.Errorf("create_badge: organization_id is required")
	}
	if c.Name == "" {
		return fmt.Errorf("create_badge: name is required")
	}
	return nil
}

// CreateBadgeResult contains the created badge.
type CreateBadgeResult struct {
	Badge *badge.Badge
}

// CreateBadgeHandler handles the CreateBadgeCommand.
type CreateBadgeHandler struct {
	badges    badge.Repository
	idGen     IDGenerator
	publisher shared.EventPublisher
	log       *logger.Logger
}

// NewCreateBadgeHandler creates a new CreateBadgeHandler.
func NewCreateBadgeHandler(
	badges badge.Repository,
	idGen IDGenerator,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *CreateBadgeHandler {
	return &CreateBadgeHandler{
		badges:    badges,
		idGen:     idGen,
		publisher: publisher,
		log:       log.With(logger.Component("create_badge")),
	}
}

// Handle executes the create badge command.
func (h *CreateBadgeHandler) Handle(ctx context.Context, cmd CreateBadgeCommand) (*CreateBadgeResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	criteria := badge.Criteria{
		Type:             badge.CriteriaType(cmd.CriteriaType),
		TargetValue:      cmd.TargetValue,
		SpecificCourseID: cmd.SpecificCourseID,
	}

	b, err := badge.NewBadge(
		h.idGen.NewID(),
		cmd.OrganizationID,
		cmd.Name,
		criteria,
		badge.Rarity(cmd.Rarity),
		cmd.PointsReward,
	)
	if err != nil {
		return nil, fmt.Errorf("create_badge: %w", err)
	}
	b.Description = cmd.Description
	b.IconURL = cmd.IconURL
	b.IsHidden = cmd.IsHidden

	if err := h.badges.Save(ctx, b); err != nil {
		return nil, fmt.Errorf("create_badge: failed to save badge: %w", err)
	}

	_ = h.publisher.Publish(shared.NewBadgeCreatedEvent(
		b.ID, b.OrganizationID, b.Name, string(b.Criteria.Type)))

	h.log.Info("badge created",
		logger.BadgeID(b.ID),
		logger.OrganizationID(b.OrganizationID),
		logger.CriteriaType(string(b.Criteria.Type)),
	)

	return &CreateBadgeResult{Badge: b}, nil
}
