package badge

import "context"

// Repository persists badge definitions.
type Repository interface {
	// FindByID returns a badge, or shared.ErrBadgeNotFound.
	FindByID(ctx context.Context, badgeID string) (*Badge, error)

	// FindActiveByOrganization returns every active badge in an organization.
	FindActiveByOrganization(ctx context.Context, organizationID string) ([]*Badge, error)

	// FindByOrganization returns every badge in an organization, active or not.
	FindByOrganization(ctx context.Context, organizationID string) ([]*Badge, error)

	// Save inserts or updates a badge definition.
	Save(ctx context.Context, b *Badge) error

	// IncrementTotalAwarded bumps the award counter atomically in storage.
	IncrementTotalAwarded(ctx context.Context, badgeID string) error
}

// AwardRepository persists badge award records. The (userID, badgeID)
// uniqueness constraint in storage is the single source of truth preventing
// double awards.
type AwardRepository interface {
	// Create inserts a new award. Returns shared.ErrBadgeAlreadyAwarded when
	// the (userID, badgeID) pair already exists.
	Create(ctx context.Context, award *Award) error

	// FindByUser returns every award the user has earned.
	FindByUser(ctx context.Context, userID string) ([]*Award, error)

	// BadgeIDsForUser returns the set of badge IDs the user has earned.
	BadgeIDsForUser(ctx context.Context, userID string) (map[string]bool, error)
}
