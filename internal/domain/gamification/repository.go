package gamification

import "context"

// StateRepository persists user gamification state.
type StateRepository interface {
	// FindByUserID returns the state for a user, or shared.ErrStateNotFound.
	FindByUserID(ctx context.Context, userID string) (*UserGamificationState, error)

	// Save inserts or updates the state. Updates use optimistic locking on
	// Version and return shared.ErrConcurrentModification on a stale write.
	Save(ctx context.Context, state *UserGamificationState) error

	// FindByOrganization returns all states in an organization.
	FindByOrganization(ctx context.Context, organizationID string) ([]*UserGamificationState, error)
}
