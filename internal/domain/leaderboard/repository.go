package leaderboard

import "context"

// EntryRepository persists ledger entries.
type EntryRepository interface {
	// FindByUser returns the entry for a user in an organization, or
	// shared.ErrLedgerEntryNotFound.
	FindByUser(ctx context.Context, userID, organizationID string) (*Entry, error)

	// FindByOrganization returns every entry in an organization.
	FindByOrganization(ctx context.Context, organizationID string) ([]*Entry, error)

	// Save inserts or updates one entry. Updates use optimistic locking on
	// Version and return shared.ErrConcurrentModification on a stale write.
	Save(ctx context.Context, entry *Entry) error

	// SaveRanks persists the rank values of all given entries for one
	// period in a single batch, so a recomputation is never half-applied.
	SaveRanks(ctx context.Context, entries []*Entry, period Period) error
}

// Cache is a read-through cache for ranked leaderboard pages. Implementations
// may miss at any time; callers always fall back to the repository.
type Cache interface {
	// GetPage returns a page of cached entries in rank order, or nil on miss.
	GetPage(ctx context.Context, organizationID string, period Period, offset, limit int) ([]*Entry, error)

	// SetEntries replaces the cached ranking for an organization and period.
	SetEntries(ctx context.Context, organizationID string, period Period, entries []*Entry) error

	// GetUserRank returns the cached rank for a user, or 0 on miss.
	GetUserRank(ctx context.Context, organizationID string, period Period, userID string) (int, error)

	// Invalidate drops the cached ranking for an organization and period.
	Invalidate(ctx context.Context, organizationID string, period Period) error
}
