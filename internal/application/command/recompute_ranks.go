package command

import (
	"context"
	"fmt"
	"time"

	"github.com/lumina-lms/lumina-gamification/internal/domain/leaderboard"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECOMPUTE RANKS COMMAND
// Maintenance entry point. Ranks are eventually consistent: they are not
// updated transactionally with every award, only here, so rank staleness is
// bounded by how often this runs. All rank writes for one organization and
// period land in a single batch, never one save per entry.
// ══════════════════════════════════════════════════════════════════════════════

// RecomputeRanksCommand identifies the organization and period to rank.
type RecomputeRanksCommand struct {
	OrganizationID string
	Period         leaderboard.Period
}

// Validate validates the command.
func (c RecomputeRanksCommand) Validate() error {
	if c.OrganizationID == "" {
		return fmt.Errorf("recompute_ranks: organization_id is required")
	}
	if !c.Period.IsValid() {
		return fmt.Errorf("recompute_ranks: invalid period %q", c.Period)
	}
	return nil
}

// RecomputeRanksResult reports how many entries were ranked.
type RecomputeRanksResult struct {
	TotalEntries int
}

// RecomputeRanksHandler handles the RecomputeRanksCommand.
type RecomputeRanksHandler struct {
	entries   leaderboard.EntryRepository
	cache     leaderboard.Cache
	publisher shared.EventPublisher
	log       *logger.Logger

	now func() time.Time
}

// NewRecomputeRanksHandler creates a new RecomputeRanksHandler. The cache is
// optional; pass nil to skip cache refreshes.
func NewRecomputeRanksHandler(
	entries leaderboard.EntryRepository,
	cache leaderboard.Cache,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RecomputeRanksHandler {
	return &RecomputeRanksHandler{
		entries:   entries,
		cache:     cache,
		publisher: publisher,
		log:       log.With(logger.Component("recompute_ranks")),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the rank recomputation.
func (h *RecomputeRanksHandler) Handle(ctx context.Context, cmd RecomputeRanksCommand) (*RecomputeRanksResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	entries, err := h.entries.FindByOrganization(ctx, cmd.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("recompute_ranks: failed to load entries: %w", err)
	}

	// Rank by window-effective points: a bucket from an elapsed window
	// scores zero, so last window's totals never leak into this one.
	ranked := leaderboard.ComputeRanks(entries, cmd.Period, h.now())

	if len(ranked) > 0 {
		if err := h.entries.SaveRanks(ctx, ranked, cmd.Period); err != nil {
			return nil, fmt.Errorf("recompute_ranks: failed to persist ranks: %w", err)
		}
	}

	if h.cache != nil {
		if err := h.cache.SetEntries(ctx, cmd.OrganizationID, cmd.Period, ranked); err != nil {
			// The cache is read-through; a failed refresh only costs a miss.
			h.log.Warn("failed to refresh leaderboard cache",
				logger.OrganizationID(cmd.OrganizationID),
				logger.Period(string(cmd.Period)),
				logger.Err(err))
		}
	}

	_ = h.publisher.Publish(shared.NewRanksRebuiltEvent(
		cmd.OrganizationID, string(cmd.Period), len(ranked)))

	h.log.Info("ranks recomputed",
		logger.OrganizationID(cmd.OrganizationID),
		logger.Period(string(cmd.Period)),
		logger.Int("total_entries", len(ranked)),
	)

	return &RecomputeRanksResult{TotalEntries: len(ranked)}, nil
}
