// Package query contains read operations following CQRS pattern.
// Queries never modify state - they only read and return data.
package query

import (
	"context"
	"time"

	"github.com/lumina-lms/lumina-gamification/internal/domain/leaderboard"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// GET LEADERBOARD QUERY
// Returns a ranked page for one organization and period, plus the requesting
// user's own rank even when they fall outside the page. Reads go through the
// cache first; a miss falls back to the repository and re-ranks in memory so
// the page is ordered even if the persisted ranks are stale.
// ══════════════════════════════════════════════════════════════════════════════

// GetLeaderboardQuery contains the leaderboard request parameters.
type GetLeaderboardQuery struct {
	OrganizationID string
	Period         leaderboard.Period

	// RequesterID is the user asking; their rank is always included.
	// Optional.
	RequesterID string

	// Page is 1-based.
	Page int

	// Limit is entries per page (default 20, max 100).
	Limit int
}

// Validate validates and normalizes the query.
func (q *GetLeaderboardQuery) Validate() error {
	if q.OrganizationID == "" {
		return shared.NewDomainError("query", "GetLeaderboard", shared.ErrInvalidID, "organization ID is required")
	}
	if !q.Period.IsValid() {
		return shared.ErrInvalidPeriod
	}
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit <= 0 {
		q.Limit = 20
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	return nil
}

// LeaderboardRowDTO is one row of the leaderboard view.
type LeaderboardRowDTO struct {
	Rank          int    `json:"rank"`
	UserID        string `json:"user_id"`
	Points        int    `json:"points"`
	BadgesEarned  int    `json:"badges_earned"`
	CurrentStreak int    `json:"current_streak"`
}

// GetLeaderboardResult contains the ranked page.
type GetLeaderboardResult struct {
	Entries       []LeaderboardRowDTO `json:"entries"`
	TotalCount    int                 `json:"total_count"`
	Period        string              `json:"period"`
	Page          int                 `json:"page"`
	PageSize      int                 `json:"page_size"`
	HasMore       bool                `json:"has_more"`
	RequesterRank int                 `json:"requester_rank,omitempty"`
	GeneratedAt   time.Time           `json:"generated_at"`
}

// GetLeaderboardHandler handles leaderboard reads.
type GetLeaderboardHandler struct {
	entries leaderboard.EntryRepository
	cache   leaderboard.Cache
	log     *logger.Logger

	now func() time.Time
}

// NewGetLeaderboardHandler creates a new GetLeaderboardHandler. The cache is
// optional; pass nil to always read from the repository.
func NewGetLeaderboardHandler(
	entries leaderboard.EntryRepository,
	cache leaderboard.Cache,
	log *logger.Logger,
) *GetLeaderboardHandler {
	return &GetLeaderboardHandler{
		entries: entries,
		cache:   cache,
		log:     log.With(logger.Component("get_leaderboard")),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Handle executes the leaderboard query.
func (h *GetLeaderboardHandler) Handle(ctx context.Context, query GetLeaderboardQuery) (*GetLeaderboardResult, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	offset := (query.Page - 1) * query.Limit

	if result, ok := h.tryCache(ctx, query, offset); ok {
		return result, nil
	}

	all, err := h.entries.FindByOrganization(ctx, query.OrganizationID)
	if err != nil {
		return nil, shared.WrapError("query", "GetLeaderboard", shared.ErrNotFound, "failed to load entries", err)
	}

	// Rank in memory so the ordering is correct even between periodic rank
	// rebuilds. Persisted ranks are only written by the maintenance job.
	// Window-effective points keep an elapsed bucket from scoring.
	ranked := leaderboard.ComputeRanks(all, query.Period, h.now())

	return h.buildResult(ranked, query, offset, len(ranked)), nil
}

// tryCache attempts to serve the page and requester rank from the cache.
func (h *GetLeaderboardHandler) tryCache(ctx context.Context, query GetLeaderboardQuery, offset int) (*GetLeaderboardResult, bool) {
	if h.cache == nil {
		return nil, false
	}

	page, err := h.cache.GetPage(ctx, query.OrganizationID, query.Period, offset, query.Limit)
	if err != nil || len(page) == 0 {
		if err != nil {
			h.log.Debug("leaderboard cache miss",
				logger.OrganizationID(query.OrganizationID), logger.Err(err))
		}
		return nil, false
	}

	result := &GetLeaderboardResult{
		Entries:     make([]LeaderboardRowDTO, 0, len(page)),
		Period:      string(query.Period),
		Page:        query.Page,
		PageSize:    query.Limit,
		GeneratedAt: time.Now().UTC(),
	}
	now := h.now()
	for _, e := range page {
		result.Entries = append(result.Entries, toRow(e, query.Period, now))
	}

	if query.RequesterID != "" {
		rank, err := h.cache.GetUserRank(ctx, query.OrganizationID, query.Period, query.RequesterID)
		if err == nil {
			result.RequesterRank = rank
		}
	}

	// The cache stores the whole ranking; a full page means there may be more.
	result.TotalCount = offset + len(page)
	result.HasMore = len(page) == query.Limit

	return result, true
}

func (h *GetLeaderboardHandler) buildResult(ranked []*leaderboard.Entry, query GetLeaderboardQuery, offset, total int) *GetLeaderboardResult {
	result := &GetLeaderboardResult{
		Entries:     []LeaderboardRowDTO{},
		TotalCount:  total,
		Period:      string(query.Period),
		Page:        query.Page,
		PageSize:    query.Limit,
		GeneratedAt: time.Now().UTC(),
	}

	if offset < len(ranked) {
		end := offset + query.Limit
		if end > len(ranked) {
			end = len(ranked)
		}
		now := h.now()
		for _, e := range ranked[offset:end] {
			result.Entries = append(result.Entries, toRow(e, query.Period, now))
		}
	}
	result.HasMore = offset+len(result.Entries) < total

	if query.RequesterID != "" {
		for _, e := range ranked {
			if e.UserID == query.RequesterID {
				result.RequesterRank = e.RankFor(query.Period)
				break
			}
		}
	}

	return result
}

func toRow(e *leaderboard.Entry, period leaderboard.Period, now time.Time) LeaderboardRowDTO {
	return LeaderboardRowDTO{
		Rank:          e.RankFor(period),
		UserID:        e.UserID,
		Points:        e.EffectivePointsFor(period, now),
		BadgesEarned:  e.Metrics.BadgesEarned,
		CurrentStreak: e.Metrics.CurrentStreak,
	}
}
