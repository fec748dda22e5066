// Package jobs contains implementations of scheduled jobs for the Lumina
// gamification service.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lumina-lms/lumina-gamification/internal/application/command"
	"github.com/lumina-lms/lumina-gamification/internal/domain/leaderboard"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
)

// ══════════════════════════════════════════════════════════════════════════════
// REBUILD RANKS JOB
// ══════════════════════════════════════════════════════════════════════════════

// OrganizationLister enumerates organizations with ledger entries.
type OrganizationLister interface {
	OrganizationIDs(ctx context.Context) ([]string, error)
}

// RebuildRanksJob recomputes leaderboard ranks for every organization and
// period. Ranks are eventually consistent: point awards never touch them,
// only this job does. Between runs, reads either hit the cache this job
// refreshed or re-rank in memory.
type RebuildRanksJob struct {
	orgs      OrganizationLister
	recompute *command.RecomputeRanksHandler
	log       *logger.Logger

	// Periods to rebuild. Defaults to all periods.
	periods []leaderboard.Period

	// Timeout bounds one full rebuild across all organizations.
	timeout time.Duration
}

// NewRebuildRanksJob creates a new rank rebuild job.
func NewRebuildRanksJob(
	orgs OrganizationLister,
	recompute *command.RecomputeRanksHandler,
	log *logger.Logger,
) *RebuildRanksJob {
	return &RebuildRanksJob{
		orgs:      orgs,
		recompute: recompute,
		log:       log.With(logger.Component("rebuild_ranks_job")),
		periods:   leaderboard.AllPeriods(),
		timeout:   5 * time.Minute,
	}
}

// Name returns the unique name of the job.
func (j *RebuildRanksJob) Name() string {
	return "rebuild_ranks"
}

// Description returns a human-readable description of the job.
func (j *RebuildRanksJob) Description() string {
	return "Recomputes and persists leaderboard ranks for all organizations and periods"
}

// Run executes the job. One failing organization does not stop the others;
// all failures are joined into the returned error.
func (j *RebuildRanksJob) Run(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.timeout)
	defer cancel()

	orgIDs, err := j.orgs.OrganizationIDs(ctx)
	if err != nil {
		return fmt.Errorf("list organizations: %w", err)
	}

	var errs []error
	rebuilt := 0

	for _, orgID := range orgIDs {
		for _, period := range j.periods {
			if ctx.Err() != nil {
				errs = append(errs, ctx.Err())
				return errors.Join(errs...)
			}

			result, err := j.recompute.Handle(ctx, command.RecomputeRanksCommand{
				OrganizationID: orgID,
				Period:         period,
			})
			if err != nil {
				j.log.Error("rank recompute failed",
					logger.OrganizationID(orgID),
					logger.Period(string(period)),
					logger.Err(err),
				)
				errs = append(errs, fmt.Errorf("org %s period %s: %w", orgID, period, err))
				continue
			}

			rebuilt++
			j.log.Debug("ranks recomputed",
				logger.OrganizationID(orgID),
				logger.Period(string(period)),
				logger.Int("entries", result.TotalEntries),
			)
		}
	}

	j.log.Info("rank rebuild finished",
		logger.Int("organizations", len(orgIDs)),
		logger.Int("rankings_rebuilt", rebuilt),
		logger.Int("failures", len(errs)),
	)

	return errors.Join(errs...)
}
