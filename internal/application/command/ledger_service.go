package command

import (
	"context"
	"time"

	"github.com/lumina-lms/lumina-gamification/internal/domain/gamification"
	"github.com/lumina-lms/lumina-gamification/internal/domain/leaderboard"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEDGER SERVICE
// Shared read-modify-write path for every command that moves points. Both the
// per-user state and the leaderboard entry are versioned; a concurrent write
// surfaces as a conflict and the whole cycle is retried from a fresh read, so
// two simultaneous awards can never silently lose an update.
// ══════════════════════════════════════════════════════════════════════════════

// LedgerService applies point changes to the gamification state and the
// windowed leaderboard entry together.
type LedgerService struct {
	states  gamification.StateRepository
	entries leaderboard.EntryRepository
	retrier *retry.Retrier

	// now is swappable in tests.
	now func() time.Time
}

// NewLedgerService creates the shared ledger write path.
func NewLedgerService(states gamification.StateRepository, entries leaderboard.EntryRepository) *LedgerService {
	return &LedgerService{
		states:  states,
		entries: entries,
		retrier: retry.LedgerRetrier(),
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// credit applies an award (adjustment=false, amount must be positive) or a
// manual adjustment (adjustment=true, amount may be negative) for a user.
// State and entry are created lazily on the first award.
func (s *LedgerService) credit(ctx context.Context, userID, organizationID string, amount int, adjustment bool) (gamification.PointsChange, error) {
	var change gamification.PointsChange

	err := s.retrier.Do(ctx, func(ctx context.Context) error {
		result, err := s.creditOnce(ctx, userID, organizationID, amount, adjustment)
		if err != nil {
			if shared.IsConflict(err) {
				return retry.Retryable(err)
			}
			return err
		}
		change = result
		return nil
	})

	return change, err
}

func (s *LedgerService) creditOnce(ctx context.Context, userID, organizationID string, amount int, adjustment bool) (gamification.PointsChange, error) {
	state, err := s.loadOrCreateState(ctx, userID, organizationID)
	if err != nil {
		return gamification.PointsChange{}, err
	}

	var change gamification.PointsChange
	if adjustment {
		change, err = state.AdjustPoints(amount)
	} else {
		change, err = state.AddPoints(amount)
	}
	if err != nil {
		return gamification.PointsChange{}, err
	}

	entry, err := s.loadOrCreateEntry(ctx, userID, state.OrganizationID)
	if err != nil {
		return gamification.PointsChange{}, err
	}
	entry.AddPoints(amount, s.now())

	if err := s.states.Save(ctx, state); err != nil {
		return gamification.PointsChange{}, err
	}
	if err := s.entries.Save(ctx, entry); err != nil {
		return gamification.PointsChange{}, err
	}

	return change, nil
}

func (s *LedgerService) loadOrCreateState(ctx context.Context, userID, organizationID string) (*gamification.UserGamificationState, error) {
	state, err := s.states.FindByUserID(ctx, userID)
	if err == nil {
		return state, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}
	return gamification.NewUserGamificationState(userID, organizationID)
}

func (s *LedgerService) loadOrCreateEntry(ctx context.Context, userID, organizationID string) (*leaderboard.Entry, error) {
	entry, err := s.entries.FindByUser(ctx, userID, organizationID)
	if err == nil {
		return entry, nil
	}
	if !shared.IsNotFound(err) {
		return nil, err
	}
	return leaderboard.NewEntry(userID, organizationID)
}

// state returns the current gamification state for a user.
func (s *LedgerService) state(ctx context.Context, userID string) (*gamification.UserGamificationState, error) {
	return s.states.FindByUserID(ctx, userID)
}
