package command

import (
	"context"
	"fmt"
	"time"

	"github.com/lumina-lms/lumina-gamification/internal/domain/gamification"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
	"github.com/lumina-lms/lumina-gamification/pkg/logger"
	"github.com/lumina-lms/lumina-gamification/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// RECORD ACTIVITY COMMAND
// Updates the user's daily streak for a qualifying activity. Independent of
// point awards: a qualifying activity bumps the streak whether or not it
// carried points.
// ══════════════════════════════════════════════════════════════════════════════

// RecordActivityCommand contains the data for a streak-qualifying activity.
type RecordActivityCommand struct {
	UserID         string
	OrganizationID string

	// Date is when the activity occurred (defaults to now if zero). Only the
	// calendar day matters.
	Date time.Time
}

// Validate validates the command.
func (c RecordActivityCommand) Validate() error {
	if c.UserID == "" {
		return fmt.Errorf("record_activity: user_id is required")
	}
	return nil
}

// RecordActivityResult contains the streak after the activity.
type RecordActivityResult struct {
	CurrentStreak int
	LongestStreak int
	StreakBroken  bool
}

// RecordActivityHandler handles the RecordActivityCommand.
type RecordActivityHandler struct {
	states    gamification.StateRepository
	publisher shared.EventPublisher
	retrier   *retry.Retrier
	log       *logger.Logger
}

// NewRecordActivityHandler creates a new RecordActivityHandler.
func NewRecordActivityHandler(
	states gamification.StateRepository,
	publisher shared.EventPublisher,
	log *logger.Logger,
) *RecordActivityHandler {
	return &RecordActivityHandler{
		states:    states,
		publisher: publisher,
		retrier:   retry.LedgerRetrier(),
		log:       log.With(logger.Component("record_activity")),
	}
}

// Handle executes the record activity command.
func (h *RecordActivityHandler) Handle(ctx context.Context, cmd RecordActivityCommand) (*RecordActivityResult, error) {
	if err := cmd.Validate(); err != nil {
		return nil, err
	}

	date := cmd.Date
	if date.IsZero() {
		date = time.Now().UTC()
	}

	var result *RecordActivityResult

	err := h.retrier.Do(ctx, func(ctx context.Context) error {
		state, err := h.states.FindByUserID(ctx, cmd.UserID)
		if err != nil {
			if !shared.IsNotFound(err) {
				return err
			}
			state, err = gamification.NewUserGamificationState(cmd.UserID, cmd.OrganizationID)
			if err != nil {
				return err
			}
		}

		before := state.Streak
		broken := state.RecordActivity(date)

		if state.Streak == before {
			// Same-day repeat or out-of-order date: nothing to persist.
			result = &RecordActivityResult{
				CurrentStreak: state.Streak.Current,
				LongestStreak: state.Streak.Longest,
			}
			return nil
		}

		if err := h.states.Save(ctx, state); err != nil {
			if shared.IsConflict(err) {
				return retry.Retryable(err)
			}
			return err
		}

		result = &RecordActivityResult{
			CurrentStreak: state.Streak.Current,
			LongestStreak: state.Streak.Longest,
			StreakBroken:  broken,
		}

		_ = h.publisher.Publish(shared.NewStreakUpdatedEvent(
			cmd.UserID, state.Streak.Current, state.Streak.Longest, broken))

		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("record_activity: %w", err)
	}

	h.log.Debug("activity recorded",
		logger.UserID(cmd.UserID),
		logger.Int("current_streak", result.CurrentStreak),
		logger.Bool("streak_broken", result.StreakBroken),
	)

	return result, nil
}
