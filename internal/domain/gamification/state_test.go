package gamification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
)

func newTestState(t *testing.T) *UserGamificationState {
	t.Helper()
	state, err := NewUserGamificationState("user-1", "org-1")
	require.NoError(t, err)
	return state
}

func TestNewUserGamificationState(t *testing.T) {
	state := newTestState(t)

	assert.Equal(t, Points(0), state.Points)
	assert.Equal(t, Level(1), state.Level)
	assert.False(t, state.Streak.HasActivity())
}

func TestNewUserGamificationState_Validation(t *testing.T) {
	_, err := NewUserGamificationState("", "org-1")
	assert.ErrorIs(t, err, shared.ErrInvalidID)

	_, err = NewUserGamificationState("user-1", "  ")
	assert.ErrorIs(t, err, shared.ErrInvalidID)
}

func TestState_AddPoints(t *testing.T) {
	state := newTestState(t)

	change, err := state.AddPoints(50)
	require.NoError(t, err)

	assert.Equal(t, Points(50), state.Points)
	assert.Equal(t, Level(1), state.Level)
	assert.False(t, change.LeveledUp())
}

func TestState_AddPoints_LevelUp(t *testing.T) {
	state := newTestState(t)

	_, err := state.AddPoints(90)
	require.NoError(t, err)

	change, err := state.AddPoints(20)
	require.NoError(t, err)

	assert.Equal(t, Points(110), state.Points)
	assert.Equal(t, Level(2), state.Level)
	assert.True(t, change.LeveledUp())
	assert.Equal(t, Level(1), change.OldLevel)
	assert.Equal(t, Level(2), change.NewLevel)
}

func TestState_AddPoints_RejectsNonPositive(t *testing.T) {
	state := newTestState(t)

	_, err := state.AddPoints(0)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	_, err = state.AddPoints(-10)
	assert.ErrorIs(t, err, shared.ErrValueOutOfRange)

	assert.Equal(t, Points(0), state.Points)
}

func TestState_AdjustPoints_NegativeFlooredAtZero(t *testing.T) {
	state := newTestState(t)

	_, err := state.AddPoints(30)
	require.NoError(t, err)

	change, err := state.AdjustPoints(-100)
	require.NoError(t, err)

	assert.Equal(t, Points(0), state.Points)
	assert.Equal(t, Level(1), state.Level)
	assert.Equal(t, Points(30), change.OldPoints)
	assert.Equal(t, Points(0), change.NewPoints)
}

func TestState_AdjustPoints_CanLowerLevel(t *testing.T) {
	state := newTestState(t)

	_, err := state.AddPoints(250)
	require.NoError(t, err)
	assert.Equal(t, Level(3), state.Level)

	_, err = state.AdjustPoints(-200)
	require.NoError(t, err)

	assert.Equal(t, Points(50), state.Points)
	assert.Equal(t, Level(1), state.Level)
}

func TestState_RecordActivity(t *testing.T) {
	state := newTestState(t)

	broken := state.RecordActivity(time.Date(2025, time.March, 1, 9, 0, 0, 0, time.UTC))
	assert.False(t, broken)
	assert.Equal(t, 1, state.Streak.Current)

	broken = state.RecordActivity(time.Date(2025, time.March, 2, 9, 0, 0, 0, time.UTC))
	assert.False(t, broken)
	assert.Equal(t, 2, state.Streak.Current)

	broken = state.RecordActivity(time.Date(2025, time.March, 9, 9, 0, 0, 0, time.UTC))
	assert.True(t, broken)
	assert.Equal(t, 1, state.Streak.Current)
	assert.Equal(t, 2, state.Streak.Longest)
}
