// Package postgres implements the PostgreSQL persistence layer for the
// Lumina gamification service.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/lumina-lms/lumina-gamification/internal/domain/gamification"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// STATE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// StateRepository implements gamification.StateRepository for PostgreSQL.
type StateRepository struct {
	conn *Connection
}

// NewStateRepository creates a new StateRepository.
func NewStateRepository(conn *Connection) *StateRepository {
	return &StateRepository{conn: conn}
}

// FindByUserID returns the state for a user.
func (r *StateRepository) FindByUserID(ctx context.Context, userID string) (*gamification.UserGamificationState, error) {
	query := `
		SELECT user_id, organization_id, points, level,
			   current_streak, longest_streak, last_activity_date,
			   created_at, updated_at, version
		FROM gamification_states
		WHERE user_id = $1
	`

	row := r.conn.QueryRow(ctx, query, userID)
	return scanState(row)
}

// FindByOrganization returns all states in an organization.
func (r *StateRepository) FindByOrganization(ctx context.Context, organizationID string) ([]*gamification.UserGamificationState, error) {
	query := `
		SELECT user_id, organization_id, points, level,
			   current_streak, longest_streak, last_activity_date,
			   created_at, updated_at, version
		FROM gamification_states
		WHERE organization_id = $1
		ORDER BY user_id
	`

	rows, err := r.conn.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query states: %w", err)
	}
	defer rows.Close()

	var states []*gamification.UserGamificationState
	for rows.Next() {
		s, err := scanState(rows)
		if err != nil {
			return nil, err
		}
		states = append(states, s)
	}

	return states, rows.Err()
}

// Save inserts or updates the state. A state with Version 0 has never been
// persisted and is inserted; anything else is an optimistic-lock update.
func (r *StateRepository) Save(ctx context.Context, state *gamification.UserGamificationState) error {
	if state.Version == 0 {
		return r.insert(ctx, state)
	}
	return r.update(ctx, state)
}

func (r *StateRepository) insert(ctx context.Context, state *gamification.UserGamificationState) error {
	query := `
		INSERT INTO gamification_states (
			user_id, organization_id, points, level,
			current_streak, longest_streak, last_activity_date,
			created_at, updated_at, version
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, 1)
	`

	_, err := r.conn.Exec(ctx, query,
		state.UserID,
		state.OrganizationID,
		int(state.Points),
		int(state.Level),
		state.Streak.Current,
		state.Streak.Longest,
		lastActivityParam(state.Streak),
		state.CreatedAt,
		state.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			// Another writer created the row first; the caller reloads and retries.
			return shared.ErrLedgerConflict
		}
		return fmt.Errorf("failed to insert state: %w", err)
	}

	state.Version = 1
	return nil
}

func (r *StateRepository) update(ctx context.Context, state *gamification.UserGamificationState) error {
	query := `
		UPDATE gamification_states SET
			organization_id = $1,
			points = $2,
			level = $3,
			current_streak = $4,
			longest_streak = $5,
			last_activity_date = $6,
			updated_at = $7,
			version = version + 1
		WHERE user_id = $8 AND version = $9
	`

	tag, err := r.conn.Exec(ctx, query,
		state.OrganizationID,
		int(state.Points),
		int(state.Level),
		state.Streak.Current,
		state.Streak.Longest,
		lastActivityParam(state.Streak),
		state.UpdatedAt,
		state.UserID,
		state.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update state: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLedgerConflict
	}

	state.Version++
	return nil
}

// scanState scans a state row from either a pgx.Row or pgx.Rows.
func scanState(row interface{ Scan(...interface{}) error }) (*gamification.UserGamificationState, error) {
	var s gamification.UserGamificationState
	var points, level int
	var lastActivity *time.Time

	err := row.Scan(
		&s.UserID,
		&s.OrganizationID,
		&points,
		&level,
		&s.Streak.Current,
		&s.Streak.Longest,
		&lastActivity,
		&s.CreatedAt,
		&s.UpdatedAt,
		&s.Version,
	)
	if IsNoRows(err) {
		return nil, shared.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan state: %w", err)
	}

	s.Points = gamification.Points(points)
	s.Level = gamification.Level(level)
	if lastActivity != nil {
		s.Streak.LastActivityDate = lastActivity.UTC()
	}

	return &s, nil
}

// lastActivityParam maps a zero streak date to SQL NULL.
func lastActivityParam(streak gamification.Streak) *time.Time {
	if !streak.HasActivity() {
		return nil
	}
	d := streak.LastActivityDate
	return &d
}
