// Package postgres implements the PostgreSQL persistence layer for the
// Lumina gamification service.
package postgres

import (
	"context"
	"fmt"

	"github.com/lumina-lms/lumina-gamification/internal/domain/badge"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// AWARD REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// AwardRepository implements badge.AwardRepository for PostgreSQL. The
// UNIQUE(user_id, badge_id) constraint on user_badge_awards is what actually
// prevents double awards; everything above this layer just reacts to it.
type AwardRepository struct {
	conn *Connection
}

// NewAwardRepository creates a new AwardRepository.
func NewAwardRepository(conn *Connection) *AwardRepository {
	return &AwardRepository{conn: conn}
}

// Create inserts a new award. Returns shared.ErrBadgeAlreadyAwarded when the
// (user, badge) pair already exists.
func (r *AwardRepository) Create(ctx context.Context, award *badge.Award) error {
	query := `
		INSERT INTO user_badge_awards (
			id, user_id, badge_id, earned_at, related_entity,
			progress_current, progress_target
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.conn.Exec(ctx, query,
		award.ID,
		award.UserID,
		award.BadgeID,
		award.EarnedAt,
		award.RelatedEntity,
		award.ProgressCurrent,
		award.ProgressTarget,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrBadgeAlreadyAwarded
		}
		return fmt.Errorf("failed to create award: %w", err)
	}

	return nil
}

// FindByUser returns every award the user has earned, newest first.
func (r *AwardRepository) FindByUser(ctx context.Context, userID string) ([]*badge.Award, error) {
	query := `
		SELECT id, user_id, badge_id, earned_at, related_entity,
			   progress_current, progress_target
		FROM user_badge_awards
		WHERE user_id = $1
		ORDER BY earned_at DESC
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query awards: %w", err)
	}
	defer rows.Close()

	var awards []*badge.Award
	for rows.Next() {
		var a badge.Award
		err := rows.Scan(
			&a.ID,
			&a.UserID,
			&a.BadgeID,
			&a.EarnedAt,
			&a.RelatedEntity,
			&a.ProgressCurrent,
			&a.ProgressTarget,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan award: %w", err)
		}
		awards = append(awards, &a)
	}

	return awards, rows.Err()
}

// BadgeIDsForUser returns the set of badge IDs the user has earned.
func (r *AwardRepository) BadgeIDsForUser(ctx context.Context, userID string) (map[string]bool, error) {
	query := `
		SELECT badge_id
		FROM user_badge_awards
		WHERE user_id = $1
	`

	rows, err := r.conn.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query awarded badge IDs: %w", err)
	}
	defer rows.Close()

	earned := make(map[string]bool)
	for rows.Next() {
		var badgeID string
		if err := rows.Scan(&badgeID); err != nil {
			return nil, fmt.Errorf("failed to scan badge ID: %w", err)
		}
		earned[badgeID] = true
	}

	return earned, rows.Err()
}
