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
// BADGE REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// BadgeRepository implements badge.Repository for PostgreSQL.
type BadgeRepository struct {
	conn *Connection
}

// NewBadgeRepository creates a new BadgeRepository.
func NewBadgeRepository(conn *Connection) *BadgeRepository {
	return &BadgeRepository{conn: conn}
}

const badgeColumns = `
	id, organization_id, name, description, icon_url,
	criteria_type, criteria_target, criteria_course_id,
	rarity, points_reward, is_active, is_hidden, total_awarded,
	created_at, updated_at
`

// FindByID returns a badge by ID.
func (r *BadgeRepository) FindByID(ctx context.Context, badgeID string) (*badge.Badge, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM badges
		WHERE id = $1
	`, badgeColumns)

	row := r.conn.QueryRow(ctx, query, badgeID)
	return scanBadge(row)
}

// FindActiveByOrganization returns every active badge in an organization.
func (r *BadgeRepository) FindActiveByOrganization(ctx context.Context, organizationID string) ([]*badge.Badge, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM badges
		WHERE organization_id = $1 AND is_active
		ORDER BY created_at
	`, badgeColumns)

	return r.queryBadges(ctx, query, organizationID)
}

// FindByOrganization returns every badge in an organization, active or not.
func (r *BadgeRepository) FindByOrganization(ctx context.Context, organizationID string) ([]*badge.Badge, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM badges
		WHERE organization_id = $1
		ORDER BY created_at
	`, badgeColumns)

	return r.queryBadges(ctx, query, organizationID)
}

func (r *BadgeRepository) queryBadges(ctx context.Context, query string, args ...interface{}) ([]*badge.Badge, error) {
	rows, err := r.conn.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	var badges []*badge.Badge
	for rows.Next() {
		b, err := scanBadge(rows)
		if err != nil {
			return nil, err
		}
		badges = append(badges, b)
	}

	return badges, rows.Err()
}

// Save inserts or updates a badge definition (upsert on ID).
func (r *BadgeRepository) Save(ctx context.Context, b *badge.Badge) error {
	query := `
		INSERT INTO badges (
			id, organization_id, name, description, icon_url,
			criteria_type, criteria_target, criteria_course_id,
			rarity, points_reward, is_active, is_hidden, total_awarded,
			created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			icon_url = EXCLUDED.icon_url,
			criteria_type = EXCLUDED.criteria_type,
			criteria_target = EXCLUDED.criteria_target,
			criteria_course_id = EXCLUDED.criteria_course_id,
			rarity = EXCLUDED.rarity,
			points_reward = EXCLUDED.points_reward,
			is_active = EXCLUDED.is_active,
			is_hidden = EXCLUDED.is_hidden,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.conn.Exec(ctx, query,
		b.ID,
		b.OrganizationID,
		b.Name,
		b.Description,
		b.IconURL,
		string(b.Criteria.Type),
		b.Criteria.TargetValue,
		b.Criteria.SpecificCourseID,
		string(b.Rarity),
		b.PointsReward,
		b.IsActive,
		b.IsHidden,
		b.TotalAwarded,
		b.CreatedAt,
		b.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save badge: %w", err)
	}

	return nil
}

// IncrementTotalAwarded bumps the award counter atomically in storage.
// The counter never gates awarding, so no lock is needed.
func (r *BadgeRepository) IncrementTotalAwarded(ctx context.Context, badgeID string) error {
	query := `
		UPDATE badges
		SET total_awarded = total_awarded + 1, updated_at = NOW()
		WHERE id = $1
	`

	tag, err := r.conn.Exec(ctx, query, badgeID)
	if err != nil {
		return fmt.Errorf("failed to increment total awarded: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrBadgeNotFound
	}

	return nil
}

// scanBadge scans a badge row from either a pgx.Row or pgx.Rows.
func scanBadge(row interface{ Scan(...interface{}) error }) (*badge.Badge, error) {
	var b badge.Badge
	var criteriaType, rarity string

	err := row.Scan(
		&b.ID,
		&b.OrganizationID,
		&b.Name,
		&b.Description,
		&b.IconURL,
		&criteriaType,
		&b.Criteria.TargetValue,
		&b.Criteria.SpecificCourseID,
		&rarity,
		&b.PointsReward,
		&b.IsActive,
		&b.IsHidden,
		&b.TotalAwarded,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if IsNoRows(err) {
		return nil, shared.ErrBadgeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan badge: %w", err)
	}

	b.Criteria.Type = badge.CriteriaType(criteriaType)
	b.Rarity = badge.Rarity(rarity)

	return &b, nil
}
