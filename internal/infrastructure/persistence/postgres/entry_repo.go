// Package postgres implements the PostgreSQL persistence layer for the
// Lumina gamification service.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lumina-lms/lumina-gamification/internal/domain/leaderboard"
	"github.com/lumina-lms/lumina-gamification/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD ENTRY REPOSITORY IMPLEMENTATION
// ══════════════════════════════════════════════════════════════════════════════

// EntryRepository implements leaderboard.EntryRepository for PostgreSQL.
type EntryRepository struct {
	conn *Connection
}

// NewEntryRepository creates a new EntryRepository.
func NewEntryRepository(conn *Connection) *EntryRepository {
	return &EntryRepository{conn: conn}
}

const entryColumns = `
	user_id, organization_id,
	daily_points, daily_window_start, daily_rank,
	weekly_points, weekly_window_start, weekly_rank,
	monthly_points, monthly_window_start, monthly_rank,
	all_time_points, all_time_rank,
	courses_completed, lessons_completed, assessments_passed,
	average_score, total_time_spent, certificates_earned,
	badges_earned, current_streak, longest_streak,
	created_at, updated_at, version
`

// FindByUser returns the entry for a user in an organization.
func (r *EntryRepository) FindByUser(ctx context.Context, userID, organizationID string) (*leaderboard.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM leaderboard_entries
		WHERE user_id = $1 AND organization_id = $2
	`, entryColumns)

	row := r.conn.QueryRow(ctx, query, userID, organizationID)
	return scanEntry(row)
}

// FindByOrganization returns every entry in an organization.
func (r *EntryRepository) FindByOrganization(ctx context.Context, organizationID string) ([]*leaderboard.Entry, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM leaderboard_entries
		WHERE organization_id = $1
		ORDER BY all_time_points DESC, user_id
	`, entryColumns)

	rows, err := r.conn.Query(ctx, query, organizationID)
	if err != nil {
		return nil, fmt.Errorf("failed to query entries: %w", err)
	}
	defer rows.Close()

	var entries []*leaderboard.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	return entries, rows.Err()
}

// OrganizationIDs returns every organization that has at least one ledger
// entry. The rank rebuild job iterates this set.
func (r *EntryRepository) OrganizationIDs(ctx context.Context) ([]string, error) {
	rows, err := r.conn.Query(ctx, `SELECT DISTINCT organization_id FROM leaderboard_entries`)
	if err != nil {
		return nil, fmt.Errorf("failed to query organizations: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan organization ID: %w", err)
		}
		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// Save inserts or updates one entry. An entry with Version 0 has never been
// persisted and is inserted; anything else is an optimistic-lock update.
func (r *EntryRepository) Save(ctx context.Context, entry *leaderboard.Entry) error {
	if entry.Version == 0 {
		return r.insert(ctx, entry)
	}
	return r.update(ctx, entry)
}

func (r *EntryRepository) insert(ctx context.Context, entry *leaderboard.Entry) error {
	query := `
		INSERT INTO leaderboard_entries (
			user_id, organization_id,
			daily_points, daily_window_start, daily_rank,
			weekly_points, weekly_window_start, weekly_rank,
			monthly_points, monthly_window_start, monthly_rank,
			all_time_points, all_time_rank,
			courses_completed, lessons_completed, assessments_passed,
			average_score, total_time_spent, certificates_earned,
			badges_earned, current_streak, longest_streak,
			created_at, updated_at, version
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, 1
		)
	`

	_, err := r.conn.Exec(ctx, query, entryArgs(entry)...)
	if err != nil {
		if IsUniqueViolation(err) {
			return shared.ErrLedgerConflict
		}
		return fmt.Errorf("failed to insert entry: %w", err)
	}

	entry.Version = 1
	return nil
}

func (r *EntryRepository) update(ctx context.Context, entry *leaderboard.Entry) error {
	query := `
		UPDATE leaderboard_entries SET
			daily_points = $3, daily_window_start = $4, daily_rank = $5,
			weekly_points = $6, weekly_window_start = $7, weekly_rank = $8,
			monthly_points = $9, monthly_window_start = $10, monthly_rank = $11,
			all_time_points = $12, all_time_rank = $13,
			courses_completed = $14, lessons_completed = $15, assessments_passed = $16,
			average_score = $17, total_time_spent = $18, certificates_earned = $19,
			badges_earned = $20, current_streak = $21, longest_streak = $22,
			updated_at = $24,
			version = version + 1
		WHERE user_id = $1 AND organization_id = $2 AND version = $25
	`

	args := append(entryArgs(entry), entry.Version)
	tag, err := r.conn.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrLedgerConflict
	}

	entry.Version++
	return nil
}

// SaveRanks persists the rank values of all given entries for one period in a
// single transaction, so a recomputation is never half-applied. Rank writes
// deliberately bypass the version check: they touch only the rank column and
// losing one to a concurrent full save is corrected by the next rebuild.
func (r *EntryRepository) SaveRanks(ctx context.Context, entries []*leaderboard.Entry, period leaderboard.Period) error {
	if len(entries) == 0 {
		return nil
	}

	column, err := rankColumn(period)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE leaderboard_entries
		SET %s = $1, updated_at = NOW()
		WHERE user_id = $2 AND organization_id = $3
	`, column)

	return r.conn.WithTx(ctx, DefaultTxOptions(), func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, e := range entries {
			batch.Queue(query, e.RankFor(period), e.UserID, e.OrganizationID)
		}

		br := tx.SendBatch(ctx, batch)
		defer br.Close()

		for range entries {
			if _, err := br.Exec(); err != nil {
				return fmt.Errorf("failed to update rank: %w", err)
			}
		}

		return nil
	})
}

// rankColumn maps a period to its rank column. The column name never comes
// from user input.
func rankColumn(period leaderboard.Period) (string, error) {
	switch period {
	case leaderboard.PeriodDaily:
		return "daily_rank", nil
	case leaderboard.PeriodWeekly:
		return "weekly_rank", nil
	case leaderboard.PeriodMonthly:
		return "monthly_rank", nil
	case leaderboard.PeriodAllTime:
		return "all_time_rank", nil
	default:
		return "", shared.ErrInvalidPeriod
	}
}

func entryArgs(e *leaderboard.Entry) []interface{} {
	return []interface{}{
		e.UserID,
		e.OrganizationID,
		e.Daily.Points, e.Daily.WindowStart, e.Daily.Rank,
		e.Weekly.Points, e.Weekly.WindowStart, e.Weekly.Rank,
		e.Monthly.Points, e.Monthly.WindowStart, e.Monthly.Rank,
		e.AllTimePoints, e.AllTimeRank,
		e.Metrics.CoursesCompleted, e.Metrics.LessonsCompleted, e.Metrics.AssessmentsPassed,
		e.Metrics.AverageScore, e.Metrics.TotalTimeSpent, e.Metrics.CertificatesEarned,
		e.Metrics.BadgesEarned, e.Metrics.CurrentStreak, e.Metrics.LongestStreak,
		e.CreatedAt,
		e.UpdatedAt,
	}
}

// scanEntry scans an entry row from either a pgx.Row or pgx.Rows.
func scanEntry(row interface{ Scan(...interface{}) error }) (*leaderboard.Entry, error) {
	var e leaderboard.Entry

	err := row.Scan(
		&e.UserID,
		&e.OrganizationID,
		&e.Daily.Points, &e.Daily.WindowStart, &e.Daily.Rank,
		&e.Weekly.Points, &e.Weekly.WindowStart, &e.Weekly.Rank,
		&e.Monthly.Points, &e.Monthly.WindowStart, &e.Monthly.Rank,
		&e.AllTimePoints, &e.AllTimeRank,
		&e.Metrics.CoursesCompleted, &e.Metrics.LessonsCompleted, &e.Metrics.AssessmentsPassed,
		&e.Metrics.AverageScore, &e.Metrics.TotalTimeSpent, &e.Metrics.CertificatesEarned,
		&e.Metrics.BadgesEarned, &e.Metrics.CurrentStreak, &e.Metrics.LongestStreak,
		&e.CreatedAt,
		&e.UpdatedAt,
		&e.Version,
	)
	if IsNoRows(err) {
		return nil, shared.ErrLedgerEntryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan entry: %w", err)
	}

	e.Daily.WindowStart = e.Daily.WindowStart.UTC()
	e.Weekly.WindowStart = e.Weekly.WindowStart.UTC()
	e.Monthly.WindowStart = e.Monthly.WindowStart.UTC()

	return &e, nil
}
