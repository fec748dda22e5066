// Package postgres implements the PostgreSQL persistence layer for the
// Lumina gamification service.
package postgres

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 001: CREATE GAMIFICATION STATES
// ══════════════════════════════════════════════════════════════════════════════

const migration001Up = `
-- Migration: Create gamification states table
-- Version: 001

-- One row per user: points, level, streak. The version column backs
-- optimistic locking for concurrent awards.
CREATE TABLE IF NOT EXISTS gamification_states (
    user_id VARCHAR(64) PRIMARY KEY,
    organization_id VARCHAR(64) NOT NULL,
    points INTEGER NOT NULL DEFAULT 0,
    level INTEGER NOT NULL DEFAULT 1,
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,
    last_activity_date DATE,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    version INTEGER NOT NULL DEFAULT 1,

    -- Points never go below zero at the state level; adjustments are floored
    -- by the application before they reach here.
    CONSTRAINT valid_points CHECK (points >= 0),
    CONSTRAINT valid_level CHECK (level >= 1),
    CONSTRAINT valid_streaks CHECK (current_streak >= 0 AND longest_streak >= current_streak)
);

CREATE INDEX IF NOT EXISTS idx_states_organization ON gamification_states(organization_id);
CREATE INDEX IF NOT EXISTS idx_states_org_points ON gamification_states(organization_id, points DESC);
`

const migration001Down = `
DROP TABLE IF EXISTS gamification_states;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 002: CREATE LEADERBOARD ENTRIES
// ══════════════════════════════════════════════════════════════════════════════

const migration002Up = `
-- Migration: Create leaderboard entries table
-- Version: 002

-- Windowed point ledger: one row per (user, organization) with a points
-- bucket per period. Window starts are stored so stale buckets can be
-- reset lazily on the next award. Bucket points are intentionally NOT
-- constrained to be non-negative: manual adjustments may drive a window
-- below zero.
CREATE TABLE IF NOT EXISTS leaderboard_entries (
    user_id VARCHAR(64) NOT NULL,
    organization_id VARCHAR(64) NOT NULL,

    daily_points INTEGER NOT NULL DEFAULT 0,
    daily_window_start TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    daily_rank INTEGER NOT NULL DEFAULT 0,

    weekly_points INTEGER NOT NULL DEFAULT 0,
    weekly_window_start TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    weekly_rank INTEGER NOT NULL DEFAULT 0,

    monthly_points INTEGER NOT NULL DEFAULT 0,
    monthly_window_start TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    monthly_rank INTEGER NOT NULL DEFAULT 0,

    all_time_points INTEGER NOT NULL DEFAULT 0,
    all_time_rank INTEGER NOT NULL DEFAULT 0,

    -- Denormalized display metrics for leaderboard rows.
    courses_completed INTEGER NOT NULL DEFAULT 0,
    lessons_completed INTEGER NOT NULL DEFAULT 0,
    assessments_passed INTEGER NOT NULL DEFAULT 0,
    average_score DECIMAL(5,2) NOT NULL DEFAULT 0.00,
    total_time_spent BIGINT NOT NULL DEFAULT 0,
    certificates_earned INTEGER NOT NULL DEFAULT 0,
    badges_earned INTEGER NOT NULL DEFAULT 0,
    current_streak INTEGER NOT NULL DEFAULT 0,
    longest_streak INTEGER NOT NULL DEFAULT 0,

    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    version INTEGER NOT NULL DEFAULT 1,

    PRIMARY KEY (user_id, organization_id)
);

CREATE INDEX IF NOT EXISTS idx_entries_org ON leaderboard_entries(organization_id);
CREATE INDEX IF NOT EXISTS idx_entries_org_all_time ON leaderboard_entries(organization_id, all_time_points DESC);
CREATE INDEX IF NOT EXISTS idx_entries_org_daily ON leaderboard_entries(organization_id, daily_points DESC);
CREATE INDEX IF NOT EXISTS idx_entries_org_weekly ON leaderboard_entries(organization_id, weekly_points DESC);
CREATE INDEX IF NOT EXISTS idx_entries_org_monthly ON leaderboard_entries(organization_id, monthly_points DESC);
`

const migration002Down = `
DROP TABLE IF EXISTS leaderboard_entries;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 003: CREATE BADGES
// ══════════════════════════════════════════════════════════════════════════════

const migration003Up = `
-- Migration: Create badge definitions table
-- Version: 003

CREATE TABLE IF NOT EXISTS badges (
    id VARCHAR(64) PRIMARY KEY,
    organization_id VARCHAR(64) NOT NULL,
    name VARCHAR(100) NOT NULL,
    description TEXT NOT NULL DEFAULT '',
    icon_url TEXT NOT NULL DEFAULT '',
    criteria_type VARCHAR(40) NOT NULL,
    criteria_target INTEGER NOT NULL DEFAULT 0,
    criteria_course_id VARCHAR(64) NOT NULL DEFAULT '',
    rarity VARCHAR(20) NOT NULL DEFAULT 'common',
    points_reward INTEGER NOT NULL DEFAULT 0,
    is_active BOOLEAN NOT NULL DEFAULT TRUE,
    is_hidden BOOLEAN NOT NULL DEFAULT FALSE,
    total_awarded INTEGER NOT NULL DEFAULT 0,
    created_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    updated_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),

    CONSTRAINT valid_rarity CHECK (rarity IN ('common', 'uncommon', 'rare', 'epic', 'legendary')),
    CONSTRAINT valid_reward CHECK (points_reward >= 0),
    CONSTRAINT valid_total_awarded CHECK (total_awarded >= 0)
);

CREATE INDEX IF NOT EXISTS idx_badges_org ON badges(organization_id);
CREATE INDEX IF NOT EXISTS idx_badges_org_active ON badges(organization_id) WHERE is_active;
`

const migration003Down = `
DROP TABLE IF EXISTS badges;
`

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATION 004: CREATE USER BADGE AWARDS
// ══════════════════════════════════════════════════════════════════════════════

const migration004Up = `
-- Migration: Create user badge awards table
-- Version: 004

-- The UNIQUE(user_id, badge_id) constraint is the single source of truth
-- for "has this user earned this badge". Racing award attempts resolve
-- here: the loser gets a unique violation and treats it as already done.
CREATE TABLE IF NOT EXISTS user_badge_awards (
    id UUID PRIMARY KEY,
    user_id VARCHAR(64) NOT NULL,
    badge_id VARCHAR(64) NOT NULL REFERENCES badges(id) ON DELETE CASCADE,
    earned_at TIMESTAMP WITH TIME ZONE NOT NULL DEFAULT NOW(),
    related_entity VARCHAR(100) NOT NULL DEFAULT '',
    progress_current INTEGER NOT NULL DEFAULT 0,
    progress_target INTEGER NOT NULL DEFAULT 0,

    UNIQUE(user_id, badge_id)
);

CREATE INDEX IF NOT EXISTS idx_awards_user ON user_badge_awards(user_id);
CREATE INDEX IF NOT EXISTS idx_awards_badge ON user_badge_awards(badge_id);
CREATE INDEX IF NOT EXISTS idx_awards_earned_at ON user_badge_awards(earned_at DESC);
`

const migration004Down = `
DROP TABLE IF EXISTS user_badge_awards;
`

// ══════════════════════════════════════════════════════════════════════════════
// EMBEDDED MIGRATIONS
// ══════════════════════════════════════════════════════════════════════════════

// GetMigrations returns all embedded migrations.
func GetMigrations() []Migration {
	return []Migration{
		{
			Version: 1,
			Name:    "create_gamification_states",
			UpSQL:   migration001Up,
			DownSQL: migration001Down,
		},
		{
			Version: 2,
			Name:    "create_leaderboard_entries",
			UpSQL:   migration002Up,
			DownSQL: migration002Down,
		},
		{
			Version: 3,
			Name:    "create_badges",
			UpSQL:   migration003Up,
			DownSQL: migration003Down,
		},
		{
			Version: 4,
			Name:    "create_user_badge_awards",
			UpSQL:   migration004Up,
			DownSQL: migration004Down,
		},
	}
}
