// Package redis implements Redis caching for the Lumina gamification service.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/lumina-lms/lumina-gamification/internal/domain/leaderboard"
)

// ══════════════════════════════════════════════════════════════════════════════
// LEADERBOARD CACHE
// ══════════════════════════════════════════════════════════════════════════════

// LeaderboardCache implements leaderboard.Cache using Redis sorted sets.
//
// Architecture:
//   - Sorted set "leaderboard:rank:{org}:{period}" stores userID -> rank,
//     so page reads and rank lookups are O(log N).
//   - Hash "leaderboard:entry:{org}:{period}" stores userID -> entry JSON.
//
// The rank rebuild job replaces both structures atomically via pipeline;
// readers that hit a half-expired key simply miss and fall back to the
// repository.
type LeaderboardCache struct {
	cache *Cache
}

// Key patterns for leaderboard cache.
const (
	keyLeaderboardRank  = "leaderboard:rank:"
	keyLeaderboardEntry = "leaderboard:entry:"
)

// NewLeaderboardCache creates a new LeaderboardCache instance.
func NewLeaderboardCache(cache *Cache) *LeaderboardCache {
	return &LeaderboardCache{cache: cache}
}

func rankKey(organizationID string, period leaderboard.Period) string {
	return fmt.Sprintf("%s%s:%s", keyLeaderboardRank, organizationID, period)
}

func entryKey(organizationID string, period leaderboard.Period) string {
	return fmt.Sprintf("%s%s:%s", keyLeaderboardEntry, organizationID, period)
}

// SetEntries replaces the cached ranking for an organization and period.
// Entries must already carry their ranks for the period.
func (l *LeaderboardCache) SetEntries(ctx context.Context, organizationID string, period leaderboard.Period, entries []*leaderboard.Entry) error {
	rKey := rankKey(organizationID, period)
	eKey := entryKey(organizationID, period)

	members := make([]redis.Z, 0, len(entries))
	details := make(map[string]interface{}, len(entries))

	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		members = append(members, redis.Z{
			Score:  float64(e.RankFor(period)),
			Member: e.UserID,
		})
		details[e.UserID] = data
	}

	pipe := l.cache.Client().TxPipeline()
	pipe.Del(ctx, rKey, eKey)
	if len(members) > 0 {
		pipe.ZAdd(ctx, rKey, members...)
		pipe.HSet(ctx, eKey, details)
		pipe.Expire(ctx, rKey, TTLLeaderboardCache)
		pipe.Expire(ctx, eKey, TTLLeaderboardCache)
	}

	_, err := pipe.Exec(ctx)
	return err
}

// GetPage returns a page of cached entries in rank order, or nil on miss.
func (l *LeaderboardCache) GetPage(ctx context.Context, organizationID string, period leaderboard.Period, offset, limit int) ([]*leaderboard.Entry, error) {
	if offset < 0 || limit <= 0 {
		return nil, nil
	}

	rKey := rankKey(organizationID, period)
	eKey := entryKey(organizationID, period)

	// Ascending by rank: rank 1 first.
	userIDs, err := l.cache.Client().ZRange(ctx, rKey, int64(offset), int64(offset+limit-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	raw, err := l.cache.Client().HMGet(ctx, eKey, userIDs...).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]*leaderboard.Entry, 0, len(raw))
	for _, item := range raw {
		str, ok := item.(string)
		if !ok {
			// Hash fell out of sync with the sorted set; treat as a miss so
			// the caller reads the repository instead of a partial page.
			return nil, ErrCacheMiss
		}

		var e leaderboard.Entry
		if err := json.Unmarshal([]byte(str), &e); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCacheSerialization, err)
		}
		entries = append(entries, &e)
	}

	return entries, nil
}

// GetUserRank returns the cached rank for a user, or 0 on miss.
func (l *LeaderboardCache) GetUserRank(ctx context.Context, organizationID string, period leaderboard.Period, userID string) (int, error) {
	score, err := l.cache.Client().ZScore(ctx, rankKey(organizationID, period), userID).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, nil
		}
		return 0, err
	}

	return int(score), nil
}

// Invalidate drops the cached ranking for an organization and period.
func (l *LeaderboardCache) Invalidate(ctx context.Context, organizationID string, period leaderboard.Period) error {
	return l.cache.Delete(ctx, rankKey(organizationID, period), entryKey(organizationID, period))
}
