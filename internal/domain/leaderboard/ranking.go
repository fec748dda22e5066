package leaderboard

import (
	"sort"
	"time"
)

// ══════════════════════════════════════════════════════════════════════════════
// RANKING
// ══════════════════════════════════════════════════════════════════════════════

// ComputeRanks sorts the entries for one organization by the given period's
// points as of now, descending, and assigns each entry its 1-based position
// as the rank. A bucket whose window has elapsed counts as zero, so a user
// who scored last window and nothing this window never outranks this
// window's earners. Ties are broken by ascending user ID so the ordering is
// total and two recomputations over the same data always agree.
//
// The entries are mutated in place and returned in rank order.
func ComputeRanks(entries []*Entry, period Period, now time.Time) []*Entry {
	sort.SliceStable(entries, func(i, j int) bool {
		pi, pj := entries[i].EffectivePointsFor(period, now), entries[j].EffectivePointsFor(period, now)
		if pi != pj {
			return pi > pj
		}
		return entries[i].UserID < entries[j].UserID
	})

	for i, entry := range entries {
		entry.SetRank(period, i+1)
	}
	return entries
}
