package engine

import (
	"sort"

	"github.com/google/uuid"
)

type RankEntry struct {
	UserID uuid.UUID `json:"user_id"`
	Metric int       `json:"metric"`
}

type RankedEntry struct {
	RankEntry
	Rank int `json:"rank"`
}

// Rank orders entries by metric descending. Ties keep input order and ranks are never
// shared, so identical input always yields identical output.
func Rank(entries []RankEntry) []RankedEntry {
	ranked := make([]RankedEntry, len(entries))
	for i, e := range entries {
		ranked[i] = RankedEntry{RankEntry: e}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Metric > ranked[j].Metric
	})
	for i := range ranked {
		ranked[i].Rank = i + 1
	}
	return ranked
}

// Lookup finds userID in a ranked list.
func Lookup(ranked []RankedEntry, userID uuid.UUID) (RankedEntry, bool) {
	for _, r := range ranked {
		if r.UserID == userID {
			return r, true
		}
	}
	return RankedEntry{}, false
}

func Top(ranked []RankedEntry, n int) []RankedEntry {
	if n <= 0 || n >= len(ranked) {
		return ranked
	}
	return ranked[:n]
}
