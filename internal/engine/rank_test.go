package engine

import (
	"reflect"
	"testing"

	"github.com/google/uuid"
)

func TestRankStableTies(t *testing.T) {
	a, b, c, d := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	entries := []RankEntry{{a, 50}, {b, 80}, {c, 50}, {d, 10}}

	got := Rank(entries)
	wantOrder := []uuid.UUID{b, a, c, d}
	for i, r := range got {
		if r.UserID != wantOrder[i] || r.Rank != i+1 {
			t.Fatalf("position %d: expected %s rank %d, got %s rank %d", i, wantOrder[i], i+1, r.UserID, r.Rank)
		}
	}

	if again := Rank(entries); !reflect.DeepEqual(got, again) {
		t.Fatalf("rank is not deterministic")
	}
	if entries[0].UserID != a {
		t.Fatalf("input must not be reordered")
	}
}

func TestLookupMatchesPosition(t *testing.T) {
	var entries []RankEntry
	for i := 0; i < 20; i++ {
		entries = append(entries, RankEntry{UserID: uuid.New(), Metric: (i * 37) % 11})
	}
	ranked := Rank(entries)

	for i, r := range ranked {
		got, ok := Lookup(ranked, r.UserID)
		if !ok || got.Rank != i+1 || got.Metric != r.Metric {
			t.Fatalf("lookup mismatch for position %d: %+v", i, got)
		}
	}
	if _, ok := Lookup(ranked, uuid.New()); ok {
		t.Fatalf("unknown user must not be found")
	}

	top := Top(ranked, 5)
	if len(top) != 5 || top[4].Rank != 5 {
		t.Fatalf("unexpected top slice %+v", top)
	}
	if len(Top(ranked, 0)) != len(ranked) {
		t.Fatalf("non-positive n returns everything")
	}
}
