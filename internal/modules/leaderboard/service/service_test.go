package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"anoa.com/ecotrack/internal/engine"
	leaderboardDto "anoa.com/ecotrack/internal/modules/leaderboard/dto"
	leaderboardRepo "anoa.com/ecotrack/internal/modules/leaderboard/repository"
	"anoa.com/ecotrack/pkg/apperror"
	"github.com/google/uuid"
)

var now = time.Date(2026, 10, 15, 10, 0, 0, 0, time.UTC)

type fakeRepo struct {
	points      []leaderboardRepo.Row
	weekly      []leaderboardRepo.Row
	streak      []leaderboardRepo.Row
	weeklySince time.Time
	streakSince time.Time
}

func (f *fakeRepo) PointsRows(ctx context.Context) ([]leaderboardRepo.Row, error) {
	return f.points, nil
}

func (f *fakeRepo) WeeklyRows(ctx context.Context, since time.Time) ([]leaderboardRepo.Row, error) {
	f.weeklySince = since
	return f.weekly, nil
}

func (f *fakeRepo) StreakRows(ctx context.Context, since time.Time) ([]leaderboardRepo.Row, error) {
	f.streakSince = since
	return f.streak, nil
}

type calendar struct{}

func (calendar) Location() *time.Location { return time.UTC }
func (calendar) Now() time.Time           { return now }

func rows(metrics ...int) []leaderboardRepo.Row {
	out := make([]leaderboardRepo.Row, 0, len(metrics))
	for i, m := range metrics {
		out = append(out, leaderboardRepo.Row{UserID: uuid.New(), Username: string(rune('a' + i)), Level: 1, Metric: m})
	}
	return out
}

func TestGetLeaderboardPoints(t *testing.T) {
	repo := &fakeRepo{points: rows(150, 520, 280, 520, 350)}
	svc := NewLeaderboardService(repo, calendar{}, nil, time.Minute)
	me := repo.points[0].UserID

	res, err := svc.GetLeaderboard(context.Background(), me, "", 3)
	if err != nil {
		t.Fatalf("GetLeaderboard() error = %v", err)
	}
	if res.Board != leaderboardDto.BoardPoints || res.Total != 5 || len(res.Entries) != 3 {
		t.Fatalf("res = %+v", res)
	}

	wantOrder := []string{"b", "d", "e"}
	for i, e := range res.Entries {
		if e.Username != wantOrder[i] || e.Rank != i+1 {
			t.Errorf("entry %d = %s rank %d, want %s rank %d", i, e.Username, e.Rank, wantOrder[i], i+1)
		}
	}
	if res.Me == nil || res.Me.Rank != 5 || res.Me.Value != 150 {
		t.Errorf("me = %+v", res.Me)
	}
}

func TestLeaderboardMatchesEngineRanking(t *testing.T) {
	// Ties straddle the page cut; the page and "me" must agree with engine.Rank.
	repo := &fakeRepo{points: rows(300, 200, 300, 200, 200, 100)}
	svc := NewLeaderboardService(repo, calendar{}, nil, 0)

	input := make([]engine.RankEntry, 0, len(repo.points))
	for _, r := range repo.points {
		input = append(input, engine.RankEntry{UserID: r.UserID, Metric: r.Metric})
	}
	want := engine.Rank(input)

	for _, me := range repo.points {
		res, err := svc.GetLeaderboard(context.Background(), me.UserID, leaderboardDto.BoardPoints, 3)
		if err != nil {
			t.Fatal(err)
		}
		for i, e := range res.Entries {
			if e.UserID != want[i].UserID || e.Rank != want[i].Rank {
				t.Fatalf("entry %d = %s rank %d, want %s rank %d", i, e.UserID, e.Rank, want[i].UserID, want[i].Rank)
			}
		}
		wantMe, _ := engine.Lookup(want, me.UserID)
		if res.Me == nil || res.Me.Rank != wantMe.Rank {
			t.Errorf("me %s = %+v, want rank %d", me.Username, res.Me, wantMe.Rank)
		}

		rank, err := svc.RankOf(context.Background(), me.UserID, leaderboardDto.BoardPoints)
		if err != nil || rank != wantMe.Rank {
			t.Errorf("RankOf(%s) = %d, %v; want %d", me.Username, rank, err, wantMe.Rank)
		}
	}
}

func TestGetLeaderboardLimitBounds(t *testing.T) {
	metrics := make([]int, 60)
	for i := range metrics {
		metrics[i] = i
	}
	svc := NewLeaderboardService(&fakeRepo{points: rows(metrics...)}, calendar{}, nil, 0)

	cases := []struct {
		limit int
		want  int
	}{
		{0, DefaultLimit},
		{-4, DefaultLimit},
		{25, 25},
		{500, MaxLimit},
	}
	for _, tc := range cases {
		res, err := svc.GetLeaderboard(context.Background(), uuid.New(), leaderboardDto.BoardPoints, tc.limit)
		if err != nil {
			t.Fatal(err)
		}
		if len(res.Entries) != tc.want {
			t.Errorf("limit %d: got %d entries, want %d", tc.limit, len(res.Entries), tc.want)
		}
		if res.Me != nil {
			t.Errorf("unknown user should have no entry")
		}
	}
}

func TestWeeklyAndStreakBoards(t *testing.T) {
	repo := &fakeRepo{weekly: rows(40, 120), streak: rows(3)}
	svc := NewLeaderboardService(repo, calendar{}, nil, 0)

	weekly, err := svc.GetLeaderboard(context.Background(), uuid.New(), leaderboardDto.BoardWeekly, 10)
	if err != nil {
		t.Fatal(err)
	}
	if !repo.weeklySince.Equal(now.AddDate(0, 0, -7)) {
		t.Errorf("weekly since = %v", repo.weeklySince)
	}
	if weekly.Entries[0].WeeklyLabel != "🔥 On Fire!" || weekly.Entries[1].WeeklyLabel != "📈 Active" {
		t.Errorf("labels = %q, %q", weekly.Entries[0].WeeklyLabel, weekly.Entries[1].WeeklyLabel)
	}

	if _, err := svc.GetLeaderboard(context.Background(), uuid.New(), leaderboardDto.BoardStreak, 10); err != nil {
		t.Fatal(err)
	}
	if want := time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC); !repo.streakSince.Equal(want) {
		t.Errorf("streak since = %v, want %v", repo.streakSince, want)
	}
}

func TestRankOf(t *testing.T) {
	repo := &fakeRepo{points: rows(10, 30, 20)}
	svc := NewLeaderboardService(repo, calendar{}, nil, 0)

	rank, err := svc.RankOf(context.Background(), repo.points[2].UserID, leaderboardDto.BoardPoints)
	if err != nil || rank != 2 {
		t.Fatalf("rank = %d, err = %v", rank, err)
	}
	rank, _ = svc.RankOf(context.Background(), uuid.New(), leaderboardDto.BoardPoints)
	if rank != 0 {
		t.Errorf("absent user rank = %d", rank)
	}
	if _, err := svc.RankOf(context.Background(), uuid.New(), "monthly"); !errors.Is(err, apperror.ErrValidation) {
		t.Errorf("unknown board err = %v", err)
	}
}

func TestInvalidateWithoutRedis(t *testing.T) {
	svc := NewLeaderboardService(&fakeRepo{}, calendar{}, nil, time.Minute)
	if err := svc.Invalidate(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestWeeklyLabel(t *testing.T) {
	cases := map[int]string{0: "", 19: "", 20: "📈 Active", 50: "⚡ Trending", 99: "⚡ Trending", 100: "🔥 On Fire!"}
	for points, want := range cases {
		if got := WeeklyLabel(points); got != want {
			t.Errorf("WeeklyLabel(%d) = %q, want %q", points, got, want)
		}
	}
}
