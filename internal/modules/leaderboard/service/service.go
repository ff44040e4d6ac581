package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"anoa.com/ecotrack/internal/engine"
	leaderboardDto "anoa.com/ecotrack/internal/modules/leaderboard/dto"
	leaderboardRepo "anoa.com/ecotrack/internal/modules/leaderboard/repository"
	"anoa.com/ecotrack/pkg/apperror"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	DefaultLimit = 10
	MaxLimit     = 50
)

var boards = []string{leaderboardDto.BoardPoints, leaderboardDto.BoardWeekly, leaderboardDto.BoardStreak}

// Calendar supplies the engine's notion of now and of where days start.
type Calendar interface {
	Location() *time.Location
	Now() time.Time
}

type LeaderboardService interface {
	GetLeaderboard(ctx context.Context, userID uuid.UUID, board string, limit int) (*leaderboardDto.LeaderboardResponse, error)
	// RankOf returns the user's 1-based rank on board, or 0 when the user is not on it.
	RankOf(ctx context.Context, userID uuid.UUID, board string) (int, error)
	// Invalidate drops every cached board. Called after points or streaks change.
	Invalidate(ctx context.Context) error
}

type leaderboardService struct {
	repo        leaderboardRepo.LeaderboardRepository
	calendar    Calendar
	redisClient *redis.Client
	cacheTTL    time.Duration
}

func NewLeaderboardService(repo leaderboardRepo.LeaderboardRepository, calendar Calendar, redisClient *redis.Client, cacheTTL time.Duration) LeaderboardService {
	return &leaderboardService{
		repo:        repo,
		calendar:    calendar,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

func cacheKey(board string) string {
	return fmt.Sprintf("leaderboard:%s", board)
}

func (s *leaderboardService) GetLeaderboard(ctx context.Context, userID uuid.UUID, board string, limit int) (*leaderboardDto.LeaderboardResponse, error) {
	if board == "" {
		board = leaderboardDto.BoardPoints
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	b, err := s.ranked(ctx, board)
	if err != nil {
		return nil, err
	}

	top := engine.Top(b.ranked, limit)
	res := &leaderboardDto.LeaderboardResponse{
		Board:   board,
		Entries: make([]leaderboardDto.LeaderboardEntry, 0, len(top)),
		Total:   len(b.ranked),
	}
	for _, r := range top {
		res.Entries = append(res.Entries, b.entry(r))
	}
	if r, ok := engine.Lookup(b.ranked, userID); ok {
		me := b.entry(r)
		res.Me = &me
	}
	return res, nil
}

func (s *leaderboardService) RankOf(ctx context.Context, userID uuid.UUID, board string) (int, error) {
	b, err := s.ranked(ctx, board)
	if err != nil {
		return 0, err
	}
	if r, ok := engine.Lookup(b.ranked, userID); ok {
		return r.Rank, nil
	}
	return 0, nil
}

func (s *leaderboardService) Invalidate(ctx context.Context) error {
	if s.redisClient == nil {
		return nil
	}
	keys := make([]string, 0, len(boards))
	for _, b := range boards {
		keys = append(keys, cacheKey(b))
	}
	return s.redisClient.Del(ctx, keys...).Err()
}

type rankedBoard struct {
	name     string
	ranked   []engine.RankedEntry
	profiles map[uuid.UUID]leaderboardRepo.Row
}

func (b rankedBoard) entry(r engine.RankedEntry) leaderboardDto.LeaderboardEntry {
	row := b.profiles[r.UserID]
	entry := leaderboardDto.LeaderboardEntry{
		Rank:      r.Rank,
		UserID:    r.UserID,
		Username:  row.Username,
		FullName:  row.FullName,
		AvatarURL: row.AvatarURL,
		Level:     row.Level,
		Value:     r.Metric,
	}
	if b.name == leaderboardDto.BoardWeekly {
		entry.WeeklyLabel = WeeklyLabel(r.Metric)
	}
	return entry
}

// ranked ranks the whole board. Rows come from cache when possible; the cached order is
// the query order, so ties rank the same either way.
func (s *leaderboardService) ranked(ctx context.Context, board string) (rankedBoard, error) {
	rows, ok := s.fromCache(ctx, board)
	if !ok {
		var err error
		rows, err = s.rows(ctx, board)
		if err != nil {
			return rankedBoard{}, err
		}
		s.toCache(ctx, board, rows)
	}

	input := make([]engine.RankEntry, 0, len(rows))
	profiles := make(map[uuid.UUID]leaderboardRepo.Row, len(rows))
	for _, row := range rows {
		input = append(input, engine.RankEntry{UserID: row.UserID, Metric: row.Metric})
		profiles[row.UserID] = row
	}

	return rankedBoard{name: board, ranked: engine.Rank(input), profiles: profiles}, nil
}

func (s *leaderboardService) rows(ctx context.Context, board string) ([]leaderboardRepo.Row, error) {
	now := s.calendar.Now()
	switch board {
	case leaderboardDto.BoardPoints:
		return s.repo.PointsRows(ctx)
	case leaderboardDto.BoardWeekly:
		return s.repo.WeeklyRows(ctx, now.AddDate(0, 0, -7))
	case leaderboardDto.BoardStreak:
		yesterday := engine.CalendarDay(now, s.calendar.Location()).AddDate(0, 0, -1)
		return s.repo.StreakRows(ctx, yesterday)
	default:
		return nil, fmt.Errorf("%w: unknown leaderboard %q", apperror.ErrValidation, board)
	}
}

func (s *leaderboardService) fromCache(ctx context.Context, board string) ([]leaderboardRepo.Row, bool) {
	if s.redisClient == nil || s.cacheTTL <= 0 {
		return nil, false
	}

	raw, err := s.redisClient.Get(ctx, cacheKey(board)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Printf("Leaderboard cache read failed: %v", err)
		}
		return nil, false
	}

	var rows []leaderboardRepo.Row
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, false
	}
	return rows, true
}

func (s *leaderboardService) toCache(ctx context.Context, board string, rows []leaderboardRepo.Row) {
	if s.redisClient == nil || s.cacheTTL <= 0 {
		return
	}
	payload, err := json.Marshal(rows)
	if err != nil {
		return
	}
	if err := s.redisClient.Set(ctx, cacheKey(board), payload, s.cacheTTL).Err(); err != nil {
		log.Printf("Leaderboard cache write failed: %v", err)
	}
}
