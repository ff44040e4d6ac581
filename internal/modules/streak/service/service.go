package service

import (
	"context"
	"log"
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/modules/streak/repository"
	"anoa.com/ecotrack/pkg/ratelimit"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Calendar supplies the engine's notion of now and of where days start.
type Calendar interface {
	Location() *time.Location
	Now() time.Time
}

type StreakNotifier interface {
	NotifyStreakAtRisk(ctx context.Context, userID uuid.UUID, current int)
	NotifyStreakBroken(ctx context.Context, userID uuid.UUID, lost int)
}

type StreakService interface {
	Status(ctx context.Context, userID uuid.UUID) (*engine.StreakStatus, error)
	// BreakExpired zeroes streaks that missed a whole day and reports how many were reset.
	BreakExpired(ctx context.Context) (int, error)
	// NotifyAtRisk reminds users whose streak ends tonight. Each user is reminded once a day.
	NotifyAtRisk(ctx context.Context) (int, error)
}

type streakService struct {
	repo        repository.StreakRepository
	calendar    Calendar
	notifier    StreakNotifier
	redisClient *redis.Client
}

func NewStreakService(repo repository.StreakRepository, calendar Calendar, notifier StreakNotifier, redisClient *redis.Client) StreakService {
	return &streakService{
		repo:        repo,
		calendar:    calendar,
		notifier:    notifier,
		redisClient: redisClient,
	}
}

func (s *streakService) Status(ctx context.Context, userID uuid.UUID) (*engine.StreakStatus, error) {
	streak, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	status := engine.StreakStatusAt(streak, s.calendar.Now(), s.calendar.Location())
	return &status, nil
}

func (s *streakService) BreakExpired(ctx context.Context) (int, error) {
	now, loc := s.calendar.Now(), s.calendar.Location()
	yesterday := engine.CalendarDay(now, loc).AddDate(0, 0, -1)

	expired, err := s.repo.ListExpired(ctx, yesterday)
	if err != nil {
		return 0, err
	}

	broken := 0
	for _, st := range expired {
		if !engine.IsStreakExpired(&st, now, loc) {
			continue
		}
		ok, err := s.repo.Reset(ctx, st.UserID, yesterday)
		if err != nil {
			return broken, err
		}
		if !ok {
			continue
		}
		broken++
		s.notifier.NotifyStreakBroken(ctx, st.UserID, st.CurrentStreak)
	}

	if broken > 0 {
		log.Printf("🧹 Reset %d expired streaks", broken)
	}
	return broken, nil
}

func (s *streakService) NotifyAtRisk(ctx context.Context) (int, error) {
	now, loc := s.calendar.Now(), s.calendar.Location()
	today := engine.CalendarDay(now, loc)
	yesterday := today.AddDate(0, 0, -1)

	atRisk, err := s.repo.ListAtRisk(ctx, yesterday, today)
	if err != nil {
		return 0, err
	}

	action := "streak_at_risk:" + today.Format("2006-01-02")
	sent := 0
	for _, st := range atRisk {
		if !engine.IsStreakAtRisk(&st, now, loc) {
			continue
		}
		first, err := ratelimit.CheckAndSet(ctx, s.redisClient, st.UserID, action, 24*time.Hour)
		if err != nil {
			log.Printf("⚠️ At-risk reminder dedupe unavailable: %v", err)
			first = true
		}
		if !first {
			continue
		}
		s.notifier.NotifyStreakAtRisk(ctx, st.UserID, st.CurrentStreak)
		sent++
	}
	return sent, nil
}
