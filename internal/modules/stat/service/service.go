package service

import (
	"context"
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	leaderboardDto "anoa.com/ecotrack/internal/modules/leaderboard/dto"
	"anoa.com/ecotrack/internal/modules/stat/dto"
	"anoa.com/ecotrack/internal/modules/stat/repository"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

type UserReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*entity.User, error)
	Count(ctx context.Context) (int64, error)
}

type StreakReader interface {
	Status(ctx context.Context, userID uuid.UUID) (*engine.StreakStatus, error)
}

type BadgeReader interface {
	CountAwards(ctx context.Context, userID uuid.UUID) (int64, error)
	Totals(ctx context.Context, userID uuid.UUID) (engine.Totals, error)
}

type ImpactReader interface {
	TotalCO2(ctx context.Context, userID uuid.UUID) (float64, error)
}

type RankReader interface {
	RankOf(ctx context.Context, userID uuid.UUID, board string) (int, error)
}

// Clock is the engine's notion of now and of the local calendar.
type Clock interface {
	Now() time.Time
	Location() *time.Location
}

type StatService interface {
	GetTotalUsers(ctx context.Context) (int64, error)
	GetMyStats(ctx context.Context, userID uuid.UUID) (*dto.MyStatsResponse, error)
	GetAdminStats(ctx context.Context) (*dto.AdminStatsResponse, error)
}

type statService struct {
	users    UserReader
	streaks  StreakReader
	badges   BadgeReader
	impact   ImpactReader
	ranks    RankReader
	platform repository.StatRepository
	clock    Clock
}

func NewStatService(users UserReader, streaks StreakReader, badges BadgeReader, impact ImpactReader, ranks RankReader, platform repository.StatRepository, clock Clock) StatService {
	return &statService{
		users:    users,
		streaks:  streaks,
		badges:   badges,
		impact:   impact,
		ranks:    ranks,
		platform: platform,
		clock:    clock,
	}
}

func (s *statService) GetTotalUsers(ctx context.Context) (int64, error) {
	return s.users.Count(ctx)
}

// GetMyStats fans the dashboard reads out concurrently; the first error cancels the rest.
func (s *statService) GetMyStats(ctx context.Context, userID uuid.UUID) (*dto.MyStatsResponse, error) {
	var (
		user   *entity.User
		streak *engine.StreakStatus
		badges int64
		totals engine.Totals
		co2    float64
		rank   int
	)

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		u, err := s.users.FindByID(ctx, userID)
		if err != nil {
			return err
		}
		user = u
		return nil
	})

	g.Go(func() error {
		st, err := s.streaks.Status(ctx, userID)
		if err != nil {
			return err
		}
		streak = st
		return nil
	})

	g.Go(func() error {
		n, err := s.badges.CountAwards(ctx, userID)
		if err != nil {
			return err
		}
		badges = n
		return nil
	})

	g.Go(func() error {
		t, err := s.badges.Totals(ctx, userID)
		if err != nil {
			return err
		}
		totals = t
		return nil
	})

	g.Go(func() error {
		total, err := s.impact.TotalCO2(ctx, userID)
		if err != nil {
			return err
		}
		co2 = total
		return nil
	})

	g.Go(func() error {
		r, err := s.ranks.RankOf(ctx, userID, leaderboardDto.BoardPoints)
		if err != nil {
			return err
		}
		rank = r
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &dto.MyStatsResponse{
		UserID:          user.ID,
		Username:        user.Username,
		Points:          user.Points,
		Level:           engine.LevelProgressFor(user.Points),
		BadgesEarned:    badges,
		TotalActivities: totals.Activities,
		Impact:          engine.GenerateReport(co2),
		Rank:            rank,
	}
	if streak != nil {
		res.Streak = *streak
	}
	return res, nil
}

// GetAdminStats gathers the platform counters concurrently. "Today" and "this
// week" follow the engine's calendar; the week is the trailing seven days.
func (s *statService) GetAdminStats(ctx context.Context) (*dto.AdminStatsResponse, error) {
	now := s.clock.Now()
	startOfDay, _ := engine.DayBounds(now, s.clock.Location())
	weekAgo := now.AddDate(0, 0, -7)

	res := &dto.AdminStatsResponse{}
	g, ctx := errgroup.WithContext(ctx)

	count := func(dst *int64, fn func(context.Context) (int64, error)) {
		g.Go(func() error {
			n, err := fn(ctx)
			if err != nil {
				return err
			}
			*dst = n
			return nil
		})
	}

	count(&res.TotalUsers, func(ctx context.Context) (int64, error) {
		return s.platform.CountUsers(ctx, time.Time{})
	})
	count(&res.NewUsersThisWeek, func(ctx context.Context) (int64, error) {
		return s.platform.CountUsers(ctx, weekAgo)
	})
	count(&res.TotalActivities, s.platform.CountActivities)
	count(&res.TotalCompletions, func(ctx context.Context) (int64, error) {
		return s.platform.CountCompletions(ctx, time.Time{})
	})
	count(&res.CompletionsToday, func(ctx context.Context) (int64, error) {
		return s.platform.CountCompletions(ctx, startOfDay)
	})
	count(&res.TotalPoints, s.platform.SumUserPoints)
	count(&res.TotalBadgesAwarded, s.platform.CountBadgeAwards)
	count(&res.TotalChallenges, func(ctx context.Context) (int64, error) {
		return s.platform.CountChallenges(ctx, time.Time{})
	})
	count(&res.ActiveChallenges, func(ctx context.Context) (int64, error) {
		return s.platform.CountChallenges(ctx, now)
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return res, nil
}
