package service

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/internal/modules/activity/dto"
	"anoa.com/ecotrack/internal/modules/activity/repository"
	"anoa.com/ecotrack/pkg/apperror"
	commonDto "anoa.com/ecotrack/pkg/dto"
	"anoa.com/ecotrack/pkg/ratelimit"
	"anoa.com/ecotrack/pkg/sanitizer"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Completer runs the completion transaction. *engine.Engine satisfies it.
type Completer interface {
	Complete(ctx context.Context, userID, activityID uuid.UUID, at time.Time) (*engine.CompletionSummary, error)
	Location() *time.Location
	Now() time.Time
}

type CompletionNotifier interface {
	NotifyCompletion(ctx context.Context, userID uuid.UUID, summary *engine.CompletionSummary)
}

type LeaderboardInvalidator interface {
	Invalidate(ctx context.Context) error
}

const defaultIcon = "default"

type ActivityService interface {
	ListActivities(ctx context.Context, userID uuid.UUID, filter dto.ActivityFilter) ([]dto.ActivityResponse, error)
	CompleteActivity(ctx context.Context, userID, activityID uuid.UUID) (*engine.CompletionSummary, error)
	History(ctx context.Context, userID uuid.UUID, q commonDto.PaginationQuery) ([]dto.HistoryItem, commonDto.PaginationMeta, error)
	Today(ctx context.Context, userID uuid.UUID) (*dto.TodaySummary, error)

	CreateActivity(ctx context.Context, req dto.CreateActivityRequest) (*dto.ActivityResponse, error)
	UpdateActivity(ctx context.Context, id uuid.UUID, req dto.UpdateActivityRequest) (*dto.ActivityResponse, error)
	DeactivateActivity(ctx context.Context, id uuid.UUID) error
}

type activityService struct {
	repo        repository.ActivityRepository
	engine      Completer
	notifier    CompletionNotifier
	leaderboard LeaderboardInvalidator
	redisClient *redis.Client
	cooldown    time.Duration
}

func NewActivityService(
	repo repository.ActivityRepository,
	completer Completer,
	notifier CompletionNotifier,
	leaderboard LeaderboardInvalidator,
	redisClient *redis.Client,
	cooldown time.Duration,
) ActivityService {
	return &activityService{
		repo:        repo,
		engine:      completer,
		notifier:    notifier,
		leaderboard: leaderboard,
		redisClient: redisClient,
		cooldown:    cooldown,
	}
}

func (s *activityService) ListActivities(ctx context.Context, userID uuid.UUID, filter dto.ActivityFilter) ([]dto.ActivityResponse, error) {
	activities, err := s.repo.FindAll(ctx, entity.Category(filter.Category), filter.IncludeInactive)
	if err != nil {
		return nil, err
	}

	from, to := engine.DayBounds(s.engine.Now(), s.engine.Location())
	done, err := s.repo.CompletedActivityIDs(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	out := make([]dto.ActivityResponse, 0, len(activities))
	for i := range activities {
		res := toResponse(&activities[i])
		res.CompletedToday = done[activities[i].ID]
		out = append(out, res)
	}
	return out, nil
}

func (s *activityService) CompleteActivity(ctx context.Context, userID, activityID uuid.UUID) (*engine.CompletionSummary, error) {
	action := "complete:" + activityID.String()

	allowed, err := ratelimit.CheckAndSet(ctx, s.redisClient, userID, action, s.cooldown)
	if err != nil {
		// Redis is optional; the engine still serializes the user and enforces once per day.
		log.Printf("⚠️ Completion cooldown unavailable: %v", err)
		allowed = true
	}
	if !allowed {
		return nil, apperror.New(http.StatusTooManyRequests, "please wait before completing this activity again", apperror.ErrRateLimitExceeded)
	}

	// Repeats on the same day are rejected by the engine under the user's row lock.
	summary, err := s.engine.Complete(ctx, userID, activityID, s.engine.Now())
	if err != nil {
		if clearErr := ratelimit.Clear(ctx, s.redisClient, userID, action); clearErr != nil {
			log.Printf("Failed to clear completion cooldown: %v", clearErr)
		}
		return nil, err
	}

	s.notifier.NotifyCompletion(ctx, userID, summary)
	if err := s.leaderboard.Invalidate(ctx); err != nil {
		log.Printf("Failed to invalidate leaderboard cache: %v", err)
	}

	return summary, nil
}

func (s *activityService) History(ctx context.Context, userID uuid.UUID, q commonDto.PaginationQuery) ([]dto.HistoryItem, commonDto.PaginationMeta, error) {
	q.Normalize()
	completions, total, err := s.repo.History(ctx, userID, q.Limit, q.Offset())
	if err != nil {
		return nil, commonDto.PaginationMeta{}, err
	}
	return toHistory(completions), commonDto.NewPaginationMeta(q, total), nil
}

func (s *activityService) Today(ctx context.Context, userID uuid.UUID) (*dto.TodaySummary, error) {
	now := s.engine.Now()
	loc := s.engine.Location()
	dayStart, dayEnd := engine.DayBounds(now, loc)
	weekStart, weekEnd := engine.PeriodWindow(entity.PeriodWeekly, now, loc)

	completions, err := s.repo.ListCompletions(ctx, userID, weekStart, weekEnd)
	if err != nil {
		return nil, err
	}

	summary := &dto.TodaySummary{
		Date:        dayStart.Format("2006-01-02"),
		Completions: []dto.HistoryItem{},
	}
	var today []entity.Completion
	for _, c := range completions {
		summary.WeekCount++
		summary.WeekPoints += c.PointsEarned
		if !c.CompletedAt.Before(dayStart) && c.CompletedAt.Before(dayEnd) {
			today = append(today, c)
			summary.PointsToday += c.PointsEarned
		}
	}
	summary.CompletedCount = len(today)
	summary.CO2Today = engine.TotalCO2(today)
	if len(today) > 0 {
		summary.Completions = toHistory(today)
	}
	return summary, nil
}

func (s *activityService) CreateActivity(ctx context.Context, req dto.CreateActivityRequest) (*dto.ActivityResponse, error) {
	category := entity.Category(req.Category).Normalize()
	if !category.Valid() {
		return nil, fmt.Errorf("%w: unknown category %q", apperror.ErrValidation, req.Category)
	}

	name := sanitizer.Text(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperror.ErrValidation)
	}

	icon := iconOrDefault(req.Icon)

	activity := &entity.Activity{
		Name:        name,
		Description: sanitizer.Text(req.Description),
		Category:    category,
		Points:      req.Points,
		Icon:        icon,
		IsActive:    true,
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, err
	}

	res := toResponse(activity)
	return &res, nil
}

func (s *activityService) UpdateActivity(ctx context.Context, id uuid.UUID, req dto.UpdateActivityRequest) (*dto.ActivityResponse, error) {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		name := sanitizer.Text(*req.Name)
		if name == "" {
			return nil, fmt.Errorf("%w: name is required", apperror.ErrValidation)
		}
		activity.Name = name
	}
	if req.Description != nil {
		activity.Description = sanitizer.Text(*req.Description)
	}
	if req.Category != nil {
		category := entity.Category(*req.Category).Normalize()
		if !category.Valid() {
			return nil, fmt.Errorf("%w: unknown category %q", apperror.ErrValidation, *req.Category)
		}
		activity.Category = category
	}
	if req.Points != nil {
		if *req.Points <= 0 {
			return nil, fmt.Errorf("%w: points must be positive", apperror.ErrValidation)
		}
		activity.Points = *req.Points
	}
	if req.Icon != nil {
		activity.Icon = iconOrDefault(*req.Icon)
	}
	if req.IsActive != nil {
		activity.IsActive = *req.IsActive
	}

	if err := s.repo.Update(ctx, activity); err != nil {
		return nil, err
	}

	res := toResponse(activity)
	return &res, nil
}

func iconOrDefault(icon string) string {
	if icon = strings.TrimSpace(icon); icon == "" {
		return defaultIcon
	}
	return icon
}

// DeactivateActivity hides the activity from new completions; history keeps its snapshot.
func (s *activityService) DeactivateActivity(ctx context.Context, id uuid.UUID) error {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if !activity.IsActive {
		return nil
	}
	activity.IsActive = false
	return s.repo.Update(ctx, activity)
}

func toResponse(a *entity.Activity) dto.ActivityResponse {
	return dto.ActivityResponse{
		ID:             a.ID,
		Name:           a.Name,
		Description:    a.Description,
		Category:       a.Category,
		Points:         a.Points,
		Icon:           a.Icon,
		IsActive:       a.IsActive,
		CO2PerComplete: engine.CalculateCO2(a.Category, a.Points),
	}
}

func toHistory(completions []entity.Completion) []dto.HistoryItem {
	items := make([]dto.HistoryItem, 0, len(completions))
	for _, c := range completions {
		item := dto.HistoryItem{
			ID:           c.ID,
			ActivityID:   c.ActivityID,
			Category:     c.Category,
			PointsEarned: c.PointsEarned,
			CO2Saved:     engine.CalculateCO2(c.Category, c.PointsEarned),
			CompletedAt:  c.CompletedAt,
		}
		if c.Activity != nil {
			item.ActivityName = c.Activity.Name
			item.Icon = c.Activity.Icon
		}
		items = append(items, item)
	}
	return items
}
