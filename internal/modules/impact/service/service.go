package service

import (
	"context"
	"math"
	"sort"
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/internal/modules/impact/dto"
	"github.com/google/uuid"
)

// CompletionLister reads a user's completions in [from, to); zero bounds are open.
type CompletionLister interface {
	ListCompletions(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.Completion, error)
}

type Calendar interface {
	Location() *time.Location
	Now() time.Time
}

type ImpactService interface {
	GetImpact(ctx context.Context, userID uuid.UUID, period string) (*dto.ImpactResponse, error)
	TotalCO2(ctx context.Context, userID uuid.UUID) (float64, error)
}

type impactService struct {
	completions CompletionLister
	calendar    Calendar
}

func NewImpactService(completions CompletionLister, calendar Calendar) ImpactService {
	return &impactService{completions: completions, calendar: calendar}
}

func (s *impactService) GetImpact(ctx context.Context, userID uuid.UUID, period string) (*dto.ImpactResponse, error) {
	if period == "" {
		period = "all"
	}

	var from time.Time
	switch period {
	case "week":
		from, _ = engine.PeriodWindow(entity.PeriodWeekly, s.calendar.Now(), s.calendar.Location())
	case "month":
		from, _ = engine.PeriodWindow(entity.PeriodMonthly, s.calendar.Now(), s.calendar.Location())
	}

	completions, err := s.completions.ListCompletions(ctx, userID, from, time.Time{})
	if err != nil {
		return nil, err
	}

	res := &dto.ImpactResponse{
		Period:     period,
		Activities: len(completions),
		ByCategory: []dto.CategoryImpact{},
	}
	if !from.IsZero() {
		res.From = &from
	}

	byCategory := make(map[entity.Category]*dto.CategoryImpact)
	for _, c := range completions {
		category := c.Category.Normalize()
		item, ok := byCategory[category]
		if !ok {
			item = &dto.CategoryImpact{Category: category}
			byCategory[category] = item
		}
		item.Activities++
		item.Points += c.PointsEarned
		res.Points += c.PointsEarned
	}

	total := engine.TotalCO2(completions)
	res.Report = engine.GenerateReport(total)

	for category, co2 := range engine.CO2ByCategory(completions) {
		byCategory[category].CO2Saved = co2
	}
	for _, item := range byCategory {
		if total > 0 {
			item.SharePercent = math.Round(item.CO2Saved/total*10000) / 100
		}
		res.ByCategory = append(res.ByCategory, *item)
	}
	sort.Slice(res.ByCategory, func(i, j int) bool {
		if res.ByCategory[i].CO2Saved != res.ByCategory[j].CO2Saved {
			return res.ByCategory[i].CO2Saved > res.ByCategory[j].CO2Saved
		}
		return res.ByCategory[i].Category < res.ByCategory[j].Category
	})

	return res, nil
}

func (s *impactService) TotalCO2(ctx context.Context, userID uuid.UUID) (float64, error) {
	completions, err := s.completions.ListCompletions(ctx, userID, time.Time{}, time.Time{})
	if err != nil {
		return 0, err
	}
	return engine.TotalCO2(completions), nil
}
