package engine

import (
	"fmt"
	"time"

	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/pkg/apperror"
)

// ValidateChallenge rejects definitions the progress tracker cannot run.
func ValidateChallenge(c *entity.Challenge) error {
	if c == nil {
		return fmt.Errorf("%w: challenge is required", apperror.ErrValidation)
	}
	if c.TargetValue <= 0 {
		return fmt.Errorf("%w: target value must be positive", apperror.ErrValidation)
	}
	switch c.TargetDimension {
	case entity.TargetPoints, entity.TargetActivities:
	default:
		return fmt.Errorf("%w: unknown target dimension %q", apperror.ErrValidation, c.TargetDimension)
	}
	switch c.Period {
	case entity.PeriodWeekly, entity.PeriodMonthly:
	default:
		return fmt.Errorf("%w: unknown period %q", apperror.ErrValidation, c.Period)
	}
	if !c.EndDate.After(c.StartDate) {
		return fmt.Errorf("%w: end date must be after start date", apperror.ErrValidation)
	}
	if c.RewardPoints < 0 {
		return fmt.Errorf("%w: reward points cannot be negative", apperror.ErrValidation)
	}
	if c.TargetCategory != nil && !c.TargetCategory.Valid() {
		return fmt.Errorf("%w: unknown category %q", apperror.ErrValidation, *c.TargetCategory)
	}
	return nil
}

// InWindow reports whether t falls inside [StartDate, EndDate).
func InWindow(c *entity.Challenge, t time.Time) bool {
	return !t.Before(c.StartDate) && t.Before(c.EndDate)
}

// Qualifies reports whether a completion counts toward the challenge.
func Qualifies(c *entity.Challenge, comp *entity.Completion) bool {
	if !InWindow(c, comp.CompletedAt) {
		return false
	}
	if c.TargetCategory == nil || *c.TargetCategory == "" {
		return true
	}
	return comp.Category.Normalize() == c.TargetCategory.Normalize()
}

// Contribution is the amount a completion adds to progress: 1 per activity, or its points.
func Contribution(c *entity.Challenge, comp *entity.Completion) int {
	if !Qualifies(c, comp) {
		return 0
	}
	switch c.TargetDimension {
	case entity.TargetActivities:
		return 1
	case entity.TargetPoints:
		if comp.PointsEarned > 0 {
			return comp.PointsEarned
		}
	}
	return 0
}

// RecomputeProgress rebuilds progress from scratch. It agrees with a sequence of
// ApplyCompletion calls over the same completions.
func RecomputeProgress(c *entity.Challenge, completions []entity.Completion) int {
	total := 0
	for i := range completions {
		total += Contribution(c, &completions[i])
	}
	return total
}

type ProgressResult struct {
	Changed   bool
	Completed bool // true only on the call that crossed the target
	Increment int
}

// ApplyCompletion adds one completion to m incrementally. Completed memberships and
// completions outside the window are ignored.
func ApplyCompletion(c *entity.Challenge, m *entity.ChallengeMembership, comp *entity.Completion) ProgressResult {
	if m.IsCompleted {
		return ProgressResult{}
	}
	inc := Contribution(c, comp)
	if inc == 0 {
		return ProgressResult{}
	}
	m.Progress += inc
	res := ProgressResult{Changed: true, Increment: inc}
	if m.Progress >= c.TargetValue {
		markCompleted(m, comp.CompletedAt)
		res.Completed = true
	}
	return res
}

// SettleProgress sets progress to a rescanned value and fires the completion transition
// when the target is met. It is used on join.
func SettleProgress(c *entity.Challenge, m *entity.ChallengeMembership, progress int, at time.Time) bool {
	if m.IsCompleted {
		return false
	}
	m.Progress = progress
	if c.TargetValue > 0 && m.Progress >= c.TargetValue {
		markCompleted(m, at)
		return true
	}
	return false
}

func markCompleted(m *entity.ChallengeMembership, at time.Time) {
	m.IsCompleted = true
	completedAt := at
	m.CompletedAt = &completedAt
}

// DisplayProgress clamps progress to the target for presentation.
func DisplayProgress(c *entity.Challenge, progress int) (clamped int, percent int) {
	clamped = progress
	if clamped > c.TargetValue {
		clamped = c.TargetValue
	}
	if clamped < 0 {
		clamped = 0
	}
	if c.TargetValue > 0 {
		percent = clamped * 100 / c.TargetValue
	}
	return clamped, percent
}

// ChallengeState is the derived lifecycle label of a membership at a point in time.
func ChallengeState(c *entity.Challenge, m *entity.ChallengeMembership, now time.Time) string {
	switch {
	case m == nil:
		return "not_joined"
	case m.IsCompleted:
		return "completed"
	case !now.Before(c.EndDate):
		return "expired"
	default:
		return "active"
	}
}

// PeriodWindow returns the window of the period containing now: Monday to Monday for
// weekly, first of month to first of next month for monthly.
func PeriodWindow(period entity.ChallengePeriod, now time.Time, loc *time.Location) (time.Time, time.Time) {
	day := CalendarDay(now, loc)
	switch period {
	case entity.PeriodMonthly:
		start := time.Date(day.Year(), day.Month(), 1, 0, 0, 0, 0, day.Location())
		return start, start.AddDate(0, 1, 0)
	default:
		offset := (int(day.Weekday()) + 6) % 7
		start := day.AddDate(0, 0, -offset)
		return start, start.AddDate(0, 0, 7)
	}
}

// Recurring builds the auto-created challenge for the period containing now.
func Recurring(period entity.ChallengePeriod, now time.Time, loc *time.Location) entity.Challenge {
	start, end := PeriodWindow(period, now, loc)
	if period == entity.PeriodMonthly {
		return entity.Challenge{
			Name:            "Monthly Eco Champion",
			Description:     "Earn 500 points from eco activities this month",
			Period:          entity.PeriodMonthly,
			TargetDimension: entity.TargetPoints,
			TargetValue:     500,
			RewardPoints:    200,
			StartDate:       start,
			EndDate:         end,
			IsActive:        true,
		}
	}
	return entity.Challenge{
		Name:            "Weekly Green Habit",
		Description:     "Complete 20 eco activities this week",
		Period:          entity.PeriodWeekly,
		TargetDimension: entity.TargetActivities,
		TargetValue:     20,
		RewardPoints:    100,
		StartDate:       start,
		EndDate:         end,
		IsActive:        true,
	}
}
