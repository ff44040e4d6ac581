package engine

import (
	"time"

	"anoa.com/ecotrack/internal/entity"
)

// StreakOutcome reports what AdvanceStreak did to the state.
type StreakOutcome struct {
	Current     int  `json:"current_streak"`
	Longest     int  `json:"longest_streak"`
	Updated     bool `json:"updated"`
	IsNewRecord bool `json:"is_new_record"`
	Broken      bool `json:"broken"`
}

// AdvanceStreak applies a completion at `at` to state in place.
//
// Days are compared in loc. A missing or zero last-activity date counts as the first
// completion ever. A same-day completion is a no-op, the next day increments, any other
// gap (including a last date in the future) restarts the streak at 1.
func AdvanceStreak(state *entity.Streak, at time.Time, loc *time.Location) StreakOutcome {
	today := CalendarDay(at, loc)

	if state.LastActivityDate == nil || state.LastActivityDate.IsZero() {
		state.CurrentStreak = 1
		state.StreakStartDate = &today
		return finishStreak(state, today, false)
	}

	switch gap := DaysBetween(*state.LastActivityDate, today, loc); gap {
	case 0:
		if state.CurrentStreak > 0 {
			return StreakOutcome{Current: state.CurrentStreak, Longest: state.LongestStreak}
		}
		state.CurrentStreak = 1
		state.StreakStartDate = &today
		return finishStreak(state, today, false)
	case 1:
		state.CurrentStreak++
		if state.StreakStartDate == nil {
			state.StreakStartDate = &today
		}
		return finishStreak(state, today, false)
	default:
		broken := state.CurrentStreak > 0
		state.CurrentStreak = 1
		state.StreakStartDate = &today
		return finishStreak(state, today, broken)
	}
}

func finishStreak(state *entity.Streak, today time.Time, broken bool) StreakOutcome {
	isNewRecord := state.CurrentStreak > state.LongestStreak
	if isNewRecord {
		state.LongestStreak = state.CurrentStreak
	}
	state.LastActivityDate = &today

	return StreakOutcome{
		Current:     state.CurrentStreak,
		Longest:     state.LongestStreak,
		Updated:     true,
		IsNewRecord: isNewRecord,
		Broken:      broken,
	}
}

// StreakStatus is the read-side view of a streak at a point in time.
type StreakStatus struct {
	CurrentStreak    int        `json:"current_streak"`
	LongestStreak    int        `json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	StreakStartDate  *time.Time `json:"streak_start_date"`
	IsActive         bool       `json:"is_active"`
	// DaysUntilLost is 1 when today is already covered, 0 when today still needs a completion.
	DaysUntilLost int `json:"days_until_lost"`
}

// StreakStatusAt never mutates state; a streak whose last day is older than yesterday
// reports zero even before the sweep has persisted the reset.
func StreakStatusAt(state *entity.Streak, now time.Time, loc *time.Location) StreakStatus {
	if state == nil {
		return StreakStatus{}
	}
	status := StreakStatus{
		CurrentStreak:    state.CurrentStreak,
		LongestStreak:    state.LongestStreak,
		LastActivityDate: state.LastActivityDate,
		StreakStartDate:  state.StreakStartDate,
	}
	if state.LastActivityDate == nil || state.LastActivityDate.IsZero() {
		status.CurrentStreak = 0
		status.StreakStartDate = nil
		return status
	}

	switch gap := DaysBetween(*state.LastActivityDate, now, loc); {
	case gap == 0:
		status.IsActive = state.CurrentStreak > 0
		status.DaysUntilLost = 1
	case gap == 1:
		status.IsActive = state.CurrentStreak > 0
	default:
		status.CurrentStreak = 0
		status.StreakStartDate = nil
	}
	return status
}

// IsStreakExpired reports whether a non-zero streak missed at least one full day before now.
func IsStreakExpired(state *entity.Streak, now time.Time, loc *time.Location) bool {
	if state == nil || state.CurrentStreak == 0 || state.LastActivityDate == nil {
		return false
	}
	return DaysBetween(*state.LastActivityDate, now, loc) >= 2
}

// IsStreakAtRisk reports a live streak whose last completion was yesterday.
func IsStreakAtRisk(state *entity.Streak, now time.Time, loc *time.Location) bool {
	if state == nil || state.CurrentStreak == 0 || state.LastActivityDate == nil {
		return false
	}
	return DaysBetween(*state.LastActivityDate, now, loc) == 1
}
