package engine

import (
	"testing"
	"time"

	"anoa.com/ecotrack/internal/entity"
	"github.com/google/uuid"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestAdvanceStreak(t *testing.T) {
	d1 := day(1)
	cases := []struct {
		name        string
		state       entity.Streak
		at          time.Time
		wantCurrent int
		wantLongest int
		wantUpdated bool
		wantRecord  bool
		wantBroken  bool
	}{
		{"first completion", entity.Streak{}, day(1).Add(10 * time.Hour), 1, 1, true, true, false},
		{"zero stored date treated as none", entity.Streak{LastActivityDate: &time.Time{}, CurrentStreak: 4, LongestStreak: 4}, day(1), 1, 4, true, false, false},
		{"same day no-op", entity.Streak{CurrentStreak: 3, LongestStreak: 5, LastActivityDate: &d1}, day(1).Add(23 * time.Hour), 3, 5, false, false, false},
		{"next day increments", entity.Streak{CurrentStreak: 3, LongestStreak: 5, LastActivityDate: &d1}, day(2).Add(time.Minute), 4, 5, true, false, false},
		{"new record", entity.Streak{CurrentStreak: 5, LongestStreak: 5, LastActivityDate: &d1}, day(2), 6, 6, true, true, false},
		{"gap resets", entity.Streak{CurrentStreak: 9, LongestStreak: 9, LastActivityDate: &d1}, day(4), 1, 9, true, false, true},
		{"future date resets", entity.Streak{CurrentStreak: 2, LongestStreak: 2, LastActivityDate: ptrTime(day(5))}, day(3), 1, 2, true, false, true},
		{"same day after sweep zeroed", entity.Streak{CurrentStreak: 0, LongestStreak: 4, LastActivityDate: &d1}, day(1), 1, 4, true, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			state := tc.state
			state.UserID = uuid.New()
			out := AdvanceStreak(&state, tc.at, time.UTC)

			if state.CurrentStreak != tc.wantCurrent || out.Current != tc.wantCurrent {
				t.Fatalf("current: expected %d, got state=%d outcome=%d", tc.wantCurrent, state.CurrentStreak, out.Current)
			}
			if state.LongestStreak != tc.wantLongest {
				t.Fatalf("longest: expected %d, got %d", tc.wantLongest, state.LongestStreak)
			}
			if out.Updated != tc.wantUpdated || out.IsNewRecord != tc.wantRecord || out.Broken != tc.wantBroken {
				t.Fatalf("unexpected outcome %+v", out)
			}
			if state.CurrentStreak > state.LongestStreak {
				t.Fatalf("current exceeds longest: %+v", state)
			}
			if tc.wantUpdated && !state.LastActivityDate.Equal(CalendarDay(tc.at, time.UTC)) {
				t.Fatalf("last activity date not moved to %v: %v", tc.at, state.LastActivityDate)
			}
		})
	}
}

func TestAdvanceStreakUsesConfiguredZone(t *testing.T) {
	jakarta := time.FixedZone("WIB", 7*3600)
	last := CalendarDay(time.Date(2026, time.March, 1, 12, 0, 0, 0, jakarta), jakarta)
	state := entity.Streak{CurrentStreak: 1, LongestStreak: 1, LastActivityDate: &last}

	// 18:00 UTC on March 1 is already March 2 in UTC+7.
	out := AdvanceStreak(&state, time.Date(2026, time.March, 1, 18, 0, 0, 0, time.UTC), jakarta)
	if out.Current != 2 {
		t.Fatalf("expected increment across local midnight, got %d", out.Current)
	}
}

func TestLongestNeverDecreases(t *testing.T) {
	state := entity.Streak{}
	longest := 0
	for _, d := range []int{1, 2, 3, 7, 8, 8, 20, 21, 22, 23} {
		AdvanceStreak(&state, day(d), time.UTC)
		if state.LongestStreak < longest {
			t.Fatalf("longest decreased on day %d", d)
		}
		longest = state.LongestStreak
	}
	if state.CurrentStreak != 4 || state.LongestStreak != 4 {
		t.Fatalf("expected 4/4, got %d/%d", state.CurrentStreak, state.LongestStreak)
	}
}

func TestStreakStatusAt(t *testing.T) {
	d1 := day(1)
	state := &entity.Streak{CurrentStreak: 3, LongestStreak: 6, LastActivityDate: &d1}

	today := StreakStatusAt(state, day(1).Add(5*time.Hour), time.UTC)
	if !today.IsActive || today.DaysUntilLost != 1 || today.CurrentStreak != 3 {
		t.Fatalf("unexpected same-day status %+v", today)
	}
	tomorrow := StreakStatusAt(state, day(2), time.UTC)
	if !tomorrow.IsActive || tomorrow.DaysUntilLost != 0 {
		t.Fatalf("unexpected next-day status %+v", tomorrow)
	}
	lost := StreakStatusAt(state, day(3), time.UTC)
	if lost.IsActive || lost.CurrentStreak != 0 || lost.LongestStreak != 6 {
		t.Fatalf("unexpected lapsed status %+v", lost)
	}
	if state.CurrentStreak != 3 {
		t.Fatalf("status must not mutate state")
	}

	if !IsStreakAtRisk(state, day(2), time.UTC) || IsStreakAtRisk(state, day(1), time.UTC) {
		t.Fatalf("at-risk only the day after the last completion")
	}
	if IsStreakExpired(state, day(2), time.UTC) || !IsStreakExpired(state, day(3), time.UTC) {
		t.Fatalf("expired only after a full missed day")
	}
	if IsStreakExpired(nil, day(3), time.UTC) {
		t.Fatalf("nil streak is never expired")
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
