// Package engine holds the gamification rules: points and levels, daily streaks,
// threshold badges, challenge progress and leaderboard ranking. The Engine type runs
// the per-user completion transaction against a Store.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"time"

	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/internal/metrics"
	"anoa.com/ecotrack/pkg/apperror"
	"github.com/google/uuid"
)

const DefaultMaxConflictRetries = 3

type Config struct {
	// Location decides where calendar days start. Defaults to UTC.
	Location *time.Location
	// MaxConflictRetries of zero selects DefaultMaxConflictRetries; negative disables retrying.
	MaxConflictRetries int
	BadgeRules         []BadgeRule
	Clock              Clock
	// OncePerDay rejects a second completion of the same activity on one calendar day.
	// The check runs under the user's row lock, so concurrent requests cannot both pass.
	OncePerDay bool
}

type Engine struct {
	store      Store
	loc        *time.Location
	maxRetries int
	rules      []BadgeRule
	clock      Clock
	locks      *userLocks
	oncePerDay bool
}

func New(store Store, cfg Config) *Engine {
	e := &Engine{
		store:      store,
		loc:        cfg.Location,
		maxRetries: cfg.MaxConflictRetries,
		rules:      cfg.BadgeRules,
		clock:      cfg.Clock,
		locks:      newUserLocks(),
		oncePerDay: cfg.OncePerDay,
	}
	if e.loc == nil {
		e.loc = time.UTC
	}
	if e.maxRetries < 0 {
		e.maxRetries = 0
	}
	if cfg.MaxConflictRetries == 0 {
		e.maxRetries = DefaultMaxConflictRetries
	}
	if e.rules == nil {
		e.rules = DefaultBadgeRules
	}
	if e.clock == nil {
		e.clock = SystemClock()
	}
	return e
}

func (e *Engine) Location() *time.Location { return e.loc }
func (e *Engine) Rules() []BadgeRule       { return e.rules }
func (e *Engine) Now() time.Time           { return e.clock.Now() }

type CompletedChallenge struct {
	ChallengeID   uuid.UUID `json:"challenge_id"`
	Name          string    `json:"name"`
	RewardPoints  int       `json:"reward_points"`
	RewardBadgeID *string   `json:"reward_badge_id,omitempty"`
}

type CompletionSummary struct {
	CompletionID        uuid.UUID            `json:"completion_id"`
	ActivityID          uuid.UUID            `json:"activity_id"`
	Category            entity.Category      `json:"category"`
	PointsEarned        int                  `json:"points_earned"`
	TotalPoints         int                  `json:"total_points"`
	Level               int                  `json:"level"`
	LevelUp             bool                 `json:"level_up"`
	CO2Saved            float64              `json:"co2_saved"`
	Streak              StreakOutcome        `json:"streak"`
	NewBadges           []string             `json:"new_badges"`
	CompletedChallenges []CompletedChallenge `json:"completed_challenges"`
	CompletedAt         time.Time            `json:"completed_at"`
}

type JoinResult struct {
	Membership *entity.ChallengeMembership `json:"membership"`
	Completed  *CompletedChallenge         `json:"completed,omitempty"`
	NewBadges  []string                    `json:"new_badges"`
	// TotalPoints and Level are only meaningful when Completed is set.
	TotalPoints int `json:"total_points"`
	Level       int `json:"level"`
}

// txState is the user's mutable state as seen inside one transaction attempt.
type txState struct {
	user      *entity.User
	awarded   map[string]bool
	newBadges []string
	at        time.Time
}

// Complete records that userID performed activityID at `at` and applies every
// consequence in one transaction: points, level, streak, badges and challenge progress.
// A zero `at` means now.
func (e *Engine) Complete(ctx context.Context, userID, activityID uuid.UUID, at time.Time) (*CompletionSummary, error) {
	if at.IsZero() {
		at = e.clock.Now()
	}

	unlock := e.locks.Lock(userID)
	defer unlock()

	var summary *CompletionSummary
	err := e.retry(ctx, func() error {
		s, err := e.complete(ctx, userID, activityID, at)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.CompletionsTotal.WithLabelValues(string(summary.Category)).Inc()
	metrics.PointsAwardedTotal.WithLabelValues("activity").Add(float64(summary.PointsEarned))
	for _, b := range summary.NewBadges {
		metrics.BadgesAwardedTotal.WithLabelValues(b).Inc()
	}
	for _, c := range summary.CompletedChallenges {
		metrics.ChallengesCompletedTotal.Inc()
		metrics.PointsAwardedTotal.WithLabelValues("challenge").Add(float64(c.RewardPoints))
	}
	return summary, nil
}

func (e *Engine) complete(ctx context.Context, userID, activityID uuid.UUID, at time.Time) (*CompletionSummary, error) {
	var summary *CompletionSummary

	err := e.store.WithinUserTx(ctx, userID, func(tx Store) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}

		activity, err := tx.GetActivity(ctx, activityID)
		if err != nil {
			return err
		}
		if !activity.IsActive {
			return fmt.Errorf("activity %s is inactive: %w", activityID, apperror.ErrNotFound)
		}

		if e.oncePerDay {
			done, err := e.completedOn(ctx, tx, userID, activityID, at)
			if err != nil {
				return err
			}
			if done {
				return fmt.Errorf("%w: activity already completed today", apperror.ErrValidation)
			}
		}

		completion := &entity.Completion{
			UserID:       userID,
			ActivityID:   activity.ID,
			Category:     activity.Category.Normalize(),
			PointsEarned: activity.Points,
			CompletedAt:  at,
		}
		if err := tx.AppendCompletion(ctx, completion); err != nil {
			return fmt.Errorf("append completion: %w", err)
		}

		st, err := e.loadState(ctx, tx, user, at)
		if err != nil {
			return err
		}
		startLevel := user.Level

		if err := e.setPoints(ctx, tx, st, user.Points+activity.Points); err != nil {
			return err
		}

		streak, err := tx.GetStreak(ctx, userID)
		if err != nil {
			return fmt.Errorf("get streak: %w", err)
		}
		if streak == nil {
			streak = &entity.Streak{UserID: userID}
		}
		outcome := AdvanceStreak(streak, at, e.loc)
		if outcome.Updated {
			if err := tx.UpsertStreak(ctx, streak); err != nil {
				return fmt.Errorf("upsert streak: %w", err)
			}
		}

		count, err := tx.CountCompletions(ctx, userID)
		if err != nil {
			return fmt.Errorf("count completions: %w", err)
		}
		totals := Totals{Points: st.user.Points, Activities: count, CurrentStreak: streak.CurrentStreak}
		if err := e.evaluate(ctx, tx, st, totals); err != nil {
			return err
		}

		memberships, err := tx.ListActiveMemberships(ctx, userID, at)
		if err != nil {
			return fmt.Errorf("list memberships: %w", err)
		}
		var completed []CompletedChallenge
		for i := range memberships {
			m := &memberships[i]
			ch, err := e.challengeOf(ctx, tx, m)
			if err != nil {
				return err
			}
			res := ApplyCompletion(ch, m, completion)
			if !res.Changed {
				continue
			}
			if err := tx.UpsertChallengeMembership(ctx, m); err != nil {
				return fmt.Errorf("upsert membership: %w", err)
			}
			if res.Completed {
				cc, err := e.grantReward(ctx, tx, st, ch)
				if err != nil {
					return err
				}
				completed = append(completed, cc)
			}
		}

		// Reward points can cross point thresholds the first pass did not see.
		if len(completed) > 0 {
			totals.Points = st.user.Points
			if err := e.evaluate(ctx, tx, st, totals); err != nil {
				return err
			}
		}

		sort.Strings(st.newBadges)
		summary = &CompletionSummary{
			CompletionID:        completion.ID,
			ActivityID:          activity.ID,
			Category:            completion.Category,
			PointsEarned:        activity.Points,
			TotalPoints:         st.user.Points,
			Level:               st.user.Level,
			LevelUp:             st.user.Level > startLevel,
			CO2Saved:            CalculateCO2(completion.Category, completion.PointsEarned),
			Streak:              outcome,
			NewBadges:           nonNil(st.newBadges),
			CompletedChallenges: completed,
			CompletedAt:         at,
		}
		if summary.CompletedChallenges == nil {
			summary.CompletedChallenges = []CompletedChallenge{}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return summary, nil
}

// JoinChallenge opts userID into a challenge. Progress starts from the user's qualifying
// completions already inside the window; if those meet the target the reward is issued
// in the same transaction.
func (e *Engine) JoinChallenge(ctx context.Context, userID, challengeID uuid.UUID) (*JoinResult, error) {
	at := e.clock.Now()

	unlock := e.locks.Lock(userID)
	defer unlock()

	var result *JoinResult
	err := e.retry(ctx, func() error {
		r, err := e.join(ctx, userID, challengeID, at)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Completed != nil {
		metrics.ChallengesCompletedTotal.Inc()
		metrics.PointsAwardedTotal.WithLabelValues("challenge").Add(float64(result.Completed.RewardPoints))
	}
	for _, b := range result.NewBadges {
		metrics.BadgesAwardedTotal.WithLabelValues(b).Inc()
	}
	return result, nil
}

func (e *Engine) join(ctx context.Context, userID, challengeID uuid.UUID, at time.Time) (*JoinResult, error) {
	var result *JoinResult

	err := e.store.WithinUserTx(ctx, userID, func(tx Store) error {
		user, err := tx.GetUser(ctx, userID)
		if err != nil {
			return err
		}
		ch, err := tx.GetChallenge(ctx, challengeID)
		if err != nil {
			return err
		}
		if err := ValidateChallenge(ch); err != nil {
			return err
		}
		if !ch.IsActive {
			return fmt.Errorf("%w: challenge is not active", apperror.ErrValidation)
		}
		if !at.Before(ch.EndDate) {
			return fmt.Errorf("%w: challenge has ended", apperror.ErrValidation)
		}

		existing, err := tx.GetChallengeMembership(ctx, userID, challengeID)
		if err != nil {
			return fmt.Errorf("get membership: %w", err)
		}
		if existing != nil {
			return fmt.Errorf("%w: already joined this challenge", apperror.ErrValidation)
		}

		completions, err := tx.ListCompletions(ctx, userID, Window{From: ch.StartDate, To: ch.EndDate})
		if err != nil {
			return fmt.Errorf("list completions: %w", err)
		}

		m := &entity.ChallengeMembership{
			UserID:      userID,
			ChallengeID: ch.ID,
			JoinedAt:    at,
		}
		done := SettleProgress(ch, m, RecomputeProgress(ch, completions), at)
		if err := tx.UpsertChallengeMembership(ctx, m); err != nil {
			return fmt.Errorf("upsert membership: %w", err)
		}
		m.Challenge = ch

		result = &JoinResult{Membership: m, NewBadges: []string{}, TotalPoints: user.Points, Level: user.Level}
		if !done {
			return nil
		}

		st, err := e.loadState(ctx, tx, user, at)
		if err != nil {
			return err
		}
		cc, err := e.grantReward(ctx, tx, st, ch)
		if err != nil {
			return err
		}

		count, err := tx.CountCompletions(ctx, userID)
		if err != nil {
			return fmt.Errorf("count completions: %w", err)
		}
		current := 0
		if streak, err := tx.GetStreak(ctx, userID); err != nil {
			return fmt.Errorf("get streak: %w", err)
		} else if streak != nil {
			current = streak.CurrentStreak
		}
		if err := e.evaluate(ctx, tx, st, Totals{Points: st.user.Points, Activities: count, CurrentStreak: current}); err != nil {
			return err
		}

		sort.Strings(st.newBadges)
		result.Completed = &cc
		result.NewBadges = nonNil(st.newBadges)
		result.TotalPoints = st.user.Points
		result.Level = st.user.Level
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) completedOn(ctx context.Context, tx Store, userID, activityID uuid.UUID, at time.Time) (bool, error) {
	from, to := DayBounds(at, e.loc)
	today, err := tx.ListCompletions(ctx, userID, Window{From: from, To: to})
	if err != nil {
		return false, fmt.Errorf("list completions: %w", err)
	}
	for _, c := range today {
		if c.ActivityID == activityID {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) loadState(ctx context.Context, tx Store, user *entity.User, at time.Time) (*txState, error) {
	ids, err := tx.ListAwardedBadges(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	awarded := make(map[string]bool, len(ids))
	for _, id := range ids {
		awarded[id] = true
	}
	return &txState{user: user, awarded: awarded, at: at}, nil
}

func (e *Engine) setPoints(ctx context.Context, tx Store, st *txState, points int) error {
	level := LevelFor(points)
	if err := tx.UpdateUserPoints(ctx, st.user.ID, points, level, st.user.Version); err != nil {
		return fmt.Errorf("update points: %w", err)
	}
	st.user.Points = points
	st.user.Level = level
	st.user.Version++
	return nil
}

func (e *Engine) evaluate(ctx context.Context, tx Store, st *txState, totals Totals) error {
	for _, id := range EvaluateBadges(e.rules, totals, st.awarded) {
		if err := e.award(ctx, tx, st, id); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) award(ctx context.Context, tx Store, st *txState, badgeID string) error {
	if st.awarded[badgeID] {
		return nil
	}
	created, err := tx.AwardBadge(ctx, st.user.ID, badgeID, st.at)
	if err != nil {
		return fmt.Errorf("award badge %s: %w", badgeID, err)
	}
	st.awarded[badgeID] = true
	if created {
		st.newBadges = append(st.newBadges, badgeID)
	}
	return nil
}

func (e *Engine) grantReward(ctx context.Context, tx Store, st *txState, ch *entity.Challenge) (CompletedChallenge, error) {
	cc := CompletedChallenge{ChallengeID: ch.ID, Name: ch.Name, RewardPoints: ch.RewardPoints}
	if ch.RewardPoints > 0 {
		if err := e.setPoints(ctx, tx, st, st.user.Points+ch.RewardPoints); err != nil {
			return cc, err
		}
	}
	if ch.RewardBadgeID != nil && *ch.RewardBadgeID != "" {
		has, err := tx.HasBadge(ctx, st.user.ID, *ch.RewardBadgeID)
		if err != nil {
			return cc, fmt.Errorf("check badge: %w", err)
		}
		if has {
			st.awarded[*ch.RewardBadgeID] = true
		} else if err := e.award(ctx, tx, st, *ch.RewardBadgeID); err != nil {
			return cc, err
		}
		cc.RewardBadgeID = ch.RewardBadgeID
	}
	return cc, nil
}

func (e *Engine) challengeOf(ctx context.Context, tx Store, m *entity.ChallengeMembership) (*entity.Challenge, error) {
	if m.Challenge != nil {
		return m.Challenge, nil
	}
	ch, err := tx.GetChallenge(ctx, m.ChallengeID)
	if err != nil {
		return nil, fmt.Errorf("get challenge %s: %w", m.ChallengeID, err)
	}
	m.Challenge = ch
	return ch, nil
}

// retry re-runs fn while it fails with apperror.ErrConflict, up to maxRetries extra times.
func (e *Engine) retry(ctx context.Context, fn func() error) error {
	var err error
	for attempt := 0; attempt <= e.maxRetries; attempt++ {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		err = fn()
		if err == nil || !errors.Is(err, apperror.ErrConflict) {
			return err
		}
		if attempt < e.maxRetries {
			metrics.ConflictRetriesTotal.Inc()
			log.Printf("⚠️ conflict on user transaction, retrying (%d/%d): %v", attempt+1, e.maxRetries, err)
		}
	}
	return fmt.Errorf("gave up after %d attempts: %w", e.maxRetries+1, err)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
