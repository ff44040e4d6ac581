package engine

import (
	"context"
	"time"

	"anoa.com/ecotrack/internal/entity"
	"github.com/google/uuid"
)

// Window is the half-open interval [From, To). A zero bound is unbounded.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	if !w.From.IsZero() && t.Before(w.From) {
		return false
	}
	if !w.To.IsZero() && !t.Before(w.To) {
		return false
	}
	return true
}

// Store is the persistence the engine runs against.
//
// Lookups of a single missing record return an error wrapping apperror.ErrNotFound,
// except GetStreak and GetChallengeMembership which return nil, nil. A lost optimistic
// update is reported as apperror.ErrConflict.
type Store interface {
	// WithinUserTx runs fn in one transaction holding the user's row lock. Everything fn
	// writes through tx commits together or not at all.
	WithinUserTx(ctx context.Context, userID uuid.UUID, fn func(tx Store) error) error

	GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error)
	// UpdateUserPoints writes points and level if the stored version still equals
	// expectedVersion, and bumps the version.
	UpdateUserPoints(ctx context.Context, userID uuid.UUID, points, level int, expectedVersion int64) error

	GetActivity(ctx context.Context, activityID uuid.UUID) (*entity.Activity, error)
	AppendCompletion(ctx context.Context, c *entity.Completion) error
	CountCompletions(ctx context.Context, userID uuid.UUID) (int64, error)
	ListCompletions(ctx context.Context, userID uuid.UUID, w Window) ([]entity.Completion, error)

	GetStreak(ctx context.Context, userID uuid.UUID) (*entity.Streak, error)
	UpsertStreak(ctx context.Context, s *entity.Streak) error

	HasBadge(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error)
	ListAwardedBadges(ctx context.Context, userID uuid.UUID) ([]string, error)
	// AwardBadge reports false when the user already held the badge.
	AwardBadge(ctx context.Context, userID uuid.UUID, badgeID string, at time.Time) (bool, error)

	GetChallenge(ctx context.Context, challengeID uuid.UUID) (*entity.Challenge, error)
	GetChallengeMembership(ctx context.Context, userID, challengeID uuid.UUID) (*entity.ChallengeMembership, error)
	// ListActiveMemberships returns un-completed memberships whose challenge is active
	// and whose window contains at, with Challenge populated.
	ListActiveMemberships(ctx context.Context, userID uuid.UUID, at time.Time) ([]entity.ChallengeMembership, error)
	UpsertChallengeMembership(ctx context.Context, m *entity.ChallengeMembership) error
}
