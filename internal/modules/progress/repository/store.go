// Package repository implements engine.Store on top of gorm and Postgres.
package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/pkg/apperror"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

type store struct {
	db *gorm.DB
}

func NewStore(db *gorm.DB) engine.Store {
	return &store{db: db}
}

// WithinUserTx locks the user row with SELECT ... FOR UPDATE for the rest of the transaction,
// so completions for the same user serialize across instances too.
func (s *store) WithinUserTx(ctx context.Context, userID uuid.UUID, fn func(tx engine.Store) error) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked entity.User
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("id").
			First(&locked, "id = ?", userID).Error; err != nil {
			return mapError(err, "user")
		}
		return fn(&store{db: tx})
	})
	return mapError(err, "transaction")
}

func (s *store) GetUser(ctx context.Context, userID uuid.UUID) (*entity.User, error) {
	var user entity.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", userID).Error; err != nil {
		return nil, mapError(err, "user")
	}
	return &user, nil
}

func (s *store) UpdateUserPoints(ctx context.Context, userID uuid.UUID, points, level int, expectedVersion int64) error {
	res := s.db.WithContext(ctx).Model(&entity.User{}).
		Where("id = ? AND version = ?", userID, expectedVersion).
		Updates(map[string]interface{}{
			"points":  points,
			"level":   level,
			"version": gorm.Expr("version + 1"),
		})
	if res.Error != nil {
		return mapError(res.Error, "user")
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %s changed since version %d: %w", userID, expectedVersion, apperror.ErrConflict)
	}
	return nil
}

func (s *store) GetActivity(ctx context.Context, activityID uuid.UUID) (*entity.Activity, error) {
	var activity entity.Activity
	if err := s.db.WithContext(ctx).First(&activity, "id = ?", activityID).Error; err != nil {
		return nil, mapError(err, "activity")
	}
	return &activity, nil
}

func (s *store) AppendCompletion(ctx context.Context, c *entity.Completion) error {
	return mapError(s.db.WithContext(ctx).Omit(clause.Associations).Create(c).Error, "completion")
}

func (s *store) CountCompletions(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entity.Completion{}).Where("user_id = ?", userID).Count(&count).Error
	return count, mapError(err, "completion")
}

func (s *store) ListCompletions(ctx context.Context, userID uuid.UUID, w engine.Window) ([]entity.Completion, error) {
	var completions []entity.Completion
	query := s.db.WithContext(ctx).Where("user_id = ?", userID)
	if !w.From.IsZero() {
		query = query.Where("completed_at >= ?", w.From)
	}
	if !w.To.IsZero() {
		query = query.Where("completed_at < ?", w.To)
	}
	if err := query.Order("completed_at ASC").Find(&completions).Error; err != nil {
		return nil, mapError(err, "completion")
	}
	return completions, nil
}

func (s *store) GetStreak(ctx context.Context, userID uuid.UUID) (*entity.Streak, error) {
	var streak entity.Streak
	err := s.db.WithContext(ctx).First(&streak, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "streak")
	}
	return &streak, nil
}

func (s *store) UpsertStreak(ctx context.Context, streak *entity.Streak) error {
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		UpdateAll: true,
	}).Create(streak).Error
	return mapError(err, "streak")
}

func (s *store) HasBadge(ctx context.Context, userID uuid.UUID, badgeID string) (bool, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&entity.BadgeAward{}).
		Where("user_id = ? AND badge_id = ?", userID, badgeID).
		Count(&count).Error
	return count > 0, mapError(err, "badge")
}

func (s *store) ListAwardedBadges(ctx context.Context, userID uuid.UUID) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Model(&entity.BadgeAward{}).
		Where("user_id = ?", userID).
		Order("badge_id").
		Pluck("badge_id", &ids).Error
	return ids, mapError(err, "badge")
}

// AwardBadge relies on idx_user_badge: a second award for the same pair inserts nothing.
func (s *store) AwardBadge(ctx context.Context, userID uuid.UUID, badgeID string, at time.Time) (bool, error) {
	award := entity.BadgeAward{UserID: userID, BadgeID: badgeID, EarnedAt: at}
	res := s.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "badge_id"}},
		DoNothing: true,
	}).Create(&award)
	if res.Error != nil {
		return false, mapError(res.Error, "badge")
	}
	return res.RowsAffected > 0, nil
}

func (s *store) GetChallenge(ctx context.Context, challengeID uuid.UUID) (*entity.Challenge, error) {
	var challenge entity.Challenge
	if err := s.db.WithContext(ctx).First(&challenge, "id = ?", challengeID).Error; err != nil {
		return nil, mapError(err, "challenge")
	}
	return &challenge, nil
}

func (s *store) GetChallengeMembership(ctx context.Context, userID, challengeID uuid.UUID) (*entity.ChallengeMembership, error) {
	var m entity.ChallengeMembership
	err := s.db.WithContext(ctx).
		Where("user_id = ? AND challenge_id = ?", userID, challengeID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, mapError(err, "membership")
	}
	return &m, nil
}

func (s *store) ListActiveMemberships(ctx context.Context, userID uuid.UUID, at time.Time) ([]entity.ChallengeMembership, error) {
	var memberships []entity.ChallengeMembership
	err := s.db.WithContext(ctx).
		Joins("Challenge").
		Where("challenge_memberships.user_id = ? AND challenge_memberships.is_completed = ?", userID, false).
		Where(`"Challenge"."is_active" = ? AND "Challenge"."start_date" <= ? AND "Challenge"."end_date" > ?`, true, at, at).
		Order("challenge_memberships.joined_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, mapError(err, "membership")
	}
	return memberships, nil
}

func (s *store) UpsertChallengeMembership(ctx context.Context, m *entity.ChallengeMembership) error {
	err := s.db.WithContext(ctx).Omit(clause.Associations).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "challenge_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"progress", "is_completed", "completed_at"}),
	}).Create(m).Error
	return mapError(err, "membership")
}

// mapError translates driver errors into the apperror taxonomy the engine retries on.
func mapError(err error, what string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, apperror.ErrNotFound) || errors.Is(err, apperror.ErrConflict) {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, apperror.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && (pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected) {
		return fmt.Errorf("%s: %s: %w", what, pgErr.Message, apperror.ErrConflict)
	}
	return err
}
