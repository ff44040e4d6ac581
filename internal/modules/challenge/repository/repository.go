package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"anoa.com/ecotrack/internal/entity"
	"anoa.com/ecotrack/pkg/apperror"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChallengeRepository interface {
	Create(ctx context.Context, challenge *entity.Challenge) error
	Update(ctx context.Context, challenge *entity.Challenge) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Challenge, error)
	HasCompletedMembership(ctx context.Context, challengeID uuid.UUID) (bool, error)
	// ListActive returns active challenges whose window contains at.
	ListActive(ctx context.Context, at time.Time) ([]entity.Challenge, error)
	ListMemberships(ctx context.Context, userID uuid.UUID) ([]entity.ChallengeMembership, error)
	MembershipsFor(ctx context.Context, userID uuid.UUID, challengeIDs []uuid.UUID) (map[uuid.UUID]entity.ChallengeMembership, error)
	ExistsForPeriod(ctx context.Context, period entity.ChallengePeriod, start time.Time) (bool, error)
	BadgeExists(ctx context.Context, badgeID string) (bool, error)
}

type challengeRepository struct {
	db *gorm.DB
}

func NewChallengeRepository(db *gorm.DB) ChallengeRepository {
	return &challengeRepository{db: db}
}

func (r *challengeRepository) Create(ctx context.Context, challenge *entity.Challenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

func (r *challengeRepository) Update(ctx context.Context, challenge *entity.Challenge) error {
	return r.db.WithContext(ctx).Save(challenge).Error
}

func (r *challengeRepository) HasCompletedMembership(ctx context.Context, challengeID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.ChallengeMembership{}).
		Where("challenge_id = ? AND is_completed = ?", challengeID, true).
		Limit(1).
		Count(&count).Error
	return count > 0, err
}

func (r *challengeRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Challenge, error) {
	var challenge entity.Challenge
	if err := r.db.WithContext(ctx).First(&challenge, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("challenge %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return &challenge, nil
}

func (r *challengeRepository) ListActive(ctx context.Context, at time.Time) ([]entity.Challenge, error) {
	var challenges []entity.Challenge
	err := r.db.WithContext(ctx).
		Where("is_active = ? AND start_date <= ? AND end_date > ?", true, at, at).
		Order("end_date asc, created_at asc").
		Find(&challenges).Error
	return challenges, err
}

func (r *challengeRepository) ListMemberships(ctx context.Context, userID uuid.UUID) ([]entity.ChallengeMembership, error) {
	var memberships []entity.ChallengeMembership
	err := r.db.WithContext(ctx).
		Preload("Challenge").
		Where("user_id = ?", userID).
		Order("joined_at desc").
		Find(&memberships).Error
	return memberships, err
}

func (r *challengeRepository) MembershipsFor(ctx context.Context, userID uuid.UUID, challengeIDs []uuid.UUID) (map[uuid.UUID]entity.ChallengeMembership, error) {
	out := make(map[uuid.UUID]entity.ChallengeMembership, len(challengeIDs))
	if len(challengeIDs) == 0 {
		return out, nil
	}

	var memberships []entity.ChallengeMembership
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND challenge_id IN ?", userID, challengeIDs).
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	for _, m := range memberships {
		out[m.ChallengeID] = m
	}
	return out, nil
}

func (r *challengeRepository) ExistsForPeriod(ctx context.Context, period entity.ChallengePeriod, start time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Challenge{}).
		Where("period = ? AND start_date = ?", period, start).
		Count(&count).Error
	return count > 0, err
}

func (r *challengeRepository) BadgeExists(ctx context.Context, badgeID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.BadgeDefinition{}).
		Where("id = ? AND is_active = ?", badgeID, true).
		Count(&count).Error
	return count > 0, err
}
