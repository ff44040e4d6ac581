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

type ActivityRepository interface {
	Create(ctx context.Context, activity *entity.Activity) error
	Update(ctx context.Context, activity *entity.Activity) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Activity, error)
	FindAll(ctx context.Context, category entity.Category, includeInactive bool) ([]entity.Activity, error)

	// CompletedActivityIDs returns the distinct activities userID completed in [from, to).
	CompletedActivityIDs(ctx context.Context, userID uuid.UUID, from, to time.Time) (map[uuid.UUID]bool, error)
	History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Completion, int64, error)
	// ListCompletions returns completions in [from, to); zero bounds are open.
	ListCompletions(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.Completion, error)
}

type activityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) ActivityRepository {
	return &activityRepository{db: db}
}

func (r *activityRepository) Create(ctx context.Context, activity *entity.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

func (r *activityRepository) Update(ctx context.Context, activity *entity.Activity) error {
	return r.db.WithContext(ctx).Save(activity).Error
}

func (r *activityRepository) FindByID(ctx context.Context, id uuid.UUID) (*entity.Activity, error) {
	var activity entity.Activity
	if err := r.db.WithContext(ctx).First(&activity, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("activity %s: %w", id, apperror.ErrNotFound)
		}
		return nil, err
	}
	return &activity, nil
}

func (r *activityRepository) FindAll(ctx context.Context, category entity.Category, includeInactive bool) ([]entity.Activity, error) {
	var activities []entity.Activity
	query := r.db.WithContext(ctx)

	if !includeInactive {
		query = query.Where("is_active = ?", true)
	}
	if category != "" {
		query = query.Where("category = ?", category.Normalize())
	}

	if err := query.Order("category asc, points desc, name asc").Find(&activities).Error; err != nil {
		return nil, err
	}
	return activities, nil
}

func (r *activityRepository) CompletedActivityIDs(ctx context.Context, userID uuid.UUID, from, to time.Time) (map[uuid.UUID]bool, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&entity.Completion{}).
		Where("user_id = ? AND completed_at >= ? AND completed_at < ?", userID, from, to).
		Distinct().
		Pluck("activity_id", &ids).Error
	if err != nil {
		return nil, err
	}

	out := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

func (r *activityRepository) History(ctx context.Context, userID uuid.UUID, limit, offset int) ([]entity.Completion, int64, error) {
	var (
		completions []entity.Completion
		total       int64
	)

	query := r.db.WithContext(ctx).Model(&entity.Completion{}).Where("user_id = ?", userID)
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := query.Preload("Activity").
		Order("completed_at desc").
		Limit(limit).
		Offset(offset).
		Find(&completions).Error
	return completions, total, err
}

func (r *activityRepository) ListCompletions(ctx context.Context, userID uuid.UUID, from, to time.Time) ([]entity.Completion, error) {
	var completions []entity.Completion
	query := r.db.WithContext(ctx).Preload("Activity").Where("user_id = ?", userID)

	if !from.IsZero() {
		query = query.Where("completed_at >= ?", from)
	}
	if !to.IsZero() {
		query = query.Where("completed_at < ?", to)
	}

	err := query.Order("completed_at desc").Find(&completions).Error
	return completions, err
}
