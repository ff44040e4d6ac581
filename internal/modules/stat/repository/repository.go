package repository

import (
	"context"
	"time"

	"anoa.com/ecotrack/internal/entity"
	"gorm.io/gorm"
)

// StatRepository answers the platform-wide counters behind the admin dashboard.
// A zero since or at means "no time filter".
type StatRepository interface {
	CountUsers(ctx context.Context, since time.Time) (int64, error)
	CountActivities(ctx context.Context) (int64, error)
	CountCompletions(ctx context.Context, since time.Time) (int64, error)
	SumUserPoints(ctx context.Context) (int64, error)
	CountBadgeAwards(ctx context.Context) (int64, error)
	CountChallenges(ctx context.Context, activeAt time.Time) (int64, error)
}

type statRepository struct {
	db *gorm.DB
}

func NewStatRepository(db *gorm.DB) StatRepository {
	return &statRepository{db: db}
}

func (r *statRepository) CountUsers(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&entity.User{}).Where("role = ?", entity.RoleUser)
	if !since.IsZero() {
		q = q.Where("created_at >= ?", since)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *statRepository) CountActivities(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.Activity{}).
		Where("is_active = ?", true).
		Count(&count).Error
	return count, err
}

func (r *statRepository) CountCompletions(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&entity.Completion{})
	if !since.IsZero() {
		q = q.Where("completed_at >= ?", since)
	}
	err := q.Count(&count).Error
	return count, err
}

func (r *statRepository) SumUserPoints(ctx context.Context) (int64, error) {
	var total int64
	err := r.db.WithContext(ctx).Model(&entity.User{}).
		Where("role = ?", entity.RoleUser).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return total, err
}

func (r *statRepository) CountBadgeAwards(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.BadgeAward{}).Count(&count).Error
	return count, err
}

func (r *statRepository) CountChallenges(ctx context.Context, activeAt time.Time) (int64, error) {
	var count int64
	q := r.db.WithContext(ctx).Model(&entity.Challenge{})
	if !activeAt.IsZero() {
		q = q.Where("is_active = ? AND start_date <= ? AND end_date > ?", true, activeAt, activeAt)
	}
	err := q.Count(&count).Error
	return count, err
}
