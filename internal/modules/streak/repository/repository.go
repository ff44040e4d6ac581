package repository

import (
	"context"
	"errors"
	"time"

	"anoa.com/ecotrack/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StreakRepository interface {
	// Get returns nil, nil for a user that never completed an activity.
	Get(ctx context.Context, userID uuid.UUID) (*entity.Streak, error)
	// ListExpired returns running streaks whose last activity day is before cutoff.
	ListExpired(ctx context.Context, cutoff time.Time) ([]entity.Streak, error)
	// Reset zeroes the streak only if it is still expired, so a completion that
	// committed in the meantime wins. It reports whether the row was reset.
	Reset(ctx context.Context, userID uuid.UUID, cutoff time.Time) (bool, error)
	// ListAtRisk returns running streaks whose last activity day is in [from, to).
	ListAtRisk(ctx context.Context, from, to time.Time) ([]entity.Streak, error)
}

type streakRepository struct {
	db *gorm.DB
}

func NewStreakRepository(db *gorm.DB) StreakRepository {
	return &streakRepository{db: db}
}

func (r *streakRepository) Get(ctx context.Context, userID uuid.UUID) (*entity.Streak, error) {
	var streak entity.Streak
	err := r.db.WithContext(ctx).First(&streak, "user_id = ?", userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &streak, nil
}

func (r *streakRepository) ListExpired(ctx context.Context, cutoff time.Time) ([]entity.Streak, error) {
	var streaks []entity.Streak
	err := r.db.WithContext(ctx).
		Where("current_streak > 0 AND last_activity_date < ?", cutoff).
		Find(&streaks).Error
	return streaks, err
}

func (r *streakRepository) Reset(ctx context.Context, userID uuid.UUID, cutoff time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&entity.Streak{}).
		Where("user_id = ? AND current_streak > 0 AND last_activity_date < ?", userID, cutoff).
		Updates(map[string]interface{}{"current_streak": 0, "streak_start_date": nil})
	return res.RowsAffected > 0, res.Error
}

func (r *streakRepository) ListAtRisk(ctx context.Context, from, to time.Time) ([]entity.Streak, error) {
	var streaks []entity.Streak
	err := r.db.WithContext(ctx).
		Where("current_streak > 0 AND last_activity_date >= ? AND last_activity_date < ?", from, to).
		Find(&streaks).Error
	return streaks, err
}
