package repository

import (
	"context"
	"errors"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type BadgeRepository interface {
	SeedDefinitions(ctx context.Context, defs []entity.BadgeDefinition) error
	ListDefinitions(ctx context.Context) ([]entity.BadgeDefinition, error)
	ListAwards(ctx context.Context, userID uuid.UUID) ([]entity.BadgeAward, error)
	CountAwards(ctx context.Context, userID uuid.UUID) (int64, error)
	// Totals reads the values badge thresholds are checked against.
	Totals(ctx context.Context, userID uuid.UUID) (engine.Totals, error)
}

type badgeRepository struct {
	db *gorm.DB
}

func NewBadgeRepository(db *gorm.DB) BadgeRepository {
	return &badgeRepository{db: db}
}

// SeedDefinitions inserts or refreshes definitions keyed by id. Awards are untouched.
func (r *badgeRepository) SeedDefinitions(ctx context.Context, defs []entity.BadgeDefinition) error {
	if len(defs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "icon", "dimension", "threshold", "rarity"}),
	}).Create(&defs).Error
}

func (r *badgeRepository) ListDefinitions(ctx context.Context) ([]entity.BadgeDefinition, error) {
	var defs []entity.BadgeDefinition
	err := r.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("dimension asc, threshold asc, id asc").
		Find(&defs).Error
	return defs, err
}

func (r *badgeRepository) ListAwards(ctx context.Context, userID uuid.UUID) ([]entity.BadgeAward, error) {
	var awards []entity.BadgeAward
	err := r.db.WithContext(ctx).
		Preload("Badge").
		Where("user_id = ?", userID).
		Order("earned_at desc").
		Find(&awards).Error
	return awards, err
}

func (r *badgeRepository) CountAwards(ctx context.Context, userID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&entity.BadgeAward{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *badgeRepository) Totals(ctx context.Context, userID uuid.UUID) (engine.Totals, error) {
	var totals engine.Totals
	db := r.db.WithContext(ctx)

	var user entity.User
	if err := db.Select("points").First(&user, "id = ?", userID).Error; err != nil {
		return totals, err
	}
	totals.Points = user.Points

	if err := db.Model(&entity.Completion{}).Where("user_id = ?", userID).Count(&totals.Activities).Error; err != nil {
		return totals, err
	}

	var streak entity.Streak
	err := db.Select("current_streak").First(&streak, "user_id = ?", userID).Error
	switch {
	case err == nil:
		totals.CurrentStreak = streak.CurrentStreak
	case !errors.Is(err, gorm.ErrRecordNotFound):
		return totals, err
	}
	return totals, nil
}
