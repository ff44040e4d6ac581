package repository

import (
	"context"
	"time"

	"anoa.com/ecotrack/internal/entity"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Row is one candidate on a board. Rows come back in join order (created_at, id),
// which ranking relies on for ties.
type Row struct {
	UserID    uuid.UUID `json:"user_id"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	AvatarURL *string   `json:"avatar_url,omitempty"`
	Level     int       `json:"level"`
	Metric    int       `json:"metric"`
}

type LeaderboardRepository interface {
	PointsRows(ctx context.Context) ([]Row, error)
	// WeeklyRows sums points earned since the given instant, skipping users with none.
	WeeklyRows(ctx context.Context, since time.Time) ([]Row, error)
	// StreakRows lists running streaks whose last activity day is on or after since.
	StreakRows(ctx context.Context, since time.Time) ([]Row, error)
}

type leaderboardRepository struct {
	db *gorm.DB
}

func NewLeaderboardRepository(db *gorm.DB) LeaderboardRepository {
	return &leaderboardRepository{db: db}
}

const userColumns = "users.id AS user_id, users.username, users.full_name, users.avatar_url, users.level"

func (r *leaderboardRepository) PointsRows(ctx context.Context) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).Model(&entity.User{}).
		Select(userColumns+", users.points AS metric").
		Where("users.role = ?", entity.RoleUser).
		Order("users.created_at asc, users.id asc").
		Scan(&rows).Error
	return rows, err
}

func (r *leaderboardRepository) WeeklyRows(ctx context.Context, since time.Time) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).Model(&entity.User{}).
		Select(userColumns+", COALESCE(SUM(completions.points_earned), 0) AS metric").
		Joins("JOIN completions ON completions.user_id = users.id AND completions.completed_at >= ?", since).
		Where("users.role = ?", entity.RoleUser).
		Group("users.id").
		Having("SUM(completions.points_earned) > 0").
		Order("users.created_at asc, users.id asc").
		Scan(&rows).Error
	return rows, err
}

func (r *leaderboardRepository) StreakRows(ctx context.Context, since time.Time) ([]Row, error) {
	var rows []Row
	err := r.db.WithContext(ctx).Model(&entity.User{}).
		Select(userColumns+", streaks.current_streak AS metric").
		Joins("JOIN streaks ON streaks.user_id = users.id").
		Where("users.role = ? AND streaks.current_streak > 0 AND streaks.last_activity_date >= ?", entity.RoleUser, since).
		Order("users.created_at asc, users.id asc").
		Scan(&rows).Error
	return rows, err
}
