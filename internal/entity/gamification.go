package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Streak tracks consecutive calendar days with at least one completion.
type Streak struct {
	UserID           uuid.UUID  `gorm:"type:uuid;primaryKey" json:"user_id"`
	CurrentStreak    int        `gorm:"not null;default:0;index" json:"current_streak"`
	LongestStreak    int        `gorm:"not null;default:0" json:"longest_streak"`
	LastActivityDate *time.Time `json:"last_activity_date"`
	StreakStartDate  *time.Time `json:"streak_start_date"`
	UpdatedAt        time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

type BadgeDimension string

const (
	DimensionPoints     BadgeDimension = "points"
	DimensionActivities BadgeDimension = "activities"
	DimensionStreak     BadgeDimension = "streak"
	// DimensionReward badges are only granted by challenges, never by thresholds.
	DimensionReward BadgeDimension = "reward"
)

type BadgeDefinition struct {
	ID          string         `gorm:"size:50;primaryKey" json:"id"`
	Name        string         `gorm:"size:100;not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Icon        string         `gorm:"size:20" json:"icon"`
	Dimension   BadgeDimension `gorm:"size:20;not null" json:"dimension"`
	Threshold   int            `gorm:"not null;default:0" json:"threshold"`
	Rarity      string         `gorm:"size:20;default:common" json:"rarity"`
	IsActive    bool           `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
}

// BadgeAward is unique per (user, badge); see idx_user_badge.
type BadgeAward struct {
	ID       uuid.UUID        `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   uuid.UUID        `gorm:"type:uuid;not null;uniqueIndex:idx_user_badge,priority:1" json:"user_id"`
	BadgeID  string           `gorm:"size:50;not null;uniqueIndex:idx_user_badge,priority:2" json:"badge_id"`
	Badge    *BadgeDefinition `gorm:"foreignKey:BadgeID" json:"badge,omitempty"`
	EarnedAt time.Time        `gorm:"not null" json:"earned_at"`
}

func (b *BadgeAward) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
