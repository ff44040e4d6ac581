package entity

import (
	"time"

	"github.com/google/uuid"
)

const (
	NotificationBadgeEarned        = "badge_earned"
	NotificationChallengeCompleted = "challenge_completed"
	NotificationLevelUp            = "level_up"
	NotificationStreakRecord       = "streak_record"
	NotificationStreakAtRisk       = "streak_at_risk"
	NotificationStreakBroken       = "streak_broken"
)

type Notification struct {
	ID         uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	EntityID   *uuid.UUID `gorm:"type:uuid" json:"entity_id,omitempty"`
	EntityType string     `gorm:"type:varchar(50)" json:"entity_type"` // 'badge', 'challenge', 'streak', 'level'
	Type       string     `gorm:"type:varchar(50);not null" json:"type"`
	Message    string     `gorm:"type:text" json:"message"`
	IsRead     bool       `gorm:"default:false" json:"is_read"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
}
