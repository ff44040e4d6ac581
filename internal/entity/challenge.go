package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ChallengePeriod string

const (
	PeriodWeekly  ChallengePeriod = "weekly"
	PeriodMonthly ChallengePeriod = "monthly"
)

type TargetDimension string

const (
	TargetPoints     TargetDimension = "points"
	TargetActivities TargetDimension = "activities"
)

// Challenge is a time-boxed target over the window [StartDate, EndDate).
type Challenge struct {
	ID              uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	Name            string          `gorm:"size:150;not null" json:"name"`
	Description     string          `gorm:"type:text" json:"description"`
	Period          ChallengePeriod `gorm:"size:10;not null;index:idx_challenge_period" json:"period"`
	TargetDimension TargetDimension `gorm:"size:20;not null" json:"target_dimension"`
	TargetCategory  *Category       `gorm:"size:20" json:"target_category,omitempty"`
	TargetValue     int             `gorm:"not null" json:"target_value"`
	RewardPoints    int             `gorm:"not null;default:0" json:"reward_points"`
	RewardBadgeID   *string         `gorm:"size:50" json:"reward_badge_id,omitempty"`
	StartDate       time.Time       `gorm:"not null;index:idx_challenge_window,priority:1;index:idx_challenge_period" json:"start_date"`
	EndDate         time.Time       `gorm:"not null;index:idx_challenge_window,priority:2" json:"end_date"`
	IsActive        bool            `gorm:"not null;default:true" json:"is_active"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
}

func (c *Challenge) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}

type ChallengeMembership struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID      uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_challenge,priority:1" json:"user_id"`
	ChallengeID uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_user_challenge,priority:2;index" json:"challenge_id"`
	Challenge   *Challenge `gorm:"foreignKey:ChallengeID" json:"challenge,omitempty"`
	JoinedAt    time.Time  `gorm:"not null" json:"joined_at"`
	Progress    int        `gorm:"not null;default:0" json:"progress"`
	IsCompleted bool       `gorm:"not null;default:false;index" json:"is_completed"`
	CompletedAt *time.Time `json:"completed_at"`
}

func (m *ChallengeMembership) BeforeCreate(tx *gorm.DB) error {
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	return nil
}
