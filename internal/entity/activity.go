package entity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Category string

const (
	CategoryTransport   Category = "transport"
	CategoryEnergy      Category = "energy"
	CategoryWater       Category = "water"
	CategoryWaste       Category = "waste"
	CategoryGreen       Category = "green"
	CategoryConsumption Category = "consumption"
)

var Categories = []Category{
	CategoryTransport,
	CategoryEnergy,
	CategoryWater,
	CategoryWaste,
	CategoryGreen,
	CategoryConsumption,
}

// Normalize lower-cases and trims the category so lookups are case-insensitive.
func (c Category) Normalize() Category {
	return Category(strings.ToLower(strings.TrimSpace(string(c))))
}

func (c Category) Valid() bool {
	n := c.Normalize()
	for _, known := range Categories {
		if n == known {
			return true
		}
	}
	return false
}

// Activity is an eco-friendly action defined by an administrator.
type Activity struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"size:100;not null" json:"name"`
	Description string    `gorm:"type:text" json:"description"`
	Category    Category  `gorm:"size:20;not null;index" json:"category"`
	Points      int       `gorm:"not null" json:"points"`
	Icon        string    `gorm:"size:50;default:default" json:"icon"`
	IsActive    bool      `gorm:"not null;default:true" json:"is_active"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *Activity) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID, err = uuid.NewV7()
	}
	return
}

// Completion is one append-only record of a user performing an activity.
// Category and PointsEarned are snapshots taken at completion time.
type Completion struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID       uuid.UUID `gorm:"type:uuid;not null;index:idx_completion_user_date,priority:1" json:"user_id"`
	ActivityID   uuid.UUID `gorm:"type:uuid;not null;index" json:"activity_id"`
	Activity     *Activity `gorm:"foreignKey:ActivityID" json:"activity,omitempty"`
	Category     Category  `gorm:"size:20;not null" json:"category"`
	PointsEarned int       `gorm:"not null" json:"points_earned"`
	CompletedAt  time.Time `gorm:"not null;index:idx_completion_user_date,priority:2;index:idx_completion_date" json:"completed_at"`
}

func (c *Completion) BeforeCreate(tx *gorm.DB) (err error) {
	if c.ID == uuid.Nil {
		c.ID, err = uuid.NewV7()
	}
	return
}
