package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Username  string    `gorm:"size:50;uniqueIndex;not null" json:"username"`
	Email     string    `gorm:"size:100;uniqueIndex;not null" json:"email"`
	FullName  string    `gorm:"size:100" json:"full_name"`
	Role      string    `gorm:"size:20;not null;default:user;index" json:"role"`
	AvatarURL *string   `gorm:"type:text" json:"avatar_url,omitempty"`
	Points    int       `gorm:"not null;default:0;index" json:"points"`
	Level     int       `gorm:"not null;default:1" json:"level"`
	// Version is bumped by every points write and used as a compare-and-swap guard.
	Version   int64     `gorm:"not null;default:0" json:"-"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
}

func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	if u.Level < 1 {
		u.Level = 1
	}
	return nil
}

func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
