package dto

import (
	"time"

	"anoa.com/ecotrack/internal/engine"
	"github.com/google/uuid"
)

type CreateUserRequest struct {
	Username string  `json:"username" binding:"required,min=3,max=50"`
	Email    string  `json:"email" binding:"required,email"`
	FullName string  `json:"full_name" binding:"max=100"`
	Role     string  `json:"role" binding:"omitempty,oneof=user admin"`
	Avatar   *string `json:"avatar_url"`
}

type UserResponse struct {
	ID        uuid.UUID            `json:"id"`
	Username  string               `json:"username"`
	Email     string               `json:"email"`
	FullName  string               `json:"full_name"`
	Role      string               `json:"role"`
	AvatarURL *string              `json:"avatar_url,omitempty"`
	Points    int                  `json:"points"`
	Level     engine.LevelProgress `json:"level"`
	CreatedAt time.Time            `json:"created_at"`
}

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

type CreateUserResponse struct {
	User  UserResponse  `json:"user"`
	Token TokenResponse `json:"token"`
}
