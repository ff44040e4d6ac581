package dto

import (
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"github.com/google/uuid"
)

type CreateChallengeRequest struct {
	Name            string    `json:"name" binding:"required,max=150"`
	Description     string    `json:"description"`
	Period          string    `json:"period" binding:"required,oneof=weekly monthly"`
	TargetDimension string    `json:"target_dimension" binding:"required,oneof=points activities"`
	TargetCategory  *string   `json:"target_category" binding:"omitempty,oneof=transport energy water waste green consumption"`
	TargetValue     int       `json:"target_value" binding:"required,gt=0"`
	RewardPoints    int       `json:"reward_points" binding:"gte=0"`
	RewardBadgeID   *string   `json:"reward_badge_id" binding:"omitempty,max=50"`
	StartDate       time.Time `json:"start_date" binding:"required"`
	EndDate         time.Time `json:"end_date" binding:"required,gtfield=StartDate"`
}

// UpdateChallengeRequest only changes the fields that are present. An empty
// target_category or reward_badge_id clears it. The period cannot change.
type UpdateChallengeRequest struct {
	Name            *string    `json:"name" binding:"omitempty,max=150"`
	Description     *string    `json:"description"`
	TargetDimension *string    `json:"target_dimension" binding:"omitempty,oneof=points activities"`
	TargetCategory  *string    `json:"target_category" binding:"omitempty,max=20"`
	TargetValue     *int       `json:"target_value" binding:"omitempty,gt=0"`
	RewardPoints    *int       `json:"reward_points" binding:"omitempty,gte=0"`
	RewardBadgeID   *string    `json:"reward_badge_id" binding:"omitempty,max=50"`
	StartDate       *time.Time `json:"start_date"`
	EndDate         *time.Time `json:"end_date"`
	IsActive        *bool      `json:"is_active"`
}

type ChallengeResponse struct {
	ID              uuid.UUID              `json:"id"`
	Name            string                 `json:"name"`
	Description     string                 `json:"description"`
	Period          entity.ChallengePeriod `json:"period"`
	TargetDimension entity.TargetDimension `json:"target_dimension"`
	TargetCategory  *entity.Category       `json:"target_category,omitempty"`
	TargetValue     int                    `json:"target_value"`
	RewardPoints    int                    `json:"reward_points"`
	RewardBadgeID   *string                `json:"reward_badge_id,omitempty"`
	StartDate       time.Time              `json:"start_date"`
	EndDate         time.Time              `json:"end_date"`
	DaysLeft        int                    `json:"days_left"`
	IsActive        bool                   `json:"is_active"`

	Joined      bool       `json:"joined"`
	Progress    int        `json:"progress"`
	Percent     int        `json:"percent"`
	State       string     `json:"state"`
	JoinedAt    *time.Time `json:"joined_at,omitempty"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

type MyChallengesResponse struct {
	Active    []ChallengeResponse `json:"active"`
	Completed []ChallengeResponse `json:"completed"`
	Expired   []ChallengeResponse `json:"expired"`
}

type JoinResponse struct {
	Message string             `json:"message"`
	Result  *engine.JoinResult `json:"result"`
}
