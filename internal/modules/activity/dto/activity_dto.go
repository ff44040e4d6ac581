package dto

import (
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
	"github.com/google/uuid"
)

type CreateActivityRequest struct {
	Name        string `json:"name" binding:"required,max=100"`
	Description string `json:"description"`
	Category    string `json:"category" binding:"required,oneof=transport energy water waste green consumption"`
	Points      int    `json:"points" binding:"required,gt=0,max=1000"`
	Icon        string `json:"icon" binding:"max=50"`
}

// UpdateActivityRequest only changes the fields that are present.
type UpdateActivityRequest struct {
	Name        *string `json:"name" binding:"omitempty,max=100"`
	Description *string `json:"description"`
	Category    *string `json:"category" binding:"omitempty,oneof=transport energy water waste green consumption"`
	Points      *int    `json:"points" binding:"omitempty,gt=0,max=1000"`
	Icon        *string `json:"icon" binding:"omitempty,max=50"`
	IsActive    *bool   `json:"is_active"`
}

type ActivityFilter struct {
	Category        string `form:"category" binding:"omitempty,oneof=transport energy water waste green consumption"`
	IncludeInactive bool   `form:"include_inactive"`
}

type ActivityResponse struct {
	ID             uuid.UUID       `json:"id"`
	Name           string          `json:"name"`
	Description    string          `json:"description"`
	Category       entity.Category `json:"category"`
	Points         int             `json:"points"`
	Icon           string          `json:"icon"`
	IsActive       bool            `json:"is_active"`
	CO2PerComplete float64         `json:"co2_per_completion"`
	CompletedToday bool            `json:"completed_today"`
}

type HistoryItem struct {
	ID           uuid.UUID       `json:"id"`
	ActivityID   uuid.UUID       `json:"activity_id"`
	ActivityName string          `json:"activity_name"`
	Icon         string          `json:"icon"`
	Category     entity.Category `json:"category"`
	PointsEarned int             `json:"points_earned"`
	CO2Saved     float64         `json:"co2_saved"`
	CompletedAt  time.Time       `json:"completed_at"`
}

type TodaySummary struct {
	Date           string        `json:"date"`
	CompletedCount int           `json:"completed_count"`
	PointsToday    int           `json:"points_today"`
	CO2Today       float64       `json:"co2_today"`
	WeekCount      int           `json:"week_count"`
	WeekPoints     int           `json:"week_points"`
	Completions    []HistoryItem `json:"completions"`
}

type CompleteResponse struct {
	Message string                    `json:"message"`
	Result  *engine.CompletionSummary `json:"result"`
}
