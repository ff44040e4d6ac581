package dto

import (
	"anoa.com/ecotrack/internal/engine"
	"github.com/google/uuid"
)

type MyStatsResponse struct {
	UserID          uuid.UUID            `json:"user_id"`
	Username        string               `json:"username"`
	Points          int                  `json:"points"`
	Level           engine.LevelProgress `json:"level"`
	Streak          engine.StreakStatus  `json:"streak"`
	BadgesEarned    int64                `json:"badges_earned"`
	TotalActivities int64                `json:"total_activities"`
	Impact          engine.CO2Report     `json:"impact"`
	Rank            int                  `json:"rank"`
}

type AdminStatsResponse struct {
	TotalUsers         int64 `json:"total_users"`
	NewUsersThisWeek   int64 `json:"new_users_this_week"`
	TotalActivities    int64 `json:"total_activities"`
	TotalCompletions   int64 `json:"total_completions"`
	CompletionsToday   int64 `json:"completions_today"`
	TotalPoints        int64 `json:"total_points"`
	TotalBadgesAwarded int64 `json:"total_badges_awarded"`
	TotalChallenges    int64 `json:"total_challenges"`
	ActiveChallenges   int64 `json:"active_challenges"`
}
