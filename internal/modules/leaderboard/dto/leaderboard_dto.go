package dto

import "github.com/google/uuid"

const (
	BoardPoints = "points"
	BoardWeekly = "weekly"
	BoardStreak = "streak"
)

type LeaderboardQuery struct {
	Board string `form:"board" binding:"omitempty,oneof=points weekly streak"`
	Limit int    `form:"limit"`
}

// LeaderboardEntry represents a single user entry in the leaderboard.
// Rank is 1-based; ties keep the order users joined in.
type LeaderboardEntry struct {
	Rank        int       `json:"rank"`
	UserID      uuid.UUID `json:"user_id"`
	Username    string    `json:"username"`
	FullName    string    `json:"full_name"`
	AvatarURL   *string   `json:"avatar_url,omitempty"`
	Level       int       `json:"level"`
	Value       int       `json:"value"`
	WeeklyLabel string    `json:"weekly_label,omitempty"`
}

type LeaderboardResponse struct {
	Board   string             `json:"board"`
	Entries []LeaderboardEntry `json:"entries"`
	Me      *LeaderboardEntry  `json:"me,omitempty"`
	Total   int                `json:"total"`
}
