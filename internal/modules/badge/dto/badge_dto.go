package dto

import (
	"time"

	"anoa.com/ecotrack/internal/engine"
)

type CatalogResponse struct {
	Badges      []engine.BadgeStatus `json:"badges"`
	EarnedCount int                  `json:"earned_count"`
	Total       int                  `json:"total"`
}

type EarnedBadge struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Icon        string    `json:"icon"`
	Rarity      string    `json:"rarity"`
	EarnedAt    time.Time `json:"earned_at"`
}
