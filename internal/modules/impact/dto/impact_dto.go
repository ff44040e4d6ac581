package dto

import (
	"time"

	"anoa.com/ecotrack/internal/engine"
	"anoa.com/ecotrack/internal/entity"
)

type ImpactQuery struct {
	Period string `form:"period" binding:"omitempty,oneof=all week month"`
}

type CategoryImpact struct {
	Category     entity.Category `json:"category"`
	Activities   int             `json:"activities"`
	Points       int             `json:"points"`
	CO2Saved     float64         `json:"co2_saved"`
	SharePercent float64         `json:"share_percent"`
}

type ImpactResponse struct {
	Period     string           `json:"period"`
	From       *time.Time       `json:"from,omitempty"`
	Report     engine.CO2Report `json:"report"`
	Activities int              `json:"activities"`
	Points     int              `json:"points"`
	ByCategory []CategoryImpact `json:"by_category"`
}
