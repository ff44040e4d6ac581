package engine

import "math"

const PointsPerLevel = 100

// LevelFor maps total points to a level: floor(points/100) + 1.
func LevelFor(points int) int {
	if points < 0 {
		return 1
	}
	return points/PointsPerLevel + 1
}

// LevelProgress describes how far a user is through the current level.
type LevelProgress struct {
	Level           int     `json:"level"`
	CurrentPoints   int     `json:"current_points"`
	LevelFloor      int     `json:"level_floor"`
	NextLevelPoints int     `json:"next_level_points"`
	PointsToNext    int     `json:"points_to_next"`
	Progress        float64 `json:"progress"` // 0-100
}

func LevelProgressFor(points int) LevelProgress {
	if points < 0 {
		points = 0
	}
	level := LevelFor(points)
	floor := (level - 1) * PointsPerLevel
	next := level * PointsPerLevel

	progress := float64(points-floor) / float64(PointsPerLevel) * 100
	// Round progress to 2 decimal places
	progress = math.Round(progress*100) / 100

	return LevelProgress{
		Level:           level,
		CurrentPoints:   points,
		LevelFloor:      floor,
		NextLevelPoints: next,
		PointsToNext:    next - points,
		Progress:        progress,
	}
}
