package engine

import (
	"math"
	"sort"

	"anoa.com/ecotrack/internal/entity"
)

type BadgeRule struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Description string                `json:"description"`
	Icon        string                `json:"icon"`
	Dimension   entity.BadgeDimension `json:"dimension"`
	Threshold   int                   `json:"threshold"`
	Rarity      string                `json:"rarity"`
}

// DefaultBadgeRules is the threshold table shipped with the service.
// IDs are stable: clients and challenge rewards reference them.
var DefaultBadgeRules = []BadgeRule{
	{ID: "streak_3", Name: "Getting Started", Description: "Keep a 3 day streak", Icon: "🌱", Dimension: entity.DimensionStreak, Threshold: 3, Rarity: "common"},
	{ID: "streak_7", Name: "Persistent", Description: "Keep a 7 day streak", Icon: "🔥", Dimension: entity.DimensionStreak, Threshold: 7, Rarity: "common"},
	{ID: "streak_14", Name: "Green Warrior", Description: "Keep a 14 day streak", Icon: "⚡", Dimension: entity.DimensionStreak, Threshold: 14, Rarity: "rare"},
	{ID: "streak_30", Name: "Legend", Description: "Keep a 30 day streak", Icon: "👑", Dimension: entity.DimensionStreak, Threshold: 30, Rarity: "epic"},
	{ID: "streak_100", Name: "Unstoppable", Description: "Keep a 100 day streak", Icon: "💎", Dimension: entity.DimensionStreak, Threshold: 100, Rarity: "legendary"},

	{ID: "points_100", Name: "Collector 100", Description: "Earn 100 points in total", Icon: "🎯", Dimension: entity.DimensionPoints, Threshold: 100, Rarity: "common"},
	{ID: "points_500", Name: "Collector 500", Description: "Earn 500 points in total", Icon: "🏅", Dimension: entity.DimensionPoints, Threshold: 500, Rarity: "common"},
	{ID: "points_1000", Name: "Collector 1000", Description: "Earn 1000 points in total", Icon: "🥈", Dimension: entity.DimensionPoints, Threshold: 1000, Rarity: "rare"},
	{ID: "points_5000", Name: "Collector 5000", Description: "Earn 5000 points in total", Icon: "🥇", Dimension: entity.DimensionPoints, Threshold: 5000, Rarity: "epic"},
	{ID: "points_10000", Name: "Green Millionaire", Description: "Earn 10000 points in total", Icon: "💰", Dimension: entity.DimensionPoints, Threshold: 10000, Rarity: "legendary"},

	{ID: "activities_10", Name: "Warm Up", Description: "Complete 10 activities", Icon: "🚀", Dimension: entity.DimensionActivities, Threshold: 10, Rarity: "common"},
	{ID: "activities_50", Name: "Energetic", Description: "Complete 50 activities", Icon: "💪", Dimension: entity.DimensionActivities, Threshold: 50, Rarity: "common"},
	{ID: "activities_100", Name: "Super Energetic", Description: "Complete 100 activities", Icon: "🌟", Dimension: entity.DimensionActivities, Threshold: 100, Rarity: "rare"},
	{ID: "activities_500", Name: "Eco Hero", Description: "Complete 500 activities", Icon: "🦸", Dimension: entity.DimensionActivities, Threshold: 500, Rarity: "epic"},
	{ID: "activities_1000", Name: "Green Legend", Description: "Complete 1000 activities", Icon: "🌍", Dimension: entity.DimensionActivities, Threshold: 1000, Rarity: "legendary"},

	{ID: "eco_champion", Name: "Eco Champion", Description: "Finish a challenge that awards this badge", Icon: "🏆", Dimension: entity.DimensionReward, Rarity: "epic"},
}

// Totals are the per-user values badge thresholds are checked against.
type Totals struct {
	Points        int
	Activities    int64
	CurrentStreak int
}

func (t Totals) valueOf(d entity.BadgeDimension) (int64, bool) {
	switch d {
	case entity.DimensionPoints:
		return int64(t.Points), true
	case entity.DimensionActivities:
		return t.Activities, true
	case entity.DimensionStreak:
		return int64(t.CurrentStreak), true
	default:
		return 0, false
	}
}

// EvaluateBadges returns the ids of rules met by totals that are not yet awarded,
// sorted by id. Rules with an unknown dimension are skipped.
func EvaluateBadges(rules []BadgeRule, totals Totals, awarded map[string]bool) []string {
	var earned []string
	for _, r := range rules {
		if awarded[r.ID] {
			continue
		}
		v, ok := totals.valueOf(r.Dimension)
		if !ok {
			continue
		}
		if v >= int64(r.Threshold) {
			earned = append(earned, r.ID)
		}
	}
	sort.Strings(earned)
	return earned
}

type BadgeStatus struct {
	BadgeRule
	Current  int64 `json:"current"`
	Progress int   `json:"progress"` // 0-100
	Earned   bool  `json:"earned"`
}

// BadgeProgress reports the standing of every rule. Reward-only badges show 100 when earned.
func BadgeProgress(rules []BadgeRule, totals Totals, awarded map[string]bool) []BadgeStatus {
	out := make([]BadgeStatus, 0, len(rules))
	for _, r := range rules {
		st := BadgeStatus{BadgeRule: r, Earned: awarded[r.ID]}
		if v, ok := totals.valueOf(r.Dimension); ok {
			st.Current = v
			if r.Threshold > 0 {
				st.Progress = int(math.Min(100, math.Round(float64(v)/float64(r.Threshold)*100)))
			} else {
				st.Progress = 100
			}
		}
		if st.Earned {
			st.Progress = 100
		}
		out = append(out, st)
	}
	return out
}

func FindRule(rules []BadgeRule, id string) (BadgeRule, bool) {
	for _, r := range rules {
		if r.ID == id {
			return r, true
		}
	}
	return BadgeRule{}, false
}

// RuleFromDefinition converts a persisted definition into a rule.
func RuleFromDefinition(d entity.BadgeDefinition) BadgeRule {
	return BadgeRule{
		ID:          d.ID,
		Name:        d.Name,
		Description: d.Description,
		Icon:        d.Icon,
		Dimension:   d.Dimension,
		Threshold:   d.Threshold,
		Rarity:      d.Rarity,
	}
}

// Definition converts a rule into its persisted form.
func (r BadgeRule) Definition() entity.BadgeDefinition {
	return entity.BadgeDefinition{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Icon:        r.Icon,
		Dimension:   r.Dimension,
		Threshold:   r.Threshold,
		Rarity:      r.Rarity,
		IsActive:    true,
	}
}
