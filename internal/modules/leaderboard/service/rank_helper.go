package service

// Weekly activity thresholds, in points earned over the last 7 days.
const (
	WeeklyOnFire   = 100 // 🔥 On Fire! - very active this week
	WeeklyTrending = 50  // ⚡ Trending - above average activity
	WeeklyActive   = 20  // 📈 Active - steady contributor
)

// WeeklyLabel gives context for recent activity on the weekly board.
func WeeklyLabel(weeklyPoints int) string {
	switch {
	case weeklyPoints >= WeeklyOnFire:
		return "🔥 On Fire!"
	case weeklyPoints >= WeeklyTrending:
		return "⚡ Trending"
	case weeklyPoints >= WeeklyActive:
		return "📈 Active"
	default:
		return ""
	}
}
