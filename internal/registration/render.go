package registration

import (
	"fmt"
	"strings"

	"github.com/sedalcrazy-create/refahmaar/core/bale/format"
	"github.com/sedalcrazy-create/refahmaar/internal/gameapi"
)

const (
	maxLeaderboardRows = 10
	maxCountedGames    = 3
)

var rankMedals = map[int]string{
	1: "🥇",
	2: "🥈",
	3: "🥉",
}

func displayName(first, last string) string {
	if first == "pending" {
		return placeholderName
	}
	name := strings.TrimSpace(first + " " + last)
	if name == "" {
		return placeholderName
	}
	return format.EscapeHTML(name)
}

// RenderLeaderboard formats the top players as an HTML message. Ranks
// 1-3 get medal markers, the rest plain ordinals; at most ten rows are
// shown no matter how many entries the backend returns.
func RenderLeaderboard(entries []gameapi.LeaderboardEntry) string {
	var b strings.Builder
	b.WriteString("🏆 <b>جدول امتیازات - ده نفر برتر</b>\n\n")

	if len(entries) == 0 {
		b.WriteString("هنوز هیچ بازیکنی امتیازی ثبت نکرده است.")
		return b.String()
	}

	for i, entry := range entries {
		rank := i + 1
		if rank > maxLeaderboardRows {
			break
		}
		marker, ok := rankMedals[rank]
		if !ok {
			marker = fmt.Sprintf("%d.", rank)
		}
		fmt.Fprintf(&b, "%s %s — %d امتیاز\n", marker, displayName(entry.FirstName, entry.LastName), entry.HighScore)
	}
	return strings.TrimRight(b.String(), "\n")
}

// RenderStats formats one player's statistics as an HTML message.
// Remaining games are clamped at zero and hidden when exhausted.
func RenderStats(stats gameapi.Stats) string {
	var b strings.Builder
	b.WriteString("📊 <b>آمار شما</b>\n\n")
	fmt.Fprintf(&b, "👤 نام: %s\n", displayName(stats.FirstName, stats.LastName))
	fmt.Fprintf(&b, "🏅 بهترین امتیاز: %d\n", stats.HighScore)
	fmt.Fprintf(&b, "🐍 بیشترین طول مار: %d\n", stats.MaxLength)
	fmt.Fprintf(&b, "🎯 تعداد بازی‌ها: %d\n", stats.GamesPlayed)
	if stats.Rank > 0 {
		fmt.Fprintf(&b, "🏆 رتبه: %d\n", stats.Rank)
	}

	remaining := maxCountedGames - stats.GamesPlayed
	if remaining > 0 {
		fmt.Fprintf(&b, "\n🎮 بازی‌های باقی‌مانده: %d", remaining)
	}
	return strings.TrimRight(b.String(), "\n")
}
