package models

import "github.com/shopspring/decimal"

// LeaderboardPeriod selects the activity window a leaderboard covers
type LeaderboardPeriod string

const (
	PeriodDaily   LeaderboardPeriod = "daily"
	PeriodWeekly  LeaderboardPeriod = "weekly"
	PeriodMonthly LeaderboardPeriod = "monthly"
	PeriodAllTime LeaderboardPeriod = "all_time"
)

// Valid reports whether the period is one of the allowed values
func (p LeaderboardPeriod) Valid() bool {
	switch p {
	case PeriodDaily, PeriodWeekly, PeriodMonthly, PeriodAllTime:
		return true
	}
	return false
}

// LeaderboardEntry is one ranked row of the leaderboard. Ranks are dense
// and 1-based in sorted order.
type LeaderboardEntry struct {
	Rank          int
	UserID        string
	Username      *string
	TotalWinnings decimal.Decimal
	TotalGames    int
	// WinRate is total_wins / total_games, 0 when no games were played
	WinRate float64
}

// Leaderboard is the ranked view over accumulated user statistics.
// UserRank is the authenticated caller's rank within the same result,
// nil when the caller has no qualifying entry.
type Leaderboard struct {
	Entries      []*LeaderboardEntry
	UserRank     *int
	TotalPlayers int
}

// GameHistory is a paginated slice of a user's sessions, newest first
type GameHistory struct {
	Games   []*GameSession
	Total   int
	HasMore bool
}
