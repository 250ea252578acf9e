package api

import (
	"net/http"

	"github.com/shopspring/decimal"

	"github.com/ByGamer01/DamnBruh/models"
	"github.com/ByGamer01/DamnBruh/service"
)

// LeaderboardHandler serves the ranked statistics endpoints
type LeaderboardHandler struct {
	leaderboards service.LeaderboardService
}

// NewLeaderboardHandler creates a new leaderboard handler
func NewLeaderboardHandler(leaderboards service.LeaderboardService) *LeaderboardHandler {
	return &LeaderboardHandler{leaderboards: leaderboards}
}

type leaderboardEntryResponse struct {
	Rank          int             `json:"rank"`
	UserID        string          `json:"user_id"`
	Username      *string         `json:"username"`
	TotalWinnings decimal.Decimal `json:"total_winnings"`
	TotalGames    int             `json:"total_games"`
	WinRate       float64         `json:"win_rate"`
}

type leaderboardResponse struct {
	Entries      []leaderboardEntryResponse `json:"entries"`
	UserRank     *int                       `json:"user_rank"`
	TotalPlayers int                        `json:"total_players"`
	Period       string                     `json:"period"`
}

// GetGlobal handles GET /api/leaderboard/global. Authentication is
// optional; when present the caller's own rank is resolved.
func (h *LeaderboardHandler) GetGlobal(w http.ResponseWriter, r *http.Request) {
	period := models.LeaderboardPeriod(r.URL.Query().Get("period"))
	if period == "" {
		period = models.PeriodAllTime
	}
	limit := queryInt(r, "limit", 10, 1, 100)

	viewerPrivyID := ""
	if identity := identityFromContext(r.Context()); identity != nil {
		viewerPrivyID = identity.PrivyUserID
	}

	board, err := h.leaderboards.GetLeaderboard(r.Context(), period, limit, viewerPrivyID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entries := make([]leaderboardEntryResponse, 0, len(board.Entries))
	for _, entry := range board.Entries {
		entries = append(entries, leaderboardEntryResponse{
			Rank:          entry.Rank,
			UserID:        entry.UserID,
			Username:      entry.Username,
			TotalWinnings: entry.TotalWinnings,
			TotalGames:    entry.TotalGames,
			WinRate:       entry.WinRate,
		})
	}

	writeJSON(w, http.StatusOK, leaderboardResponse{
		Entries:      entries,
		UserRank:     board.UserRank,
		TotalPlayers: board.TotalPlayers,
		Period:       string(period),
	})
}
