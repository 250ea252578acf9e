package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ByGamer01/DamnBruh/models"
	"github.com/ByGamer01/DamnBruh/service"
)

// GameHandler serves the game session lifecycle endpoints
type GameHandler struct {
	games service.GameService
}

// NewGameHandler creates a new game handler
func NewGameHandler(games service.GameService) *GameHandler {
	return &GameHandler{games: games}
}

type joinGameRequest struct {
	GameType   models.GameType `json:"game_type"`
	BetAmount  decimal.Decimal `json:"bet_amount"`
	Appearance map[string]any  `json:"appearance"`
}

type joinGameResponse struct {
	SessionID    string            `json:"session_id"`
	GameType     models.GameType   `json:"game_type"`
	BetAmount    decimal.Decimal   `json:"bet_amount"`
	Status       string            `json:"status"`
	NewBalance   decimal.Decimal   `json:"new_balance"`
	OtherPlayers []models.Opponent `json:"other_players"`
}

// JoinGame handles POST /api/games/join
func (h *GameHandler) JoinGame(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req joinGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	result, err := h.games.JoinGame(r.Context(), identity.PrivyUserID, req.GameType, req.BetAmount, req.Appearance)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, joinGameResponse{
		SessionID:    result.Session.ID,
		GameType:     result.Session.GameType,
		BetAmount:    result.Session.BetAmount,
		Status:       string(result.Session.Status),
		NewBalance:   result.NewBalance,
		OtherPlayers: result.OtherPlayers,
	})
}

type endGameRequest struct {
	SessionID  string `json:"session_id"`
	FinalScore int    `json:"final_score"`
	FinalRank  int    `json:"final_rank"`
}

type endGameResponse struct {
	Payout       decimal.Decimal `json:"payout"`
	NewBalance   decimal.Decimal `json:"new_balance"`
	Rank         int             `json:"rank"`
	TotalPlayers int             `json:"total_players"`
	Result       string          `json:"result"`
}

// EndGame handles POST /api/games/end
func (h *GameHandler) EndGame(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req endGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.SessionID == "" {
		writeError(w, http.StatusBadRequest, "session_id is required")
		return
	}

	result, err := h.games.EndGame(r.Context(), identity.PrivyUserID, req.SessionID, req.FinalScore, req.FinalRank)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, endGameResponse{
		Payout:       result.Payout,
		NewBalance:   result.NewBalance,
		Rank:         result.Rank,
		TotalPlayers: result.TotalPlayers,
		Result:       result.Result,
	})
}

type gameHistoryEntry struct {
	SessionID  string           `json:"session_id"`
	GameType   models.GameType  `json:"game_type"`
	BetAmount  decimal.Decimal  `json:"bet_amount"`
	Status     string           `json:"status"`
	FinalScore *int             `json:"final_score"`
	FinalRank  *int             `json:"final_rank"`
	Payout     *decimal.Decimal `json:"payout"`
	CreatedAt  time.Time        `json:"created_at"`
	EndedAt    *time.Time       `json:"ended_at"`
}

type gameHistoryResponse struct {
	Games   []gameHistoryEntry `json:"games"`
	Total   int                `json:"total"`
	HasMore bool               `json:"has_more"`
}

// GetHistory handles GET /api/games/history
func (h *GameHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	limit := queryInt(r, "limit", 20, 1, 100)
	offset := queryInt(r, "offset", 0, 0, 1_000_000)

	history, err := h.games.GetGameHistory(r.Context(), identity.PrivyUserID, limit, offset)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entries := make([]gameHistoryEntry, 0, len(history.Games))
	for _, session := range history.Games {
		entries = append(entries, gameHistoryEntry{
			SessionID:  session.ID,
			GameType:   session.GameType,
			BetAmount:  session.BetAmount,
			Status:     string(session.Status),
			FinalScore: session.FinalScore,
			FinalRank:  session.FinalRank,
			Payout:     session.Payout,
			CreatedAt:  session.CreatedAt,
			EndedAt:    session.EndedAt,
		})
	}

	writeJSON(w, http.StatusOK, gameHistoryResponse{
		Games:   entries,
		Total:   history.Total,
		HasMore: history.HasMore,
	})
}
