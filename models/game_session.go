package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GameType identifies the kind of game a session wagers on
type GameType string

const (
	GameTypeSkillMatch GameType = "skill_match"
	GameTypeTournament GameType = "tournament"
	GameTypePractice   GameType = "practice"
)

// Valid reports whether the game type is one of the allowed values
func (t GameType) Valid() bool {
	switch t {
	case GameTypeSkillMatch, GameTypeTournament, GameTypePractice:
		return true
	}
	return false
}

// SessionStatus is the lifecycle state of a game session.
// The only transition is active -> completed; completed is terminal.
type SessionStatus string

const (
	SessionStatusActive    SessionStatus = "active"
	SessionStatusCompleted SessionStatus = "completed"
)

// GameSession represents one wagered round of a game. The bet amount is
// deducted from the user's balance before the session row is created, and
// is immutable once recorded.
type GameSession struct {
	ID         string          `db:"id"`
	UserID     string          `db:"user_id"`
	GameType   GameType        `db:"game_type"`
	BetAmount  decimal.Decimal `db:"bet_amount"`
	Status     SessionStatus   `db:"status"`
	FinalScore *int            `db:"final_score"`
	FinalRank  *int            `db:"final_rank"`
	Payout     *decimal.Decimal `db:"payout"`
	Appearance map[string]any  `db:"appearance"`
	CreatedAt  time.Time       `db:"created_at"`
	EndedAt    *time.Time      `db:"ended_at"`
}

// Settlement captures the terminal state written when a session ends
type Settlement struct {
	FinalScore int
	FinalRank  int
	Payout     decimal.Decimal
	EndedAt    time.Time
}

// Opponent is a synthetic roster entry returned on join. Opponents are
// mocked and carry no settlement semantics.
type Opponent struct {
	PlayerID   string         `json:"player_id"`
	Username   string         `json:"username"`
	Score      int            `json:"score"`
	Appearance map[string]any `json:"appearance"`
}

// JoinResult is returned to the user after a successful join
type JoinResult struct {
	Session      *GameSession
	NewBalance   decimal.Decimal
	OtherPlayers []Opponent
}

// GameResult is returned to the user after a session is settled
type GameResult struct {
	Payout       decimal.Decimal
	NewBalance   decimal.Decimal
	Rank         int
	TotalPlayers int
	// Result is "win" for rank <= 3, "loss" otherwise
	Result string
}
