package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// User represents a player with a balance and accumulated game statistics.
// Users are created lazily on first profile fetch after authentication and
// are keyed internally by a generated ID; PrivyUserID links them to the
// external identity provider.
type User struct {
	ID            string          `db:"id"`
	PrivyUserID   string          `db:"privy_user_id"`
	Email         *string         `db:"email"`
	WalletAddress *string         `db:"wallet_address"`
	Username      *string         `db:"username"`
	DisplayName   *string         `db:"display_name"`
	Balance       decimal.Decimal `db:"balance"`
	TotalGames    int             `db:"total_games"`
	TotalWins     int             `db:"total_wins"`
	TotalWinnings decimal.Decimal `db:"total_winnings"`
	ReferralCode  *string         `db:"referral_code"`
	ReferredBy    *string         `db:"referred_by"`
	Appearance    map[string]any  `db:"appearance"`
	LastPlayedAt  *time.Time      `db:"last_played_at"`
	CreatedAt     time.Time       `db:"created_at"`
	UpdatedAt     time.Time       `db:"updated_at"`
}

// ProfileUpdate carries the mutable profile fields. Nil fields are left
// untouched.
type ProfileUpdate struct {
	Username    *string
	DisplayName *string
	Appearance  map[string]any
}

// Balance is the balance view returned to the user, including funds
// locked in pending withdrawals.
type Balance struct {
	Balance            decimal.Decimal
	Currency           string
	WalletAddress      *string
	PendingWithdrawals decimal.Decimal
}

// DefaultAppearance is applied to newly created users.
func DefaultAppearance() map[string]any {
	return map[string]any{
		"color":     "#FCD34D",
		"pattern":   "solid",
		"accessory": "none",
	}
}
