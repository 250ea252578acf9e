package service

import "github.com/shopspring/decimal"

// winnerMultiplier is the gross multiple paid on a first-place finish
// before the house edge is applied.
var winnerMultiplier = decimal.RequireFromString("1.8")

// CalculatePayout maps a session's stake and final rank to the amount
// credited back at settlement:
//
//	rank 1:   bet * 1.8 * (1 - houseEdge)
//	rank 2-3: bet (stake returned, no profit)
//	rank > 3: 0
//
// totalPlayers does not affect the current formula; it is accepted so a
// future pool-based payout can use it without changing callers. All
// arithmetic stays in decimal to avoid floating-point drift.
func CalculatePayout(betAmount decimal.Decimal, finalRank, totalPlayers int, houseEdge decimal.Decimal) decimal.Decimal {
	_ = totalPlayers

	switch {
	case finalRank == 1:
		return betAmount.Mul(winnerMultiplier).Mul(decimal.NewFromInt(1).Sub(houseEdge))
	case finalRank <= 3:
		return betAmount
	default:
		return decimal.Zero
	}
}
