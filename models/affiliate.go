package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Affiliate tracks a user's referral program participation. One record is
// created alongside the user, carrying the same referral code.
type Affiliate struct {
	ID                string          `db:"id"`
	UserID            string          `db:"user_id"`
	ReferralCode      string          `db:"referral_code"`
	CommissionRate    decimal.Decimal `db:"commission_rate"`
	TotalReferrals    int             `db:"total_referrals"`
	TotalCommission   decimal.Decimal `db:"total_commission"`
	PendingCommission decimal.Decimal `db:"pending_commission"`
	IsActive          bool            `db:"is_active"`
	CreatedAt         time.Time       `db:"created_at"`
}
