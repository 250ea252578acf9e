package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ByGamer01/DamnBruh/database"
	"github.com/ByGamer01/DamnBruh/models"
)

// AffiliateRepository implements the AffiliateRepository interface
type AffiliateRepository struct {
	q queryable
}

// NewAffiliateRepository creates a new affiliate repository
func NewAffiliateRepository(db *database.DB) *AffiliateRepository {
	return &AffiliateRepository{q: db.Pool}
}

// newAffiliateRepositoryWithTx creates a new affiliate repository with a transaction
func newAffiliateRepositoryWithTx(tx queryable) *AffiliateRepository {
	return &AffiliateRepository{q: tx}
}

const affiliateColumns = `
	id, user_id, referral_code, commission_rate,
	total_referrals, total_commission, pending_commission, is_active, created_at
`

func scanAffiliate(row pgx.Row) (*models.Affiliate, error) {
	var affiliate models.Affiliate
	err := row.Scan(
		&affiliate.ID,
		&affiliate.UserID,
		&affiliate.ReferralCode,
		&affiliate.CommissionRate,
		&affiliate.TotalReferrals,
		&affiliate.TotalCommission,
		&affiliate.PendingCommission,
		&affiliate.IsActive,
		&affiliate.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &affiliate, nil
}

// Create inserts a new affiliate record
func (r *AffiliateRepository) Create(ctx context.Context, affiliate *models.Affiliate) error {
	query := `
		INSERT INTO affiliates
		(id, user_id, referral_code, commission_rate, total_referrals, total_commission, pending_commission, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.q.QueryRow(ctx, query,
		affiliate.ID,
		affiliate.UserID,
		affiliate.ReferralCode,
		affiliate.CommissionRate,
		affiliate.TotalReferrals,
		affiliate.TotalCommission,
		affiliate.PendingCommission,
		affiliate.IsActive,
	).Scan(&affiliate.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create affiliate for user %s: %w", affiliate.UserID, err)
	}

	return nil
}

// GetByUserID retrieves an affiliate record by owning user
func (r *AffiliateRepository) GetByUserID(ctx context.Context, userID string) (*models.Affiliate, error) {
	query := `SELECT ` + affiliateColumns + ` FROM affiliates WHERE user_id = $1`

	affiliate, err := scanAffiliate(r.q.QueryRow(ctx, query, userID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get affiliate for user %s: %w", userID, err)
	}

	return affiliate, nil
}

// GetByCode retrieves an affiliate record by referral code
func (r *AffiliateRepository) GetByCode(ctx context.Context, code string) (*models.Affiliate, error) {
	query := `SELECT ` + affiliateColumns + ` FROM affiliates WHERE referral_code = $1`

	affiliate, err := scanAffiliate(r.q.QueryRow(ctx, query, code))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get affiliate by code %s: %w", code, err)
	}

	return affiliate, nil
}
