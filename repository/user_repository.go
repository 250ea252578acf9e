package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/ByGamer01/DamnBruh/database"
	"github.com/ByGamer01/DamnBruh/models"
)

// UserRepository implements the UserRepository interface
type UserRepository struct {
	q queryable
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *database.DB) *UserRepository {
	return &UserRepository{q: db.Pool}
}

// newUserRepositoryWithTx creates a new user repository with a transaction
func newUserRepositoryWithTx(tx queryable) *UserRepository {
	return &UserRepository{q: tx}
}

const userColumns = `
	id, privy_user_id, email, wallet_address, username, display_name,
	balance, total_games, total_wins, total_winnings,
	referral_code, referred_by, appearance, last_played_at,
	created_at, updated_at
`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var appearanceJSON []byte

	err := row.Scan(
		&user.ID,
		&user.PrivyUserID,
		&user.Email,
		&user.WalletAddress,
		&user.Username,
		&user.DisplayName,
		&user.Balance,
		&user.TotalGames,
		&user.TotalWins,
		&user.TotalWinnings,
		&user.ReferralCode,
		&user.ReferredBy,
		&appearanceJSON,
		&user.LastPlayedAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(appearanceJSON) > 0 {
		if err := json.Unmarshal(appearanceJSON, &user.Appearance); err != nil {
			return nil, fmt.Errorf("failed to unmarshal appearance: %w", err)
		}
	}

	return &user, nil
}

// GetByPrivyID retrieves a user by their Privy identity
func (r *UserRepository) GetByPrivyID(ctx context.Context, privyUserID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE privy_user_id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, privyUserID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by privy ID %s: %w", privyUserID, err)
	}

	return user, nil
}

// GetByID retrieves a user by internal ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user %s: %w", id, err)
	}

	return user, nil
}

// GetByUsername retrieves a user by username
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	user, err := scanUser(r.q.QueryRow(ctx, query, username))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user by username %s: %w", username, err)
	}

	return user, nil
}

// Create inserts a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	appearanceJSON, err := json.Marshal(user.Appearance)
	if err != nil {
		return fmt.Errorf("failed to marshal appearance: %w", err)
	}

	query := `
		INSERT INTO users
		(id, privy_user_id, email, wallet_address, balance, total_games, total_wins, total_winnings, referral_code, referred_by, appearance)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`

	err = r.q.QueryRow(ctx, query,
		user.ID,
		user.PrivyUserID,
		user.Email,
		user.WalletAddress,
		user.Balance,
		user.TotalGames,
		user.TotalWins,
		user.TotalWinnings,
		user.ReferralCode,
		user.ReferredBy,
		appearanceJSON,
	).Scan(&user.CreatedAt, &user.UpdatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" && strings.Contains(pgErr.ConstraintName, "privy_user_id") {
			return fmt.Errorf("privy ID %s: %w", user.PrivyUserID, models.ErrUserExists)
		}
		return fmt.Errorf("failed to create user for privy ID %s: %w", user.PrivyUserID, err)
	}

	return nil
}

// UpdateProfile applies the non-nil profile fields
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) error {
	var appearanceJSON []byte
	if update.Appearance != nil {
		var err error
		appearanceJSON, err = json.Marshal(update.Appearance)
		if err != nil {
			return fmt.Errorf("failed to marshal appearance: %w", err)
		}
	}

	query := `
		UPDATE users
		SET username = COALESCE($1, username),
		    display_name = COALESCE($2, display_name),
		    appearance = COALESCE($3, appearance),
		    updated_at = NOW()
		WHERE id = $4
	`

	result, err := r.q.Exec(ctx, query, update.Username, update.DisplayName, appearanceJSON, id)
	if err != nil {
		return fmt.Errorf("failed to update profile for user %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

// DeductBalance deducts from a user's balance atomically, failing if
// insufficient funds. The WHERE clause makes the sufficient-funds check
// and the decrement a single statement, so two concurrent debits can
// never both pass against a stale balance.
func (r *UserRepository) DeductBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance - $1, updated_at = NOW()
		WHERE id = $2 AND balance >= $1
		RETURNING balance
	`

	var newBalance decimal.Decimal
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		// Distinguish a missing user from insufficient funds
		user, lookupErr := r.GetByID(ctx, id)
		if lookupErr != nil {
			return decimal.Zero, fmt.Errorf("failed to check user: %w", lookupErr)
		}
		if user == nil {
			return decimal.Zero, models.ErrUserNotFound
		}
		return decimal.Zero, fmt.Errorf("have %s, need %s: %w", user.Balance, amount, models.ErrInsufficientFunds)
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to deduct balance for user %s: %w", id, err)
	}

	return newBalance, nil
}

// AddBalance adds to a user's balance atomically and returns the new value
func (r *UserRepository) AddBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	if amount.LessThanOrEqual(decimal.Zero) {
		return decimal.Zero, fmt.Errorf("amount must be positive")
	}

	query := `
		UPDATE users
		SET balance = balance + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING balance
	`

	var newBalance decimal.Decimal
	err := r.q.QueryRow(ctx, query, amount, id).Scan(&newBalance)
	if err == pgx.ErrNoRows {
		return decimal.Zero, models.ErrUserNotFound
	}
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to add balance for user %s: %w", id, err)
	}

	return newBalance, nil
}

// RecordGameResult bumps the user's statistics after a settlement.
// total_winnings accumulates payouts and never decreases.
func (r *UserRepository) RecordGameResult(ctx context.Context, id string, won bool, payout decimal.Decimal) error {
	query := `
		UPDATE users
		SET total_games = total_games + 1,
		    total_wins = total_wins + CASE WHEN $1 THEN 1 ELSE 0 END,
		    total_winnings = total_winnings + $2,
		    last_played_at = NOW(),
		    updated_at = NOW()
		WHERE id = $3
	`

	result, err := r.q.Exec(ctx, query, won, payout, id)
	if err != nil {
		return fmt.Errorf("failed to record game result for user %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return models.ErrUserNotFound
	}

	return nil
}

// TopByWinnings returns leaderboard entries ordered by total_winnings
// descending, ties broken by total_games descending. win_rate is
// computed in SQL with a zero-games guard.
func (r *UserRepository) TopByWinnings(ctx context.Context, since *time.Time, limit int) ([]*models.LeaderboardEntry, error) {
	query := `
		SELECT
			id,
			username,
			total_winnings,
			total_games,
			CASE WHEN total_games = 0 THEN 0
			     ELSE total_wins::float8 / total_games
			END AS win_rate
		FROM users
		WHERE ($1::timestamptz IS NULL OR last_played_at >= $1)
		ORDER BY total_winnings DESC, total_games DESC
		LIMIT $2
	`

	rows, err := r.q.Query(ctx, query, since, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	var entries []*models.LeaderboardEntry
	for rows.Next() {
		var entry models.LeaderboardEntry
		err := rows.Scan(
			&entry.UserID,
			&entry.Username,
			&entry.TotalWinnings,
			&entry.TotalGames,
			&entry.WinRate,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard entry: %w", err)
		}
		entries = append(entries, &entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard entries: %w", err)
	}

	return entries, nil
}

// Count returns the total number of users
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM users`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count users: %w", err)
	}
	return count, nil
}
