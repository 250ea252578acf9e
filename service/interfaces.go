package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ByGamer01/DamnBruh/events"
	"github.com/ByGamer01/DamnBruh/models"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// GetByPrivyID retrieves a user by their Privy identity, nil when absent
	GetByPrivyID(ctx context.Context, privyUserID string) (*models.User, error)

	// GetByID retrieves a user by internal ID, nil when absent
	GetByID(ctx context.Context, id string) (*models.User, error)

	// GetByUsername retrieves a user by username, nil when absent
	GetByUsername(ctx context.Context, username string) (*models.User, error)

	// Create inserts a new user and stamps CreatedAt/UpdatedAt
	Create(ctx context.Context, user *models.User) error

	// UpdateProfile applies the non-nil profile fields
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) error

	// DeductBalance atomically decreases the balance and returns the new
	// value. The update is conditional on sufficient funds; it returns
	// models.ErrInsufficientFunds without mutating anything otherwise.
	DeductBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)

	// AddBalance atomically increases the balance and returns the new value
	AddBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)

	// RecordGameResult bumps total_games, total_wins (when won),
	// total_winnings and last_played_at after a settlement
	RecordGameResult(ctx context.Context, id string, won bool, payout decimal.Decimal) error

	// TopByWinnings returns leaderboard entries ordered by total_winnings
	// descending with total_games as tie-break, optionally restricted to
	// users active since the given time. Ranks are not yet assigned.
	TopByWinnings(ctx context.Context, since *time.Time, limit int) ([]*models.LeaderboardEntry, error)

	// Count returns the total number of users
	Count(ctx context.Context) (int, error)
}

// GameSessionRepository defines the interface for game session data access
type GameSessionRepository interface {
	// Create inserts a new session in the active state
	Create(ctx context.Context, session *models.GameSession) error

	// GetByID retrieves a session by ID, nil when absent
	GetByID(ctx context.Context, id string) (*models.GameSession, error)

	// Settle transitions an active session to completed, stamping the
	// final score, rank, payout and end time. Returns
	// models.ErrAlreadySettled when the session is no longer active.
	Settle(ctx context.Context, id string, settlement models.Settlement) error

	// ListByUser returns the user's sessions newest-first
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.GameSession, error)

	// CountByUser returns the total number of sessions for a user
	CountByUser(ctx context.Context, userID string) (int, error)
}

// TransactionRepository defines the interface for the append-only
// transaction log
type TransactionRepository interface {
	// Record appends a transaction and stamps CreatedAt
	Record(ctx context.Context, txn *models.Transaction) error

	// ListByUser returns transactions newest-first, optionally filtered
	// by type
	ListByUser(ctx context.Context, userID string, typeFilter *models.TransactionType, limit int) ([]*models.Transaction, error)

	// PendingWithdrawalTotal sums the user's pending withdrawal amounts
	PendingWithdrawalTotal(ctx context.Context, userID string) (decimal.Decimal, error)

	// UpdateStatus transitions a transaction's processing status.
	// Only withdrawals move past their initial status.
	UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error
}

// AffiliateRepository defines the interface for affiliate data access
type AffiliateRepository interface {
	// Create inserts a new affiliate record
	Create(ctx context.Context, affiliate *models.Affiliate) error

	// GetByUserID retrieves an affiliate record by owning user, nil when absent
	GetByUserID(ctx context.Context, userID string) (*models.Affiliate, error)

	// GetByCode retrieves an affiliate record by referral code, nil when absent
	GetByCode(ctx context.Context, code string) (*models.Affiliate, error)
}

// EventPublisher defines the interface for publishing events within a
// unit of work; pending events are flushed only after commit
type EventPublisher interface {
	Publish(event events.Event)
}

// UnitOfWork provides transactional access to repositories.
// All repositories returned share the same database transaction, so the
// balance mutation, session write and transaction-log append of one
// settlement either all commit or none do.
type UnitOfWork interface {
	// Begin starts the transaction
	Begin(ctx context.Context) error

	// Commit commits the transaction and flushes pending events
	Commit() error

	// Rollback rolls back the transaction; no-op if already committed
	Rollback() error

	// UserRepository returns the user repository bound to this transaction
	UserRepository() UserRepository

	// GameSessionRepository returns the session repository bound to this transaction
	GameSessionRepository() GameSessionRepository

	// TransactionRepository returns the transaction-log repository bound to this transaction
	TransactionRepository() TransactionRepository

	// AffiliateRepository returns the affiliate repository bound to this transaction
	AffiliateRepository() AffiliateRepository

	// EventBus returns the transactional event publisher
	EventBus() EventPublisher
}

// UnitOfWorkFactory creates units of work
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// Identity carries the verified identity-provider claims a request
// authenticated with
type Identity struct {
	PrivyUserID   string
	Email         *string
	WalletAddress *string
}

// UserService defines the interface for profile and balance operations
type UserService interface {
	// GetOrCreateProfile returns the user for a verified identity,
	// creating it (with zero balance, a referral code and an affiliate
	// record) on first sight
	GetOrCreateProfile(ctx context.Context, identity Identity) (*models.User, error)

	// UpdateProfile applies a profile update, enforcing username uniqueness
	UpdateProfile(ctx context.Context, privyUserID string, update models.ProfileUpdate) error

	// GetBalance returns the user's balance including pending withdrawals
	GetBalance(ctx context.Context, privyUserID string) (*models.Balance, error)
}

// GameService defines the interface for the session lifecycle:
// join (debit + create + log) and end (payout + settle + log)
type GameService interface {
	// JoinGame debits the bet, creates an active session and logs a bet
	// transaction as a single atomic unit
	JoinGame(ctx context.Context, privyUserID string, gameType models.GameType, betAmount decimal.Decimal, appearance map[string]any) (*models.JoinResult, error)

	// EndGame settles an active session: computes the payout, credits the
	// balance, updates user statistics and logs a payout transaction when
	// the payout is positive
	EndGame(ctx context.Context, privyUserID, sessionID string, finalScore, finalRank int) (*models.GameResult, error)

	// GetGameHistory returns the user's paginated session history
	GetGameHistory(ctx context.Context, privyUserID string, limit, offset int) (*models.GameHistory, error)
}

// LeaderboardService defines the interface for ranked statistics views
type LeaderboardService interface {
	// GetLeaderboard returns ranked entries for the period. When
	// viewerPrivyID is non-empty the viewer's rank within the same
	// result is resolved.
	GetLeaderboard(ctx context.Context, period models.LeaderboardPeriod, limit int, viewerPrivyID string) (*models.Leaderboard, error)
}

// LedgerService defines the interface for transaction-log queries and
// withdrawal requests
type LedgerService interface {
	// GetTransactions returns the user's transactions newest-first
	GetTransactions(ctx context.Context, privyUserID string, typeFilter *models.TransactionType, limit int) ([]*models.Transaction, error)

	// RequestWithdrawal debits the amount and records a pending
	// withdrawal transaction as a single atomic unit. On-chain execution
	// happens elsewhere; the transaction stays pending here.
	RequestWithdrawal(ctx context.Context, privyUserID string, amount decimal.Decimal, destination string) (*models.WithdrawalResult, error)
}

// Matchmaker supplies the synthetic opponent roster and player count for
// a session. Injected so the settlement core stays deterministic in tests.
type Matchmaker interface {
	// Roster returns the synthetic opponents shown to a joining player
	Roster() []models.Opponent

	// TotalPlayers returns the player count used for settlement metadata
	TotalPlayers() int
}
