package service

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/ByGamer01/DamnBruh/events"
	"github.com/ByGamer01/DamnBruh/models"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByPrivyID(ctx context.Context, privyUserID string) (*models.User, error) {
	args := m.Called(ctx, privyUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) error {
	args := m.Called(ctx, id, update)
	return args.Error(0)
}

func (m *MockUserRepository) DeductBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockUserRepository) AddBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error) {
	args := m.Called(ctx, id, amount)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockUserRepository) RecordGameResult(ctx context.Context, id string, won bool, payout decimal.Decimal) error {
	args := m.Called(ctx, id, won, payout)
	return args.Error(0)
}

func (m *MockUserRepository) TopByWinnings(ctx context.Context, since *time.Time, limit int) ([]*models.LeaderboardEntry, error) {
	args := m.Called(ctx, since, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.LeaderboardEntry), args.Error(1)
}

func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

// MockGameSessionRepository is a mock implementation of GameSessionRepository
type MockGameSessionRepository struct {
	mock.Mock
}

func (m *MockGameSessionRepository) Create(ctx context.Context, session *models.GameSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockGameSessionRepository) GetByID(ctx context.Context, id string) (*models.GameSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) Settle(ctx context.Context, id string, settlement models.Settlement) error {
	args := m.Called(ctx, id, settlement)
	return args.Error(0)
}

func (m *MockGameSessionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.GameSession, error) {
	args := m.Called(ctx, userID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.GameSession), args.Error(1)
}

func (m *MockGameSessionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

// MockTransactionRepository is a mock implementation of TransactionRepository
type MockTransactionRepository struct {
	mock.Mock
}

func (m *MockTransactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	args := m.Called(ctx, txn)
	return args.Error(0)
}

func (m *MockTransactionRepository) ListByUser(ctx context.Context, userID string, typeFilter *models.TransactionType, limit int) ([]*models.Transaction, error) {
	args := m.Called(ctx, userID, typeFilter, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Transaction), args.Error(1)
}

func (m *MockTransactionRepository) PendingWithdrawalTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *MockTransactionRepository) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

// MockAffiliateRepository is a mock implementation of AffiliateRepository
type MockAffiliateRepository struct {
	mock.Mock
}

func (m *MockAffiliateRepository) Create(ctx context.Context, affiliate *models.Affiliate) error {
	args := m.Called(ctx, affiliate)
	return args.Error(0)
}

func (m *MockAffiliateRepository) GetByUserID(ctx context.Context, userID string) (*models.Affiliate, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Affiliate), args.Error(1)
}

func (m *MockAffiliateRepository) GetByCode(ctx context.Context, code string) (*models.Affiliate, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Affiliate), args.Error(1)
}

// MockEventPublisher is a mock implementation of EventPublisher for testing
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(event events.Event) {
	m.Called(event)
}

// noopEventPublisher swallows events; used when a test doesn't assert on them
type noopEventPublisher struct{}

func (noopEventPublisher) Publish(event events.Event) {}

// MockUnitOfWork is a mock implementation of UnitOfWork. Begin, Commit
// and Rollback are set up with On(); repositories are injected with
// SetRepositories.
type MockUnitOfWork struct {
	mock.Mock
	userRepo        UserRepository
	gameSessionRepo GameSessionRepository
	transactionRepo TransactionRepository
	affiliateRepo   AffiliateRepository
	eventBus        EventPublisher
}

// SetRepositories configures the repositories returned by the accessors.
// Pass nil for repositories the test never touches.
func (m *MockUnitOfWork) SetRepositories(userRepo UserRepository, gameSessionRepo GameSessionRepository, transactionRepo TransactionRepository, affiliateRepo AffiliateRepository) {
	m.userRepo = userRepo
	m.gameSessionRepo = gameSessionRepo
	m.transactionRepo = transactionRepo
	m.affiliateRepo = affiliateRepo
}

// SetEventBus configures the event publisher returned by EventBus.
// Tests that don't assert on events can skip this; a no-op is used.
func (m *MockUnitOfWork) SetEventBus(bus EventPublisher) {
	m.eventBus = bus
}

func (m *MockUnitOfWork) Begin(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockUnitOfWork) Commit() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) Rollback() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockUnitOfWork) UserRepository() UserRepository {
	return m.userRepo
}

func (m *MockUnitOfWork) GameSessionRepository() GameSessionRepository {
	return m.gameSessionRepo
}

func (m *MockUnitOfWork) TransactionRepository() TransactionRepository {
	return m.transactionRepo
}

func (m *MockUnitOfWork) AffiliateRepository() AffiliateRepository {
	return m.affiliateRepo
}

func (m *MockUnitOfWork) EventBus() EventPublisher {
	if m.eventBus == nil {
		return noopEventPublisher{}
	}
	return m.eventBus
}

// MockUnitOfWorkFactory is a mock implementation of UnitOfWorkFactory
type MockUnitOfWorkFactory struct {
	mock.Mock
}

func (m *MockUnitOfWorkFactory) Create() UnitOfWork {
	args := m.Called()
	return args.Get(0).(UnitOfWork)
}

// stubMatchmaker returns a fixed roster and player count so settlement
// outcomes are deterministic in tests
type stubMatchmaker struct {
	roster       []models.Opponent
	totalPlayers int
}

func (s *stubMatchmaker) Roster() []models.Opponent {
	return s.roster
}

func (s *stubMatchmaker) TotalPlayers() int {
	return s.totalPlayers
}
