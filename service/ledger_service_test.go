package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ByGamer01/DamnBruh/models"
)

func testLedgerConfig() LedgerConfig {
	return LedgerConfig{
		MinWithdrawal: decimal.RequireFromString("0.01"),
		MaxWithdrawal: decimal.RequireFromString("100"),
	}
}

const testSolanaAddress = "4Nd1mYvK7QhPqDzXcR8sT2wGbJ5nL6pE9aF3uB1oCxYz"

func TestLedgerService_RequestWithdrawal_Success(t *testing.T) {
	ctx := context.Background()

	// Setup mocks
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockTxnRepo := new(MockTransactionRepository)

	// Configure unit of work
	mockUoW.SetRepositories(mockUserRepo, nil, mockTxnRepo, nil)

	service := NewLedgerService(mockFactory, testLedgerConfig())

	existingUser := &models.User{
		ID:          "user-1",
		PrivyUserID: "did:privy:abc",
		Balance:     decimal.NewFromInt(5),
	}
	amount := decimal.RequireFromString("1.5")

	// Mock expectations
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(existingUser, nil)
	mockUserRepo.On("DeductBalance", ctx, "user-1", amount).Return(decimal.RequireFromString("3.5"), nil)

	mockTxnRepo.On("Record", ctx, mock.MatchedBy(func(txn *models.Transaction) bool {
		return txn.Type == models.TransactionTypeWithdrawal &&
			txn.Amount.Equal(amount) &&
			txn.Status == models.TransactionStatusPending &&
			txn.Metadata["destination"] == testSolanaAddress
	})).Return(nil)

	result, err := service.RequestWithdrawal(ctx, "did:privy:abc", amount, testSolanaAddress)

	assert.NoError(t, err)
	assert.NotNil(t, result)
	assert.Equal(t, models.TransactionStatusPending, result.Status)
	assert.True(t, result.Amount.Equal(amount))
	assert.True(t, result.Fee.IsZero())
	assert.True(t, result.NewBalance.Equal(decimal.RequireFromString("3.5")))

	mockUoW.AssertExpectations(t)
	mockUserRepo.AssertExpectations(t)
	mockTxnRepo.AssertExpectations(t)
}

func TestLedgerService_RequestWithdrawal_EVMAddress(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockTxnRepo := new(MockTransactionRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, mockTxnRepo, nil)

	service := NewLedgerService(mockFactory, testLedgerConfig())

	existingUser := &models.User{
		ID:          "user-1",
		PrivyUserID: "did:privy:abc",
		Balance:     decimal.NewFromInt(5),
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(existingUser, nil)
	mockUserRepo.On("DeductBalance", ctx, "user-1", mock.AnythingOfType("decimal.Decimal")).Return(decimal.NewFromInt(4), nil)
	mockTxnRepo.On("Record", ctx, mock.AnythingOfType("*models.Transaction")).Return(nil)

	result, err := service.RequestWithdrawal(ctx, "did:privy:abc", decimal.NewFromInt(1), "0xAb5801a7D398351b8bE11C439e05C5B3259aeC9B")

	assert.NoError(t, err)
	assert.NotNil(t, result)
}

func TestLedgerService_RequestWithdrawal_Validation(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewLedgerService(mockFactory, testLedgerConfig())

	tests := []struct {
		name        string
		amount      string
		destination string
	}{
		{"amount below minimum", "0.005", testSolanaAddress},
		{"amount above maximum", "101", testSolanaAddress},
		{"zero amount", "0", testSolanaAddress},
		{"malformed address", "1", "not-an-address"},
		{"truncated hex address", "1", "0xdeadbeef"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := service.RequestWithdrawal(ctx, "did:privy:abc", decimal.RequireFromString(tt.amount), tt.destination)
			assert.ErrorIs(t, err, models.ErrValidation)
			assert.Nil(t, result)
		})
	}

	mockFactory.AssertNotCalled(t, "Create")
}

func TestLedgerService_RequestWithdrawal_InsufficientFunds(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockTxnRepo := new(MockTransactionRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, mockTxnRepo, nil)

	service := NewLedgerService(mockFactory, testLedgerConfig())

	poorUser := &models.User{
		ID:          "user-1",
		PrivyUserID: "did:privy:abc",
		Balance:     decimal.RequireFromString("0.5"),
	}
	amount := decimal.NewFromInt(2)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(poorUser, nil)
	mockUserRepo.On("DeductBalance", ctx, "user-1", amount).Return(decimal.Zero, models.ErrInsufficientFunds)

	result, err := service.RequestWithdrawal(ctx, "did:privy:abc", amount, testSolanaAddress)

	assert.ErrorIs(t, err, models.ErrInsufficientFunds)
	assert.Nil(t, result)

	mockTxnRepo.AssertNotCalled(t, "Record")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestLedgerService_GetTransactions(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockTxnRepo := new(MockTransactionRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, mockTxnRepo, nil)

	service := NewLedgerService(mockFactory, testLedgerConfig())

	existingUser := &models.User{ID: "user-1", PrivyUserID: "did:privy:abc"}
	betType := models.TransactionTypeBet
	transactions := []*models.Transaction{
		{ID: "txn-2", UserID: "user-1", Type: models.TransactionTypeBet},
		{ID: "txn-1", UserID: "user-1", Type: models.TransactionTypeBet},
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(existingUser, nil)
	mockTxnRepo.On("ListByUser", ctx, "user-1", &betType, 50).Return(transactions, nil)

	result, err := service.GetTransactions(ctx, "did:privy:abc", &betType, 50)

	assert.NoError(t, err)
	assert.Len(t, result, 2)
}

func TestLedgerService_GetTransactions_InvalidTypeFilter(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewLedgerService(mockFactory, testLedgerConfig())

	badType := models.TransactionType("refund")
	result, err := service.GetTransactions(ctx, "did:privy:abc", &badType, 50)

	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Nil(t, result)
	mockFactory.AssertNotCalled(t, "Create")
}
