package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ByGamer01/DamnBruh/models"
)

func testUserConfig() UserConfig {
	return UserConfig{
		CommissionRate: decimal.RequireFromString("0.05"),
	}
}

func strPtr(s string) *string {
	return &s
}

func TestUserService_GetOrCreateProfile_ExistingUser(t *testing.T) {
	ctx := context.Background()

	// Setup mocks
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAffiliateRepo := new(MockAffiliateRepository)

	// Configure unit of work
	mockUoW.SetRepositories(mockUserRepo, nil, nil, mockAffiliateRepo)

	service := NewUserService(mockFactory, testUserConfig())

	existingUser := &models.User{
		ID:          "user-1",
		PrivyUserID: "did:privy:abc",
		Balance:     decimal.NewFromInt(3),
	}

	// Mock expectations
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(existingUser, nil)

	user, err := service.GetOrCreateProfile(ctx, Identity{PrivyUserID: "did:privy:abc"})

	assert.NoError(t, err)
	assert.Equal(t, existingUser, user)

	mockUserRepo.AssertNotCalled(t, "Create")
	mockAffiliateRepo.AssertNotCalled(t, "Create")
	mockUoW.AssertExpectations(t)
}

func TestUserService_GetOrCreateProfile_NewUser(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAffiliateRepo := new(MockAffiliateRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, mockAffiliateRepo)

	service := NewUserService(mockFactory, testUserConfig())

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// User doesn't exist on first check
	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(nil, nil)
	// Generated referral code is unused
	mockAffiliateRepo.On("GetByCode", ctx, mock.AnythingOfType("string")).Return(nil, nil)

	mockUserRepo.On("Create", ctx, mock.MatchedBy(func(u *models.User) bool {
		return u.PrivyUserID == "did:privy:abc" &&
			u.Balance.IsZero() &&
			u.ReferralCode != nil && len(*u.ReferralCode) == 8 &&
			u.Appearance["color"] == "#FCD34D"
	})).Return(nil)

	mockAffiliateRepo.On("Create", ctx, mock.MatchedBy(func(a *models.Affiliate) bool {
		return a.CommissionRate.Equal(decimal.RequireFromString("0.05")) &&
			a.IsActive &&
			len(a.ReferralCode) == 8
	})).Return(nil)

	email := "player@example.com"
	user, err := service.GetOrCreateProfile(ctx, Identity{
		PrivyUserID: "did:privy:abc",
		Email:       &email,
	})

	assert.NoError(t, err)
	assert.NotNil(t, user)
	assert.True(t, user.Balance.IsZero())
	assert.Equal(t, &email, user.Email)

	mockUserRepo.AssertExpectations(t)
	mockAffiliateRepo.AssertExpectations(t)
	mockUoW.AssertExpectations(t)
}

func TestUserService_GetOrCreateProfile_LosesCreationRace(t *testing.T) {
	ctx := context.Background()

	// The unit of work that loses the insert race
	losingUoW := new(MockUnitOfWork)
	losingUserRepo := new(MockUserRepository)
	losingAffiliateRepo := new(MockAffiliateRepository)
	losingUoW.SetRepositories(losingUserRepo, nil, nil, losingAffiliateRepo)

	// The follow-up unit of work that reads the winner's row
	retryUoW := new(MockUnitOfWork)
	retryUserRepo := new(MockUserRepository)
	retryUoW.SetRepositories(retryUserRepo, nil, nil, nil)

	mockFactory := new(MockUnitOfWorkFactory)
	mockFactory.On("Create").Return(losingUoW).Once()
	mockFactory.On("Create").Return(retryUoW).Once()

	service := NewUserService(mockFactory, testUserConfig())

	losingUoW.On("Begin", ctx).Return(nil)
	losingUoW.On("Rollback").Return(nil)
	losingUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(nil, nil)
	losingAffiliateRepo.On("GetByCode", ctx, mock.AnythingOfType("string")).Return(nil, nil)
	losingUserRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).
		Return(fmt.Errorf("privy ID did:privy:abc: %w", models.ErrUserExists))

	winner := &models.User{
		ID:          "user-winner",
		PrivyUserID: "did:privy:abc",
		Balance:     decimal.Zero,
	}
	retryUoW.On("Begin", ctx).Return(nil)
	retryUoW.On("Commit").Return(nil)
	retryUoW.On("Rollback").Return(nil)
	retryUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(winner, nil)

	user, err := service.GetOrCreateProfile(ctx, Identity{PrivyUserID: "did:privy:abc"})

	assert.NoError(t, err)
	assert.Equal(t, winner, user)

	losingUoW.AssertNotCalled(t, "Commit")
	losingAffiliateRepo.AssertNotCalled(t, "Create")
	retryUoW.AssertExpectations(t)
}

func TestUserService_GetOrCreateProfile_ReferralCodeCollision(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockAffiliateRepo := new(MockAffiliateRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, mockAffiliateRepo)

	service := NewUserService(mockFactory, testUserConfig())

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(nil, nil)

	// First generated code collides, the second is free
	taken := &models.Affiliate{ID: "aff-1", UserID: "user-0", ReferralCode: "TAKEN123"}
	mockAffiliateRepo.On("GetByCode", ctx, mock.AnythingOfType("string")).Return(taken, nil).Once()
	mockAffiliateRepo.On("GetByCode", ctx, mock.AnythingOfType("string")).Return(nil, nil).Once()

	mockUserRepo.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	mockAffiliateRepo.On("Create", ctx, mock.AnythingOfType("*models.Affiliate")).Return(nil)

	user, err := service.GetOrCreateProfile(ctx, Identity{PrivyUserID: "did:privy:abc"})

	assert.NoError(t, err)
	assert.NotNil(t, user)

	mockAffiliateRepo.AssertNumberOfCalls(t, "GetByCode", 2)
}

func TestUserService_UpdateProfile_UsernameTaken(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, nil)

	service := NewUserService(mockFactory, testUserConfig())

	existingUser := &models.User{ID: "user-1", PrivyUserID: "did:privy:abc"}
	otherUser := &models.User{ID: "user-2", Username: strPtr("cooluser")}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(existingUser, nil)
	mockUserRepo.On("GetByUsername", ctx, "cooluser").Return(otherUser, nil)

	err := service.UpdateProfile(ctx, "did:privy:abc", models.ProfileUpdate{Username: strPtr("cooluser")})

	assert.ErrorIs(t, err, models.ErrUsernameTaken)
	mockUserRepo.AssertNotCalled(t, "UpdateProfile")
	mockUoW.AssertNotCalled(t, "Commit")
}

func TestUserService_UpdateProfile_KeepOwnUsername(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, nil)

	service := NewUserService(mockFactory, testUserConfig())

	// The user re-submits their current username; not a conflict
	existingUser := &models.User{ID: "user-1", PrivyUserID: "did:privy:abc", Username: strPtr("cooluser")}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Commit").Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(existingUser, nil)
	mockUserRepo.On("GetByUsername", ctx, "cooluser").Return(existingUser, nil)
	mockUserRepo.On("UpdateProfile", ctx, "user-1", mock.AnythingOfType("models.ProfileUpdate")).Return(nil)

	err := service.UpdateProfile(ctx, "did:privy:abc", models.ProfileUpdate{Username: strPtr("cooluser")})

	assert.NoError(t, err)
	mockUserRepo.AssertExpectations(t)
}

func TestUserService_GetBalance(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)
	mockTxnRepo := new(MockTransactionRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, mockTxnRepo, nil)

	service := NewUserService(mockFactory, testUserConfig())

	wallet := "8Nf4QrT6wZb1c2d3e4f5g6h7i8j9k1m2n3p4q5r6s7t"
	existingUser := &models.User{
		ID:            "user-1",
		PrivyUserID:   "did:privy:abc",
		Balance:       decimal.RequireFromString("2.5"),
		WalletAddress: &wallet,
	}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:abc").Return(existingUser, nil)
	mockTxnRepo.On("PendingWithdrawalTotal", ctx, "user-1").Return(decimal.RequireFromString("0.75"), nil)

	balance, err := service.GetBalance(ctx, "did:privy:abc")

	assert.NoError(t, err)
	assert.True(t, balance.Balance.Equal(decimal.RequireFromString("2.5")))
	assert.True(t, balance.PendingWithdrawals.Equal(decimal.RequireFromString("0.75")))
	assert.Equal(t, "SOL", balance.Currency)
	assert.Equal(t, &wallet, balance.WalletAddress)
}

func TestUserService_GetBalance_UserNotFound(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, nil)

	service := NewUserService(mockFactory, testUserConfig())

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:missing").Return(nil, nil)

	balance, err := service.GetBalance(ctx, "did:privy:missing")

	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.Nil(t, balance)
}
