package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/ByGamer01/DamnBruh/models"
)

func TestLeaderboardService_GetLeaderboard_AllTime(t *testing.T) {
	ctx := context.Background()

	// Setup mocks
	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	// Configure unit of work
	mockUoW.SetRepositories(mockUserRepo, nil, nil, nil)

	service := NewLeaderboardService(mockFactory, nil)

	entries := []*models.LeaderboardEntry{
		{UserID: "user-1", TotalWinnings: decimal.NewFromInt(50), TotalGames: 20, WinRate: 0.6},
		{UserID: "user-2", TotalWinnings: decimal.NewFromInt(30), TotalGames: 15, WinRate: 0.4},
		{UserID: "user-3", TotalWinnings: decimal.NewFromInt(10), TotalGames: 5, WinRate: 0.2},
	}

	// Mock expectations
	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	// all_time passes no activity cutoff
	mockUserRepo.On("TopByWinnings", ctx, (*time.Time)(nil), 10).Return(entries, nil)
	mockUserRepo.On("Count", ctx).Return(42, nil)

	board, err := service.GetLeaderboard(ctx, models.PeriodAllTime, 10, "")

	assert.NoError(t, err)
	assert.Len(t, board.Entries, 3)
	assert.Equal(t, 1, board.Entries[0].Rank)
	assert.Equal(t, 2, board.Entries[1].Rank)
	assert.Equal(t, 3, board.Entries[2].Rank)
	assert.Equal(t, 42, board.TotalPlayers)
	assert.Nil(t, board.UserRank)

	mockUserRepo.AssertExpectations(t)
}

func TestLeaderboardService_GetLeaderboard_WeeklyCutoff(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, nil)

	service := NewLeaderboardService(mockFactory, nil)

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("TopByWinnings", ctx, mock.MatchedBy(func(since *time.Time) bool {
		if since == nil {
			return false
		}
		age := time.Since(*since)
		return age > 6*24*time.Hour && age < 8*24*time.Hour
	}), 10).Return([]*models.LeaderboardEntry{}, nil)
	mockUserRepo.On("Count", ctx).Return(0, nil)

	board, err := service.GetLeaderboard(ctx, models.PeriodWeekly, 10, "")

	assert.NoError(t, err)
	assert.Empty(t, board.Entries)
	mockUserRepo.AssertExpectations(t)
}

func TestLeaderboardService_GetLeaderboard_ViewerRank(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, nil)

	service := NewLeaderboardService(mockFactory, nil)

	entries := []*models.LeaderboardEntry{
		{UserID: "user-1", TotalWinnings: decimal.NewFromInt(50)},
		{UserID: "user-2", TotalWinnings: decimal.NewFromInt(30)},
	}
	viewer := &models.User{ID: "user-2", PrivyUserID: "did:privy:viewer"}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("TopByWinnings", ctx, (*time.Time)(nil), 10).Return(entries, nil)
	mockUserRepo.On("Count", ctx).Return(2, nil)
	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:viewer").Return(viewer, nil)

	board, err := service.GetLeaderboard(ctx, models.PeriodAllTime, 10, "did:privy:viewer")

	assert.NoError(t, err)
	assert.NotNil(t, board.UserRank)
	assert.Equal(t, 2, *board.UserRank)
}

func TestLeaderboardService_GetLeaderboard_ViewerOffBoard(t *testing.T) {
	ctx := context.Background()

	mockUoW := new(MockUnitOfWork)
	mockFactory := new(MockUnitOfWorkFactory)
	mockUserRepo := new(MockUserRepository)

	mockUoW.SetRepositories(mockUserRepo, nil, nil, nil)

	service := NewLeaderboardService(mockFactory, nil)

	entries := []*models.LeaderboardEntry{
		{UserID: "user-1", TotalWinnings: decimal.NewFromInt(50)},
	}
	viewer := &models.User{ID: "user-99", PrivyUserID: "did:privy:viewer"}

	mockFactory.On("Create").Return(mockUoW)
	mockUoW.On("Begin", ctx).Return(nil)
	mockUoW.On("Rollback").Return(nil)

	mockUserRepo.On("TopByWinnings", ctx, (*time.Time)(nil), 10).Return(entries, nil)
	mockUserRepo.On("Count", ctx).Return(1, nil)
	mockUserRepo.On("GetByPrivyID", ctx, "did:privy:viewer").Return(viewer, nil)

	board, err := service.GetLeaderboard(ctx, models.PeriodAllTime, 10, "did:privy:viewer")

	assert.NoError(t, err)
	assert.Nil(t, board.UserRank)
}

func TestLeaderboardService_GetLeaderboard_InvalidPeriod(t *testing.T) {
	ctx := context.Background()

	mockFactory := new(MockUnitOfWorkFactory)
	service := NewLeaderboardService(mockFactory, nil)

	board, err := service.GetLeaderboard(ctx, models.LeaderboardPeriod("yearly"), 10, "")

	assert.ErrorIs(t, err, models.ErrValidation)
	assert.Nil(t, board)
	mockFactory.AssertNotCalled(t, "Create")
}
