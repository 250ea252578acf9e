package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByGamer01/DamnBruh/models"
	"github.com/ByGamer01/DamnBruh/repository/testutil"
)

func TestUserRepository_GetByPrivyID(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("user not found", func(t *testing.T) {
		user, err := repo.GetByPrivyID(ctx, "did:privy:missing")
		require.NoError(t, err)
		assert.Nil(t, user)
	})

	t.Run("user found", func(t *testing.T) {
		created := testutil.CreateUser(t, repo, decimal.RequireFromString("1.5"))

		user, err := repo.GetByPrivyID(ctx, created.PrivyUserID)
		require.NoError(t, err)
		require.NotNil(t, user)

		assert.Equal(t, created.ID, user.ID)
		assert.Equal(t, created.PrivyUserID, user.PrivyUserID)
		assert.True(t, user.Balance.Equal(decimal.RequireFromString("1.5")))
		assert.Equal(t, "#FCD34D", user.Appearance["color"])
	})
}

func TestUserRepository_Create_Defaults(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := &models.User{
		ID:          uuid.NewString(),
		PrivyUserID: "did:privy:fresh",
		Balance:     decimal.Zero,
		Appearance:  models.DefaultAppearance(),
	}

	require.NoError(t, repo.Create(ctx, user))

	assert.False(t, user.CreatedAt.IsZero())
	assert.False(t, user.UpdatedAt.IsZero())

	loaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.True(t, loaded.Balance.IsZero())
	assert.Equal(t, 0, loaded.TotalGames)
	assert.Equal(t, 0, loaded.TotalWins)
	assert.Nil(t, loaded.Username)
	assert.Nil(t, loaded.LastPlayedAt)
}

func TestUserRepository_Create_DuplicatePrivyID(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	first := testutil.CreateUser(t, repo, decimal.Zero)

	dup := &models.User{
		ID:          uuid.NewString(),
		PrivyUserID: first.PrivyUserID,
		Balance:     decimal.Zero,
	}

	err := repo.Create(ctx, dup)
	assert.ErrorIs(t, err, models.ErrUserExists)
}

func TestUserRepository_UpdateProfile(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateUser(t, repo, decimal.Zero)

	t.Run("partial update keeps other fields", func(t *testing.T) {
		displayName := "The Champ"
		err := repo.UpdateProfile(ctx, user.ID, models.ProfileUpdate{DisplayName: &displayName})
		require.NoError(t, err)

		loaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, &displayName, loaded.DisplayName)
		assert.Equal(t, user.Username, loaded.Username)
	})

	t.Run("appearance update", func(t *testing.T) {
		err := repo.UpdateProfile(ctx, user.ID, models.ProfileUpdate{
			Appearance: map[string]any{"color": "#EF4444", "pattern": "striped", "accessory": "crown"},
		})
		require.NoError(t, err)

		loaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.Equal(t, "#EF4444", loaded.Appearance["color"])
		assert.Equal(t, "crown", loaded.Appearance["accessory"])
	})

	t.Run("missing user", func(t *testing.T) {
		name := "ghost"
		err := repo.UpdateProfile(ctx, uuid.NewString(), models.ProfileUpdate{Username: &name})
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})
}

func TestUserRepository_DeductBalance(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	t.Run("successful deduction", func(t *testing.T) {
		user := testutil.CreateUser(t, repo, decimal.NewFromInt(5))

		newBalance, err := repo.DeductBalance(ctx, user.ID, decimal.RequireFromString("1.25"))
		require.NoError(t, err)
		assert.True(t, newBalance.Equal(decimal.RequireFromString("3.75")))
	})

	t.Run("insufficient funds leaves balance untouched", func(t *testing.T) {
		user := testutil.CreateUser(t, repo, decimal.NewFromInt(1))

		_, err := repo.DeductBalance(ctx, user.ID, decimal.NewFromInt(2))
		assert.ErrorIs(t, err, models.ErrInsufficientFunds)

		loaded, err := repo.GetByID(ctx, user.ID)
		require.NoError(t, err)
		assert.True(t, loaded.Balance.Equal(decimal.NewFromInt(1)))
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := repo.DeductBalance(ctx, uuid.NewString(), decimal.NewFromInt(1))
		assert.ErrorIs(t, err, models.ErrUserNotFound)
	})

	t.Run("exact balance drains to zero", func(t *testing.T) {
		user := testutil.CreateUser(t, repo, decimal.NewFromInt(2))

		newBalance, err := repo.DeductBalance(ctx, user.ID, decimal.NewFromInt(2))
		require.NoError(t, err)
		assert.True(t, newBalance.IsZero())
	})
}

// Concurrent debits against one balance must never overdraw it: the
// conditional update makes check and decrement a single statement.
func TestUserRepository_DeductBalance_Concurrent(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	// Balance covers exactly 3 of the 10 attempted debits
	user := testutil.CreateUser(t, repo, decimal.NewFromInt(3))

	const attempts = 10
	var wg sync.WaitGroup
	successes := make(chan struct{}, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.DeductBalance(ctx, user.ID, decimal.NewFromInt(1)); err == nil {
				successes <- struct{}{}
			}
		}()
	}

	wg.Wait()
	close(successes)

	succeeded := 0
	for range successes {
		succeeded++
	}
	assert.Equal(t, 3, succeeded)

	loaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, loaded.Balance.IsZero(), "final balance %s", loaded.Balance)
}

func TestUserRepository_RecordGameResult(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	user := testutil.CreateUser(t, repo, decimal.Zero)

	require.NoError(t, repo.RecordGameResult(ctx, user.ID, true, decimal.RequireFromString("0.882")))
	require.NoError(t, repo.RecordGameResult(ctx, user.ID, false, decimal.Zero))

	loaded, err := repo.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.TotalGames)
	assert.Equal(t, 1, loaded.TotalWins)
	assert.True(t, loaded.TotalWinnings.Equal(decimal.RequireFromString("0.882")))
	assert.NotNil(t, loaded.LastPlayedAt)
}

func TestUserRepository_TopByWinnings(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)

	repo := NewUserRepository(testDB.DB)
	ctx := context.Background()

	high := testutil.CreateUser(t, repo, decimal.Zero)
	mid := testutil.CreateUser(t, repo, decimal.Zero)
	idle := testutil.CreateUser(t, repo, decimal.Zero)

	require.NoError(t, repo.RecordGameResult(ctx, high.ID, true, decimal.NewFromInt(10)))
	require.NoError(t, repo.RecordGameResult(ctx, high.ID, false, decimal.Zero))
	require.NoError(t, repo.RecordGameResult(ctx, mid.ID, true, decimal.NewFromInt(4)))

	t.Run("ordering and win rate", func(t *testing.T) {
		entries, err := repo.TopByWinnings(ctx, nil, 10)
		require.NoError(t, err)
		require.Len(t, entries, 3)

		assert.Equal(t, high.ID, entries[0].UserID)
		assert.Equal(t, mid.ID, entries[1].UserID)
		assert.Equal(t, idle.ID, entries[2].UserID)
		assert.InDelta(t, 0.5, entries[0].WinRate, 0.0001)
		assert.InDelta(t, 1.0, entries[1].WinRate, 0.0001)
		assert.InDelta(t, 0.0, entries[2].WinRate, 0.0001)
	})

	t.Run("activity cutoff drops idle users", func(t *testing.T) {
		since := time.Now().Add(-time.Hour)
		entries, err := repo.TopByWinnings(ctx, &since, 10)
		require.NoError(t, err)
		// idle never played, so last_played_at is null
		require.Len(t, entries, 2)
	})

	t.Run("limit applies", func(t *testing.T) {
		entries, err := repo.TopByWinnings(ctx, nil, 1)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, high.ID, entries[0].UserID)
	})

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}
