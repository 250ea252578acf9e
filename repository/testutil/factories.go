package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ByGamer01/DamnBruh/models"
)

// UserRecorder is the subset of the user repository the factories need
type UserRecorder interface {
	Create(ctx context.Context, user *models.User) error
	UpdateProfile(ctx context.Context, id string, update models.ProfileUpdate) error
	AddBalance(ctx context.Context, id string, amount decimal.Decimal) (decimal.Decimal, error)
}

// userSeq is atomic because tests sharing this factory run in parallel
var userSeq atomic.Int64

// CreateUser inserts a user with a unique username and the given balance
func CreateUser(t *testing.T, repo UserRecorder, balance decimal.Decimal) *models.User {
	t.Helper()
	ctx := context.Background()

	seq := userSeq.Add(1)
	username := fmt.Sprintf("testuser%d", seq)
	referralCode := fmt.Sprintf("TESTC%03d", seq%1000)

	user := &models.User{
		ID:           uuid.NewString(),
		PrivyUserID:  fmt.Sprintf("did:privy:test%d", seq),
		Balance:      decimal.Zero,
		ReferralCode: &referralCode,
		Appearance:   models.DefaultAppearance(),
	}

	require.NoError(t, repo.Create(ctx, user))
	require.NoError(t, repo.UpdateProfile(ctx, user.ID, models.ProfileUpdate{Username: &username}))
	user.Username = &username

	if balance.GreaterThan(decimal.Zero) {
		newBalance, err := repo.AddBalance(ctx, user.ID, balance)
		require.NoError(t, err)
		user.Balance = newBalance
	}

	return user
}
