package service

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ByGamer01/DamnBruh/events"
	"github.com/ByGamer01/DamnBruh/models"
)

// UserConfig carries the parameters for user creation
type UserConfig struct {
	CommissionRate decimal.Decimal
}

// userService implements the UserService interface
type userService struct {
	uowFactory UnitOfWorkFactory
	cfg        UserConfig
}

// NewUserService creates a new user service
func NewUserService(uowFactory UnitOfWorkFactory, cfg UserConfig) UserService {
	return &userService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

const referralCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// generateReferralCode returns an 8-character code from the uppercase
// alphanumeric charset
func generateReferralCode() (string, error) {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to generate referral code: %w", err)
	}
	for i, b := range buf {
		buf[i] = referralCodeCharset[int(b)%len(referralCodeCharset)]
	}
	return string(buf), nil
}

// GetOrCreateProfile returns the user for a verified identity, creating
// it on first sight. A new user starts with zero balance, a generated
// referral code, the default appearance and an affiliate record; the
// user and affiliate rows commit together.
func (s *userService) GetOrCreateProfile(ctx context.Context, identity Identity) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByPrivyID(ctx, identity.PrivyUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	if user != nil {
		if err := uow.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit transaction: %w", err)
		}
		return user, nil
	}

	referralCode, err := s.unusedReferralCode(ctx, uow)
	if err != nil {
		return nil, err
	}

	user = &models.User{
		ID:            uuid.NewString(),
		PrivyUserID:   identity.PrivyUserID,
		Email:         identity.Email,
		WalletAddress: identity.WalletAddress,
		Balance:       decimal.Zero,
		TotalWinnings: decimal.Zero,
		ReferralCode:  &referralCode,
		Appearance:    models.DefaultAppearance(),
	}

	if err := uow.UserRepository().Create(ctx, user); err != nil {
		if errors.Is(err, models.ErrUserExists) {
			// Lost the race to a concurrent first fetch. The failed
			// insert aborted this transaction, so read the winner's
			// row on a fresh one.
			uow.Rollback()
			return s.getByPrivyID(ctx, identity.PrivyUserID)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	affiliate := &models.Affiliate{
		ID:                uuid.NewString(),
		UserID:            user.ID,
		ReferralCode:      referralCode,
		CommissionRate:    s.cfg.CommissionRate,
		TotalCommission:   decimal.Zero,
		PendingCommission: decimal.Zero,
		IsActive:          true,
	}

	if err := uow.AffiliateRepository().Create(ctx, affiliate); err != nil {
		return nil, fmt.Errorf("failed to create affiliate record: %w", err)
	}

	uow.EventBus().Publish(events.UserCreatedEvent{
		UserID:      user.ID,
		PrivyUserID: user.PrivyUserID,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// getByPrivyID reads an existing user on its own unit of work
func (s *userService) getByPrivyID(ctx context.Context, privyUserID string) (*models.User, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByPrivyID(ctx, privyUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return user, nil
}

// unusedReferralCode generates a referral code not yet held by any affiliate
func (s *userService) unusedReferralCode(ctx context.Context, uow UnitOfWork) (string, error) {
	for attempt := 0; attempt < 5; attempt++ {
		code, err := generateReferralCode()
		if err != nil {
			return "", err
		}

		existing, err := uow.AffiliateRepository().GetByCode(ctx, code)
		if err != nil {
			return "", fmt.Errorf("failed to check referral code: %w", err)
		}
		if existing == nil {
			return code, nil
		}
	}

	return "", fmt.Errorf("failed to generate an unused referral code")
}

// UpdateProfile applies a profile update, enforcing username uniqueness
func (s *userService) UpdateProfile(ctx context.Context, privyUserID string, update models.ProfileUpdate) error {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByPrivyID(ctx, privyUserID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return models.ErrUserNotFound
	}

	if update.Username != nil {
		existing, err := uow.UserRepository().GetByUsername(ctx, *update.Username)
		if err != nil {
			return fmt.Errorf("failed to check username: %w", err)
		}
		if existing != nil && existing.ID != user.ID {
			return models.ErrUsernameTaken
		}
	}

	if err := uow.UserRepository().UpdateProfile(ctx, user.ID, update); err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	if err := uow.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetBalance returns the user's balance including the pending withdrawal total
func (s *userService) GetBalance(ctx context.Context, privyUserID string) (*models.Balance, error) {
	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback()

	user, err := uow.UserRepository().GetByPrivyID(ctx, privyUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	pending, err := uow.TransactionRepository().PendingWithdrawalTotal(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to sum pending withdrawals: %w", err)
	}

	return &models.Balance{
		Balance:            user.Balance,
		Currency:           "SOL",
		WalletAddress:      user.WalletAddress,
		PendingWithdrawals: pending,
	}, nil
}
