package service

import (
	"context"
	"fmt"
	"regexp"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ByGamer01/DamnBruh/events"
	"github.com/ByGamer01/DamnBruh/models"
)

// LedgerConfig carries the withdrawal bounds for the ledger service
type LedgerConfig struct {
	MinWithdrawal decimal.Decimal
	MaxWithdrawal decimal.Decimal
}

// ledgerService implements the LedgerService interface
type ledgerService struct {
	uowFactory UnitOfWorkFactory
	cfg        LedgerConfig
}

// NewLedgerService creates a new ledger service
func NewLedgerService(uowFactory UnitOfWorkFactory, cfg LedgerConfig) LedgerService {
	return &ledgerService{
		uowFactory: uowFactory,
		cfg:        cfg,
	}
}

// Destination addresses are accepted in EVM hex or Solana base58 form.
var (
	evmAddressPattern    = regexp.MustCompile(`^0x[a-fA-F0-9]{40}$`)
	solanaAddressPattern = regexp.MustCompile(`^[1-9A-HJ-NP-Za-km-z]{32,44}$`)
)

// GetTransactions returns the user's transactions newest-first
func (s *ledgerService) GetTransactions(ctx context.Context, privyUserID string, typeFilter *models.TransactionType, limit int) ([]*models.Transaction, error) {
	if typeFilter != nil && !typeFilter.Valid() {
		return nil, fmt.Errorf("%w: transaction type %q is not allowed", models.ErrValidation, *typeFilter)
	}

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

	transactions, err := uow.TransactionRepository().ListByUser(ctx, user.ID, typeFilter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	return transactions, nil
}

// RequestWithdrawal debits the amount and records a pending withdrawal
// transaction in one unit of work. The debit uses the conditional update,
// so a request exceeding the live balance fails without side effects.
func (s *ledgerService) RequestWithdrawal(ctx context.Context, privyUserID string, amount decimal.Decimal, destination string) (*models.WithdrawalResult, error) {
	if amount.LessThan(s.cfg.MinWithdrawal) || amount.GreaterThan(s.cfg.MaxWithdrawal) {
		return nil, fmt.Errorf("%w: withdrawal amount must be between %s and %s", models.ErrValidation, s.cfg.MinWithdrawal, s.cfg.MaxWithdrawal)
	}
	if !evmAddressPattern.MatchString(destination) && !solanaAddressPattern.MatchString(destination) {
		return nil, fmt.Errorf("%w: destination is not a valid wallet address", models.ErrValidation)
	}

	uow := s.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer uow.Rollback() // No-op if already committed

	user, err := uow.UserRepository().GetByPrivyID(ctx, privyUserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, models.ErrUserNotFound
	}

	newBalance, err := uow.UserRepository().DeductBalance(ctx, user.ID, amount)
	if err != nil {
		return nil, err
	}

	withdrawalID := uuid.NewString()
	txn := &models.Transaction{
		ID:          withdrawalID,
		UserID:      user.ID,
		Type:        models.TransactionTypeWithdrawal,
		Amount:      amount,
		Status:      models.TransactionStatusPending,
		ReferenceID: withdrawalID,
		Metadata: map[string]any{
			"destination": destination,
		},
	}

	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record withdrawal transaction: %w", err)
	}

	uow.EventBus().Publish(events.WithdrawalRequestedEvent{
		UserID:       user.ID,
		WithdrawalID: withdrawalID,
		Amount:       amount,
	})
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          user.ID,
		OldBalance:      user.Balance,
		NewBalance:      newBalance,
		ChangeAmount:    amount.Neg(),
		TransactionType: models.TransactionTypeWithdrawal,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	// On-chain execution runs out of band; no fee is charged at request time
	return &models.WithdrawalResult{
		WithdrawalID: withdrawalID,
		Status:       models.TransactionStatusPending,
		Amount:       amount,
		Fee:          decimal.Zero,
		NewBalance:   newBalance,
	}, nil
}
