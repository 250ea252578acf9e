package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/ByGamer01/DamnBruh/events"
	"github.com/ByGamer01/DamnBruh/models"
)

// GameConfig carries the settlement parameters for the game service
type GameConfig struct {
	MinBetAmount decimal.Decimal
	MaxBetAmount decimal.Decimal
	HouseEdge    decimal.Decimal
}

// gameService implements the GameService interface
type gameService struct {
	uowFactory UnitOfWorkFactory
	matchmaker Matchmaker
	cfg        GameConfig
}

// NewGameService creates a new game service
func NewGameService(uowFactory UnitOfWorkFactory, matchmaker Matchmaker, cfg GameConfig) GameService {
	return &gameService{
		uowFactory: uowFactory,
		matchmaker: matchmaker,
		cfg:        cfg,
	}
}

// JoinGame debits the bet, creates a session in the active state and logs
// a bet transaction. The three writes share one unit of work: if the
// debit fails nothing else happens, and if any later write fails the
// debit rolls back with it.
func (s *gameService) JoinGame(ctx context.Context, privyUserID string, gameType models.GameType, betAmount decimal.Decimal, appearance map[string]any) (*models.JoinResult, error) {
	if !gameType.Valid() {
		return nil, fmt.Errorf("%w: game type %q is not allowed", models.ErrValidation, gameType)
	}
	if betAmount.LessThan(s.cfg.MinBetAmount) || betAmount.GreaterThan(s.cfg.MaxBetAmount) {
		return nil, fmt.Errorf("%w: bet amount must be between %s and %s", models.ErrValidation, s.cfg.MinBetAmount, s.cfg.MaxBetAmount)
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

	// The conditional update both checks and deducts funds; concurrent
	// joins against the same balance serialize here.
	newBalance, err := uow.UserRepository().DeductBalance(ctx, user.ID, betAmount)
	if err != nil {
		return nil, err
	}

	session := &models.GameSession{
		ID:         uuid.NewString(),
		UserID:     user.ID,
		GameType:   gameType,
		BetAmount:  betAmount,
		Status:     models.SessionStatusActive,
		Appearance: appearance,
	}

	if err := uow.GameSessionRepository().Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create game session: %w", err)
	}

	txn := &models.Transaction{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		Type:        models.TransactionTypeBet,
		Amount:      betAmount,
		Status:      models.TransactionStatusCompleted,
		ReferenceID: session.ID,
		Metadata: map[string]any{
			"game_type": string(gameType),
		},
	}

	if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
		return nil, fmt.Errorf("failed to record bet transaction: %w", err)
	}

	uow.EventBus().Publish(events.GameJoinedEvent{
		UserID:    user.ID,
		SessionID: session.ID,
		GameType:  gameType,
		BetAmount: betAmount,
	})
	uow.EventBus().Publish(events.BalanceChangeEvent{
		UserID:          user.ID,
		OldBalance:      user.Balance,
		NewBalance:      newBalance,
		ChangeAmount:    betAmount.Neg(),
		TransactionType: models.TransactionTypeBet,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return &models.JoinResult{
		Session:      session,
		NewBalance:   newBalance,
		OtherPlayers: s.matchmaker.Roster(),
	}, nil
}

// EndGame settles an active session. The status-guarded session update,
// the balance credit, the statistics bump and the payout transaction all
// commit together or not at all. A second end on the same session fails
// with models.ErrAlreadySettled.
func (s *gameService) EndGame(ctx context.Context, privyUserID, sessionID string, finalScore, finalRank int) (*models.GameResult, error) {
	if finalRank < 1 {
		return nil, fmt.Errorf("%w: final rank must be at least 1", models.ErrValidation)
	}
	if finalScore < 0 {
		return nil, fmt.Errorf("%w: final score must not be negative", models.ErrValidation)
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

	session, err := uow.GameSessionRepository().GetByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get game session: %w", err)
	}
	// Sessions belonging to other users are reported as not found rather
	// than forbidden, so session IDs cannot be probed.
	if session == nil || session.UserID != user.ID {
		return nil, models.ErrSessionNotFound
	}

	totalPlayers := s.matchmaker.TotalPlayers()
	payout := CalculatePayout(session.BetAmount, finalRank, totalPlayers, s.cfg.HouseEdge)
	won := finalRank <= 3

	err = uow.GameSessionRepository().Settle(ctx, sessionID, models.Settlement{
		FinalScore: finalScore,
		FinalRank:  finalRank,
		Payout:     payout,
		EndedAt:    time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	// Crediting zero is skipped, but statistics still update below
	newBalance := user.Balance
	if payout.GreaterThan(decimal.Zero) {
		newBalance, err = uow.UserRepository().AddBalance(ctx, user.ID, payout)
		if err != nil {
			return nil, fmt.Errorf("failed to credit payout: %w", err)
		}
	}

	if err := uow.UserRepository().RecordGameResult(ctx, user.ID, won, payout); err != nil {
		return nil, fmt.Errorf("failed to update user stats: %w", err)
	}

	if payout.GreaterThan(decimal.Zero) {
		txn := &models.Transaction{
			ID:          uuid.NewString(),
			UserID:      user.ID,
			Type:        models.TransactionTypePayout,
			Amount:      payout,
			Status:      models.TransactionStatusCompleted,
			ReferenceID: session.ID,
			Metadata: map[string]any{
				"rank":          finalRank,
				"total_players": totalPlayers,
				"score":         finalScore,
			},
		}

		if err := uow.TransactionRepository().Record(ctx, txn); err != nil {
			return nil, fmt.Errorf("failed to record payout transaction: %w", err)
		}

		uow.EventBus().Publish(events.BalanceChangeEvent{
			UserID:          user.ID,
			OldBalance:      user.Balance,
			NewBalance:      newBalance,
			ChangeAmount:    payout,
			TransactionType: models.TransactionTypePayout,
		})
	}

	uow.EventBus().Publish(events.GameSettledEvent{
		UserID:       user.ID,
		SessionID:    session.ID,
		GameType:     session.GameType,
		BetAmount:    session.BetAmount,
		Payout:       payout,
		FinalRank:    finalRank,
		TotalPlayers: totalPlayers,
	})

	if err := uow.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	result := "loss"
	if won {
		result = "win"
	}

	return &models.GameResult{
		Payout:       payout,
		NewBalance:   newBalance,
		Rank:         finalRank,
		TotalPlayers: totalPlayers,
		Result:       result,
	}, nil
}

// GetGameHistory returns the user's paginated session history, newest first
func (s *gameService) GetGameHistory(ctx context.Context, privyUserID string, limit, offset int) (*models.GameHistory, error) {
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

	sessions, err := uow.GameSessionRepository().ListByUser(ctx, user.ID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list game sessions: %w", err)
	}

	total, err := uow.GameSessionRepository().CountByUser(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count game sessions: %w", err)
	}

	return &models.GameHistory{
		Games:   sessions,
		Total:   total,
		HasMore: offset+limit < total,
	}, nil
}
