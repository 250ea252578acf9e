package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/ByGamer01/DamnBruh/database"
	"github.com/ByGamer01/DamnBruh/models"
)

// GameSessionRepository implements the GameSessionRepository interface
type GameSessionRepository struct {
	q queryable
}

// NewGameSessionRepository creates a new game session repository
func NewGameSessionRepository(db *database.DB) *GameSessionRepository {
	return &GameSessionRepository{q: db.Pool}
}

// newGameSessionRepositoryWithTx creates a new game session repository with a transaction
func newGameSessionRepositoryWithTx(tx queryable) *GameSessionRepository {
	return &GameSessionRepository{q: tx}
}

const sessionColumns = `
	id, user_id, game_type, bet_amount, status,
	final_score, final_rank, payout, appearance, created_at, ended_at
`

func scanSession(row pgx.Row) (*models.GameSession, error) {
	var session models.GameSession
	var appearanceJSON []byte

	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.GameType,
		&session.BetAmount,
		&session.Status,
		&session.FinalScore,
		&session.FinalRank,
		&session.Payout,
		&appearanceJSON,
		&session.CreatedAt,
		&session.EndedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(appearanceJSON) > 0 {
		if err := json.Unmarshal(appearanceJSON, &session.Appearance); err != nil {
			return nil, fmt.Errorf("failed to unmarshal appearance: %w", err)
		}
	}

	return &session, nil
}

// Create inserts a new session in the active state
func (r *GameSessionRepository) Create(ctx context.Context, session *models.GameSession) error {
	appearanceJSON, err := json.Marshal(session.Appearance)
	if err != nil {
		return fmt.Errorf("failed to marshal appearance: %w", err)
	}

	query := `
		INSERT INTO game_sessions (id, user_id, game_type, bet_amount, status, appearance)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`

	err = r.q.QueryRow(ctx, query,
		session.ID,
		session.UserID,
		session.GameType,
		session.BetAmount,
		session.Status,
		appearanceJSON,
	).Scan(&session.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to create game session for user %s: %w", session.UserID, err)
	}

	return nil
}

// GetByID retrieves a session by ID
func (r *GameSessionRepository) GetByID(ctx context.Context, id string) (*models.GameSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM game_sessions WHERE id = $1`

	session, err := scanSession(r.q.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get game session %s: %w", id, err)
	}

	return session, nil
}

// Settle transitions an active session to completed. The status
// predicate guards against double settlement: a second call finds zero
// active rows and gets models.ErrAlreadySettled.
func (r *GameSessionRepository) Settle(ctx context.Context, id string, settlement models.Settlement) error {
	query := `
		UPDATE game_sessions
		SET status = $1,
		    final_score = $2,
		    final_rank = $3,
		    payout = $4,
		    ended_at = $5
		WHERE id = $6 AND status = $7
	`

	result, err := r.q.Exec(ctx, query,
		models.SessionStatusCompleted,
		settlement.FinalScore,
		settlement.FinalRank,
		settlement.Payout,
		settlement.EndedAt,
		id,
		models.SessionStatusActive,
	)
	if err != nil {
		return fmt.Errorf("failed to settle game session %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		// Either the session is gone or it has already been settled
		session, lookupErr := r.GetByID(ctx, id)
		if lookupErr != nil {
			return fmt.Errorf("failed to check game session: %w", lookupErr)
		}
		if session == nil {
			return models.ErrSessionNotFound
		}
		return models.ErrAlreadySettled
	}

	return nil
}

// ListByUser returns the user's sessions newest-first
func (r *GameSessionRepository) ListByUser(ctx context.Context, userID string, limit, offset int) ([]*models.GameSession, error) {
	query := `
		SELECT ` + sessionColumns + `
		FROM game_sessions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.q.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list game sessions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var sessions []*models.GameSession
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan game session: %w", err)
		}
		sessions = append(sessions, session)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate game sessions: %w", err)
	}

	return sessions, nil
}

// CountByUser returns the total number of sessions for a user
func (r *GameSessionRepository) CountByUser(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM game_sessions WHERE user_id = $1`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count game sessions for user %s: %w", userID, err)
	}
	return count, nil
}
