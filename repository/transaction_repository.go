package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ByGamer01/DamnBruh/database"
	"github.com/ByGamer01/DamnBruh/models"
)

// TransactionRepository implements the TransactionRepository interface.
// The transaction log is append-only; rows are never updated except for
// withdrawal status transitions.
type TransactionRepository struct {
	q queryable
}

// NewTransactionRepository creates a new transaction repository
func NewTransactionRepository(db *database.DB) *TransactionRepository {
	return &TransactionRepository{q: db.Pool}
}

// newTransactionRepositoryWithTx creates a new transaction repository with a transaction
func newTransactionRepositoryWithTx(tx queryable) *TransactionRepository {
	return &TransactionRepository{q: tx}
}

// Record appends a transaction entry
func (r *TransactionRepository) Record(ctx context.Context, txn *models.Transaction) error {
	metadataJSON, err := json.Marshal(txn.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal transaction metadata: %w", err)
	}

	if txn.Status == "" {
		txn.Status = models.TransactionStatusPending
	}

	query := `
		INSERT INTO transactions (id, user_id, type, amount, status, reference_id, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at
	`

	err = r.q.QueryRow(ctx, query,
		txn.ID,
		txn.UserID,
		txn.Type,
		txn.Amount,
		txn.Status,
		txn.ReferenceID,
		metadataJSON,
	).Scan(&txn.CreatedAt)

	if err != nil {
		return fmt.Errorf("failed to record %s transaction for user %s: %w", txn.Type, txn.UserID, err)
	}

	return nil
}

// ListByUser returns transactions newest-first, optionally filtered by type
func (r *TransactionRepository) ListByUser(ctx context.Context, userID string, typeFilter *models.TransactionType, limit int) ([]*models.Transaction, error) {
	var filter *string
	if typeFilter != nil {
		s := string(*typeFilter)
		filter = &s
	}

	query := `
		SELECT id, user_id, type, amount, status, reference_id, metadata, created_at
		FROM transactions
		WHERE user_id = $1 AND ($2::text IS NULL OR type = $2)
		ORDER BY created_at DESC
		LIMIT $3
	`

	rows, err := r.q.Query(ctx, query, userID, filter, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions for user %s: %w", userID, err)
	}
	defer rows.Close()

	var transactions []*models.Transaction
	for rows.Next() {
		var txn models.Transaction
		var metadataJSON []byte

		err := rows.Scan(
			&txn.ID,
			&txn.UserID,
			&txn.Type,
			&txn.Amount,
			&txn.Status,
			&txn.ReferenceID,
			&metadataJSON,
			&txn.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &txn.Metadata); err != nil {
				return nil, fmt.Errorf("failed to unmarshal transaction metadata: %w", err)
			}
		}

		transactions = append(transactions, &txn)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}

	return transactions, nil
}

// PendingWithdrawalTotal sums the user's pending withdrawal amounts
func (r *TransactionRepository) PendingWithdrawalTotal(ctx context.Context, userID string) (decimal.Decimal, error) {
	query := `
		SELECT COALESCE(SUM(amount), 0)
		FROM transactions
		WHERE user_id = $1 AND type = $2 AND status = $3
	`

	var total decimal.Decimal
	err := r.q.QueryRow(ctx, query, userID, models.TransactionTypeWithdrawal, models.TransactionStatusPending).Scan(&total)
	if err != nil {
		return decimal.Zero, fmt.Errorf("failed to sum pending withdrawals for user %s: %w", userID, err)
	}

	return total, nil
}

// UpdateStatus transitions a transaction's processing status
func (r *TransactionRepository) UpdateStatus(ctx context.Context, id string, status models.TransactionStatus) error {
	result, err := r.q.Exec(ctx, `UPDATE transactions SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("failed to update status for transaction %s: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("transaction %s not found", id)
	}

	return nil
}
