package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ByGamer01/DamnBruh/models"
	"github.com/ByGamer01/DamnBruh/service"
)

// LedgerHandler serves the transaction log and withdrawal endpoints
type LedgerHandler struct {
	ledger service.LedgerService
}

// NewLedgerHandler creates a new ledger handler
func NewLedgerHandler(ledger service.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

type transactionResponse struct {
	ID          string          `json:"id"`
	Type        string          `json:"type"`
	Amount      decimal.Decimal `json:"amount"`
	Status      string          `json:"status"`
	ReferenceID string          `json:"reference_id"`
	Metadata    map[string]any  `json:"metadata"`
	CreatedAt   time.Time       `json:"created_at"`
}

type transactionListResponse struct {
	Transactions []transactionResponse `json:"transactions"`
}

// ListTransactions handles GET /api/transactions
func (h *LedgerHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	limit := queryInt(r, "limit", 50, 1, 200)

	var typeFilter *models.TransactionType
	if raw := r.URL.Query().Get("type"); raw != "" {
		filter := models.TransactionType(raw)
		typeFilter = &filter
	}

	transactions, err := h.ledger.GetTransactions(r.Context(), identity.PrivyUserID, typeFilter, limit)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	entries := make([]transactionResponse, 0, len(transactions))
	for _, txn := range transactions {
		entries = append(entries, transactionResponse{
			ID:          txn.ID,
			Type:        string(txn.Type),
			Amount:      txn.Amount,
			Status:      string(txn.Status),
			ReferenceID: txn.ReferenceID,
			Metadata:    txn.Metadata,
			CreatedAt:   txn.CreatedAt,
		})
	}

	writeJSON(w, http.StatusOK, transactionListResponse{Transactions: entries})
}

type withdrawalRequest struct {
	Amount      decimal.Decimal `json:"amount"`
	Destination string          `json:"destination"`
}

type withdrawalResponse struct {
	WithdrawalID string          `json:"withdrawal_id"`
	Status       string          `json:"status"`
	Amount       decimal.Decimal `json:"amount"`
	Fee          decimal.Decimal `json:"fee"`
	NewBalance   decimal.Decimal `json:"new_balance"`
}

// RequestWithdrawal handles POST /api/withdrawals
func (h *LedgerHandler) RequestWithdrawal(w http.ResponseWriter, r *http.Request) {
	identity := identityFromContext(r.Context())

	var req withdrawalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}

	result, err := h.ledger.RequestWithdrawal(r.Context(), identity.PrivyUserID, req.Amount, req.Destination)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, withdrawalResponse{
		WithdrawalID: result.WithdrawalID,
		Status:       string(result.Status),
		Amount:       result.Amount,
		Fee:          result.Fee,
		NewBalance:   result.NewBalance,
	})
}
