package handlers

import (
	"net/http"

	"github.com/ndewijer/accumulation-tracker-backend/internal/service"
)

// TransactionHandler handles transaction HTTP requests
type TransactionHandler struct {
	transactionService *service.TransactionService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(transactionService *service.TransactionService) *TransactionHandler {
	return &TransactionHandler{
		transactionService: transactionService,
	}
}

// Transactions handles GET requests for the transaction feed in valuation order.
//
// Endpoint: GET /api/transactions
// Query params:
//   - symbol: optional, restricts the result to one symbol
//
// Response: 200 OK with array of model.Transaction, ascending by timestamp
// Error: 502 Bad Gateway if the feed cannot be retrieved
func (h *TransactionHandler) Transactions(w http.ResponseWriter, r *http.Request) {
	txs, err := h.transactionService.GetTransactions(r.Context(), r.URL.Query().Get("symbol"))
	if err != nil {
		respondServiceError(w, r, "failed to retrieve transactions", err)
		return
	}
	respondJSON(w, http.StatusOK, txs)
}
