package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/feed"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
	"github.com/ndewijer/accumulation-tracker-backend/internal/valuation"
)

// TransactionService exposes the transaction feed for display.
type TransactionService struct {
	source feed.Source
}

// NewTransactionService creates a new TransactionService reading from source.
func NewTransactionService(source feed.Source) *TransactionService {
	return &TransactionService{
		source: source,
	}
}

// GetTransactions returns the transactions in the order the valuation applies
// them: ascending by timestamp, ties in feed order. A non-empty symbol
// restricts the result to that symbol (case-insensitive).
func (s *TransactionService) GetTransactions(ctx context.Context, symbol string) ([]model.Transaction, error) {
	txs, err := s.source.Transactions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", apperrors.ErrFailedToFetchTransactions, err)
	}

	ordered := valuation.OrderTransactions(txs)
	if symbol == "" {
		return ordered, nil
	}

	filtered := []model.Transaction{}
	for _, tx := range ordered {
		if strings.EqualFold(tx.Symbol, symbol) {
			filtered = append(filtered, tx)
		}
	}
	return filtered, nil
}
