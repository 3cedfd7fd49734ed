package testutil

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/ndewijer/accumulation-tracker-backend/internal/feed"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// MockSource is an in-memory feed.Source for testing.
// It returns the configured records instead of reading real feeds.
type MockSource struct {
	// MockTransactions is returned by Transactions
	MockTransactions []model.Transaction
	// MockPrices is returned by Prices
	MockPrices []model.PricePoint
	// MockPositions is returned by CurrentPositions
	MockPositions model.CurrentPositions

	// Errors returned by the respective methods
	TransactionsErr error
	PricesErr       error
	PositionsErr    error

	// BlockPrices makes Prices wait for context cancellation before returning.
	BlockPrices bool

	// QueryCount tracks how many times any method was called
	QueryCount atomic.Int32
}

// NewMockSource creates a mock source serving the given feeds.
func NewMockSource(txs []model.Transaction, prices []model.PricePoint) *MockSource {
	return &MockSource{
		MockTransactions: txs,
		MockPrices:       prices,
		MockPositions: model.CurrentPositions{
			BaseCurrency: "USDC",
			Positions:    []model.PositionSummary{},
		},
	}
}

// Transactions returns MockTransactions or TransactionsErr.
func (m *MockSource) Transactions(_ context.Context) ([]model.Transaction, error) {
	m.QueryCount.Add(1)
	if m.TransactionsErr != nil {
		return nil, m.TransactionsErr
	}
	return append([]model.Transaction(nil), m.MockTransactions...), nil
}

// Prices returns MockPrices or PricesErr.
func (m *MockSource) Prices(ctx context.Context) ([]model.PricePoint, error) {
	m.QueryCount.Add(1)
	if m.BlockPrices {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if m.PricesErr != nil {
		return nil, m.PricesErr
	}
	return append([]model.PricePoint(nil), m.MockPrices...), nil
}

// CurrentPositions returns MockPositions or PositionsErr.
func (m *MockSource) CurrentPositions(_ context.Context) (model.CurrentPositions, error) {
	m.QueryCount.Add(1)
	if m.PositionsErr != nil {
		return model.CurrentPositions{}, m.PositionsErr
	}
	return m.MockPositions, nil
}

// WithTransactionsError configures the mock to fail transaction retrieval.
func (m *MockSource) WithTransactionsError(err error) *MockSource {
	m.TransactionsErr = err
	return m
}

// WithPricesError configures the mock to fail price retrieval.
func (m *MockSource) WithPricesError(err error) *MockSource {
	m.PricesErr = err
	return m
}

// WithPositions configures the current positions summary.
func (m *MockSource) WithPositions(cp model.CurrentPositions) *MockSource {
	m.MockPositions = cp
	return m
}

// WriteFeedDir writes the given records as feed files into a temporary
// directory and returns it, ready for feed.NewFileSource.
func WriteFeedDir(t *testing.T, txs []model.Transaction, prices []model.PricePoint) string {
	t.Helper()

	dir := t.TempDir()
	writeNDJSON(t, filepath.Join(dir, feed.TransactionsFile), txs)
	writeNDJSON(t, filepath.Join(dir, feed.PricesFile), prices)
	return dir
}

func writeNDJSON[T any](t *testing.T, path string, records []T) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("Failed to create %s: %v", path, err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	for _, r := range records {
		if err := enc.Encode(r); err != nil {
			t.Fatalf("Failed to write %s: %v", path, err)
		}
	}
}
