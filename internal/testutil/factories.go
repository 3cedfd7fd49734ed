package testutil

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
	"github.com/ndewijer/accumulation-tracker-backend/internal/repository"
)

// BaseTime is the timestamp builders start from. Tests derive later
// timestamps with At.
var BaseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// At returns BaseTime shifted by the given number of hours.
func At(hours int) time.Time {
	return BaseTime.Add(time.Duration(hours) * time.Hour)
}

// Dec parses a decimal literal and panics on malformed input.
func Dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// TransactionBuilder provides a fluent interface for creating feed transactions.
//
// Example usage:
//
//	// Simple BUY with defaults
//	tx := testutil.NewTransaction("BTC").Build()
//
//	// Customized SELL
//	tx := testutil.NewTransaction("ETH").
//	    Sell().
//	    WithQuantity("0.5").
//	    WithQuoteSpent("1050").
//	    WithTimestamp(testutil.At(3)).
//	    Build()
type TransactionBuilder struct {
	tx model.Transaction
}

// NewTransaction creates a TransactionBuilder with sensible defaults: a market
// BUY of one unit at 100 quote.
func NewTransaction(symbol string) *TransactionBuilder {
	return &TransactionBuilder{tx: model.Transaction{
		Timestamp:        BaseTime,
		Exchange:         "binance",
		Symbol:           symbol,
		Side:             model.SideBuy,
		Price:            Dec("100"),
		Quantity:         Dec("1"),
		QuoteSpent:       Dec("100"),
		OrderType:        "MARKET",
		IterationID:      MakeID(),
		FiltersValidated: true,
	}}
}

// WithTimestamp sets the transaction timestamp
func (b *TransactionBuilder) WithTimestamp(ts time.Time) *TransactionBuilder {
	b.tx.Timestamp = ts
	return b
}

// WithQuantity sets the traded quantity
func (b *TransactionBuilder) WithQuantity(qty string) *TransactionBuilder {
	b.tx.Quantity = Dec(qty)
	return b
}

// WithQuoteSpent sets the quote amount spent or received
func (b *TransactionBuilder) WithQuoteSpent(quote string) *TransactionBuilder {
	b.tx.QuoteSpent = Dec(quote)
	return b
}

// WithPrice sets the execution price
func (b *TransactionBuilder) WithPrice(price string) *TransactionBuilder {
	b.tx.Price = Dec(price)
	return b
}

// WithNotes sets the free-form notes
func (b *TransactionBuilder) WithNotes(notes string) *TransactionBuilder {
	b.tx.Notes = notes
	return b
}

// Sell turns the transaction into a SELL.
func (b *TransactionBuilder) Sell() *TransactionBuilder {
	b.tx.Side = model.SideSell
	return b
}

// Build returns the transaction.
func (b *TransactionBuilder) Build() model.Transaction {
	return b.tx
}

// NewPrice creates a price feed record.
func NewPrice(symbol, price string, ts time.Time) model.PricePoint {
	return model.PricePoint{
		Timestamp:   ts,
		Symbol:      symbol,
		Price:       Dec(price),
		Source:      "binance",
		IterationID: MakeID(),
	}
}

// SnapshotRunBuilder provides a fluent interface for creating refresh runs.
//
// Example usage:
//
//	run := testutil.NewSnapshotRun().Failed("feed down").Build(t, db)
type SnapshotRunBuilder struct {
	run model.SnapshotRun
}

// NewSnapshotRun creates a SnapshotRunBuilder for a completed run.
func NewSnapshotRun() *SnapshotRunBuilder {
	finished := BaseTime.Add(time.Second)
	return &SnapshotRunBuilder{run: model.SnapshotRun{
		ID:         MakeID(),
		StartedAt:  BaseTime,
		FinishedAt: &finished,
		Mode:       "compat",
		Status:     model.RunStatusCompleted,
	}}
}

// WithID sets a custom ID.
func (b *SnapshotRunBuilder) WithID(id string) *SnapshotRunBuilder {
	b.run.ID = id
	return b
}

// WithStartedAt sets the start time, keeping the run duration.
func (b *SnapshotRunBuilder) WithStartedAt(ts time.Time) *SnapshotRunBuilder {
	b.run.StartedAt = ts
	if b.run.FinishedAt != nil {
		finished := ts.Add(time.Second)
		b.run.FinishedAt = &finished
	}
	return b
}

// Failed marks the run as failed with the given message.
func (b *SnapshotRunBuilder) Failed(msg string) *SnapshotRunBuilder {
	b.run.Status = model.RunStatusFailed
	b.run.Error = msg
	return b
}

// Running marks the run as still in progress.
func (b *SnapshotRunBuilder) Running() *SnapshotRunBuilder {
	b.run.Status = model.RunStatusRunning
	b.run.FinishedAt = nil
	return b
}

// Build creates the run in the database
func (b *SnapshotRunBuilder) Build(t *testing.T, db *sql.DB) model.SnapshotRun {
	t.Helper()

	if err := repository.NewSnapshotRepository(db).CreateRun(context.Background(), b.run); err != nil {
		t.Fatalf("Failed to create snapshot run: %v", err)
	}
	return b.run
}
