package valuation

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// Result is the output of Compute.
type Result struct {
	// Latest is the snapshot after the most recent transaction, or an empty
	// snapshot when there were no transactions.
	Latest model.Snapshot
	// History holds one snapshot per transaction, ascending by timestamp.
	History []model.Snapshot
	// TransactionCount and PriceCount are the sizes of the folded feeds.
	TransactionCount int
	PriceCount       int
}

// Compute rebuilds the full snapshot history from the two feeds.
//
// Transactions are ordered with OrderTransactions and prices indexed with
// NewPriceIndex before the fold. An empty transaction log is not an error: the
// result carries an empty history and a zero-valued Latest stamped with
// opts.Now.
func Compute(transactions []model.Transaction, prices []model.PricePoint, opts Options) (Result, error) {
	opts = opts.withDefaults()
	mode, err := ParseMode(string(opts.Mode))
	if err != nil {
		return Result{}, err
	}
	opts.Mode = mode

	if len(transactions) == 0 {
		return Result{
			Latest:     EmptySnapshot(opts),
			History:    []model.Snapshot{},
			PriceCount: len(prices),
		}, nil
	}

	index := NewPriceIndex(prices, opts.Mode)
	l := newLedger(index, opts.Mode, opts.Precision)

	history := make([]model.Snapshot, 0, len(transactions))
	for i, tx := range OrderTransactions(transactions) {
		if err := l.apply(tx); err != nil {
			return Result{}, fmt.Errorf("transaction %d: %w", i, err)
		}
		history = append(history, l.snapshot(tx.Timestamp, opts.BaseCurrency))
	}

	return Result{
		Latest:           history[len(history)-1],
		History:          history,
		TransactionCount: len(transactions),
		PriceCount:       len(prices),
	}, nil
}

// EmptySnapshot is the snapshot reported when there is nothing to value.
func EmptySnapshot(opts Options) model.Snapshot {
	opts = opts.withDefaults()
	return model.Snapshot{
		Timestamp:          opts.Now().UTC(),
		BaseCurrency:       opts.BaseCurrency,
		TotalQuoteInvested: decimal.Zero,
		TotalMarketValue:   decimal.Zero,
		TotalUnrealizedPL:  decimal.Zero,
		TotalRealizedPL:    decimal.Zero,
		Positions:          []model.PositionView{},
	}
}
