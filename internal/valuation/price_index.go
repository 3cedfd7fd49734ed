package valuation

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// PriceIndex maps a symbol to its current price. It holds a single price per
// symbol and is read-only once built.
type PriceIndex struct {
	prices map[string]decimal.Decimal
}

// NewPriceIndex builds the index for the given mode.
//
// In ModeCompat the last record visited for a symbol wins, whatever its
// timestamp. In ModeSideAware the record with the greatest timestamp wins and
// equal timestamps fall back to the last one visited.
func NewPriceIndex(points []model.PricePoint, mode Mode) *PriceIndex {
	idx := &PriceIndex{prices: make(map[string]decimal.Decimal, len(points))}

	if mode != ModeSideAware {
		for _, p := range points {
			idx.prices[p.Symbol] = p.Price
		}
		return idx
	}

	seen := make(map[string]time.Time, len(points))
	for _, p := range points {
		if ts, ok := seen[p.Symbol]; ok && p.Timestamp.Before(ts) {
			continue
		}
		seen[p.Symbol] = p.Timestamp
		idx.prices[p.Symbol] = p.Price
	}
	return idx
}

// Lookup returns the price of symbol. An unknown symbol yields zero and false;
// callers value such a position at zero rather than failing.
func (idx *PriceIndex) Lookup(symbol string) (decimal.Decimal, bool) {
	price, ok := idx.prices[symbol]
	if !ok {
		return decimal.Zero, false
	}
	return price, true
}

// Len returns the number of priced symbols.
func (idx *PriceIndex) Len() int {
	return len(idx.prices)
}
