package valuation_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

func ts(t *testing.T, s string) time.Time {
	t.Helper()
	parsed, err := time.Parse(time.RFC3339, s)
	require.NoError(t, err)
	return parsed
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func buy(t *testing.T, at, symbol, qty, spent string) model.Transaction {
	t.Helper()
	return model.Transaction{
		Timestamp:  ts(t, at),
		Exchange:   "binance",
		Symbol:     symbol,
		Side:       model.SideBuy,
		Price:      dec(spent).Div(dec(qty)),
		Quantity:   dec(qty),
		QuoteSpent: dec(spent),
		OrderType:  "MARKET",
	}
}

func sell(t *testing.T, at, symbol, qty, received string) model.Transaction {
	t.Helper()
	tx := buy(t, at, symbol, qty, received)
	tx.Side = model.SideSell
	return tx
}

func price(symbol, p string) model.PricePoint {
	return model.PricePoint{Symbol: symbol, Price: dec(p), Source: "test"}
}

func pricedAt(t *testing.T, at, symbol, p string) model.PricePoint {
	t.Helper()
	pp := price(symbol, p)
	pp.Timestamp = ts(t, at)
	return pp
}

// requireDecimal compares decimals by value so that "150" and "150.00" match.
func requireDecimal(t *testing.T, want string, got decimal.Decimal, field string) {
	t.Helper()
	require.Truef(t, dec(want).Equal(got), "%s: expected %s, got %s", field, want, got)
}

func findPosition(t *testing.T, snap model.Snapshot, symbol string) model.PositionView {
	t.Helper()
	for _, p := range snap.Positions {
		if p.Symbol == symbol {
			return p
		}
	}
	t.Fatalf("position %s not found in snapshot at %s", symbol, snap.Timestamp)
	return model.PositionView{}
}
