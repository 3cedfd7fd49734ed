package valuation

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// position is the running aggregate of one symbol. It is owned by the ledger
// and never handed out; snapshots receive value copies.
type position struct {
	quantity    decimal.Decimal
	cost        decimal.Decimal
	realized    decimal.Decimal
	marketValue decimal.Decimal
}

// ledger folds ordered transactions into per-symbol positions and keeps the
// portfolio totals up to date as it goes.
type ledger struct {
	mode      Mode
	precision int32
	prices    *PriceIndex

	positions map[string]*position
	symbols   []string // first-seen order, never pruned

	invested    decimal.Decimal
	marketValue decimal.Decimal
	realized    decimal.Decimal
}

func newLedger(prices *PriceIndex, mode Mode, precision int32) *ledger {
	return &ledger{
		mode:      mode,
		precision: precision,
		prices:    prices,
		positions: make(map[string]*position),
	}
}

// apply folds one transaction into the ledger.
func (l *ledger) apply(tx model.Transaction) error {
	pos, ok := l.positions[tx.Symbol]
	if !ok {
		pos = &position{}
		l.positions[tx.Symbol] = pos
		l.symbols = append(l.symbols, tx.Symbol)
	}

	if l.mode == ModeSideAware {
		if err := l.applySideAware(pos, tx); err != nil {
			return err
		}
	} else {
		pos.quantity = pos.quantity.Add(tx.Quantity)
		pos.cost = pos.cost.Add(tx.QuoteSpent)
		l.invested = l.invested.Add(tx.QuoteSpent)
	}

	// Prices are fixed for the whole computation, so only the traded symbol's
	// contribution to the total market value can change.
	price, _ := l.prices.Lookup(tx.Symbol)
	mv := pos.quantity.Mul(price)
	l.marketValue = l.marketValue.Sub(pos.marketValue).Add(mv)
	pos.marketValue = mv

	return nil
}

func (l *ledger) applySideAware(pos *position, tx model.Transaction) error {
	switch tx.Side {
	case model.SideBuy:
		pos.quantity = pos.quantity.Add(tx.Quantity)
		pos.cost = pos.cost.Add(tx.QuoteSpent)
		l.invested = l.invested.Add(tx.QuoteSpent)

	case model.SideSell:
		if tx.Quantity.GreaterThan(pos.quantity) {
			return fmt.Errorf("%w: sell %s %s at %s, holding %s",
				apperrors.ErrInsufficientQuantity, tx.Quantity, tx.Symbol,
				tx.Timestamp.Format(time.RFC3339), pos.quantity)
		}
		removed := pos.cost
		if !tx.Quantity.Equal(pos.quantity) {
			removed = pos.cost.Mul(tx.Quantity).DivRound(pos.quantity, l.precision)
		}
		gain := tx.QuoteSpent.Sub(removed)

		pos.quantity = pos.quantity.Sub(tx.Quantity)
		pos.cost = pos.cost.Sub(removed)
		pos.realized = pos.realized.Add(gain)
		l.invested = l.invested.Sub(removed)
		l.realized = l.realized.Add(gain)

	default:
		return fmt.Errorf("%w: %q for %s at %s", apperrors.ErrUnknownSide, tx.Side, tx.Symbol,
			tx.Timestamp.Format(time.RFC3339))
	}
	return nil
}

// snapshot values every symbol the ledger has ever seen.
func (l *ledger) snapshot(ts time.Time, baseCurrency string) model.Snapshot {
	views := make([]model.PositionView, 0, len(l.symbols))
	for _, symbol := range l.symbols {
		pos := l.positions[symbol]
		price, _ := l.prices.Lookup(symbol)
		views = append(views, model.PositionView{
			Symbol:       symbol,
			Quantity:     pos.quantity,
			TotalCost:    pos.cost,
			AvgCost:      averageCost(pos.cost, pos.quantity, l.precision),
			Price:        price,
			MarketValue:  pos.marketValue,
			UnrealizedPL: pos.marketValue.Sub(pos.cost),
			RealizedPL:   pos.realized,
		})
	}

	return model.Snapshot{
		Timestamp:          ts,
		BaseCurrency:       baseCurrency,
		TotalQuoteInvested: l.invested,
		TotalMarketValue:   l.marketValue,
		TotalUnrealizedPL:  l.marketValue.Sub(l.invested),
		TotalRealizedPL:    l.realized,
		Positions:          views,
	}
}

// averageCost returns cost/quantity, or zero for a closed position.
func averageCost(cost, quantity decimal.Decimal, precision int32) decimal.Decimal {
	if quantity.IsZero() {
		return decimal.Zero
	}
	return cost.DivRound(quantity, precision)
}
