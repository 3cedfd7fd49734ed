package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Snapshot is the valuation of the whole portfolio right after one transaction.
// All monetary values are decimals and serialize as decimal strings.
type Snapshot struct {
	Timestamp          time.Time       `json:"ts"`
	BaseCurrency       string          `json:"base_currency"`
	TotalQuoteInvested decimal.Decimal `json:"total_quote_invested"` // Cash put in (compat) or open cost basis (side-aware)
	TotalMarketValue   decimal.Decimal `json:"total_market_value"`
	TotalUnrealizedPL  decimal.Decimal `json:"total_unrealized_pl"` // TotalMarketValue - TotalQuoteInvested
	TotalRealizedPL    decimal.Decimal `json:"total_realized_pl"`   // Always zero in compat mode
	Positions          []PositionView  `json:"positions"`
}

// PositionView is a read-only projection of one ledger position at snapshot time.
type PositionView struct {
	Symbol       string
	Quantity     decimal.Decimal
	TotalCost    decimal.Decimal
	AvgCost      decimal.Decimal // Zero when Quantity is zero
	Price        decimal.Decimal
	MarketValue  decimal.Decimal
	UnrealizedPL decimal.Decimal
	RealizedPL   decimal.Decimal
}

// positionViewJSON mirrors the snapshot record layout, which carries the open
// quantity under both open_qty and open_quantity.
type positionViewJSON struct {
	Symbol       string          `json:"symbol"`
	OpenQty      decimal.Decimal `json:"open_qty"`
	OpenQuantity decimal.Decimal `json:"open_quantity"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
	Price        decimal.Decimal `json:"price"`
	MarketValue  decimal.Decimal `json:"market_value"`
	UnrealizedPL decimal.Decimal `json:"unrealized_pl"`
	RealizedPL   decimal.Decimal `json:"realized_pl"`
}

// MarshalJSON implements json.Marshaler.
func (p PositionView) MarshalJSON() ([]byte, error) {
	return json.Marshal(positionViewJSON{
		Symbol:       p.Symbol,
		OpenQty:      p.Quantity,
		OpenQuantity: p.Quantity,
		TotalCost:    p.TotalCost,
		AvgCost:      p.AvgCost,
		Price:        p.Price,
		MarketValue:  p.MarketValue,
		UnrealizedPL: p.UnrealizedPL,
		RealizedPL:   p.RealizedPL,
	})
}

// UnmarshalJSON implements json.Unmarshaler. open_qty wins over open_quantity
// when both are present.
func (p *PositionView) UnmarshalJSON(data []byte) error {
	var raw struct {
		positionViewJSON
		OpenQty      *decimal.Decimal `json:"open_qty"`
		OpenQuantity *decimal.Decimal `json:"open_quantity"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*p = PositionView{
		Symbol:       raw.Symbol,
		TotalCost:    raw.TotalCost,
		AvgCost:      raw.AvgCost,
		Price:        raw.Price,
		MarketValue:  raw.MarketValue,
		UnrealizedPL: raw.UnrealizedPL,
		RealizedPL:   raw.RealizedPL,
	}
	switch {
	case raw.OpenQty != nil:
		p.Quantity = *raw.OpenQty
	case raw.OpenQuantity != nil:
		p.Quantity = *raw.OpenQuantity
	}
	return nil
}

// SnapshotRun describes one materialization of the snapshot history.
type SnapshotRun struct {
	ID               string     `json:"id"`
	StartedAt        time.Time  `json:"startedAt"`
	FinishedAt       *time.Time `json:"finishedAt,omitempty"`
	Mode             string     `json:"mode"`
	TransactionCount int        `json:"transactionCount"`
	SnapshotCount    int        `json:"snapshotCount"`
	Status           string     `json:"status"`
	Error            string     `json:"error,omitempty"`
}

// Run statuses.
const (
	RunStatusRunning   = "running"
	RunStatusCompleted = "completed"
	RunStatusFailed    = "failed"
)
