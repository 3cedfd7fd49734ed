package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrentPositions is the separately maintained positions summary published
// next to the feeds. It is displayed as-is and never fed into the valuation.
type CurrentPositions struct {
	UpdatedAt          time.Time         `json:"updated_at"`
	BaseCurrency       string            `json:"base_currency"`
	TotalQuoteInvested decimal.Decimal   `json:"total_quote_invested"`
	Positions          []PositionSummary `json:"positions"`
}

// PositionSummary is a position line of CurrentPositions.
type PositionSummary struct {
	Symbol       string          `json:"symbol"`
	OpenQuantity decimal.Decimal `json:"open_quantity"`
	TotalCost    decimal.Decimal `json:"total_cost"`
	AvgCost      decimal.Decimal `json:"avg_cost"`
}
