package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Side is the direction of a transaction.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether s is one of the known sides.
func (s Side) Valid() bool {
	return s == SideBuy || s == SideSell
}

// Transaction is one record of the transaction feed.
// QuoteSpent is the quote-currency amount of the trade as recorded by the strategy,
// fees included. For a SELL it is the amount received.
type Transaction struct {
	Timestamp        time.Time       `json:"ts"`
	Exchange         string          `json:"exchange"`
	Symbol           string          `json:"symbol"`
	Side             Side            `json:"side"`
	Price            decimal.Decimal `json:"price"`
	Quantity         decimal.Decimal `json:"qty"`
	QuoteSpent       decimal.Decimal `json:"quote_spent"`
	OrderType        string          `json:"order_type"`
	IterationID      string          `json:"iteration_id"`
	FiltersValidated bool            `json:"filters_validated"`
	Notes            string          `json:"notes"`
}

type transactionJSON Transaction

// UnmarshalJSON accepts any timestamp ParseFeedTime understands in "ts".
func (tx *Transaction) UnmarshalJSON(data []byte) error {
	aux := struct {
		Timestamp feedTime `json:"ts"`
		*transactionJSON
	}{transactionJSON: (*transactionJSON)(tx)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	tx.Timestamp = time.Time(aux.Timestamp)
	return nil
}
