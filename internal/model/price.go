package model

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// PricePoint is one record of the price feed.
type PricePoint struct {
	Timestamp   time.Time       `json:"ts"`
	Symbol      string          `json:"symbol"`
	Price       decimal.Decimal `json:"price"`
	Source      string          `json:"source"`
	IterationID string          `json:"iteration_id"`
}

type pricePointJSON PricePoint

// UnmarshalJSON accepts any timestamp ParseFeedTime understands in "ts".
func (p *PricePoint) UnmarshalJSON(data []byte) error {
	aux := struct {
		Timestamp feedTime `json:"ts"`
		*pricePointJSON
	}{pricePointJSON: (*pricePointJSON)(p)}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	p.Timestamp = time.Time(aux.Timestamp)
	return nil
}
