// Package feed retrieves the transaction, price and current-positions feeds
// published by the trading strategy, either from a local directory or over HTTP.
package feed

import (
	"context"
	"fmt"

	"github.com/ndewijer/accumulation-tracker-backend/internal/config"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// Feed file names, relative to the feed directory or base URL.
const (
	TransactionsFile     = "transactions.ndjson"
	PricesFile           = "prices.ndjson"
	CurrentPositionsFile = "positions_current.json"
)

// Source provides the raw feeds. Implementations must be safe for concurrent use,
// the transaction and price feeds are retrieved in parallel.
type Source interface {
	Transactions(ctx context.Context) ([]model.Transaction, error)
	Prices(ctx context.Context) ([]model.PricePoint, error)
	CurrentPositions(ctx context.Context) (model.CurrentPositions, error)
}

// New builds the Source selected by cfg.
// For the http source an encrypted token is decrypted with the configured fernet key.
func New(cfg config.FeedConfig) (Source, error) {
	switch cfg.Source {
	case config.FeedSourceFile:
		return NewFileSource(cfg.Dir), nil
	case config.FeedSourceHTTP:
		var token string
		if cfg.EncryptedToken != "" {
			t, err := DecryptToken(cfg.FernetKey, cfg.EncryptedToken)
			if err != nil {
				return nil, err
			}
			token = t
		}
		return NewHTTPSource(cfg.BaseURL, token, cfg.Timeout), nil
	default:
		return nil, fmt.Errorf("unknown feed source %q", cfg.Source)
	}
}
