package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/feed"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
	"github.com/ndewijer/accumulation-tracker-backend/internal/valuation"
)

// HistoryService computes the portfolio snapshot history on demand from the feeds.
// Every call re-reads both feeds and rebuilds the history from scratch; nothing
// is cached between calls.
type HistoryService struct {
	source feed.Source
	opts   valuation.Options
	logger zerolog.Logger
}

// NewHistoryService creates a new HistoryService with the provided dependencies.
func NewHistoryService(source feed.Source, opts valuation.Options, logger zerolog.Logger) *HistoryService {
	return &HistoryService{
		source: source,
		opts:   opts,
		logger: logger,
	}
}

// Mode returns the accounting mode the service computes with.
func (s *HistoryService) Mode() valuation.Mode {
	if s.opts.Mode == "" {
		return valuation.ModeCompat
	}
	return s.opts.Mode
}

// Compute retrieves the transaction and price feeds and folds them into the
// full snapshot history.
//
// Both feeds are retrieved concurrently. The join is fail-fast: the first
// retrieval error cancels the other retrieval and is returned, no partial
// result is ever valued.
//
// Returns:
//   - valuation.Result: the latest snapshot and the history, one snapshot per transaction
//   - error: wrapping apperrors.ErrFailedToFetchTransactions, ErrFailedToFetchPrices
//     or ErrFailedToComputeHistory
func (s *HistoryService) Compute(ctx context.Context) (valuation.Result, error) {
	start := time.Now()

	transactions, prices, err := s.loadFeeds(ctx)
	if err != nil {
		return valuation.Result{}, err
	}

	result, err := valuation.Compute(transactions, prices, s.opts)
	if err != nil {
		return valuation.Result{}, fmt.Errorf("%w: %w", apperrors.ErrFailedToComputeHistory, err)
	}

	s.logger.Debug().
		Int("transactions", len(transactions)).
		Int("prices", len(prices)).
		Int("snapshots", len(result.History)).
		Str("mode", string(s.Mode())).
		Dur("duration", time.Since(start)).
		Msg("portfolio history computed")

	return result, nil
}

// GetHistory returns the computed snapshots whose timestamp lies within
// [start, end]. A zero start or end leaves that side of the range open.
func (s *HistoryService) GetHistory(ctx context.Context, start, end time.Time) ([]model.Snapshot, error) {
	if err := validateRange(start, end); err != nil {
		return nil, err
	}
	result, err := s.Compute(ctx)
	if err != nil {
		return nil, err
	}
	return filterHistory(result.History, start, end), nil
}

// GetLatest returns the snapshot after the most recent transaction.
// With an empty transaction log this is a zero-valued snapshot stamped with the current time.
func (s *HistoryService) GetLatest(ctx context.Context) (model.Snapshot, error) {
	result, err := s.Compute(ctx)
	if err != nil {
		return model.Snapshot{}, err
	}
	return result.Latest, nil
}

// loadFeeds retrieves both feeds concurrently, failing fast on the first error.
func (s *HistoryService) loadFeeds(ctx context.Context) ([]model.Transaction, []model.PricePoint, error) {
	var (
		transactions []model.Transaction
		prices       []model.PricePoint
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		txs, err := s.source.Transactions(gctx)
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrFailedToFetchTransactions, err)
		}
		transactions = txs
		return nil
	})
	g.Go(func() error {
		points, err := s.source.Prices(gctx)
		if err != nil {
			return fmt.Errorf("%w: %w", apperrors.ErrFailedToFetchPrices, err)
		}
		prices = points
		return nil
	})

	if err := g.Wait(); err != nil {
		s.logger.Warn().Err(err).Msg("feed retrieval failed")
		return nil, nil, err
	}
	return transactions, prices, nil
}
