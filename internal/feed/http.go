package feed

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// HTTPSource fetches the feeds from a base URL, e.g. a bucket or static file server.
type HTTPSource struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPSource creates a client for the feeds published under baseURL.
// When token is non-empty every request carries it as a bearer token.
// A zero timeout leaves requests bounded by the caller's context only.
func NewHTTPSource(baseURL, token string, timeout time.Duration) *HTTPSource {
	return &HTTPSource{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Transactions fetches and decodes transactions.ndjson.
func (s *HTTPSource) Transactions(ctx context.Context) ([]model.Transaction, error) {
	body, err := s.fetch(ctx, TransactionsFile)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return DecodeTransactions(body)
}

// Prices fetches and decodes prices.ndjson.
func (s *HTTPSource) Prices(ctx context.Context) ([]model.PricePoint, error) {
	body, err := s.fetch(ctx, PricesFile)
	if err != nil {
		return nil, err
	}
	defer body.Close()
	return DecodePrices(body)
}

// CurrentPositions fetches and decodes positions_current.json.
func (s *HTTPSource) CurrentPositions(ctx context.Context) (model.CurrentPositions, error) {
	body, err := s.fetch(ctx, CurrentPositionsFile)
	if err != nil {
		return model.CurrentPositions{}, err
	}
	defer body.Close()
	return DecodeCurrentPositions(body)
}

// fetch executes the GET request for a feed file. The caller closes the body.
func (s *HTTPSource) fetch(ctx context.Context, name string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/"+name, nil)
	if err != nil {
		return nil, err
	}
	if s.token != "" {
		req.Header.Set("Authorization", "Bearer "+s.token)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch %s: %w", name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return nil, fmt.Errorf("%w: failed to fetch %s: %s", apperrors.ErrFeedNotFound, name, resp.Status)
		}
		return nil, fmt.Errorf("failed to fetch %s: %s", name, resp.Status)
	}
	return resp.Body, nil
}
