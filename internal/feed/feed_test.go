package feed_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fernet/fernet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/config"
	"github.com/ndewijer/accumulation-tracker-backend/internal/feed"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
	"github.com/ndewijer/accumulation-tracker-backend/internal/testutil"
)

const transactionsNDJSON = `{"ts":"2024-01-01T00:00:00Z","exchange":"binance","symbol":"BTC","side":"BUY","price":"40000","qty":"1","quote_spent":"40000","order_type":"MARKET","iteration_id":"it-1","filters_validated":true,"notes":""}

{"ts":"2024-01-02T00:00:00Z","exchange":"binance","symbol":"ETH","side":"BUY","price":"2000.123456789012","qty":"0.5","quote_spent":"1000.0617283945","order_type":"MARKET","iteration_id":"it-2","filters_validated":false,"notes":"dip"}
`

const pricesNDJSON = `{"ts":"2024-01-01T00:00:00Z","symbol":"BTC","price":"41000","source":"binance","iteration_id":"it-1"}
   
{"ts":"2024-01-02T00:00:00Z","symbol":"ETH","price":"2100","source":"binance","iteration_id":"it-2"}
`

const positionsJSON = `{"updated_at":"2024-01-02T00:00:00Z","base_currency":"USDC","total_quote_invested":"41000.0617283945","positions":[{"symbol":"BTC","open_quantity":"1","total_cost":"40000","avg_cost":"40000"}]}`

// TestDecodeTransactions verifies the line-delimited transaction decoder.
//
// WHY: The feed is written by an external process; blank lines must be tolerated,
// decimal strings must survive without float rounding, and a broken record must
// be reported with its line number so the feed can be fixed.
func TestDecodeTransactions(t *testing.T) {
	t.Run("decodes records and skips blank lines", func(t *testing.T) {
		txs, err := feed.DecodeTransactions(strings.NewReader(transactionsNDJSON))
		require.NoError(t, err)
		require.Len(t, txs, 2)

		assert.Equal(t, "BTC", txs[0].Symbol)
		assert.Equal(t, model.SideBuy, txs[0].Side)
		assert.True(t, txs[0].FiltersValidated)
		assert.Equal(t, "2000.123456789012", txs[1].Price.String())
		assert.Equal(t, "1000.0617283945", txs[1].QuoteSpent.String())
		assert.Equal(t, "dip", txs[1].Notes)
	})

	t.Run("empty feed yields empty slice", func(t *testing.T) {
		txs, err := feed.DecodeTransactions(strings.NewReader("\n\n"))
		require.NoError(t, err)
		assert.NotNil(t, txs)
		assert.Empty(t, txs)
	})

	t.Run("malformed line reports line number", func(t *testing.T) {
		input := `{"ts":"2024-01-01T00:00:00Z","symbol":"BTC","side":"BUY","qty":"1","quote_spent":"1"}` + "\n\n{not json}\n"
		_, err := feed.DecodeTransactions(strings.NewReader(input))
		require.Error(t, err)
		assert.ErrorIs(t, err, apperrors.ErrFailedToParseFeed)
		assert.Contains(t, err.Error(), "line 3")
	})

	t.Run("missing symbol is rejected", func(t *testing.T) {
		_, err := feed.DecodeTransactions(strings.NewReader(`{"ts":"2024-01-01T00:00:00Z","side":"BUY"}`))
		assert.ErrorIs(t, err, apperrors.ErrMissingRequiredField)
	})

	t.Run("missing timestamp is rejected", func(t *testing.T) {
		_, err := feed.DecodeTransactions(strings.NewReader(`{"symbol":"BTC","side":"BUY"}`))
		assert.ErrorIs(t, err, apperrors.ErrMissingRequiredField)
	})

	t.Run("invalid timestamp is a parse error", func(t *testing.T) {
		_, err := feed.DecodeTransactions(strings.NewReader(`{"ts":"yesterday","symbol":"BTC","side":"BUY"}`))
		assert.ErrorIs(t, err, apperrors.ErrFailedToParseFeed)
		assert.Contains(t, err.Error(), "line 1")
	})
}

// TestDecodeTransactions_TimestampForms verifies the accepted ISO-8601 forms.
//
// WHY: Feed producers do not all write a zone offset. Python's isoformat()
// omits it for naive datetimes, and one such record must not fail the whole feed.
func TestDecodeTransactions_TimestampForms(t *testing.T) {
	tests := []struct {
		name string
		ts   string
		want time.Time
	}{
		{"utc designator", "2024-01-01T10:30:00Z", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"fractional seconds", "2024-01-01T10:30:00.123456Z", time.Date(2024, 1, 1, 10, 30, 0, 123456000, time.UTC)},
		{"offset", "2024-01-01T12:30:00+02:00", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"no offset", "2024-01-01T10:30:00", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"no offset with fraction", "2024-01-01T10:30:00.5", time.Date(2024, 1, 1, 10, 30, 0, 500000000, time.UTC)},
		{"space separator", "2024-01-01 10:30:00", time.Date(2024, 1, 1, 10, 30, 0, 0, time.UTC)},
		{"date only", "2024-01-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `{"ts":"` + tt.ts + `","symbol":"BTC","side":"BUY","qty":"1","quote_spent":"100"}`
			txs, err := feed.DecodeTransactions(strings.NewReader(input))
			require.NoError(t, err)
			require.Len(t, txs, 1)
			assert.True(t, tt.want.Equal(txs[0].Timestamp), "expected %s, got %s", tt.want, txs[0].Timestamp)
			assert.Equal(t, "100", txs[0].QuoteSpent.String())
		})
	}
}

// TestDecodePrices verifies the line-delimited price decoder.
func TestDecodePrices(t *testing.T) {
	points, err := feed.DecodePrices(strings.NewReader(pricesNDJSON))
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, "ETH", points[1].Symbol)
	assert.Equal(t, "2100", points[1].Price.String())

	_, err = feed.DecodePrices(strings.NewReader(`{"ts":"2024-01-01T00:00:00Z","price":"1"}`))
	assert.ErrorIs(t, err, apperrors.ErrMissingRequiredField)

	t.Run("timestamp is optional", func(t *testing.T) {
		points, err := feed.DecodePrices(strings.NewReader(`{"symbol":"BTC","price":"150"}`))
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.True(t, points[0].Timestamp.IsZero())
	})

	t.Run("naive timestamp", func(t *testing.T) {
		points, err := feed.DecodePrices(strings.NewReader(`{"ts":"2024-01-01T00:00:00","symbol":"BTC","price":"150"}`))
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.True(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC).Equal(points[0].Timestamp))
	})
}

func writeFeed(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, feed.TransactionsFile), []byte(transactionsNDJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, feed.PricesFile), []byte(pricesNDJSON), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, feed.CurrentPositionsFile), []byte(positionsJSON), 0o600))
	return dir
}

// TestFileSource verifies reading the feeds from a directory.
//
// WHY: A missing feed file must surface as ErrFeedNotFound rather than an empty
// portfolio, otherwise a broken deployment would report zero holdings.
func TestFileSource(t *testing.T) {
	ctx := context.Background()

	t.Run("reads all feeds", func(t *testing.T) {
		src := feed.NewFileSource(writeFeed(t))

		txs, err := src.Transactions(ctx)
		require.NoError(t, err)
		assert.Len(t, txs, 2)

		points, err := src.Prices(ctx)
		require.NoError(t, err)
		assert.Len(t, points, 2)

		cp, err := src.CurrentPositions(ctx)
		require.NoError(t, err)
		assert.Equal(t, "USDC", cp.BaseCurrency)
		require.Len(t, cp.Positions, 1)
		assert.Equal(t, "1", cp.Positions[0].OpenQuantity.String())
	})

	t.Run("reads records written as ndjson", func(t *testing.T) {
		want := testutil.NewTransaction("SOL").
			WithQuantity("12.345678901234567890").
			WithQuoteSpent("1234.5678").
			WithNotes("line\nbreak").
			Build()
		dir := testutil.WriteFeedDir(t, []model.Transaction{want}, []model.PricePoint{testutil.NewPrice("SOL", "101.5", testutil.At(1))})
		src := feed.NewFileSource(dir)

		txs, err := src.Transactions(ctx)
		require.NoError(t, err)
		require.Len(t, txs, 1)
		assert.Equal(t, "12.34567890123456789", txs[0].Quantity.String())
		assert.Equal(t, "line\nbreak", txs[0].Notes)
		assert.True(t, want.Timestamp.Equal(txs[0].Timestamp))

		points, err := src.Prices(ctx)
		require.NoError(t, err)
		require.Len(t, points, 1)
		assert.Equal(t, "101.5", points[0].Price.String())
	})

	t.Run("missing file", func(t *testing.T) {
		src := feed.NewFileSource(t.TempDir())

		_, err := src.Transactions(ctx)
		assert.ErrorIs(t, err, apperrors.ErrFeedNotFound)

		_, err = src.CurrentPositions(ctx)
		assert.ErrorIs(t, err, apperrors.ErrFeedNotFound)
	})
}

// TestHTTPSource verifies fetching the feeds over HTTP.
//
// WHY: The feeds are usually published to a bucket behind a bearer token; the
// client must send the token and must fail on any non-2xx status.
func TestHTTPSource(t *testing.T) {
	ctx := context.Background()

	newServer := func(t *testing.T, wantToken string) *httptest.Server {
		t.Helper()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if wantToken != "" && r.Header.Get("Authorization") != "Bearer "+wantToken {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			switch r.URL.Path {
			case "/" + feed.TransactionsFile:
				_, _ = w.Write([]byte(transactionsNDJSON))
			case "/" + feed.PricesFile:
				_, _ = w.Write([]byte(pricesNDJSON))
			case "/" + feed.CurrentPositionsFile:
				_, _ = w.Write([]byte(positionsJSON))
			default:
				http.NotFound(w, r)
			}
		}))
		t.Cleanup(srv.Close)
		return srv
	}

	t.Run("fetches feeds with bearer token", func(t *testing.T) {
		srv := newServer(t, "secret")
		src := feed.NewHTTPSource(srv.URL, "secret", 0)

		txs, err := src.Transactions(ctx)
		require.NoError(t, err)
		assert.Len(t, txs, 2)

		points, err := src.Prices(ctx)
		require.NoError(t, err)
		assert.Len(t, points, 2)

		cp, err := src.CurrentPositions(ctx)
		require.NoError(t, err)
		assert.Equal(t, "41000.0617283945", cp.TotalQuoteInvested.String())
	})

	t.Run("non-2xx status fails", func(t *testing.T) {
		srv := newServer(t, "secret")
		src := feed.NewHTTPSource(srv.URL, "wrong", 0)

		_, err := src.Transactions(ctx)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to fetch transactions.ndjson: 401")
		assert.False(t, errors.Is(err, apperrors.ErrFeedNotFound))
	})

	t.Run("404 maps to feed not found", func(t *testing.T) {
		srv := httptest.NewServer(http.NotFoundHandler())
		t.Cleanup(srv.Close)
		src := feed.NewHTTPSource(srv.URL, "", 0)

		_, err := src.Prices(ctx)
		assert.ErrorIs(t, err, apperrors.ErrFeedNotFound)
	})

	t.Run("cancelled context", func(t *testing.T) {
		srv := newServer(t, "")
		src := feed.NewHTTPSource(srv.URL, "", 0)

		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := src.Transactions(cctx)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func encryptToken(t *testing.T, plain string) (key, token string) {
	t.Helper()
	var k fernet.Key
	require.NoError(t, k.Generate())
	tok, err := fernet.EncryptAndSign([]byte(plain), &k)
	require.NoError(t, err)
	return k.Encode(), string(tok)
}

// TestDecryptToken verifies decrypting the feed bearer token.
func TestDecryptToken(t *testing.T) {
	key, token := encryptToken(t, "feed-bearer")

	t.Run("valid token", func(t *testing.T) {
		plain, err := feed.DecryptToken(key, token)
		require.NoError(t, err)
		assert.Equal(t, "feed-bearer", plain)
	})

	t.Run("wrong key", func(t *testing.T) {
		otherKey, _ := encryptToken(t, "x")
		_, err := feed.DecryptToken(otherKey, token)
		assert.ErrorIs(t, err, apperrors.ErrFailedToDecryptToken)
	})

	t.Run("malformed key", func(t *testing.T) {
		_, err := feed.DecryptToken("not-a-key", token)
		assert.ErrorIs(t, err, apperrors.ErrFailedToDecryptToken)
	})
}

// TestNew verifies source selection from configuration.
func TestNew(t *testing.T) {
	t.Run("file source", func(t *testing.T) {
		src, err := feed.New(config.FeedConfig{Source: config.FeedSourceFile, Dir: t.TempDir()})
		require.NoError(t, err)
		assert.IsType(t, &feed.FileSource{}, src)
	})

	t.Run("http source decrypts token", func(t *testing.T) {
		key, token := encryptToken(t, "secret")
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Authorization") != "Bearer secret" {
				w.WriteHeader(http.StatusUnauthorized)
				return
			}
			_, _ = w.Write([]byte(pricesNDJSON))
		}))
		t.Cleanup(srv.Close)

		src, err := feed.New(config.FeedConfig{
			Source:         config.FeedSourceHTTP,
			BaseURL:        srv.URL,
			EncryptedToken: token,
			FernetKey:      key,
		})
		require.NoError(t, err)

		points, err := src.Prices(context.Background())
		require.NoError(t, err)
		assert.Len(t, points, 2)
	})

	t.Run("bad token", func(t *testing.T) {
		key, _ := encryptToken(t, "secret")
		_, err := feed.New(config.FeedConfig{
			Source:         config.FeedSourceHTTP,
			BaseURL:        "http://localhost",
			EncryptedToken: "garbage",
			FernetKey:      key,
		})
		assert.ErrorIs(t, err, apperrors.ErrFailedToDecryptToken)
	})

	t.Run("unknown source", func(t *testing.T) {
		_, err := feed.New(config.FeedConfig{Source: "ftp"})
		assert.Error(t, err)
	})
}
