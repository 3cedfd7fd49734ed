package valuation

import (
	"fmt"
	"strings"
	"time"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
)

// Mode selects the accounting policy of a computation. A mode fixes both the
// price index policy and the way SELL transactions touch the ledger, so the
// two are never mixed.
type Mode string

const (
	// ModeCompat reproduces the historical behaviour of the tracker: the price
	// index keeps the last record visited per symbol, and quantity and cost
	// accumulate identically for BUY and SELL.
	ModeCompat Mode = "compat"

	// ModeSideAware keeps the price with the greatest timestamp per symbol and
	// lets a SELL remove quantity and average cost from the position, booking
	// the difference with the quote received as realized P&L.
	ModeSideAware Mode = "side_aware"
)

// Defaults applied by Options when a field is left empty.
const (
	DefaultBaseCurrency = "USDC"
	DefaultPrecision    = 30
)

// ParseMode converts a configuration string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeCompat:
		return ModeCompat, nil
	case ModeSideAware, "side-aware", "sideaware":
		return ModeSideAware, nil
	}
	return "", fmt.Errorf("%w: %q", apperrors.ErrInvalidMode, s)
}

// Options are the explicit parameters of a computation.
type Options struct {
	// BaseCurrency is stamped on every snapshot.
	BaseCurrency string
	// Precision is the number of fractional digits kept by divisions
	// (average cost, proportional cost removal).
	Precision int32
	Mode      Mode
	// Now stamps the synthetic snapshot returned for an empty transaction log.
	Now func() time.Time
}

// DefaultOptions returns the options the tracker runs with unless configured otherwise.
func DefaultOptions() Options {
	return Options{
		BaseCurrency: DefaultBaseCurrency,
		Precision:    DefaultPrecision,
		Mode:         ModeCompat,
		Now:          time.Now,
	}
}

func (o Options) withDefaults() Options {
	if o.BaseCurrency == "" {
		o.BaseCurrency = DefaultBaseCurrency
	}
	if o.Precision <= 0 {
		o.Precision = DefaultPrecision
	}
	if o.Mode == "" {
		o.Mode = ModeCompat
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}
