// Package apperrors holds the sentinel errors shared across layers.
// Lower layers wrap them with fmt.Errorf("...: %w", err); handlers map them to
// HTTP status codes with errors.Is.
package apperrors

import "errors"

// Not-found errors indicate that a requested resource does not exist.
var (
	// ErrRunNotFound indicates that no refresh run exists with the given ID.
	ErrRunNotFound = errors.New("refresh run not found")

	// ErrFeedNotFound indicates that a feed file or endpoint is missing.
	ErrFeedNotFound = errors.New("feed not found")
)

// Business logic errors represent validation failures or constraint violations.
var (
	// ErrInsufficientQuantity indicates a SELL larger than the quantity held.
	// Only raised by side-aware accounting; short positions are not supported.
	ErrInsufficientQuantity = errors.New("insufficient quantity for sale")

	// ErrUnknownSide indicates a transaction side other than BUY or SELL.
	ErrUnknownSide = errors.New("unknown transaction side")

	// ErrInvalidMode indicates an unknown accounting mode.
	ErrInvalidMode = errors.New("invalid accounting mode")

	// ErrInvalidDateRange indicates that the start of a range is after its end.
	ErrInvalidDateRange = errors.New("invalid date range")

	// ErrInvalidUUID indicates that a provided ID is not a valid UUID format.
	ErrInvalidUUID = errors.New("invalid UUID format")

	// ErrInvalidDate indicates that a date parameter could not be parsed.
	ErrInvalidDate = errors.New("invalid date parameter")

	// ErrMissingRequiredField indicates that a required record field is missing or empty.
	ErrMissingRequiredField = errors.New("missing required field")
)

// Operation failure errors represent system-level failures while retrieving or processing data.
var (
	ErrFailedToFetchTransactions = errors.New("failed to fetch transactions")
	ErrFailedToFetchPrices       = errors.New("failed to fetch prices")
	ErrFailedToFetchPositions    = errors.New("failed to fetch current positions")
	ErrFailedToParseFeed         = errors.New("failed to parse feed")
	ErrFailedToComputeHistory    = errors.New("failed to compute portfolio history")
	ErrFailedToStoreHistory      = errors.New("failed to store portfolio history")
	ErrFailedToRetrieveHistory   = errors.New("failed to retrieve portfolio history")
	ErrFailedToRetrieveRuns      = errors.New("failed to retrieve refresh runs")
	ErrFailedToDecryptToken      = errors.New("failed to decrypt feed token")
)
