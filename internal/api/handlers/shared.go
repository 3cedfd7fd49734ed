package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/ndewijer/accumulation-tracker-backend/internal/api/response"
	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/validation"
)

// respondJSON sends a JSON response with the given status code
func respondJSON(w http.ResponseWriter, status int, data any) {
	response.RespondJSON(w, status, data)
}

// respondServiceError maps a service error onto an HTTP status and sends it
// with message as the error text and the wrapped chain as details.
//
//   - invalid parameters: 400
//   - unknown run: 404
//   - feed retrieval failure or a feed the ledger rejects: 502
//   - anything else: 500
func respondServiceError(w http.ResponseWriter, r *http.Request, message string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		log.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(message)
	}
	response.RespondError(w, status, message, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, apperrors.ErrInvalidDate),
		errors.Is(err, apperrors.ErrInvalidDateRange),
		errors.Is(err, apperrors.ErrInvalidUUID):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrRunNotFound):
		return http.StatusNotFound
	case errors.Is(err, apperrors.ErrFailedToFetchTransactions),
		errors.Is(err, apperrors.ErrFailedToFetchPrices),
		errors.Is(err, apperrors.ErrFailedToFetchPositions),
		errors.Is(err, apperrors.ErrFailedToParseFeed),
		errors.Is(err, apperrors.ErrInsufficientQuantity),
		errors.Is(err, apperrors.ErrUnknownSide):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// parseDateRange reads the start_date and end_date query parameters.
func parseDateRange(r *http.Request) (start, end time.Time, err error) {
	q := r.URL.Query()
	return validation.ParseDateRange(q.Get("start_date"), q.Get("end_date"))
}
