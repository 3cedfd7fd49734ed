// Package validation parses and validates user supplied request parameters.
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
)

const dateLayout = "2006-01-02"

// ValidateUUID checks if a string is a valid UUID
func ValidateUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: %s", apperrors.ErrInvalidUUID, id)
	}
	return nil
}

// ParseTime parses a date string in "2006-01-02" or RFC3339 format.
// Note: mirrors repository.ParseTime; both are kept local to avoid cross-layer imports.
func ParseTime(str string) (time.Time, error) {
	returnTime, err := time.Parse(dateLayout, str)
	if err != nil {
		returnTime, err = time.Parse(time.RFC3339Nano, str)
		if err != nil {
			return time.Time{}, fmt.Errorf("%w: %q", apperrors.ErrInvalidDate, str)
		}
	}
	return returnTime.UTC(), nil
}

// ParseDateRange parses optional start and end parameters into an inclusive
// range. Empty parameters yield a zero time, meaning the side is open.
//
// A plain date as end covers the whole day, so "2024-01-31" includes
// snapshots taken during January 31st.
//
// Returns apperrors.ErrInvalidDate for malformed values and
// apperrors.ErrInvalidDateRange when start lies after end.
func ParseDateRange(startStr, endStr string) (start, end time.Time, err error) {
	startStr = strings.TrimSpace(startStr)
	endStr = strings.TrimSpace(endStr)

	if startStr != "" {
		if start, err = ParseTime(startStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
	}
	if endStr != "" {
		if end, err = ParseTime(endStr); err != nil {
			return time.Time{}, time.Time{}, err
		}
		if isPlainDate(endStr) {
			end = end.Add(24*time.Hour - time.Nanosecond)
		}
	}

	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: start_date %s is after end_date %s",
			apperrors.ErrInvalidDateRange, startStr, endStr)
	}
	return start, end, nil
}

func isPlainDate(s string) bool {
	_, err := time.Parse(dateLayout, s)
	return err == nil
}
