package service

import (
	"fmt"
	"time"

	"github.com/ndewijer/accumulation-tracker-backend/internal/apperrors"
	"github.com/ndewijer/accumulation-tracker-backend/internal/model"
)

// validateRange rejects a range whose start lies after its end.
// Zero bounds are open and always valid.
func validateRange(start, end time.Time) error {
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		return fmt.Errorf("%w: start %s is after end %s",
			apperrors.ErrInvalidDateRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

// filterHistory returns the snapshots with a timestamp in [start, end].
// The input is ordered by timestamp, so the result is a contiguous sub-slice.
func filterHistory(history []model.Snapshot, start, end time.Time) []model.Snapshot {
	lo, hi := 0, len(history)
	if !start.IsZero() {
		for lo < hi && history[lo].Timestamp.Before(start) {
			lo++
		}
	}
	if !end.IsZero() {
		for hi > lo && history[hi-1].Timestamp.After(end) {
			hi--
		}
	}
	out := make([]model.Snapshot, hi-lo)
	copy(out, history[lo:hi])
	return out
}
