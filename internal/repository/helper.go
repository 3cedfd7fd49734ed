package repository

import (
	"fmt"
	"time"
)

// timeLayout is fixed-width so stored timestamps order lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTime formats t in UTC for storage.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// ParseTime parses a stored timestamp. Plain dates and RFC3339 are accepted as well.
// Note: mirrors validation.ParseTime; both are kept local to avoid cross-layer imports.
func ParseTime(str string) (time.Time, error) {
	for _, layout := range []string{timeLayout, time.RFC3339Nano, "2006-01-02"} {
		if t, err := time.Parse(layout, str); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("failed to parse date: %q", str)
}
