package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Feed timestamps are ISO-8601. An offset is optional; timestamps without one
// are read as UTC.
var feedTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// ParseFeedTime parses an ISO-8601 timestamp as written by the feed producers.
func ParseFeedTime(s string) (time.Time, error) {
	for _, layout := range feedTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}

// feedTime decodes a JSON timestamp with ParseFeedTime. null and "" leave it zero.
type feedTime time.Time

func (f *feedTime) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("timestamp must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	t, err := ParseFeedTime(s)
	if err != nil {
		return err
	}
	*f = feedTime(t)
	return nil
}
