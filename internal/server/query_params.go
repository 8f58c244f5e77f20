package server

import (
	"errors"
	"time"
)

var errInvalidDate = errors.New("invalid date")

// parseDate accepts dates as YYYY-MM-DD or RFC 3339.
func parseDate(raw string) (time.Time, error) {
	if raw == "" {
		return time.Time{}, errInvalidDate
	}
	if t, err := time.Parse("2006-01-02", raw); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errInvalidDate
}
