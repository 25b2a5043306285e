// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package db

import (
	"time"

	"github.com/rotisserie/eris"
)

// TimeFormat is fixed width and always UTC so stored timestamps sort
// correctly as text.
const TimeFormat = "2006-01-02T15:04:05.000000Z"

// FormatTime renders t for a TEXT timestamp column.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// ParseTime reads a TEXT timestamp column.
func ParseTime(s string) (time.Time, error) {
	t, err := time.Parse(TimeFormat, s)
	if err != nil {
		// Also accept plain RFC 3339.
		t, err = time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return time.Time{}, eris.Wrapf(err, "db: parse time %q", s)
		}
	}
	return t.UTC(), nil
}
