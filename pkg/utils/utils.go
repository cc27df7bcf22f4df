package utils

import (
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// DateOf strips the time of day from t, keeping the calendar date as seen in
// t's own location. The result is midnight UTC so dates compare with Before/Equal.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Today returns the current calendar date in loc
func Today(now time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return DateOf(now.In(loc))
}

// ParseDate parses a YYYY-MM-DD calendar date. Full RFC3339 timestamps are
// accepted too and reduced to their date part.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, err
	}
	return DateOf(t), nil
}

// FormatDate renders a calendar date as YYYY-MM-DD
func FormatDate(t time.Time) string {
	return DateOf(t).Format(dateLayout)
}

// IsDateBefore reports whether a falls on an earlier calendar day than b
func IsDateBefore(a, b time.Time) bool {
	return DateOf(a).Before(DateOf(b))
}

// IsDateBetween reports whether start <= t <= end, comparing dates only
func IsDateBetween(t, start, end time.Time) bool {
	d := DateOf(t)
	return !d.Before(DateOf(start)) && !d.After(DateOf(end))
}
