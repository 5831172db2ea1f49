package record

import (
	"fmt"
	"time"
)

// DateFormat is the ISO-8601 day format used for all record keys.
const DateFormat = "2006-01-02"

// ParseDate parses an ISO date string into a UTC midnight time.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t.UTC(), nil
}

// FormatDate formats a time as an ISO date string in UTC.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateFormat)
}

// NextDay returns the ISO date one calendar day after s.
func NextDay(s string) (string, error) {
	t, err := ParseDate(s)
	if err != nil {
		return "", err
	}
	return FormatDate(t.AddDate(0, 0, 1)), nil
}

// YesterdayUTC returns the ISO date of the UTC calendar day before now.
// Only fully-elapsed UTC days are ever filled.
func YesterdayUTC(now time.Time) string {
	return FormatDate(now.UTC().AddDate(0, 0, -1))
}

// Days returns every ISO date from start to end inclusive, in chronological
// order. It errors when either bound is malformed or start is after end.
func Days(start, end string) ([]string, error) {
	from, err := ParseDate(start)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(end)
	if err != nil {
		return nil, err
	}
	if from.After(to) {
		return nil, fmt.Errorf("date range %s..%s is inverted", start, end)
	}

	var days []string
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		days = append(days, FormatDate(d))
	}
	return days, nil
}
