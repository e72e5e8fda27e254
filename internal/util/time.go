package util

import "time"

const dateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD date string.
func ParseDate(s string) (time.Time, error) {
	return time.Parse(dateLayout, s)
}

// StartOfDay returns the first instant of the date named by s, in UTC.
func StartOfDay(s string) (time.Time, error) {
	return ParseDate(s)
}

// EndOfDay returns the last instant of the date named by s, in UTC.
func EndOfDay(s string) (time.Time, error) {
	t, err := ParseDate(s)
	if err != nil {
		return time.Time{}, err
	}
	return t.Add(24*time.Hour - time.Nanosecond), nil
}
