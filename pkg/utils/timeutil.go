package utils

import (
	"fmt"
	"time"
)

// ParseHHMM parses a wall-clock time in HHMM form ("0930") into an offset
// from midnight.
func ParseHHMM(s string) (time.Duration, error) {
	if len(s) != 4 {
		return 0, fmt.Errorf("invalid HHMM time %q: want exactly 4 digits", s)
	}
	var h, m int
	if _, err := fmt.Sscanf(s, "%02d%02d", &h, &m); err != nil {
		return 0, fmt.Errorf("invalid HHMM time %q: %w", s, err)
	}
	if h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, fmt.Errorf("invalid HHMM time %q: out of range", s)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute, nil
}

// FormatHHMM renders t's wall-clock time in HHMM form.
func FormatHHMM(t time.Time) string {
	return t.Format("1504")
}

// AtClock returns the instant on date's calendar day at the given offset
// from midnight.
func AtClock(date time.Time, sinceMidnight time.Duration) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, date.Location()).Add(sinceMidnight)
}

// DecimalHour returns t's wall-clock time as a fractional hour, e.g. 9.5
// for 09:30.
func DecimalHour(t time.Time) float64 {
	return float64(t.Hour()) + float64(t.Minute())/60.0 + float64(t.Second())/3600.0
}
