package utils

import (
	"fmt"
	"strings"
	"time"
)

const (
	layoutDate     = "2006-01-02"
	layoutClock    = "15:04"
	layoutDateTime = "2006-01-02 15:04:05"
)

// ParseDate parses YYYY-MM-DD in loc.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(layoutDate, strings.TrimSpace(s), locOrLocal(loc))
}

// ParseClock parses HH:MM (24h) and returns minutes since midnight.
// HH:MM:SS is tolerated; seconds are ignored.
func ParseClock(s string) (int, error) {
	s = strings.TrimSpace(s)
	if len(s) == len("15:04:05") {
		s = s[:5]
	}
	t, err := time.Parse(layoutClock, s)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q, expected HH:MM", s)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// NormalizeClock returns s as zero-padded HH:MM.
func NormalizeClock(s string) (string, error) {
	m, err := ParseClock(s)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%02d:%02d", m/60, m%60), nil
}

// CombineDateTime joins a date and clock into "YYYY-MM-DD HH:MM:SS".
func CombineDateTime(date, clock string) (string, error) {
	d, err := ParseDate(date, time.UTC)
	if err != nil {
		return "", err
	}
	m, err := ParseClock(clock)
	if err != nil {
		return "", err
	}
	return d.Add(time.Duration(m) * time.Minute).Format(layoutDateTime), nil
}

// At returns the instant of date+clock in loc.
func At(date, clock string, loc *time.Location) (time.Time, error) {
	d, err := ParseDate(date, loc)
	if err != nil {
		return time.Time{}, err
	}
	m, err := ParseClock(clock)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), m/60, m%60, 0, 0, d.Location()), nil
}

// FormatDate formats time to YYYY-MM-DD in loc.
func FormatDate(t time.Time, loc *time.Location) string {
	return t.In(locOrLocal(loc)).Format(layoutDate)
}

func locOrLocal(loc *time.Location) *time.Location {
	if loc == nil {
		return time.Local
	}
	return loc
}
