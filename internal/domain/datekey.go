package domain

import (
	"fmt"
	"regexp"
	"time"
)

// DateKey is the canonical YYYY-MM-DD join key used across feedback logs,
// calendar operation status, and the forecast feed's today filter.
type DateKey string

const dateKeyLayout = "2006-01-02"

var dateKeyRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// FormatDateKey canonicalizes a time to its DateKey using the calendar
// fields of t in its own location. Callers pick the zone by converting
// first (e.g. t.In(loc)).
func FormatDateKey(t time.Time) DateKey {
	return DateKey(fmt.Sprintf("%04d-%02d-%02d", t.Year(), int(t.Month()), t.Day()))
}

// ParseDateKey validates a user-supplied date string as a DateKey.
func ParseDateKey(s string) (DateKey, error) {
	if !dateKeyRe.MatchString(s) {
		return "", fmt.Errorf("invalid date key %q: want YYYY-MM-DD", s)
	}
	if _, err := time.Parse(dateKeyLayout, s); err != nil {
		return "", fmt.Errorf("invalid date key %q: %w", s, err)
	}
	return DateKey(s), nil
}

// TodayKey returns the DateKey for the current instant in the given zone.
func TodayKey(loc *time.Location) DateKey {
	return FormatDateKey(clock.Now().In(loc))
}

// Time returns the midnight instant of the key in UTC, or the zero time if
// the key is malformed. Used only for calendar-order comparisons.
func (k DateKey) Time() time.Time {
	t, err := time.Parse(dateKeyLayout, string(k))
	if err != nil {
		return time.Time{}
	}
	return t
}
