package daykey

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// Package daykey derives the canonical per-day document key from any accepted
// date representation. Day documents are keyed by zero-padded day-of-month
// ("01".."31"); historical documents may still carry full "YYYY-MM-DD" keys,
// and both forms must resolve to the same key.

const (
	// ISODate is the layout of the authoritative `date` field.
	ISODate = "2006-01-02"
)

var (
	dayNumberRe = regexp.MustCompile(`^\d{1,2}$`)
	isoDateRe   = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
)

// extra layouts tried by the generic fallback, in order.
var fallbackLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
}

// Resolve converts a date-like input into the canonical two-digit day key.
//
// Accepted forms, in order of precedence:
//   - a bare 1–2 digit day number ("6", "06", "31")
//   - an ISO "YYYY-MM-DD" date (the day segment is taken)
//   - anything a small set of common layouts can parse
//
// Unparsable input is returned unchanged; the caller will simply see a
// not-found lookup. Resolve is pure and never fails.
func Resolve(input string) string {
	if dayNumberRe.MatchString(input) {
		n, _ := strconv.Atoi(input)
		return Pad(n)
	}
	if m := isoDateRe.FindStringSubmatch(input); m != nil {
		n, _ := strconv.Atoi(m[3])
		return Pad(n)
	}
	for _, layout := range fallbackLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return Pad(t.Day())
		}
	}
	return input
}

// Pad renders a day-of-month as the canonical zero-padded key.
func Pad(day int) string {
	return fmt.Sprintf("%02d", day)
}

// Unpadded returns the single-digit form of a padded key ("06" -> "6") and
// whether the key had a leading zero. Pre-padding documents were stored under
// the short form, so reads fall back to it.
func Unpadded(key string) (string, bool) {
	if len(key) == 2 && key[0] == '0' {
		return key[1:], true
	}
	return key, false
}

// dayNames is the fixed Sunday-indexed table used for the day_of_week field.
var dayNames = [7]string{
	"Sunday", "Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday",
}

// DayName returns the display weekday name for a date.
func DayName(t time.Time) string {
	return dayNames[int(t.Weekday())]
}

// LastDayOfMonth returns the number of days in the given month.
func LastDayOfMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
