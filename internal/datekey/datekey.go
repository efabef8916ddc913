// Package datekey builds the canonical date keys that report documents
// are indexed by: "January 5, 2025". Keys are derived with UTC-only
// arithmetic so the same (year, month, day) triple yields the same key
// in every timezone; local-time construction caused off-by-one-day keys
// in the past and must not come back.
package datekey

import (
	"strconv"
	"strings"
	"time"
)

// keyLayout renders "January 5, 2025" with no day-of-month padding.
const keyLayout = "January 2, 2006"

// Spreadsheet serials count days from this epoch. 1899-12-30 rather
// than 1899-12-31 absorbs the historic lotus leap-year bug plus the
// one-based day numbering, so serial 1 is 1899-12-31 and serial 45658
// is 2025-01-01.
var serialEpoch = time.Date(1899, time.December, 30, 0, 0, 0, 0, time.UTC)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// stringLayouts are tried in order when parsing free-form date cells.
var stringLayouts = []string{
	keyLayout,
	"January 02, 2006",
	"2006-01-02",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"Jan 2, 2006",
	"2 January 2006",
}

// Key formats a (year, month, day) triple as a canonical date key.
func Key(year int, month time.Month, day int) string {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC).Format(keyLayout)
}

// KeyFromTime formats t's UTC calendar date as a canonical key.
func KeyFromTime(t time.Time) string {
	return t.UTC().Format(keyLayout)
}

// Parse is the inverse of Key. Returns false for non-canonical input.
func Parse(key string) (time.Time, bool) {
	t, err := time.ParseInLocation(keyLayout, key, time.UTC)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ParseSpreadsheetDate converts a spreadsheet cell value into a
// canonical key. Numeric values (or numeric-looking strings) are
// treated as day serials; other strings are tried against known
// layouts. Returns false on unparseable input, never panics.
func ParseSpreadsheetDate(value any) (string, bool) {
	switch v := value.(type) {
	case float64:
		return serialKey(v)
	case int:
		return serialKey(float64(v))
	case int64:
		return serialKey(float64(v))
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return "", false
		}
		if n, err := strconv.ParseFloat(s, 64); err == nil {
			return serialKey(n)
		}
		for _, layout := range stringLayouts {
			if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
				return KeyFromTime(t), true
			}
		}
		return "", false
	}
	return "", false
}

func serialKey(serial float64) (string, bool) {
	// Serials below 1 predate the epoch; implausibly large ones are
	// almost certainly not dates.
	if serial < 1 || serial > 200000 {
		return "", false
	}
	t := serialEpoch.AddDate(0, 0, int(serial))
	return KeyFromTime(t), true
}

// WeekOfMonth buckets a day-of-month into the four reporting weeks:
// 1-7, 8-14, 15-21, and everything from 22 on.
func WeekOfMonth(day int) int {
	switch {
	case day <= 7:
		return 1
	case day <= 14:
		return 2
	case day <= 21:
		return 3
	default:
		return 4
	}
}

// LooksLikeKey reports whether s contains any English month name.
// Used by the document reconciler to recognize date-keyed mappings.
func LooksLikeKey(s string) bool {
	for _, name := range monthNames {
		if strings.Contains(s, name) {
			return true
		}
	}
	return false
}

// MonthIndex resolves a month name ("January") to its time.Month.
func MonthIndex(name string) (time.Month, bool) {
	for i, n := range monthNames {
		if strings.EqualFold(n, strings.TrimSpace(name)) {
			return time.Month(i + 1), true
		}
	}
	return 0, false
}

// MonthDates returns the canonical key of every calendar date in the
// given month, in chronological order.
func MonthDates(month time.Month, year int) []string {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()
	keys := make([]string, 0, days)
	for d := 1; d <= days; d++ {
		keys = append(keys, Key(year, month, d))
	}
	return keys
}
