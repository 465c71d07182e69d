package timeutil

import (
	"strings"
	"time"
)

// IST is the Indian Standard Time location (UTC+5:30)
var IST *time.Location

func init() {
	var err error
	IST, err = time.LoadLocation("Asia/Kolkata")
	if err != nil {
		// Fallback: create fixed zone if Asia/Kolkata not available
		IST = time.FixedZone("IST", 5*60*60+30*60) // UTC+5:30
	}
}

// Now returns the current time in IST
func Now() time.Time {
	return time.Now().In(IST)
}

// StartOfDay returns the start of day (00:00:00) in IST for the given time
func StartOfDay(t time.Time) time.Time {
	ist := t.In(IST)
	return time.Date(ist.Year(), ist.Month(), ist.Day(), 0, 0, 0, 0, IST)
}

// Common layouts for IST formatting
const (
	DateLayout     = "2006-01-02"
	DateTimeLayout = "2006-01-02 15:04:05"
)

// orderDateLayouts are tried in order; the first one that parses wins.
// ISO comes first, then the day-first forms the sales desk types by hand.
var orderDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	DateTimeLayout,
	"2006-1-2",
	"2-1-2006",
	"2/1/2006",
}

// ParseDate parses an order date written as ISO, DD-MM-YYYY or DD/MM/YYYY.
// The result is midnight IST of that calendar day. ok is false when no
// layout matches; callers keep the raw value and sort such rows last.
func ParseDate(raw string) (time.Time, bool) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range orderDateLayouts {
		t, err := time.ParseInLocation(layout, s, IST)
		if err == nil {
			return StartOfDay(t), true
		}
	}
	return time.Time{}, false
}

// FormatDate renders a parsed date as ISO (YYYY-MM-DD) in IST.
func FormatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(IST).Format(DateLayout)
}

// DaysBetween returns the number of whole calendar days from a to b in IST.
func DaysBetween(a, b time.Time) int {
	return int(StartOfDay(b).Sub(StartOfDay(a)).Hours() / 24)
}
