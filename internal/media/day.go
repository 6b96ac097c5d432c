package media

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the wire format for calendar days.
const DateLayout = "2006-01-02"

// StartOfDay truncates t to local midnight in loc.
// A nil loc means time.Local.
//
// Keys are computed with the location in effect at call time, so a change of
// device timezone after a pin is written can move day boundaries.
func StartOfDay(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// SameDay reports whether a and b fall on the same calendar day in loc.
func SameDay(a, b time.Time, loc *time.Location) bool {
	return StartOfDay(a, loc).Equal(StartOfDay(b, loc))
}

// ParseDay parses a YYYY-MM-DD string as local midnight in loc.
func ParseDay(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(s), loc)
	if err != nil {
		return time.Time{}, err
	}
	return t, nil
}

// FormatDay renders a day as YYYY-MM-DD in loc.
func FormatDay(t time.Time, loc *time.Location) string {
	return StartOfDay(t, loc).Format(DateLayout)
}

// DateRange is a closed interval of calendar days.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Days returns every local calendar day from Start to End inclusive.
// AddDate keeps iteration on midnight across DST transitions.
func (r DateRange) Days(loc *time.Location) []time.Time {
	start := StartOfDay(r.Start, loc)
	end := StartOfDay(r.End, loc)
	if start.After(end) {
		return nil
	}
	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Len returns the number of days in the range.
func (r DateRange) Len(loc *time.Location) int {
	return len(r.Days(loc))
}

// OlderThan selects rows for age-based cleanup.
type OlderThan string

const (
	OlderThanAll      OlderThan = "all"
	OlderThanOneYear  OlderThan = "1y"
	OlderThanTwoYears OlderThan = "2y"
)

// ParseOlderThan validates a cleanup age.
func ParseOlderThan(s string) (OlderThan, error) {
	switch o := OlderThan(strings.ToLower(strings.TrimSpace(s))); o {
	case OlderThanAll, OlderThanOneYear, OlderThanTwoYears:
		return o, nil
	default:
		return "", fmt.Errorf("older_than must be one of: all, 1y, 2y")
	}
}

// Cutoff returns the instant before which rows are deleted.
// ok is false for OlderThanAll, which deletes every row.
func (o OlderThan) Cutoff(now time.Time) (cutoff time.Time, ok bool) {
	switch o {
	case OlderThanOneYear:
		return now.AddDate(-1, 0, 0), true
	case OlderThanTwoYears:
		return now.AddDate(-2, 0, 0), true
	default:
		return time.Time{}, false
	}
}
