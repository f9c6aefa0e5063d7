package grant

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Status is the open/closed state of a grant, derived from its dates at
// read time.
type Status string

const (
	StatusOpen     Status = "Open"
	StatusClosed   Status = "Closed"
	StatusUpcoming Status = "Upcoming"
	// StatusReviewing is only ever set on manually entered records; the
	// derivation below never produces it.
	StatusReviewing Status = "Reviewing"
)

var datePattern = regexp.MustCompile(`(\d{4})[-.](\d{1,2})[-.](\d{1,2})`)

// DeriveStatus computes a grant's status from its deadline and period
// strings relative to now. Dates are matched anywhere in the string as
// YYYY-MM-DD or YYYY.MM.DD; a string without a parseable date makes that
// rule fall through to the next one, defaulting to Open.
func DeriveStatus(period, deadline string, now time.Time) Status {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	if d, ok := parseDate(deadline, now.Location()); ok && today.After(d) {
		return StatusClosed
	}

	parts := strings.SplitN(period, "~", 2)
	if len(parts) == 2 {
		if start, ok := parseDate(parts[0], now.Location()); ok && today.Before(start) {
			return StatusUpcoming
		}
		if end, ok := parseDate(parts[1], now.Location()); ok && today.After(end) {
			return StatusClosed
		}
	}

	return StatusOpen
}

func parseDate(s string, loc *time.Location) (time.Time, bool) {
	m := datePattern.FindStringSubmatch(s)
	if m == nil {
		return time.Time{}, false
	}
	year, _ := strconv.Atoi(m[1])
	month, _ := strconv.Atoi(m[2])
	day, _ := strconv.Atoi(m[3])
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, loc), true
}
