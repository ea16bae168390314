// Package datetime resolves the loosely formatted date and time strings stored
// in the lead spreadsheet into comparable instants and display strings.
//
// Nothing in this package returns an error for bad input. Unparseable values
// degrade to a zero timestamp, a "-" placeholder, or the raw string, and the
// Timestamp flags record which parts were actually understood.
package datetime

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Wire formats used when writing leads to the spreadsheet.
const (
	WireDateLayout = "2006-01-02"
	WireTimeLayout = "15:04:05"

	displayDateLayout = "Jan 2, 2006"
	displayTimeLayout = "3:04 PM"

	// Placeholder rendered for empty values.
	Placeholder = "-"
)

// Layouts carrying an explicit zone. The calendar day and clock are read
// after converting to UTC.
var zonedLayouts = []string{
	time.RFC3339,
	time.RFC1123Z,
	time.RFC1123,
	"Mon Jan 02 2006 15:04:05 GMT-0700",
}

// Date-time layouts without a zone, read as UTC.
var naiveLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// Date-only layouts. Slashed dates are day-first, the order the public
// capture form used.
var dateLayouts = []string{
	WireDateLayout,
	"2/1/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
}

// Clock is a time of day.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

func (c Clock) duration() time.Duration {
	return time.Duration(c.Hour)*time.Hour +
		time.Duration(c.Minute)*time.Minute +
		time.Duration(c.Second)*time.Second
}

// Format renders the clock as 12-hour time, e.g. "2:30 PM".
func (c Clock) Format() string {
	return time.Date(2000, 1, 1, c.Hour, c.Minute, c.Second, 0, time.UTC).Format(displayTimeLayout)
}

// Timestamp is the result of combining a date string and a time string.
type Timestamp struct {
	Time       time.Time // UTC; zero when DateParsed is false
	DateParsed bool
	TimeGiven  bool // a non-empty time string was supplied
	TimeParsed bool
}

// UnixMilli returns the instant in milliseconds, or 0 when the date could not
// be parsed so that such entries sort as the oldest.
func (t Timestamp) UnixMilli() int64 {
	if !t.DateParsed {
		return 0
	}
	return t.Time.UnixMilli()
}

// Degraded reports whether any supplied input fell back to a default.
func (t Timestamp) Degraded() bool {
	return !t.DateParsed || (t.TimeGiven && !t.TimeParsed)
}

// Resolve combines a calendar date and an optional time of day into one
// instant. An unresolved time defaults to midnight.
func Resolve(date, clock string) Timestamp {
	ts := Timestamp{TimeGiven: strings.TrimSpace(clock) != ""}

	day, ok := ParseDate(date)
	if !ok {
		return ts
	}
	ts.DateParsed = true

	var c Clock
	if ts.TimeGiven {
		c, ts.TimeParsed = ParseClock(clock)
	}
	ts.Time = day.Add(c.duration())
	return ts
}

// ResolveTimestamp is Resolve(date, clock).UnixMilli().
func ResolveTimestamp(date, clock string) int64 {
	return Resolve(date, clock).UnixMilli()
}

// ParseDate parses s as a calendar date and returns UTC midnight of that day.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	if t, ok := parseInstant(s); ok {
		return midnight(t), true
	}
	for _, layout := range dateLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return midnight(t), true
		}
	}
	return time.Time{}, false
}

// ParseClock extracts a time of day from s. A full timestamp is tried first,
// then a bare HH:MM or HH:MM:SS string with an optional AM/PM suffix.
func ParseClock(s string) (Clock, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Clock{}, false
	}

	if t, ok := parseInstant(s); ok {
		h, m, sec := t.Clock()
		return Clock{Hour: h, Minute: m, Second: sec}, true
	}
	return parseBareClock(s)
}

// parseInstant tries the layouts that carry a time component and returns the
// instant in UTC.
func parseInstant(s string) (time.Time, bool) {
	// JavaScript Date strings end with a parenthesised zone name.
	if i := strings.Index(s, " ("); i > 0 && strings.HasSuffix(s, ")") {
		s = s[:i]
	}
	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseBareClock(s string) (Clock, bool) {
	meridiem := ""
	if n := len(s); n > 2 {
		switch suffix := strings.ToUpper(s[n-2:]); suffix {
		case "AM", "PM":
			meridiem = suffix
			s = strings.TrimSpace(s[:n-2])
		}
	}

	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return Clock{}, false
	}
	nums := make([]int, 3)
	for i, p := range parts {
		n, ok := clockField(p)
		if !ok {
			return Clock{}, false
		}
		nums[i] = n
	}

	c := Clock{Hour: nums[0], Minute: nums[1], Second: nums[2]}
	switch meridiem {
	case "":
		if c.Hour > 23 {
			return Clock{}, false
		}
	default:
		if c.Hour < 1 || c.Hour > 12 {
			return Clock{}, false
		}
		c.Hour %= 12
		if meridiem == "PM" {
			c.Hour += 12
		}
	}
	if c.Minute > 59 || c.Second > 59 {
		return Clock{}, false
	}
	return c, true
}

func clockField(p string) (int, bool) {
	if len(p) == 0 || len(p) > 2 {
		return 0, false
	}
	for _, r := range p {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(p)
	return n, err == nil
}

func midnight(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether a and b fall on the same calendar day, each read in
// its own location.
func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// FormatDisplayDate renders a date string as "Feb 24, 2026". Empty input
// yields "-"; unparseable input is returned unchanged.
func FormatDisplayDate(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	d, ok := ParseDate(s)
	if !ok {
		return s
	}
	return d.Format(displayDateLayout)
}

// FormatDisplayTime renders a time string as "2:30 PM". Empty input yields
// "-"; unparseable input is returned unchanged.
func FormatDisplayTime(s string) string {
	if strings.TrimSpace(s) == "" {
		return Placeholder
	}
	c, ok := ParseClock(s)
	if !ok {
		return s
	}
	return c.Format()
}

// WireDate converts any parseable date string to YYYY-MM-DD and passes
// anything else through untouched.
func WireDate(s string) string {
	d, ok := ParseDate(s)
	if !ok {
		return s
	}
	return d.Format(WireDateLayout)
}

// FormatWireDate formats t's calendar day in its own location.
func FormatWireDate(t time.Time) string {
	return t.Format(WireDateLayout)
}

// FormatWireTime formats t's clock in its own location.
func FormatWireTime(t time.Time) string {
	return t.Format(WireTimeLayout)
}

// ParseCriteriaDate parses a YYYY-MM-DD filter value.
func ParseCriteriaDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(WireDateLayout, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return t, nil
}
