package core

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateFormat is the ISO-8601 layout used to read and write dates.
const DateFormat = "2006-01-02"

// Date is a civil calendar date with day granularity. It carries no time
// zone, so it never shifts when formatted or parsed. The zero value means
// "no date".
type Date struct {
	y int
	m time.Month
	d int
}

// NewDate creates a normalized Date from year, month, day
// (e.g. 2024-02-30 becomes 2024-03-01).
func NewDate(year, month, day int) Date {
	t := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	return Date{t.Year(), t.Month(), t.Day()}
}

// Today returns the current local calendar date.
func Today() Date {
	y, m, d := time.Now().Date()
	return Date{y, m, d}
}

// ParseDate parses a zero-padded YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateFormat, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q want format %q: %w", s, DateFormat, err)
	}
	return Date{t.Year(), t.Month(), t.Day()}, nil
}

// MustParseDate is like ParseDate but panics on error.
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err.Error())
	}
	return d
}

// time returns the canonical instant for the day (midnight UTC); only used
// for calendar arithmetic.
func (d Date) time() time.Time { return time.Date(d.y, d.m, d.d, 0, 0, 0, 0, time.UTC) }

func (d Date) Year() int              { return d.y }
func (d Date) Month() time.Month      { return d.m }
func (d Date) Day() int               { return d.d }
func (d Date) Weekday() time.Weekday  { return d.time().Weekday() }
func (d Date) IsZero() bool           { return d == Date{} }
func (d Date) Before(x Date) bool     { return CompareDates(d, x) < 0 }
func (d Date) After(x Date) bool      { return CompareDates(d, x) > 0 }
func (d Date) AddDays(n int) Date     { return NewDate(d.y, int(d.m), d.d+n) }
func (d Date) Compare(x Date) int     { return CompareDates(d, x) }
func (d Date) Between(a, b Date) bool { return !d.Before(a) && !d.After(b) }

// String formats the date as YYYY-MM-DD, or "" for the zero date.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return fmt.Sprintf("%04d-%02d-%02d", d.y, d.m, d.d)
}

// MonthKey returns the YYYY-MM prefix of the date.
func (d Date) MonthKey() string {
	return fmt.Sprintf("%04d-%02d", d.y, d.m)
}

// DaysIn returns the number of days of the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// AddMonthsClamped adds n calendar months, clamping the day to the last day
// of the resulting month: 2024-01-31 + 1 month is 2024-02-29, not 2024-03-02.
func (d Date) AddMonthsClamped(n int) Date {
	first := time.Date(d.y, d.m+time.Month(n), 1, 0, 0, 0, 0, time.UTC)
	day := min(d.d, DaysIn(first.Year(), first.Month()))
	return Date{first.Year(), first.Month(), day}
}

// CompareDates returns -1, 0 or 1. It agrees with a lexicographic compare of
// the zero-padded ISO strings; the zero date sorts first.
func CompareDates(a, b Date) int {
	switch {
	case a.y != b.y:
		return cmpInt(a.y, b.y)
	case a.m != b.m:
		return cmpInt(int(a.m), int(b.m))
	default:
		return cmpInt(a.d, b.d)
	}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

// MarshalJSON writes the date as "YYYY-MM-DD" ("" for the zero date).
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON accepts "YYYY-MM-DD", "" or null.
func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

var (
	_ json.Marshaler   = Date{}
	_ json.Unmarshaler = (*Date)(nil)
)
