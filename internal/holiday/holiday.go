// Package holiday computes Japanese national holidays and business days.
package holiday

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"zandaka/internal/core"
)

// Set is the holiday dates of one calendar year. Sets returned by a
// Calendar may be shared and must be treated as read-only.
type Set map[core.Date]struct{}

// Has reports whether d is a holiday.
func (s Set) Has(d core.Date) bool {
	_, ok := s[d]
	return ok
}

// Sorted returns the holidays in ascending order.
func (s Set) Sorted() []core.Date {
	out := make([]core.Date, 0, len(s))
	for d := range s {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

type monthDay struct {
	month time.Month
	day   int
}

var fixedHolidays = []monthDay{
	{time.January, 1},   // New Year's Day
	{time.February, 11}, // National Foundation Day
	{time.February, 23}, // Emperor's Birthday
	{time.April, 29},    // Showa Day
	{time.May, 3},       // Constitution Memorial Day
	{time.May, 4},       // Greenery Day
	{time.May, 5},       // Children's Day
	{time.August, 11},   // Mountain Day
	{time.November, 3},  // Culture Day
	{time.November, 23}, // Labor Thanksgiving Day
}

type nthMonday struct {
	month time.Month
	n     int
}

var happyMondays = []nthMonday{
	{time.January, 2},   // Coming of Age Day
	{time.July, 3},      // Marine Day
	{time.September, 3}, // Respect for the Aged Day
	{time.October, 2},   // Sports Day
}

// MinYear and MaxYear bound the years whose equinox days are exact.
const (
	MinYear = 1900
	MaxYear = 2099
)

// Equinox constants, valid for roughly 1900-2099.
var (
	equinoxRate   = decimal.RequireFromString("0.242194")
	vernalBase    = decimal.RequireFromString("20.8431")
	autumnalBase  = decimal.RequireFromString("23.2488")
	equinoxOrigin = 1980
)

// ForYear returns the national holidays of year, substitute holidays
// included. Outside 1900-2099 the equinox days are approximate.
func ForYear(year int) Set {
	set := make(Set, 24)
	for _, h := range fixedHolidays {
		set[core.NewDate(year, int(h.month), h.day)] = struct{}{}
	}
	for _, h := range happyMondays {
		set[nthWeekdayOfMonth(year, h.month, time.Monday, h.n)] = struct{}{}
	}
	set[core.NewDate(year, int(time.March), equinoxDay(year, vernalBase))] = struct{}{}
	set[core.NewDate(year, int(time.September), equinoxDay(year, autumnalBase))] = struct{}{}

	for _, d := range set.Sorted() {
		if d.Weekday() != time.Sunday {
			continue
		}
		next := d.AddDays(1)
		for next.Weekday() == time.Sunday || set.Has(next) {
			next = next.AddDays(1)
		}
		set[next] = struct{}{}
	}
	return set
}

// equinoxDay is floor(base + rate*(year-1980)) - floor((year-1980)/4).
func equinoxDay(year int, base decimal.Decimal) int {
	delta := year - equinoxOrigin
	day := base.Add(equinoxRate.Mul(decimal.NewFromInt(int64(delta)))).Floor().IntPart()
	return int(day) - floorDiv(delta, 4)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// nthWeekdayOfMonth returns the n-th (1-based) given weekday of the month.
func nthWeekdayOfMonth(year int, month time.Month, wd time.Weekday, n int) core.Date {
	first := core.NewDate(year, int(month), 1)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDays(offset + (n-1)*7)
}

// IsWeekend reports whether d is a Saturday or Sunday.
func IsWeekend(d core.Date) bool {
	wd := d.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsBusinessDay reports whether d is neither a weekend day nor in holidays.
func IsBusinessDay(d core.Date, holidays Set) bool {
	return !IsWeekend(d) && !holidays.Has(d)
}
