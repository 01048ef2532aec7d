package projection

import (
	"sort"

	"zandaka/internal/core"
	"zandaka/internal/holiday"
)

// Input is everything a projection depends on.
type Input struct {
	Entries    []core.Entry
	BaseAmount int64
	// BaseDate is reported back but does not gate which entries count.
	BaseDate   *core.Date
	RangeStart core.Date
	RangeEnd   core.Date
	// Calendar resolves holidays; nil means a fresh per-call cache.
	Calendar holiday.Calendar
	// Policies overrides the per-kind adjustment direction.
	Policies Policies
}

// Project computes the day-by-day running balance over the range and its
// monthly summary. Planned expenses and snapshots do not move the balance
// and are left out of the days.
func Project(in Input) core.Projection {
	occs := expand(in.Entries, in.RangeStart, in.RangeEnd, in.Calendar, in.Policies)
	days := groupByDate(occs, func(k core.Kind) bool { return k.AffectsBalance() })

	running := in.BaseAmount
	for i := range days {
		for _, it := range days[i].Items {
			running += it.Kind.Sign() * it.Amount
		}
		days[i].BalanceAfter = running
	}

	return core.Projection{
		Base:    core.Base{Date: copyDate(in.BaseDate), Amount: in.BaseAmount},
		Days:    days,
		Monthly: summarize(days),
	}
}

// Timeline returns the occurrences of the range grouped by date, snapshots
// included and planned expenses left out. BalanceAfter is not set; the
// stream is meant for AggregateMonthly.
func Timeline(in Input) []core.Day {
	occs := expand(in.Entries, in.RangeStart, in.RangeEnd, in.Calendar, in.Policies)
	return groupByDate(occs, func(k core.Kind) bool { return !k.IsPlanned() })
}

// groupByDate buckets the kept occurrences by date, ascending. Items keep
// their expansion order within a day.
func groupByDate(occs []core.Occurrence, keep func(core.Kind) bool) []core.Day {
	byDate := make(map[core.Date]int)
	days := []core.Day{}
	for _, o := range occs {
		if !keep(o.Kind) {
			continue
		}
		i, ok := byDate[o.Date]
		if !ok {
			i = len(days)
			byDate[o.Date] = i
			days = append(days, core.Day{Date: o.Date})
		}
		days[i].Items = append(days[i].Items, o)
	}
	sort.SliceStable(days, func(a, b int) bool { return days[a].Date.Before(days[b].Date) })
	return days
}

// summarize folds days into months; EndBalance is the balance after the
// month's last day.
func summarize(days []core.Day) []core.MonthSummary {
	months := []core.MonthSummary{}
	for _, d := range days {
		key := d.Date.MonthKey()
		if len(months) == 0 || months[len(months)-1].Month != key {
			months = append(months, core.MonthSummary{Month: key})
		}
		m := &months[len(months)-1]
		for _, it := range d.Items {
			switch it.Kind {
			case core.KindIncome:
				m.Income += it.Amount
			case core.KindExpense:
				m.Expense += it.Amount
			}
		}
		m.EndBalance = d.BalanceAfter
	}
	return months
}

func copyDate(d *core.Date) *core.Date {
	if d == nil || d.IsZero() {
		return nil
	}
	c := *d
	return &c
}
