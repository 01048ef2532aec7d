package projection

import (
	"fmt"

	"zandaka/internal/core"
)

// AggregateMonthly walks a day stream (see Timeline) and totals it per
// month with its own running balance starting at base. A snapshot always
// resets the running balance to its amount and never counts toward the
// totals. With includeRecurring false, recurring items other than
// snapshots are left out of both totals and balance.
func AggregateMonthly(days []core.Day, base int64, includeRecurring bool) []core.MonthSummary {
	months := []core.MonthSummary{}
	running := base
	for _, d := range days {
		key := d.Date.MonthKey()
		if len(months) == 0 || months[len(months)-1].Month != key {
			months = append(months, core.MonthSummary{Month: key, EndBalance: running})
		}
		m := &months[len(months)-1]
		for _, it := range d.Items {
			switch it.Kind {
			case core.KindSnapshot:
				running = it.Amount
			case core.KindIncome:
				if it.Recurring && !includeRecurring {
					continue
				}
				running += it.Amount
				m.Income += it.Amount
			case core.KindExpense, core.KindFutureSmall, core.KindFutureLarge:
				if it.Recurring && !includeRecurring {
					continue
				}
				running -= it.Amount
				m.Expense += it.Amount
			default:
				panic(fmt.Sprintf("unknown kind %q", string(it.Kind)))
			}
		}
		m.EndBalance = running
	}
	return months
}
