package google

import (
	"fmt"
	"strings"

	"zandaka/internal/core"
)

var (
	summaryHeader = []any{"Month", "Income", "Expense", "End balance"}
	holidayHeader = []any{"Date", "Weekday"}
)

// summaryRows converts the monthly aggregation into a values matrix with a
// header row. Amounts stay numeric so the sheet can chart them.
func summaryRows(months []core.MonthSummary) [][]any {
	rows := make([][]any, 0, len(months)+1)
	rows = append(rows, summaryHeader)
	for _, m := range months {
		rows = append(rows, []any{m.Month, m.Income, m.Expense, m.EndBalance})
	}
	return rows
}

func holidayRows(days []core.Date) [][]any {
	rows := make([][]any, 0, len(days)+1)
	rows = append(rows, holidayHeader)
	for _, d := range days {
		rows = append(rows, []any{d.String(), d.Weekday().String()})
	}
	return rows
}

// a1Range builds an A1 range on sheet, quoting the sheet name.
func a1Range(sheet, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(sheet, "'", "''"), cells)
}

// yearPrefixedName returns "<year> <base>" unless base already carries a
// %d verb, in which case the year is substituted into it.
func yearPrefixedName(base string, year int) string {
	if strings.Contains(base, "%d") {
		return fmt.Sprintf(base, year)
	}
	return fmt.Sprintf("%d %s", year, base)
}
