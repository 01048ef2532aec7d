package sheets

import (
	"context"

	"zandaka/internal/core"
)

// Ports for outbound adapters.
type (
	// SummaryWriter publishes the monthly balance forecast to a spreadsheet.
	SummaryWriter interface {
		// WriteMonthlySummary replaces the summary sheet with one row per month.
		WriteMonthlySummary(ctx context.Context, months []core.MonthSummary) (rowRef string, err error)
	}

	// HolidayWriter publishes the business calendar of one year.
	HolidayWriter interface {
		WriteHolidays(ctx context.Context, year int, days []core.Date) error
	}
)
