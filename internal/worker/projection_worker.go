package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"zandaka/internal/amqp"
	"zandaka/internal/core"
	"zandaka/internal/holiday"
	"zandaka/internal/services"
	"zandaka/internal/sheets"
)

// ReportSource computes projections on demand.
type ReportSource interface {
	Compute(ctx context.Context) (services.Report, error)
	Holidays(year int) []core.Date
}

// Reloader refreshes a cached state from its source.
type Reloader interface {
	Reload() error
}

type freshStates struct {
	states   services.StateLoader
	reloader Reloader
}

// FreshStates returns a loader that reloads r before every load, so a
// worker sees ledger files written by the server process.
func FreshStates(states services.StateLoader, r Reloader) services.StateLoader {
	return freshStates{states: states, reloader: r}
}

func (f freshStates) State(ctx context.Context) (core.State, error) {
	if err := f.reloader.Reload(); err != nil {
		return core.State{}, fmt.Errorf("reload state: %w", err)
	}
	return f.states.State(ctx)
}

// ProjectionWorker keeps the spreadsheet copy of the forecast current. Every
// ledger change triggers a full recompute; the result overwrites the sheet.
type ProjectionWorker struct {
	reports   ReportSource
	summaries sheets.SummaryWriter
	holidays  sheets.HolidayWriter

	mu           sync.Mutex
	holidayYears map[int]bool
}

// NewProjectionWorker builds the worker. holidays may be nil.
func NewProjectionWorker(reports ReportSource, summaries sheets.SummaryWriter, holidays sheets.HolidayWriter) *ProjectionWorker {
	return &ProjectionWorker{
		reports:      reports,
		summaries:    summaries,
		holidays:     holidays,
		holidayYears: make(map[int]bool),
	}
}

// HandleLedgerChanged processes a single ledger change message from AMQP.
func (w *ProjectionWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"op", msg.Op,
		"entry_id", msg.EntryID,
		"timestamp", msg.Timestamp)

	if err := w.Export(ctx); err != nil {
		return fmt.Errorf("export after %s: %w", msg.Op, err)
	}
	return nil
}

// Export recomputes the projection and writes it out.
func (w *ProjectionWorker) Export(ctx context.Context) error {
	report, err := w.reports.Compute(ctx)
	if err != nil {
		return fmt.Errorf("compute projection: %w", err)
	}

	ref, err := w.summaries.WriteMonthlySummary(ctx, report.MonthlyView)
	if err != nil {
		return fmt.Errorf("write monthly summary: %w", err)
	}
	slog.InfoContext(ctx, "Monthly summary exported",
		"ref", ref,
		"months", len(report.MonthlyView),
		"include_recurring", report.IncludeRecurring)

	return w.exportHolidays(ctx, report.RangeStart, report.RangeEnd)
}

// exportHolidays writes each year touched by the range once per process.
// Years outside holiday.MinYear..holiday.MaxYear are skipped.
func (w *ProjectionWorker) exportHolidays(ctx context.Context, start, end core.Date) error {
	if w.holidays == nil || start.IsZero() || end.IsZero() || end.Before(start) {
		return nil
	}
	first, last := max(start.Year(), holiday.MinYear), min(end.Year(), holiday.MaxYear)
	for year := first; year <= last; year++ {
		w.mu.Lock()
		done := w.holidayYears[year]
		w.mu.Unlock()
		if done {
			continue
		}
		if err := w.holidays.WriteHolidays(ctx, year, w.reports.Holidays(year)); err != nil {
			return fmt.Errorf("write holidays %d: %w", year, err)
		}
		w.mu.Lock()
		w.holidayYears[year] = true
		w.mu.Unlock()
		slog.InfoContext(ctx, "Holidays exported", "year", year)
	}
	return nil
}

// StartupExport writes the current forecast once so the sheet is fresh
// even if change messages were lost while the worker was down.
func (w *ProjectionWorker) StartupExport(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup export")
	if err := w.Export(ctx); err != nil {
		slog.ErrorContext(ctx, "Startup export failed", "error", err)
		return err
	}
	return nil
}

// PeriodicExport re-exports every interval until ctx is done. The forecast
// window moves with the calendar even when nothing is edited.
func (w *ProjectionWorker) PeriodicExport(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.Export(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic export failed", "error", err)
			}
		}
	}
}
