package services

import (
	"context"
	"log/slog"

	"zandaka/internal/core"
	"zandaka/internal/holiday"
	"zandaka/internal/projection"
)

// Report is everything a projection view shows.
type Report struct {
	RangeStart core.Date           `json:"rangeStart"`
	RangeEnd   core.Date           `json:"rangeEnd"`
	Base       core.Base           `json:"base"`
	Days       []core.Day          `json:"days"`
	Monthly    []core.MonthSummary `json:"monthly"`
	// MonthlyView honours the state's recurring toggle and snapshots.
	MonthlyView      []core.MonthSummary       `json:"monthlyView"`
	IncludeRecurring bool                      `json:"includeRecurring"`
	Planned          projection.PlannedSummary `json:"planned"`
}

// StateLoader supplies the ledger state.
type StateLoader interface {
	State(ctx context.Context) (core.State, error)
}

type ProjectionService struct {
	states   StateLoader
	calendar holiday.Calendar
}

// NewProjectionService builds the service; a nil calendar means a fresh
// holiday cache per computation.
func NewProjectionService(states StateLoader, calendar holiday.Calendar) *ProjectionService {
	return &ProjectionService{states: states, calendar: calendar}
}

// Compute loads the current state and projects it.
func (s *ProjectionService) Compute(ctx context.Context) (Report, error) {
	st, err := s.states.State(ctx)
	if err != nil {
		return Report{}, err
	}
	r := BuildReport(st, s.calendar)
	slog.DebugContext(ctx, "Projection computed",
		"range_start", st.RangeStart.String(),
		"range_end", st.RangeEnd.String(),
		"days", len(r.Days),
		"months", len(r.Monthly))
	return r, nil
}

// Holidays returns the sorted holidays of year.
func (s *ProjectionService) Holidays(year int) []core.Date {
	cal := s.calendar
	if cal == nil {
		cal = holiday.NewYearCache()
	}
	return cal.Holidays(year).Sorted()
}

// BuildReport projects st. It is pure apart from the calendar's cache.
func BuildReport(st core.State, cal holiday.Calendar) Report {
	if cal == nil {
		cal = holiday.NewYearCache()
	}
	var baseDate *core.Date
	if !st.BaseDate.IsZero() {
		d := st.BaseDate
		baseDate = &d
	}
	in := projection.Input{
		Entries:    st.Entries,
		BaseAmount: st.BaseAmount,
		BaseDate:   baseDate,
		RangeStart: st.RangeStart,
		RangeEnd:   st.RangeEnd,
		Calendar:   cal,
	}
	p := projection.Project(in)
	return Report{
		RangeStart:       st.RangeStart,
		RangeEnd:         st.RangeEnd,
		Base:             p.Base,
		Days:             p.Days,
		Monthly:          p.Monthly,
		MonthlyView:      projection.AggregateMonthly(projection.Timeline(in), st.BaseAmount, st.ShowRecurringInMonthly),
		IncludeRecurring: st.ShowRecurringInMonthly,
		Planned:          projection.Planned(st.Entries),
	}
}
