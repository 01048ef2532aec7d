package memory

import (
	"context"
	"fmt"
	"sync"

	"zandaka/internal/core"
	"zandaka/internal/sheets"
)

var (
	_ sheets.SummaryWriter = (*Store)(nil)
	_ sheets.HolidayWriter = (*Store)(nil)
)

// Store keeps the last written summary and holiday lists in memory. It stands
// in for Google Sheets when no spreadsheet is configured.
type Store struct {
	mu       sync.Mutex
	writes   int
	months   []core.MonthSummary
	holidays map[int][]core.Date
}

func New() *Store {
	return &Store{holidays: make(map[int][]core.Date)}
}

// WriteMonthlySummary replaces the stored summary and returns a synthetic
// row reference.
func (s *Store) WriteMonthlySummary(_ context.Context, months []core.MonthSummary) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.months = append([]core.MonthSummary(nil), months...)
	s.writes++
	return fmt.Sprintf("mem:%d", s.writes), nil
}

func (s *Store) WriteHolidays(_ context.Context, year int, days []core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holidays[year] = append([]core.Date(nil), days...)
	return nil
}

// Summary returns a copy of the last written summary.
func (s *Store) Summary() []core.MonthSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.MonthSummary(nil), s.months...)
}

// Holidays returns the holidays last written for year.
func (s *Store) Holidays(year int) []core.Date {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Date(nil), s.holidays[year]...)
}

// Writes counts summary writes.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
