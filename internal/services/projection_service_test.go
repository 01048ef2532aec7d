package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"zandaka/internal/core"
	"zandaka/internal/holiday"
)

type stateFunc func(ctx context.Context) (core.State, error)

func (f stateFunc) State(ctx context.Context) (core.State, error) { return f(ctx) }

func scenarioState() core.State {
	return core.State{
		Settings: core.Settings{
			BaseDate:               core.MustParseDate("2024-01-01"),
			BaseAmount:             100000,
			RangeStart:             core.MustParseDate("2024-01-01"),
			RangeEnd:               core.MustParseDate("2024-03-31"),
			ShowRecurringInMonthly: false,
		},
		Entries: []core.Entry{
			{ID: "salary", Date: core.MustParseDate("2024-01-25"), Kind: core.KindIncome, Amount: 300000, Recurring: true},
			{ID: "reset", Date: core.MustParseDate("2024-02-01"), Kind: core.KindSnapshot, Amount: 50000},
			{ID: "car", Kind: core.KindFutureLarge, Amount: 900000},
		},
	}
}

func TestBuildReport(t *testing.T) {
	r := BuildReport(scenarioState(), holiday.NewSharedCache(4))

	if r.Base.Date == nil || r.Base.Date.String() != "2024-01-01" || r.Base.Amount != 100000 {
		t.Fatalf("unexpected base: %+v", r.Base)
	}
	wantMonthly := []core.MonthSummary{
		{Month: "2024-01", Income: 300000, EndBalance: 400000},
		{Month: "2024-02", Income: 300000, EndBalance: 700000},
		{Month: "2024-03", Income: 300000, EndBalance: 1000000},
	}
	if diff := cmp.Diff(wantMonthly, r.Monthly); diff != "" {
		t.Fatalf("monthly mismatch (-want +got):\n%s", diff)
	}

	// Recurring salary hidden; the February snapshot still resets the balance.
	wantView := []core.MonthSummary{
		{Month: "2024-01", EndBalance: 100000},
		{Month: "2024-02", EndBalance: 50000},
		{Month: "2024-03", EndBalance: 50000},
	}
	if diff := cmp.Diff(wantView, r.MonthlyView); diff != "" {
		t.Fatalf("monthly view mismatch (-want +got):\n%s", diff)
	}
	if r.IncludeRecurring {
		t.Fatalf("toggle should be reported off")
	}
	if r.Planned.Total != 900000 || len(r.Planned.Items) != 1 {
		t.Fatalf("unexpected planned: %+v", r.Planned)
	}
}

func TestProjectionServiceCompute(t *testing.T) {
	svc := NewProjectionService(stateFunc(func(context.Context) (core.State, error) {
		return scenarioState(), nil
	}), nil)
	r, err := svc.Compute(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(r.Days) != 3 || r.Days[1].Date.String() != "2024-02-22" {
		t.Fatalf("unexpected days: %+v", r.Days)
	}

	failing := NewProjectionService(stateFunc(func(context.Context) (core.State, error) {
		return core.State{}, errors.New("boom")
	}), nil)
	if _, err := failing.Compute(context.Background()); err == nil {
		t.Fatalf("expected error")
	}
}

func TestProjectionServiceHolidays(t *testing.T) {
	svc := NewProjectionService(nil, nil)
	days := svc.Holidays(2024)
	if len(days) != 21 || days[0].String() != "2024-01-01" {
		t.Fatalf("unexpected holidays: %v", days)
	}
}
