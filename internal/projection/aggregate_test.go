package projection

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"zandaka/internal/core"
)

func aggregateEntries() []core.Entry {
	return []core.Entry{
		{ID: "rent", Date: d("2024-01-10"), Kind: core.KindExpense, Amount: 50000, Recurring: true},
		{ID: "snap", Date: d("2024-01-20"), Kind: core.KindSnapshot, Amount: 200000},
		{ID: "gift", Date: d("2024-01-25"), Kind: core.KindIncome, Amount: 10000},
		{ID: "sofa", Date: d("2024-01-26"), Kind: core.KindFutureLarge, Amount: 70000},
	}
}

func TestAggregateMonthlyIncludeRecurring(t *testing.T) {
	days := Timeline(Input{Entries: aggregateEntries(), RangeStart: d("2024-01-01"), RangeEnd: d("2024-02-29")})
	got := AggregateMonthly(days, 100000, true)
	want := []core.MonthSummary{
		{Month: "2024-01", Income: 10000, Expense: 50000, EndBalance: 210000},
		// 02-10 is a Saturday followed by two holidays.
		{Month: "2024-02", Expense: 50000, EndBalance: 160000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("monthly mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateMonthlyExcludeRecurring(t *testing.T) {
	days := Timeline(Input{Entries: aggregateEntries(), RangeStart: d("2024-01-01"), RangeEnd: d("2024-02-29")})
	got := AggregateMonthly(days, 100000, false)
	want := []core.MonthSummary{
		{Month: "2024-01", Income: 10000, EndBalance: 210000},
		{Month: "2024-02", EndBalance: 210000},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("monthly mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateRecurringSnapshotAlwaysApplies(t *testing.T) {
	days := []core.Day{{
		Date: d("2024-03-01"),
		Items: []core.Occurrence{
			{Entry: core.Entry{ID: "s", Kind: core.KindSnapshot, Amount: 42, Recurring: true}, Generated: true},
		},
	}}
	got := AggregateMonthly(days, 1000, false)
	if len(got) != 1 || got[0].EndBalance != 42 || got[0].Income != 0 || got[0].Expense != 0 {
		t.Fatalf("unexpected: %+v", got)
	}
}

func TestAggregatePlannedSubtracts(t *testing.T) {
	days := []core.Day{{
		Date: d("2024-03-01"),
		Items: []core.Occurrence{
			{Entry: core.Entry{ID: "p", Kind: core.KindFutureSmall, Amount: 300}},
		},
	}}
	got := AggregateMonthly(days, 1000, true)
	if diff := cmp.Diff([]core.MonthSummary{{Month: "2024-03", Expense: 300, EndBalance: 700}}, got); diff != "" {
		t.Fatalf("monthly mismatch (-want +got):\n%s", diff)
	}
}

func TestTimelineKeepsSnapshotsDropsPlanned(t *testing.T) {
	days := Timeline(Input{Entries: aggregateEntries(), RangeStart: d("2024-01-01"), RangeEnd: d("2024-01-31")})
	var kinds []core.Kind
	for _, day := range days {
		for _, it := range day.Items {
			kinds = append(kinds, it.Kind)
		}
	}
	want := []core.Kind{core.KindExpense, core.KindSnapshot, core.KindIncome}
	if diff := cmp.Diff(want, kinds); diff != "" {
		t.Fatalf("kinds mismatch (-want +got):\n%s", diff)
	}
}

func TestAggregateEmpty(t *testing.T) {
	if got := AggregateMonthly(nil, 5, true); len(got) != 0 {
		t.Fatalf("expected no months, got %+v", got)
	}
}
