package projection

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"zandaka/internal/core"
	"zandaka/internal/holiday"
)

var dateOpt = cmp.AllowUnexported(core.Date{})

func d(s string) core.Date { return core.MustParseDate(s) }

func datePtr(s string) *core.Date {
	v := d(s)
	return &v
}

func occurrenceDates(occs []core.Occurrence) []string {
	out := []string{}
	for _, o := range occs {
		out = append(out, o.Date.String())
	}
	return out
}

func TestProjectSalaryScenario(t *testing.T) {
	salary := core.Entry{ID: "salary", Date: d("2024-01-25"), Kind: core.KindIncome, Amount: 300000, Recurring: true}
	got := Project(Input{
		Entries:    []core.Entry{salary},
		BaseAmount: 100000,
		BaseDate:   datePtr("2024-01-01"),
		RangeStart: d("2024-01-01"),
		RangeEnd:   d("2024-03-31"),
	})

	type dayBalance struct {
		Date    string
		Balance int64
	}
	var days []dayBalance
	for _, day := range got.Days {
		days = append(days, dayBalance{day.Date.String(), day.BalanceAfter})
	}
	wantDays := []dayBalance{
		{"2024-01-25", 400000},
		// 02-25 is a Sunday and 02-23 a holiday, so pay moves back to Thursday.
		{"2024-02-22", 700000},
		{"2024-03-25", 1000000},
	}
	if diff := cmp.Diff(wantDays, days); diff != "" {
		t.Fatalf("days mismatch (-want +got):\n%s", diff)
	}

	wantMonthly := []core.MonthSummary{
		{Month: "2024-01", Income: 300000, EndBalance: 400000},
		{Month: "2024-02", Income: 300000, EndBalance: 700000},
		{Month: "2024-03", Income: 300000, EndBalance: 1000000},
	}
	if diff := cmp.Diff(wantMonthly, got.Monthly); diff != "" {
		t.Fatalf("monthly mismatch (-want +got):\n%s", diff)
	}
	if got.Base.Date == nil || got.Base.Date.String() != "2024-01-01" || got.Base.Amount != 100000 {
		t.Fatalf("unexpected base: %+v", got.Base)
	}
	for _, day := range got.Days {
		for _, it := range day.Items {
			if !it.Generated {
				t.Fatalf("recurring instance not tagged: %+v", it)
			}
		}
	}
}

func TestProjectBalanceInvariant(t *testing.T) {
	entries := []core.Entry{
		{ID: "rent", Date: d("2024-01-27"), Kind: core.KindExpense, Amount: 80000, Recurring: true},
		{ID: "salary", Date: d("2024-01-25"), Kind: core.KindIncome, Amount: 250000, Recurring: true},
		{ID: "trip", Date: d("2024-02-14"), Kind: core.KindExpense, Amount: 30000},
		{ID: "bonus", Date: d("2024-02-14"), Kind: core.KindIncome, Amount: 50000},
		{ID: "memo", Date: d("2024-02-14"), Kind: core.KindFutureSmall, Amount: 999},
		{ID: "snap", Date: d("2024-02-01"), Kind: core.KindSnapshot, Amount: 1},
	}
	p := Project(Input{Entries: entries, BaseAmount: 10000, RangeStart: d("2024-01-01"), RangeEnd: d("2024-04-30")})

	prev := int64(10000)
	for i, day := range p.Days {
		if i > 0 && !p.Days[i-1].Date.Before(day.Date) {
			t.Fatalf("days not strictly ascending at %d", i)
		}
		delta := int64(0)
		for _, it := range day.Items {
			switch it.Kind {
			case core.KindIncome:
				delta += it.Amount
			case core.KindExpense:
				delta -= it.Amount
			default:
				t.Fatalf("%s item must not appear in days", it.Kind)
			}
		}
		if day.BalanceAfter != prev+delta {
			t.Fatalf("%s: balance %d, want %d", day.Date, day.BalanceAfter, prev+delta)
		}
		prev = day.BalanceAfter
	}

	for _, m := range p.Monthly {
		var last core.Day
		for _, day := range p.Days {
			if day.Date.MonthKey() == m.Month {
				last = day
			}
		}
		if m.EndBalance != last.BalanceAfter {
			t.Fatalf("%s: end balance %d, want %d", m.Month, m.EndBalance, last.BalanceAfter)
		}
	}

	var feb14 []string
	for _, day := range p.Days {
		if day.Date == d("2024-02-14") {
			for _, it := range day.Items {
				feb14 = append(feb14, it.ID)
			}
		}
	}
	if diff := cmp.Diff([]string{"trip", "bonus"}, feb14); diff != "" {
		t.Fatalf("same-day items must keep entry order (-want +got):\n%s", diff)
	}
}

func TestFutureLargeOnlyInPlanned(t *testing.T) {
	entries := []core.Entry{
		{ID: "car", Date: d("2024-02-10"), Kind: core.KindFutureLarge, Amount: 1500000},
		{ID: "pay", Date: d("2024-02-15"), Kind: core.KindIncome, Amount: 1000},
	}
	p := Project(Input{Entries: entries, RangeStart: d("2024-01-01"), RangeEnd: d("2024-12-31")})
	for _, day := range p.Days {
		for _, it := range day.Items {
			if it.ID == "car" {
				t.Fatalf("planned expense leaked into days")
			}
		}
	}
	if len(p.Days) != 1 || p.Days[0].BalanceAfter != 1000 {
		t.Fatalf("unexpected days: %+v", p.Days)
	}

	planned := Planned(entries)
	if planned.Total != 1500000 || len(planned.Items) != 1 || planned.Items[0].ID != "car" {
		t.Fatalf("unexpected planned summary: %+v", planned)
	}
}

func TestPlannedOrdering(t *testing.T) {
	entries := []core.Entry{
		{ID: "late-large", Date: d("2024-05-01"), Kind: core.KindFutureLarge, Amount: 3},
		{ID: "income", Date: d("2024-01-01"), Kind: core.KindIncome, Amount: 100},
		{ID: "late-small", Date: d("2024-05-01"), Kind: core.KindFutureSmall, Amount: 2},
		{ID: "undated", Kind: core.KindFutureSmall, Amount: 1},
	}
	got := Planned(entries)
	var ids []string
	for _, e := range got.Items {
		ids = append(ids, e.ID)
	}
	if diff := cmp.Diff([]string{"undated", "late-large", "late-small"}, ids); diff != "" {
		t.Fatalf("order mismatch (-want +got):\n%s", diff)
	}
	if got.Total != 6 {
		t.Fatalf("total = %d", got.Total)
	}
}

func TestProjectEmptyRange(t *testing.T) {
	entries := []core.Entry{{ID: "x", Date: d("2024-01-10"), Kind: core.KindIncome, Amount: 1, Recurring: true}}
	p := Project(Input{Entries: entries, RangeStart: d("2024-03-01"), RangeEnd: d("2024-02-01")})
	if len(p.Days) != 0 || len(p.Monthly) != 0 {
		t.Fatalf("inverted range must be empty: %+v", p)
	}
	if p.Base.Date != nil {
		t.Fatalf("nil base date expected")
	}
}

func TestIncomeShiftsBackAcrossYear(t *testing.T) {
	var years []int
	cal := holiday.CalendarFunc(func(year int) holiday.Set {
		years = append(years, year)
		return holiday.ForYear(year)
	})
	// 2023-01-01 is a Sunday and New Year's Day; 12-31 is a Saturday.
	e := core.Entry{ID: "pay", Date: d("2023-01-01"), Kind: core.KindIncome, Amount: 1, Recurring: true, EndDate: datePtr("2023-01-31")}

	got := Expand([]core.Entry{e}, d("2022-12-01"), d("2023-01-31"), cal)
	if diff := cmp.Diff([]string{"2022-12-30"}, occurrenceDates(got)); diff != "" {
		t.Fatalf("dates mismatch (-want +got):\n%s", diff)
	}
	consulted2022 := false
	for _, y := range years {
		if y == 2022 {
			consulted2022 = true
		}
	}
	if !consulted2022 {
		t.Fatalf("holidays of 2022 were never consulted: %v", years)
	}

	// The shifted instance leaves a window that starts on the anchor.
	got = Expand([]core.Entry{e}, d("2023-01-01"), d("2023-01-31"), nil)
	if len(got) != 0 {
		t.Fatalf("shifted occurrence outside the window must be dropped: %v", occurrenceDates(got))
	}
}

func TestAdjustedDateCanEnterRange(t *testing.T) {
	// 02-10 is a Saturday before a holiday weekend; the bill moves to 02-13.
	e := core.Entry{ID: "card", Date: d("2024-02-10"), Kind: core.KindExpense, Amount: 1, Recurring: true, EndDate: datePtr("2024-02-28")}
	got := Expand([]core.Entry{e}, d("2024-02-13"), d("2024-02-29"), nil)
	if diff := cmp.Diff([]string{"2024-02-13"}, occurrenceDates(got)); diff != "" {
		t.Fatalf("dates mismatch (-want +got):\n%s", diff)
	}
}

func TestExpenseShiftsForward(t *testing.T) {
	// 02-10 Saturday, 02-11 Sunday holiday, 02-12 substitute holiday.
	e := core.Entry{ID: "card", Date: d("2024-02-10"), Kind: core.KindExpense, Amount: 1, Recurring: true, EndDate: datePtr("2024-03-31")}
	got := Expand([]core.Entry{e}, d("2024-01-01"), d("2024-12-31"), nil)
	if diff := cmp.Diff([]string{"2024-02-13", "2024-03-11"}, occurrenceDates(got)); diff != "" {
		t.Fatalf("dates mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandStepsOneClampedMonthAtATime(t *testing.T) {
	e := core.Entry{ID: "rent", Date: d("2024-01-31"), Kind: core.KindExpense, Amount: 1, Recurring: true}
	got := expand([]core.Entry{e}, d("2024-01-01"), d("2024-04-30"), nil, Policies{core.KindExpense: NoAdjustment{}})
	want := []string{"2024-01-31", "2024-02-29", "2024-03-29", "2024-04-29"}
	if diff := cmp.Diff(want, occurrenceDates(got)); diff != "" {
		t.Fatalf("dates mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandMonthEndEveryMonthGetsAnOccurrence(t *testing.T) {
	e := core.Entry{ID: "rent", Date: d("2024-01-31"), Kind: core.KindExpense, Amount: 1, Recurring: true}
	got := Expand([]core.Entry{e}, d("2024-01-01"), d("2024-05-31"), nil)
	// 03-29 is a Friday, 04-29 Showa Day (Monday) moves to 04-30.
	want := []string{"2024-01-31", "2024-02-29", "2024-03-29", "2024-04-30", "2024-05-29"}
	if diff := cmp.Diff(want, occurrenceDates(got)); diff != "" {
		t.Fatalf("dates mismatch (-want +got):\n%s", diff)
	}
}

func TestExpandHonorsEndDate(t *testing.T) {
	e := core.Entry{ID: "gym", Date: d("2024-01-15"), Kind: core.KindExpense, Amount: 1, Recurring: true, EndDate: datePtr("2024-02-29")}
	got := Expand([]core.Entry{e}, d("2024-01-01"), d("2024-12-31"), nil)
	if diff := cmp.Diff([]string{"2024-01-15", "2024-02-15"}, occurrenceDates(got)); diff != "" {
		t.Fatalf("dates mismatch (-want +got):\n%s", diff)
	}
}

func TestNonRecurringNeverAdjusted(t *testing.T) {
	entries := []core.Entry{
		{ID: "in", Date: d("2024-02-11"), Kind: core.KindIncome, Amount: 1},
		{ID: "out", Date: d("2024-02-24"), Kind: core.KindExpense, Amount: 1},
	}
	got := Expand(entries, d("2024-02-01"), d("2024-02-29"), nil)
	if diff := cmp.Diff([]string{"2024-02-11", "2024-02-24"}, occurrenceDates(got)); diff != "" {
		t.Fatalf("dates mismatch (-want +got):\n%s", diff)
	}
	for _, o := range got {
		if o.Generated {
			t.Fatalf("one-off occurrence tagged as generated")
		}
	}
}

func TestExpandSkipsUndated(t *testing.T) {
	entries := []core.Entry{
		{ID: "memo", Kind: core.KindFutureSmall, Amount: 1},
		{ID: "rec", Kind: core.KindExpense, Amount: 1, Recurring: true},
	}
	if got := Expand(entries, d("2024-01-01"), d("2024-12-31"), nil); len(got) != 0 {
		t.Fatalf("undated entries must be skipped: %v", got)
	}
}

func TestExpandIsPureAndIdempotent(t *testing.T) {
	end := d("2024-06-30")
	entries := []core.Entry{
		{ID: "a", Date: d("2024-01-25"), Kind: core.KindIncome, Amount: 300000, Recurring: true, EndDate: &end},
		{ID: "b", Date: d("2024-03-03"), Kind: core.KindExpense, Amount: 5000},
	}
	before := make([]core.Entry, len(entries))
	for i, e := range entries {
		before[i] = e.Clone()
	}
	first := Expand(entries, d("2024-01-01"), d("2024-12-31"), nil)
	second := Expand(entries, d("2024-01-01"), d("2024-12-31"), holiday.NewSharedCache(4))
	if diff := cmp.Diff(first, second, dateOpt); diff != "" {
		t.Fatalf("expansion not idempotent (-first +second):\n%s", diff)
	}
	if diff := cmp.Diff(before, entries, dateOpt); diff != "" {
		t.Fatalf("entries mutated (-before +after):\n%s", diff)
	}
	*first[0].EndDate = d("2030-01-01")
	if entries[0].EndDate.String() != "2024-06-30" {
		t.Fatalf("occurrence aliases the entry's end date")
	}
}

func TestPolicyFor(t *testing.T) {
	cases := map[core.Kind]AdjustmentPolicy{
		core.KindIncome:      BackwardPolicy{},
		core.KindExpense:     ForwardPolicy{},
		core.KindFutureSmall: ForwardPolicy{},
		core.KindFutureLarge: ForwardPolicy{},
		core.KindSnapshot:    ForwardPolicy{},
	}
	for k, want := range cases {
		if got := PolicyFor(k); got != want {
			t.Fatalf("PolicyFor(%s) = %T, want %T", k, got, want)
		}
	}
	if got := (Policies{core.KindIncome: NoAdjustment{}}).For(core.KindIncome); got != (NoAdjustment{}) {
		t.Fatalf("override ignored: %T", got)
	}
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on unknown kind")
		}
	}()
	PolicyFor("bogus")
}
