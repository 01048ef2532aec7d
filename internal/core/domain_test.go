package core

import (
	"encoding/json"
	"errors"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2024-02-29")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.Year() != 2024 || d.Month() != time.February || d.Day() != 29 {
		t.Fatalf("got %v", d)
	}
	for _, bad := range []string{"", "2023-02-29", "2024-2-1", "2024/01/01"} {
		if _, err := ParseDate(bad); err == nil {
			t.Fatalf("%q expected error", bad)
		}
	}
}

func TestAddMonthsClamped(t *testing.T) {
	cases := []struct {
		from string
		n    int
		want string
	}{
		{"2024-01-31", 1, "2024-02-29"},
		{"2023-01-31", 1, "2023-02-28"},
		{"2024-01-31", 2, "2024-03-31"},
		{"2024-12-15", 1, "2025-01-15"},
		{"2024-03-31", -1, "2024-02-29"},
		{"2024-05-10", 0, "2024-05-10"},
	}
	for _, tc := range cases {
		got := MustParseDate(tc.from).AddMonthsClamped(tc.n)
		if got.String() != tc.want {
			t.Fatalf("%s + %d months = %s, want %s", tc.from, tc.n, got, tc.want)
		}
	}
}

func TestCompareDatesMatchesStringOrder(t *testing.T) {
	dates := []string{"2023-12-31", "2024-01-01", "2024-01-10", "2024-02-01"}
	for i := range dates {
		for j := range dates {
			a, b := MustParseDate(dates[i]), MustParseDate(dates[j])
			want := 0
			switch {
			case dates[i] < dates[j]:
				want = -1
			case dates[i] > dates[j]:
				want = 1
			}
			if got := CompareDates(a, b); got != want {
				t.Fatalf("CompareDates(%s, %s) = %d, want %d", a, b, got, want)
			}
		}
	}
	if CompareDates(Date{}, MustParseDate("0001-01-01")) >= 0 {
		t.Fatalf("zero date must sort first")
	}
}

func TestDateJSON(t *testing.T) {
	b, err := json.Marshal(MustParseDate("2024-03-05"))
	if err != nil || string(b) != `"2024-03-05"` {
		t.Fatalf("marshal: %s %v", b, err)
	}
	b, _ = json.Marshal(Date{})
	if string(b) != `""` {
		t.Fatalf("zero date marshals as %s", b)
	}
	var d Date
	for _, in := range []string{`null`, `""`} {
		if err := json.Unmarshal([]byte(in), &d); err != nil || !d.IsZero() {
			t.Fatalf("%s: got %v %v", in, d, err)
		}
	}
	if err := json.Unmarshal([]byte(`"2024-13-01"`), &d); err == nil {
		t.Fatalf("expected error for invalid month")
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		if err != nil || got != k {
			t.Fatalf("ParseKind(%q) = %q, %v", k, got, err)
		}
	}
	if _, err := ParseKind("transfer"); !errors.Is(err, ErrUnknownKind) {
		t.Fatalf("expected ErrUnknownKind, got %v", err)
	}
}

func TestKindSemantics(t *testing.T) {
	cases := []struct {
		k       Kind
		sign    int64
		affects bool
		planned bool
	}{
		{KindIncome, 1, true, false},
		{KindExpense, -1, true, false},
		{KindFutureSmall, -1, false, true},
		{KindFutureLarge, -1, false, true},
		{KindSnapshot, 0, false, false},
	}
	for _, tc := range cases {
		if tc.k.Sign() != tc.sign || tc.k.AffectsBalance() != tc.affects || tc.k.IsPlanned() != tc.planned {
			t.Fatalf("%s: unexpected semantics", tc.k)
		}
	}
}

func TestNewEntry(t *testing.T) {
	end := MustParseDate("2024-06-25")
	e, err := NewEntry(EntryParams{
		Date:      MustParseDate("2024-01-25"),
		Kind:      KindIncome,
		Amount:    300000,
		Note:      "  salary ",
		Recurring: true,
		EndDate:   &end,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.ID == "" || e.Note != "salary" || e.EndDate == nil || *e.EndDate != end {
		t.Fatalf("unexpected entry: %+v", e)
	}

	early := MustParseDate("2023-12-31")
	bads := []struct {
		p   EntryParams
		err error
	}{
		{EntryParams{Kind: KindIncome, Amount: 1}, ErrMissingDate},
		{EntryParams{Date: end, Kind: "transfer"}, ErrUnknownKind},
		{EntryParams{Date: end, Kind: KindExpense, Amount: -1}, ErrNegativeAmount},
		{EntryParams{Date: end, Kind: KindFutureLarge, Recurring: true}, ErrRecurringPlanned},
		{EntryParams{Date: end, Kind: KindExpense, EndDate: &end}, ErrEndDateWithoutRecurring},
		{EntryParams{Date: end, Kind: KindExpense, Recurring: true, EndDate: &early}, ErrEndBeforeStart},
	}
	for i, tc := range bads {
		if _, err := NewEntry(tc.p); !errors.Is(err, tc.err) {
			t.Fatalf("case %d: expected %v, got %v", i, tc.err, err)
		}
	}
}

func TestNewEntryAllowsUndatedPlanned(t *testing.T) {
	e, err := NewEntry(EntryParams{Kind: KindFutureSmall, Amount: 5000, Note: "glasses"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !e.Date.IsZero() {
		t.Fatalf("expected no date")
	}
}

func TestNewEntryNormalizesZeroEndDate(t *testing.T) {
	zero := Date{}
	e, err := NewEntry(EntryParams{Date: MustParseDate("2024-01-01"), Kind: KindExpense, Recurring: true, EndDate: &zero})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if e.EndDate != nil {
		t.Fatalf("expected nil end date")
	}
}

func TestEntryPatchApply(t *testing.T) {
	end := MustParseDate("2024-12-31")
	e, err := NewEntry(EntryParams{Date: MustParseDate("2024-01-10"), Kind: KindExpense, Amount: 80000, Recurring: true, EndDate: &end})
	if err != nil {
		t.Fatal(err)
	}

	amount := int64(85000)
	got, err := EntryPatch{Amount: &amount}.Apply(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Amount != 85000 || got.EndDate == nil {
		t.Fatalf("unexpected: %+v", got)
	}
	if e.Amount != 80000 {
		t.Fatalf("original mutated")
	}

	off := false
	got, err = EntryPatch{Recurring: &off}.Apply(e)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Recurring || got.EndDate != nil {
		t.Fatalf("turning recurrence off must drop the end date: %+v", got)
	}

	large := KindFutureLarge
	if _, err := (EntryPatch{Kind: &large}).Apply(e); !errors.Is(err, ErrRecurringPlanned) {
		t.Fatalf("expected ErrRecurringPlanned, got %v", err)
	}
}

func TestOccurrenceJSON(t *testing.T) {
	e := Entry{ID: "a", Date: MustParseDate("2024-01-25"), Kind: KindIncome, Amount: 10, Recurring: true}
	o := OccurrenceOf(e, MustParseDate("2024-02-22"), true)
	b, err := json.Marshal(o)
	if err != nil {
		t.Fatal(err)
	}
	var got map[string]any
	if err := json.Unmarshal(b, &got); err != nil {
		t.Fatal(err)
	}
	if got["date"] != "2024-02-22" || got["generated"] != true || got["endDate"] != nil {
		t.Fatalf("unexpected json: %s", b)
	}
	if e.Date.String() != "2024-01-25" {
		t.Fatalf("source entry mutated")
	}
}
