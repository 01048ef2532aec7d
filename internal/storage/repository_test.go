package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"zandaka/internal/core"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "zandaka.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func intPtr(n int) *int { return &n }

func TestSQLiteFreshLoad(t *testing.T) {
	repo := newTestRepo(t)
	s, err := repo.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !s.ShowRecurringInMonthly || len(s.Entries) != 0 || !s.BaseDate.IsZero() {
		t.Fatalf("unexpected fresh state: %+v", s)
	}
}

func TestSQLiteStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	settings := core.DefaultSettings(core.MustParseDate("2024-01-01"))
	settings.BaseAmount = 100000
	settings.ShowRecurringInMonthly = false
	settings.TimelineCollapsedMonths = []string{"2024-02"}
	if err := repo.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}

	end := core.MustParseDate("2024-12-25")
	entries := []core.Entry{
		{ID: "b", Date: core.MustParseDate("2024-01-25"), Kind: core.KindIncome, Amount: 300000, Note: "給料", Recurring: true, EndDate: &end, UIOrder: intPtr(1)},
		{ID: "a", Kind: core.KindFutureSmall, Amount: 5000},
		{ID: "c", Date: core.MustParseDate("2024-01-05"), Kind: core.KindSnapshot, Amount: 1, UIOrder: intPtr(0)},
	}
	for _, e := range entries {
		if err := repo.CreateEntry(ctx, e); err != nil {
			t.Fatalf("create %s: %v", e.ID, err)
		}
	}

	got, err := repo.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	want := core.State{Settings: settings, Entries: entries}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(core.Date{})); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}

	// Saving twice updates the single settings row.
	settings.Lang = "en"
	if err := repo.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	got, _ = repo.Load(ctx)
	if got.Lang != "en" {
		t.Fatalf("lang = %q", got.Lang)
	}
}

func TestSQLiteEntryLifecycle(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	e := core.Entry{ID: "x", Date: core.MustParseDate("2024-03-01"), Kind: core.KindExpense, Amount: 10}
	if err := repo.CreateEntry(ctx, e); err != nil {
		t.Fatalf("create: %v", err)
	}
	e.Amount = 20
	e.Recurring = true
	if err := repo.UpdateEntry(ctx, e); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := repo.GetEntry(ctx, "x")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Amount != 20 || !got.Recurring {
		t.Fatalf("update not persisted: %+v", got)
	}

	if err := repo.SetUIOrder(ctx, map[string]int{"x": 7}); err != nil {
		t.Fatalf("set ui order: %v", err)
	}
	got, _ = repo.GetEntry(ctx, "x")
	if got.UIOrder == nil || *got.UIOrder != 7 {
		t.Fatalf("ui order not persisted: %+v", got)
	}
	if err := repo.SetUIOrder(ctx, map[string]int{"missing": 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := repo.DeleteEntry(ctx, "x"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := repo.GetEntry(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.DeleteEntry(ctx, "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := repo.UpdateEntry(ctx, e); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteClearEntries(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	for _, id := range []string{"a", "b"} {
		if err := repo.CreateEntry(ctx, core.Entry{ID: id, Date: core.MustParseDate("2024-01-01"), Kind: core.KindIncome}); err != nil {
			t.Fatal(err)
		}
	}
	n, err := repo.ClearEntries(ctx)
	if err != nil || n != 2 {
		t.Fatalf("clear: n=%d err=%v", n, err)
	}
	entries, _ := repo.ListEntries(ctx)
	if len(entries) != 0 {
		t.Fatalf("entries left: %d", len(entries))
	}
}

func TestSQLiteRejectsNegativeAmount(t *testing.T) {
	repo := newTestRepo(t)
	err := repo.CreateEntry(context.Background(), core.Entry{ID: "n", Date: core.MustParseDate("2024-01-01"), Kind: core.KindExpense, Amount: -1})
	if err == nil {
		t.Fatalf("expected check constraint failure")
	}
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "m.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	repo.Close()
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second run: %v", err)
	}
}
