package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"zandaka/internal/core"
	"zandaka/internal/storage"
)

func TestMemoryStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	s := New(core.State{})

	e := core.Entry{ID: "a", Date: core.MustParseDate("2024-01-25"), Kind: core.KindIncome, Amount: 1}
	if err := s.CreateEntry(ctx, e); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateEntry(ctx, e); err == nil {
		t.Fatalf("expected duplicate id error")
	}
	if err := s.CreateEntry(ctx, core.Entry{ID: "bad", Kind: core.KindIncome}); !errors.Is(err, core.ErrMissingDate) {
		t.Fatalf("expected validation error, got %v", err)
	}

	e.Amount = 2
	if err := s.UpdateEntry(ctx, e); err != nil {
		t.Fatalf("update: %v", err)
	}
	got, err := s.GetEntry(ctx, "a")
	if err != nil || got.Amount != 2 {
		t.Fatalf("get: %+v %v", got, err)
	}

	// Returned entries are copies.
	got.Amount = 99
	again, _ := s.GetEntry(ctx, "a")
	if again.Amount != 2 {
		t.Fatalf("store aliased a returned entry")
	}

	if err := s.SetUIOrder(ctx, map[string]int{"a": 3}); err != nil {
		t.Fatalf("set ui order: %v", err)
	}
	if err := s.SetUIOrder(ctx, map[string]int{"zzz": 3}); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := s.DeleteEntry(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetEntry(ctx, "a"); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestFileStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state", "zandaka.json")

	s, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	settings := core.DefaultSettings(core.MustParseDate("2024-01-01"))
	settings.BaseAmount = 100000
	if err := s.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("save settings: %v", err)
	}
	end := core.MustParseDate("2024-06-30")
	order := 0
	entry := core.Entry{ID: "a", Date: core.MustParseDate("2024-01-25"), Kind: core.KindIncome, Amount: 300000, Recurring: true, EndDate: &end, UIOrder: &order}
	if err := s.CreateEntry(ctx, entry); err != nil {
		t.Fatalf("create: %v", err)
	}

	reopened, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got, _ := reopened.Load(ctx)
	want := core.State{Settings: settings, Entries: []core.Entry{entry}}
	if diff := cmp.Diff(want, got, cmp.AllowUnexported(core.Date{})); diff != "" {
		t.Fatalf("state mismatch (-want +got):\n%s", diff)
	}

	n, err := reopened.ClearEntries(ctx)
	if err != nil || n != 1 {
		t.Fatalf("clear: n=%d err=%v", n, err)
	}
	after, err := NewFromFile(path)
	if err != nil {
		t.Fatalf("reopen after clear: %v", err)
	}
	if st, _ := after.Load(ctx); len(st.Entries) != 0 || st.BaseAmount != 100000 {
		t.Fatalf("clear not persisted: %+v", st)
	}
}

func TestNewFromFileRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := NewFromFile(path); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestNewFromFileMissingStartsFresh(t *testing.T) {
	s, err := NewFromFile(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatal(err)
	}
	st, _ := s.Load(context.Background())
	if !st.ShowRecurringInMonthly || len(st.Entries) != 0 {
		t.Fatalf("unexpected fresh state: %+v", st)
	}
}

func TestReloadPicksUpOtherWriters(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "state.json")
	reader, err := NewFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	writer, err := NewFromFile(path)
	if err != nil {
		t.Fatal(err)
	}
	e := core.Entry{ID: "a", Date: core.MustParseDate("2024-01-10"), Kind: core.KindIncome, Amount: 10}
	if err := writer.CreateEntry(ctx, e); err != nil {
		t.Fatal(err)
	}

	if st, _ := reader.Load(ctx); len(st.Entries) != 0 {
		t.Fatalf("reader saw the write before Reload")
	}
	if err := reader.Reload(); err != nil {
		t.Fatal(err)
	}
	if st, _ := reader.Load(ctx); len(st.Entries) != 1 || st.Entries[0].ID != "a" {
		t.Fatalf("reader state after Reload: %+v", st.Entries)
	}

	if err := New(core.State{}).Reload(); err != nil {
		t.Fatalf("Reload without a file: %v", err)
	}
}
