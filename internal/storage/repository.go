package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"zandaka/internal/core"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores the ledger state in a SQLite database.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Load(ctx context.Context) (core.State, error) {
	settings, err := r.loadSettings(ctx)
	if err != nil {
		return core.State{}, err
	}
	entries, err := r.ListEntries(ctx)
	if err != nil {
		return core.State{}, err
	}
	return core.State{Settings: settings, Entries: entries}, nil
}

func (r *SQLiteRepository) loadSettings(ctx context.Context) (core.Settings, error) {
	row, err := r.queries.GetSettings(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Settings{ShowRecurringInMonthly: true}, nil
	}
	if err != nil {
		return core.Settings{}, fmt.Errorf("get settings: %w", err)
	}

	s := core.Settings{
		BaseAmount:             row.BaseAmount,
		Lang:                   row.Lang,
		ShowRecurringInMonthly: row.ShowRecurringInMonthly,
	}
	if s.BaseDate, err = parseStoredDate(row.BaseDate); err != nil {
		return core.Settings{}, fmt.Errorf("settings base_date: %w", err)
	}
	if s.RangeStart, err = parseStoredDate(row.RangeStart); err != nil {
		return core.Settings{}, fmt.Errorf("settings range_start: %w", err)
	}
	if s.RangeEnd, err = parseStoredDate(row.RangeEnd); err != nil {
		return core.Settings{}, fmt.Errorf("settings range_end: %w", err)
	}
	if err := json.Unmarshal([]byte(row.CollapsedMonths), &s.TimelineCollapsedMonths); err != nil {
		return core.Settings{}, fmt.Errorf("settings collapsed_months: %w", err)
	}
	return s, nil
}

func (r *SQLiteRepository) SaveSettings(ctx context.Context, s core.Settings) error {
	collapsed := s.TimelineCollapsedMonths
	if collapsed == nil {
		collapsed = []string{}
	}
	months, err := json.Marshal(collapsed)
	if err != nil {
		return fmt.Errorf("encode collapsed months: %w", err)
	}
	err = r.queries.UpsertSettings(ctx, UpsertSettingsParams{
		BaseDate:               s.BaseDate.String(),
		BaseAmount:             s.BaseAmount,
		RangeStart:             s.RangeStart.String(),
		RangeEnd:               s.RangeEnd.String(),
		Lang:                   s.Lang,
		ShowRecurringInMonthly: s.ShowRecurringInMonthly,
		CollapsedMonths:        string(months),
	})
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	slog.DebugContext(ctx, "Settings saved to SQLite")
	return nil
}

func (r *SQLiteRepository) ListEntries(ctx context.Context) ([]core.Entry, error) {
	rows, err := r.queries.ListEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	entries := make([]core.Entry, 0, len(rows))
	for _, row := range rows {
		e, err := entryFromRow(row)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r *SQLiteRepository) GetEntry(ctx context.Context, id string) (core.Entry, error) {
	row, err := r.queries.GetEntry(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry %s: %w", id, err)
	}
	return entryFromRow(row)
}

func (r *SQLiteRepository) CreateEntry(ctx context.Context, e core.Entry) error {
	if err := r.queries.CreateEntry(ctx, rowFromEntry(e)); err != nil {
		return fmt.Errorf("create entry: %w", err)
	}
	slog.InfoContext(ctx, "Entry saved to SQLite",
		"entry_id", e.ID,
		"kind", e.Kind,
		"amount", e.Amount,
		"date", e.Date.String())
	return nil
}

func (r *SQLiteRepository) UpdateEntry(ctx context.Context, e core.Entry) error {
	n, err := r.queries.UpdateEntry(ctx, rowFromEntry(e))
	if err != nil {
		return fmt.Errorf("update entry %s: %w", e.ID, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, e.ID)
	}
	return nil
}

func (r *SQLiteRepository) DeleteEntry(ctx context.Context, id string) error {
	n, err := r.queries.DeleteEntry(ctx, id)
	if err != nil {
		return fmt.Errorf("delete entry %s: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

func (r *SQLiteRepository) ClearEntries(ctx context.Context) (int, error) {
	n, err := r.queries.DeleteAllEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear entries: %w", err)
	}
	slog.WarnContext(ctx, "All entries deleted from SQLite", "count", n)
	return int(n), nil
}

func (r *SQLiteRepository) SetUIOrder(ctx context.Context, orders map[string]int) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	q := r.queries.WithTx(tx)
	for id, order := range orders {
		n, err := q.SetEntryUIOrder(ctx, id, int64(order))
		if err != nil {
			return fmt.Errorf("set ui order of %s: %w", id, err)
		}
		if n == 0 {
			return fmt.Errorf("%w: %s", ErrNotFound, id)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit ui order: %w", err)
	}
	return nil
}

func rowFromEntry(e core.Entry) EntryRow {
	row := EntryRow{
		ID:        e.ID,
		Date:      e.Date.String(),
		Kind:      string(e.Kind),
		Amount:    e.Amount,
		Note:      e.Note,
		Recurring: e.Recurring,
	}
	if e.EndDate != nil && !e.EndDate.IsZero() {
		row.EndDate = sql.NullString{String: e.EndDate.String(), Valid: true}
	}
	if e.UIOrder != nil {
		row.UIOrder = sql.NullInt64{Int64: int64(*e.UIOrder), Valid: true}
	}
	return row
}

func entryFromRow(row EntryRow) (core.Entry, error) {
	kind, err := core.ParseKind(row.Kind)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s: %w", row.ID, err)
	}
	date, err := parseStoredDate(row.Date)
	if err != nil {
		return core.Entry{}, fmt.Errorf("entry %s date: %w", row.ID, err)
	}
	e := core.Entry{
		ID:        row.ID,
		Date:      date,
		Kind:      kind,
		Amount:    row.Amount,
		Note:      row.Note,
		Recurring: row.Recurring,
	}
	if row.EndDate.Valid && row.EndDate.String != "" {
		end, err := core.ParseDate(row.EndDate.String)
		if err != nil {
			return core.Entry{}, fmt.Errorf("entry %s end_date: %w", row.ID, err)
		}
		e.EndDate = &end
	}
	if row.UIOrder.Valid {
		order := int(row.UIOrder.Int64)
		e.UIOrder = &order
	}
	return e, nil
}

func parseStoredDate(s string) (core.Date, error) {
	if s == "" {
		return core.Date{}, nil
	}
	return core.ParseDate(s)
}
