package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

// Queries holds the SQL statements of the ledger schema.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns a copy of q running on tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// SettingsRow mirrors the settings table.
type SettingsRow struct {
	BaseDate               string
	BaseAmount             int64
	RangeStart             string
	RangeEnd               string
	Lang                   string
	ShowRecurringInMonthly bool
	CollapsedMonths        string
}

// EntryRow mirrors the entries table.
type EntryRow struct {
	ID        string
	Date      string
	Kind      string
	Amount    int64
	Note      string
	Recurring bool
	EndDate   sql.NullString
	UIOrder   sql.NullInt64
}

const getSettings = `-- name: GetSettings :one
SELECT base_date, base_amount, range_start, range_end, lang,
       show_recurring_in_monthly, collapsed_months
FROM settings WHERE id = 1
`

func (q *Queries) GetSettings(ctx context.Context) (SettingsRow, error) {
	row := q.db.QueryRowContext(ctx, getSettings)
	var i SettingsRow
	err := row.Scan(
		&i.BaseDate,
		&i.BaseAmount,
		&i.RangeStart,
		&i.RangeEnd,
		&i.Lang,
		&i.ShowRecurringInMonthly,
		&i.CollapsedMonths,
	)
	return i, err
}

const upsertSettings = `-- name: UpsertSettings :exec
INSERT INTO settings (id, base_date, base_amount, range_start, range_end, lang,
                      show_recurring_in_monthly, collapsed_months, updated_at)
VALUES (1, ?, ?, ?, ?, ?, ?, ?, CURRENT_TIMESTAMP)
ON CONFLICT (id) DO UPDATE SET
    base_date = excluded.base_date,
    base_amount = excluded.base_amount,
    range_start = excluded.range_start,
    range_end = excluded.range_end,
    lang = excluded.lang,
    show_recurring_in_monthly = excluded.show_recurring_in_monthly,
    collapsed_months = excluded.collapsed_months,
    updated_at = CURRENT_TIMESTAMP
`

type UpsertSettingsParams struct {
	BaseDate               string
	BaseAmount             int64
	RangeStart             string
	RangeEnd               string
	Lang                   string
	ShowRecurringInMonthly bool
	CollapsedMonths        string
}

func (q *Queries) UpsertSettings(ctx context.Context, arg UpsertSettingsParams) error {
	_, err := q.db.ExecContext(ctx, upsertSettings,
		arg.BaseDate,
		arg.BaseAmount,
		arg.RangeStart,
		arg.RangeEnd,
		arg.Lang,
		arg.ShowRecurringInMonthly,
		arg.CollapsedMonths,
	)
	return err
}

const entryColumns = `id, date, kind, amount, note, recurring, end_date, ui_order`

const listEntries = `-- name: ListEntries :many
SELECT ` + entryColumns + ` FROM entries ORDER BY rowid
`

func (q *Queries) ListEntries(ctx context.Context) ([]EntryRow, error) {
	rows, err := q.db.QueryContext(ctx, listEntries)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []EntryRow
	for rows.Next() {
		i, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const getEntry = `-- name: GetEntry :one
SELECT ` + entryColumns + ` FROM entries WHERE id = ?
`

func (q *Queries) GetEntry(ctx context.Context, id string) (EntryRow, error) {
	return scanEntry(q.db.QueryRowContext(ctx, getEntry, id))
}

const createEntry = `-- name: CreateEntry :exec
INSERT INTO entries (id, date, kind, amount, note, recurring, end_date, ui_order)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`

func (q *Queries) CreateEntry(ctx context.Context, arg EntryRow) error {
	_, err := q.db.ExecContext(ctx, createEntry,
		arg.ID,
		arg.Date,
		arg.Kind,
		arg.Amount,
		arg.Note,
		arg.Recurring,
		arg.EndDate,
		arg.UIOrder,
	)
	return err
}

const updateEntry = `-- name: UpdateEntry :execrows
UPDATE entries
SET date = ?, kind = ?, amount = ?, note = ?, recurring = ?, end_date = ?, ui_order = ?,
    updated_at = CURRENT_TIMESTAMP
WHERE id = ?
`

func (q *Queries) UpdateEntry(ctx context.Context, arg EntryRow) (int64, error) {
	result, err := q.db.ExecContext(ctx, updateEntry,
		arg.Date,
		arg.Kind,
		arg.Amount,
		arg.Note,
		arg.Recurring,
		arg.EndDate,
		arg.UIOrder,
		arg.ID,
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const setEntryUIOrder = `-- name: SetEntryUIOrder :execrows
UPDATE entries SET ui_order = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?
`

func (q *Queries) SetEntryUIOrder(ctx context.Context, id string, order int64) (int64, error) {
	result, err := q.db.ExecContext(ctx, setEntryUIOrder, order, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteEntry = `-- name: DeleteEntry :execrows
DELETE FROM entries WHERE id = ?
`

func (q *Queries) DeleteEntry(ctx context.Context, id string) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteEntry, id)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const deleteAllEntries = `-- name: DeleteAllEntries :execrows
DELETE FROM entries
`

func (q *Queries) DeleteAllEntries(ctx context.Context) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteAllEntries)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanEntry(s scanner) (EntryRow, error) {
	var i EntryRow
	err := s.Scan(
		&i.ID,
		&i.Date,
		&i.Kind,
		&i.Amount,
		&i.Note,
		&i.Recurring,
		&i.EndDate,
		&i.UIOrder,
	)
	return i, err
}
