// Package storage persists the ledger state.
package storage

import (
	"context"
	"errors"

	"zandaka/internal/core"
)

// ErrNotFound is returned when an entry id does not exist.
var ErrNotFound = errors.New("entry not found")

// Store is the durable home of the ledger state. Entries are listed in
// insertion order, which the projection uses to order same-day items.
type Store interface {
	// Load returns the whole state. A fresh store returns zero settings
	// with the monthly recurring toggle on.
	Load(ctx context.Context) (core.State, error)
	SaveSettings(ctx context.Context, s core.Settings) error

	ListEntries(ctx context.Context) ([]core.Entry, error)
	GetEntry(ctx context.Context, id string) (core.Entry, error)
	CreateEntry(ctx context.Context, e core.Entry) error
	UpdateEntry(ctx context.Context, e core.Entry) error
	DeleteEntry(ctx context.Context, id string) error
	// ClearEntries deletes every entry and reports how many were removed.
	ClearEntries(ctx context.Context) (int, error)
	// SetUIOrder assigns the given display orders in one step.
	SetUIOrder(ctx context.Context, orders map[string]int) error

	Close() error
}
