// Package services orchestrates ledger mutations, change notifications and
// projections on top of storage.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"zandaka/internal/amqp"
	"zandaka/internal/core"
	"zandaka/internal/storage"
)

// ErrNotConfirmed is returned when a destructive operation lacks confirmation.
var ErrNotConfirmed = errors.New("operation requires confirmation")

// Publisher announces ledger changes to other processes.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, op, entryID string) error
}

// LedgerService owns every write to the ledger state. Writes go to the
// store first; the change notification afterwards is best effort.
type LedgerService struct {
	store     storage.Store
	publisher Publisher
	today     func() core.Date
}

// NewLedgerService builds the service. publisher may be nil.
func NewLedgerService(store storage.Store, publisher Publisher) *LedgerService {
	return &LedgerService{store: store, publisher: publisher, today: core.Today}
}

// WithClock overrides the date used to fill default settings.
func (s *LedgerService) WithClock(today func() core.Date) *LedgerService {
	s.today = today
	return s
}

// State loads the state with defaults filled in and UI orders assigned.
// Orders assigned here are saved so later appends land after them.
func (s *LedgerService) State(ctx context.Context) (core.State, error) {
	st, err := s.store.Load(ctx)
	if err != nil {
		return core.State{}, fmt.Errorf("load state: %w", err)
	}
	var missing []int
	for i, e := range st.Entries {
		if e.UIOrder == nil {
			missing = append(missing, i)
		}
	}
	st.EnsureDefaults(s.today())
	if len(missing) == 0 {
		return st, nil
	}
	orders := make(map[string]int, len(missing))
	for _, i := range missing {
		orders[st.Entries[i].ID] = *st.Entries[i].UIOrder
	}
	if err := s.store.SetUIOrder(ctx, orders); err != nil {
		return core.State{}, fmt.Errorf("save ui order: %w", err)
	}
	slog.DebugContext(ctx, "UI order assigned", "entries", len(orders))
	return st, nil
}

// Entries returns the entries in display order.
func (s *LedgerService) Entries(ctx context.Context) ([]core.Entry, error) {
	st, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	return core.SortEntries(st.Entries), nil
}

func (s *LedgerService) UpdateSettings(ctx context.Context, patch core.SettingsPatch) (core.Settings, error) {
	st, err := s.State(ctx)
	if err != nil {
		return core.Settings{}, err
	}
	next := patch.Apply(st.Settings)
	if err := s.store.SaveSettings(ctx, next); err != nil {
		return core.Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.publish(ctx, amqp.OpSettings, "")
	return next, nil
}

// CreateEntry validates params and appends the entry after every existing
// one in display order.
func (s *LedgerService) CreateEntry(ctx context.Context, p core.EntryParams) (core.Entry, error) {
	e, err := core.NewEntry(p)
	if err != nil {
		return core.Entry{}, err
	}
	st, err := s.State(ctx)
	if err != nil {
		return core.Entry{}, err
	}
	order := core.NextUIOrder(st.Entries)
	e.UIOrder = &order

	if err := s.store.CreateEntry(ctx, e); err != nil {
		return core.Entry{}, fmt.Errorf("create entry: %w", err)
	}
	slog.InfoContext(ctx, "Entry created",
		"entry_id", e.ID,
		"kind", e.Kind,
		"amount", e.Amount,
		"date", e.Date.String(),
		"recurring", e.Recurring)
	s.publish(ctx, amqp.OpCreate, e.ID)
	return e, nil
}

func (s *LedgerService) UpdateEntry(ctx context.Context, id string, patch core.EntryPatch) (core.Entry, error) {
	current, err := s.store.GetEntry(ctx, id)
	if err != nil {
		return core.Entry{}, fmt.Errorf("get entry: %w", err)
	}
	next, err := patch.Apply(current)
	if err != nil {
		return core.Entry{}, err
	}
	if err := s.store.UpdateEntry(ctx, next); err != nil {
		return core.Entry{}, fmt.Errorf("update entry: %w", err)
	}
	slog.InfoContext(ctx, "Entry updated", "entry_id", id)
	s.publish(ctx, amqp.OpUpdate, id)
	return next, nil
}

func (s *LedgerService) DeleteEntry(ctx context.Context, id string) error {
	if err := s.store.DeleteEntry(ctx, id); err != nil {
		return fmt.Errorf("delete entry: %w", err)
	}
	slog.InfoContext(ctx, "Entry deleted", "entry_id", id)
	s.publish(ctx, amqp.OpDelete, id)
	return nil
}

// ClearEntries deletes every entry. It refuses unless confirmed.
func (s *LedgerService) ClearEntries(ctx context.Context, confirmed bool) (int, error) {
	if !confirmed {
		return 0, ErrNotConfirmed
	}
	n, err := s.store.ClearEntries(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear entries: %w", err)
	}
	slog.WarnContext(ctx, "All entries cleared", "count", n)
	s.publish(ctx, amqp.OpClear, "")
	return n, nil
}

// Reorder moves ids to the top of the display order, in the given order.
func (s *LedgerService) Reorder(ctx context.Context, ids []string) ([]core.Entry, error) {
	st, err := s.State(ctx)
	if err != nil {
		return nil, err
	}
	orders, err := core.Reorder(st.Entries, ids)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetUIOrder(ctx, orders); err != nil {
		return nil, fmt.Errorf("reorder entries: %w", err)
	}
	s.publish(ctx, amqp.OpReorder, "")
	return s.Entries(ctx)
}

func (s *LedgerService) publish(ctx context.Context, op, entryID string) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No publisher configured, skipping ledger change message", "op", op)
		return
	}
	if err := s.publisher.PublishLedgerChanged(ctx, op, entryID); err != nil {
		// The write already succeeded.
		slog.ErrorContext(ctx, "Failed to publish ledger change",
			"op", op,
			"entry_id", entryID,
			"error", err)
	}
}

// Close closes the store.
func (s *LedgerService) Close() error {
	if s.store == nil {
		return nil
	}
	return s.store.Close()
}
