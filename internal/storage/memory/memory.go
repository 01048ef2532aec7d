// Package memory keeps the ledger state in process memory, optionally
// mirrored to a JSON file after every change.
package memory

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"zandaka/internal/core"
	"zandaka/internal/storage"
)

type Store struct {
	mu    sync.Mutex
	state core.State
	path  string
}

var _ storage.Store = (*Store)(nil)

// New returns a store seeded with a copy of initial.
func New(initial core.State) *Store {
	return &Store{state: initial.Clone()}
}

// NewFromFile loads the state saved at path, or starts empty when the file
// does not exist yet. Every change is written back to path.
func NewFromFile(path string) (*Store, error) {
	st, err := readState(path)
	if err != nil {
		return nil, err
	}
	return &Store{path: path, state: st}, nil
}

// Reload replaces the in-memory state with the backing file, picking up
// changes written by another process. Stores without a file keep their state.
func (s *Store) Reload() error {
	if s.path == "" {
		return nil
	}
	st, err := readState(s.path)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = st
	return nil
}

func readState(path string) (core.State, error) {
	st := core.State{Settings: core.Settings{ShowRecurringInMonthly: true}}
	b, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return st, nil
	}
	if err != nil {
		return core.State{}, fmt.Errorf("read state file: %w", err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return st, nil
	}
	if err := json.Unmarshal(b, &st); err != nil {
		return core.State{}, fmt.Errorf("decode state file %s: %w", path, err)
	}
	return st, nil
}

func (s *Store) Load(_ context.Context) (core.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone(), nil
}

func (s *Store) SaveSettings(_ context.Context, settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.state.Settings
	s.state.Settings = settings
	s.state.TimelineCollapsedMonths = append([]string{}, settings.TimelineCollapsedMonths...)
	if err := s.flush(); err != nil {
		s.state.Settings = prev
		return err
	}
	return nil
}

func (s *Store) ListEntries(_ context.Context) ([]core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone().Entries, nil
}

func (s *Store) GetEntry(_ context.Context, id string) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return core.Entry{}, fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return s.state.Entries[i].Clone(), nil
}

func (s *Store) CreateEntry(_ context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.index(e.ID) >= 0 {
		return fmt.Errorf("entry %s already exists", e.ID)
	}
	return s.mutate(func(st *core.State) {
		st.Entries = append(st.Entries, e.Clone())
	})
}

func (s *Store) UpdateEntry(_ context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(e.ID)
	if i < 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, e.ID)
	}
	return s.mutate(func(st *core.State) {
		st.Entries[i] = e.Clone()
	})
}

func (s *Store) DeleteEntry(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
	}
	return s.mutate(func(st *core.State) {
		st.Entries = append(st.Entries[:i], st.Entries[i+1:]...)
	})
}

func (s *Store) ClearEntries(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := len(s.state.Entries)
	err := s.mutate(func(st *core.State) {
		st.Entries = []core.Entry{}
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *Store) SetUIOrder(_ context.Context, orders map[string]int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range orders {
		if s.index(id) < 0 {
			return fmt.Errorf("%w: %s", storage.ErrNotFound, id)
		}
	}
	return s.mutate(func(st *core.State) {
		for i := range st.Entries {
			if order, ok := orders[st.Entries[i].ID]; ok {
				st.Entries[i].UIOrder = &order
			}
		}
	})
}

func (s *Store) Close() error { return nil }

// mutate applies fn to a copy of the state and keeps it only once it has
// been written out. Callers hold mu.
func (s *Store) mutate(fn func(*core.State)) error {
	prev := s.state
	next := s.state.Clone()
	fn(&next)
	s.state = next
	if err := s.flush(); err != nil {
		s.state = prev
		return err
	}
	return nil
}

// flush writes the state to the backing file via a temp file and rename.
func (s *Store) flush() error {
	if s.path == "" {
		return nil
	}
	var buf bytes.Buffer
	if err := s.state.Export(&buf); err != nil {
		return fmt.Errorf("encode state: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create state directory: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".zandaka-*.json")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close state file: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}

func (s *Store) index(id string) int {
	for i, e := range s.state.Entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}
