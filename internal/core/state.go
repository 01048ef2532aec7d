package core

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"sort"
)

// DefaultLang is the display language of a fresh state.
const DefaultLang = "ja"

type (
	// Settings is the non-entry part of the persisted state.
	Settings struct {
		BaseDate                Date     `json:"baseDate"`
		BaseAmount              int64    `json:"baseAmount"`
		RangeStart              Date     `json:"rangeStart"`
		RangeEnd                Date     `json:"rangeEnd"`
		Lang                    string   `json:"lang"`
		ShowRecurringInMonthly  bool     `json:"showRecurringInMonthly"`
		TimelineCollapsedMonths []string `json:"timelineCollapsedMonths"`
	}

	// State is the caller-owned working set: settings plus every entry.
	// It is the unit persisted by storage and exported by the API.
	State struct {
		Settings
		Entries []Entry `json:"entries"`
	}

	// SettingsPatch holds optional settings updates.
	SettingsPatch struct {
		BaseDate                *Date
		BaseAmount              *int64
		RangeStart              *Date
		RangeEnd                *Date
		Lang                    *string
		ShowRecurringInMonthly  *bool
		TimelineCollapsedMonths []string
	}
)

// Apply returns s with the patch applied.
func (p SettingsPatch) Apply(s Settings) Settings {
	if p.BaseDate != nil {
		s.BaseDate = *p.BaseDate
	}
	if p.BaseAmount != nil {
		s.BaseAmount = *p.BaseAmount
	}
	if p.RangeStart != nil {
		s.RangeStart = *p.RangeStart
	}
	if p.RangeEnd != nil {
		s.RangeEnd = *p.RangeEnd
	}
	if p.Lang != nil {
		s.Lang = *p.Lang
	}
	if p.ShowRecurringInMonthly != nil {
		s.ShowRecurringInMonthly = *p.ShowRecurringInMonthly
	}
	if p.TimelineCollapsedMonths != nil {
		s.TimelineCollapsedMonths = append([]string{}, p.TimelineCollapsedMonths...)
	}
	return s
}

// DefaultSettings returns the settings of a fresh state: balance and range
// start today, range end two months later.
func DefaultSettings(today Date) Settings {
	s := Settings{ShowRecurringInMonthly: true}
	s.EnsureDefaults(today)
	return s
}

// EnsureDefaults fills unset settings.
func (s *Settings) EnsureDefaults(today Date) {
	if s.BaseDate.IsZero() {
		s.BaseDate = today
	}
	if s.RangeStart.IsZero() {
		s.RangeStart = today
	}
	if s.RangeEnd.IsZero() {
		s.RangeEnd = today.AddMonthsClamped(2)
	}
	if s.Lang == "" {
		s.Lang = DefaultLang
	}
	if s.TimelineCollapsedMonths == nil {
		s.TimelineCollapsedMonths = []string{}
	}
}

// EnsureDefaults fills unset settings and assigns missing UI orders.
func (s *State) EnsureDefaults(today Date) {
	s.Settings.EnsureDefaults(today)
	if s.Entries == nil {
		s.Entries = []Entry{}
	}
	s.EnsureUIOrder()
}

// EnsureUIOrder gives every entry lacking a UI order the next free value,
// in (date, kind) order. Existing orders are never reused or changed.
func (s *State) EnsureUIOrder() {
	next := NextUIOrder(s.Entries)
	var need []int
	for i, e := range s.Entries {
		if e.UIOrder == nil {
			need = append(need, i)
		}
	}
	sort.SliceStable(need, func(a, b int) bool {
		ea, eb := s.Entries[need[a]], s.Entries[need[b]]
		if c := CompareDates(ea.Date, eb.Date); c != 0 {
			return c < 0
		}
		return ea.Kind < eb.Kind
	})
	for _, i := range need {
		order := next
		s.Entries[i].UIOrder = &order
		next++
	}
}

// NextUIOrder returns one more than the highest UI order in entries, or 0.
func NextUIOrder(entries []Entry) int {
	highest := -1
	for _, e := range entries {
		if e.UIOrder != nil && *e.UIOrder > highest {
			highest = *e.UIOrder
		}
	}
	return highest + 1
}

// SortEntries returns a copy of entries ordered by UI order; entries without
// one come last. Ties keep their input order.
func SortEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	for i, e := range entries {
		out[i] = e.Clone()
	}
	sort.SliceStable(out, func(a, b int) bool {
		return uiOrderOf(out[a]) < uiOrderOf(out[b])
	})
	return out
}

func uiOrderOf(e Entry) int {
	if e.UIOrder == nil {
		return math.MaxInt
	}
	return *e.UIOrder
}

// Reorder returns the UI orders that place ids first, in the given order,
// followed by the remaining entries in their current order.
func Reorder(entries []Entry, ids []string) (map[string]int, error) {
	known := make(map[string]bool, len(entries))
	for _, e := range entries {
		known[e.ID] = true
	}
	orders := make(map[string]int, len(entries))
	next := 0
	for _, id := range ids {
		if !known[id] {
			return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, id)
		}
		if _, dup := orders[id]; dup {
			continue
		}
		orders[id] = next
		next++
	}
	for _, e := range SortEntries(entries) {
		if _, ok := orders[e.ID]; ok {
			continue
		}
		orders[e.ID] = next
		next++
	}
	return orders, nil
}

// Clone returns a deep copy of the state.
func (s State) Clone() State {
	c := s
	c.TimelineCollapsedMonths = append([]string(nil), s.TimelineCollapsedMonths...)
	if s.TimelineCollapsedMonths != nil && c.TimelineCollapsedMonths == nil {
		c.TimelineCollapsedMonths = []string{}
	}
	c.Entries = make([]Entry, len(s.Entries))
	for i, e := range s.Entries {
		c.Entries[i] = e.Clone()
	}
	return c
}

// Export writes the state as indented, human-readable JSON.
func (s State) Export(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(s)
}

// ExportFileName is the download name of an export made on the given day.
func ExportFileName(on Date) string {
	return fmt.Sprintf("zandaka-%s.json", on)
}

// UnmarshalJSON decodes a persisted state. Amounts may be numbers or
// strings, and a missing monthly toggle defaults to true.
func (s *State) UnmarshalJSON(b []byte) error {
	var raw struct {
		BaseDate                Date            `json:"baseDate"`
		BaseAmount              json.RawMessage `json:"baseAmount"`
		RangeStart              Date            `json:"rangeStart"`
		RangeEnd                Date            `json:"rangeEnd"`
		Lang                    string          `json:"lang"`
		ShowRecurringInMonthly  *bool           `json:"showRecurringInMonthly"`
		TimelineCollapsedMonths []string        `json:"timelineCollapsedMonths"`
		Entries                 []struct {
			ID        string          `json:"id"`
			Date      Date            `json:"date"`
			Kind      Kind            `json:"kind"`
			Amount    json.RawMessage `json:"amount"`
			Note      string          `json:"note"`
			Recurring bool            `json:"recurring"`
			EndDate   *Date           `json:"endDate"`
			UIOrder   *int            `json:"uiOrder"`
		} `json:"entries"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := State{Settings: Settings{
		BaseDate:                raw.BaseDate,
		BaseAmount:              AmountFromJSON(raw.BaseAmount),
		RangeStart:              raw.RangeStart,
		RangeEnd:                raw.RangeEnd,
		Lang:                    raw.Lang,
		ShowRecurringInMonthly:  raw.ShowRecurringInMonthly == nil || *raw.ShowRecurringInMonthly,
		TimelineCollapsedMonths: raw.TimelineCollapsedMonths,
	}}
	out.Entries = make([]Entry, 0, len(raw.Entries))
	for _, re := range raw.Entries {
		out.Entries = append(out.Entries, Entry{
			ID:        re.ID,
			Date:      re.Date,
			Kind:      re.Kind,
			Amount:    AmountFromJSON(re.Amount),
			Note:      re.Note,
			Recurring: re.Recurring,
			EndDate:   normalizeEndDate(re.EndDate),
			UIOrder:   re.UIOrder,
		})
	}
	*s = out
	return nil
}
