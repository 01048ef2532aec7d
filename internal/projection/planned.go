package projection

import (
	"sort"

	"zandaka/internal/core"
)

// PlannedSummary lists the planned expenses and their total.
type PlannedSummary struct {
	Items []core.Entry `json:"items"`
	Total int64        `json:"total"`
}

// Planned collects future-small and future-large entries, ordered by date
// (undated first) then kind. Planned expenses never affect a balance.
func Planned(entries []core.Entry) PlannedSummary {
	out := PlannedSummary{Items: []core.Entry{}}
	for _, e := range entries {
		if !e.Kind.Valid() || !e.Kind.IsPlanned() {
			continue
		}
		out.Items = append(out.Items, e.Clone())
		out.Total += e.Amount
	}
	sort.SliceStable(out.Items, func(a, b int) bool {
		ea, eb := out.Items[a], out.Items[b]
		if c := core.CompareDates(ea.Date, eb.Date); c != 0 {
			return c < 0
		}
		return ea.Kind < eb.Kind
	})
	return out
}
