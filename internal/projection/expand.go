package projection

import (
	"zandaka/internal/core"
	"zandaka/internal/holiday"
)

// Expand returns the occurrences of entries inside [start, end], in entry
// order. Recurring entries step forward one clamped month at a time from
// the previous unadjusted date, so a 31st anchor settles on the 29th after
// a leap February, up to their end date. Each instance is shifted to a
// business day by its kind's default policy. Entries without a date are
// skipped. A nil cal gets a fresh per-call cache.
func Expand(entries []core.Entry, start, end core.Date, cal holiday.Calendar) []core.Occurrence {
	return expand(entries, start, end, cal, nil)
}

func expand(entries []core.Entry, start, end core.Date, cal holiday.Calendar, policies Policies) []core.Occurrence {
	if cal == nil {
		cal = holiday.NewYearCache()
	}
	var out []core.Occurrence
	for _, e := range entries {
		if e.Date.IsZero() || !e.Kind.Valid() {
			continue
		}
		if !e.Recurring {
			// One-off entries land on the exact date the user picked.
			if e.Date.Between(start, end) {
				out = append(out, core.OccurrenceOf(e, e.Date, false))
			}
			continue
		}

		limit := end
		if e.EndDate != nil && e.EndDate.Before(limit) {
			limit = *e.EndDate
		}
		policy := policies.For(e.Kind)
		// Stepping uses the unadjusted date; the shift never moves the cadence.
		for cur := e.Date; !cur.After(limit); cur = cur.AddMonthsClamped(1) {
			adjusted := policy.Adjust(cur, cal)
			if adjusted.Between(start, end) {
				out = append(out, core.OccurrenceOf(e, adjusted, true))
			}
		}
	}
	return out
}
