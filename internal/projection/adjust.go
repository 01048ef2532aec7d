// Package projection expands ledger entries into dated occurrences and
// projects running balances over a window.
//
// This file implements the business-day adjustment strategies applied to
// recurring occurrences. Each entry kind maps to one policy: income moves
// back to the previous business day, everything else moves forward.
package projection

import (
	"fmt"

	"zandaka/internal/core"
	"zandaka/internal/holiday"
)

// AdjustmentPolicy moves a date onto a business day.
type AdjustmentPolicy interface {
	// Adjust returns the business day d resolves to. Holiday sets are
	// looked up in cal for every year the search touches.
	Adjust(d core.Date, cal holiday.Calendar) core.Date
}

// BackwardPolicy shifts to the nearest earlier business day, crossing month
// and year boundaries as needed.
type BackwardPolicy struct{}

func (BackwardPolicy) Adjust(d core.Date, cal holiday.Calendar) core.Date {
	return step(d, -1, cal)
}

// ForwardPolicy shifts to the nearest later business day.
type ForwardPolicy struct{}

func (ForwardPolicy) Adjust(d core.Date, cal holiday.Calendar) core.Date {
	return step(d, 1, cal)
}

// NoAdjustment keeps the date as is.
type NoAdjustment struct{}

func (NoAdjustment) Adjust(d core.Date, _ holiday.Calendar) core.Date { return d }

// step walks by dir days until a business day. Every year has business
// days, so the walk terminates.
func step(d core.Date, dir int, cal holiday.Calendar) core.Date {
	for !holiday.IsBusinessDay(d, cal.Holidays(d.Year())) {
		d = d.AddDays(dir)
	}
	return d
}

// PolicyFor returns the default adjustment policy of a kind.
func PolicyFor(k core.Kind) AdjustmentPolicy {
	switch k {
	case core.KindIncome:
		return BackwardPolicy{}
	case core.KindExpense, core.KindFutureSmall, core.KindFutureLarge, core.KindSnapshot:
		return ForwardPolicy{}
	default:
		panic(fmt.Sprintf("unknown kind %q", string(k)))
	}
}

// Policies overrides the default policy for selected kinds.
type Policies map[core.Kind]AdjustmentPolicy

// For returns the override for k, or PolicyFor(k).
func (p Policies) For(k core.Kind) AdjustmentPolicy {
	if policy, ok := p[k]; ok && policy != nil {
		return policy
	}
	return PolicyFor(k)
}
