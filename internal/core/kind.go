package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags what a ledger entry represents.
type Kind string

const (
	KindIncome      Kind = "income"
	KindExpense     Kind = "expense"
	KindFutureSmall Kind = "future-small"
	KindFutureLarge Kind = "future-large"
	KindSnapshot    Kind = "snapshot"
)

// Kinds lists every valid kind.
var Kinds = []Kind{KindIncome, KindExpense, KindFutureSmall, KindFutureLarge, KindSnapshot}

// ParseKind returns the Kind named by s.
func ParseKind(s string) (Kind, error) {
	k := Kind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
	return k, nil
}

// Valid reports whether k is one of the known kinds.
func (k Kind) Valid() bool {
	switch k {
	case KindIncome, KindExpense, KindFutureSmall, KindFutureLarge, KindSnapshot:
		return true
	default:
		return false
	}
}

// AffectsBalance reports whether entries of this kind move the projected
// running balance. Planned expenses and snapshots never do.
func (k Kind) AffectsBalance() bool {
	switch k {
	case KindIncome, KindExpense:
		return true
	case KindFutureSmall, KindFutureLarge, KindSnapshot:
		return false
	default:
		panic(fmt.Sprintf("unknown kind %q", string(k)))
	}
}

// IsPlanned reports whether k is a planned (memo) expense.
func (k Kind) IsPlanned() bool {
	switch k {
	case KindFutureSmall, KindFutureLarge:
		return true
	case KindIncome, KindExpense, KindSnapshot:
		return false
	default:
		panic(fmt.Sprintf("unknown kind %q", string(k)))
	}
}

// Sign is +1 for inflows, -1 for outflows and 0 for snapshots, which
// override the balance instead of moving it.
func (k Kind) Sign() int64 {
	switch k {
	case KindIncome:
		return 1
	case KindExpense, KindFutureSmall, KindFutureLarge:
		return -1
	case KindSnapshot:
		return 0
	default:
		panic(fmt.Sprintf("unknown kind %q", string(k)))
	}
}

func (k Kind) String() string { return string(k) }

// UnmarshalJSON rejects unknown kinds.
func (k *Kind) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseKind(s)
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}
