// Package core provides the ledger domain types and the money helpers.
//
// This file contains the lenient amount conversion used for user input and
// persisted state, and yen formatting for display.
package core

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/Rhymond/go-money"
)

// ToInt converts a user-typed amount to whole yen. Every rune other than an
// ASCII digit or '-' is dropped ("¥1,200" -> 1200, "1.5" -> 15); empty or
// unparsable input yields 0. It never fails.
//
// Examples:
//
//	ToInt("300,000") -> 300000
//	ToInt(" ¥-500 ") -> -500
//	ToInt("12-3")    -> 0
func ToInt(s string) int64 {
	cleaned := strings.Map(func(r rune) rune {
		if r == '-' || (r < unicode.MaxASCII && unicode.IsDigit(r)) {
			return r
		}
		return -1
	}, s)
	if cleaned == "" {
		return 0
	}
	n, err := strconv.ParseInt(cleaned, 10, 64)
	if err != nil {
		return 0
	}
	return n
}

// AmountFromJSON decodes an amount stored either as a JSON number or as a
// string; anything else is 0.
func AmountFromJSON(raw json.RawMessage) int64 {
	if len(raw) == 0 || string(raw) == "null" {
		return 0
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxInt64/2 {
			return 0
		}
		return int64(math.Round(f))
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return ToInt(s)
	}
	return 0
}

// FormatYen renders whole yen with the JPY grapheme and thousands
// separators, e.g. "¥300,000".
func FormatYen(amount int64) string {
	return money.New(amount, money.JPY).Display()
}
