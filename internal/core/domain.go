package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

type (
	// Entry is a user-defined cash movement. Recurring entries repeat
	// monthly on the day-of-month of Date until EndDate (inclusive).
	Entry struct {
		ID        string `json:"id"`
		Date      Date   `json:"date"`
		Kind      Kind   `json:"kind"`
		Amount    int64  `json:"amount"`
		Note      string `json:"note"`
		Recurring bool   `json:"recurring"`
		EndDate   *Date  `json:"endDate"`
		UIOrder   *int   `json:"uiOrder,omitempty"`
	}

	// EntryParams holds the user-supplied fields of a new entry.
	EntryParams struct {
		Date      Date
		Kind      Kind
		Amount    int64
		Note      string
		Recurring bool
		EndDate   *Date
	}

	// EntryPatch holds optional field updates for an existing entry.
	// A non-nil EndDate pointing to the zero date clears the end date.
	EntryPatch struct {
		Date      *Date
		Kind      *Kind
		Amount    *int64
		Note      *string
		Recurring *bool
		EndDate   *Date
	}

	// Occurrence is one concrete dated instance of an entry inside a query
	// window. Generated marks instances materialized from a recurring entry.
	Occurrence struct {
		Entry
		Generated bool `json:"generated,omitempty"`
	}

	// Day groups the occurrences of one date with the balance after them.
	Day struct {
		Date         Date         `json:"date"`
		Items        []Occurrence `json:"items"`
		BalanceAfter int64        `json:"balanceAfter"`
	}

	// MonthSummary aggregates one YYYY-MM month.
	MonthSummary struct {
		Month      string `json:"month"`
		Income     int64  `json:"income"`
		Expense    int64  `json:"expense"`
		EndBalance int64  `json:"endBalance"`
	}

	// Base is the known balance the projection starts from.
	Base struct {
		Date   *Date `json:"date"`
		Amount int64 `json:"amount"`
	}

	// Projection is the day-indexed and month-indexed balance forecast.
	Projection struct {
		Base    Base           `json:"base"`
		Days    []Day          `json:"days"`
		Monthly []MonthSummary `json:"monthly"`
	}
)

var (
	ErrMissingID               = errors.New("missing entry id")
	ErrUnknownEntry            = errors.New("unknown entry")
	ErrMissingDate             = errors.New("missing date")
	ErrUnknownKind             = errors.New("unknown kind")
	ErrNegativeAmount          = errors.New("amount must not be negative")
	ErrRecurringPlanned        = errors.New("large planned expenses cannot recur")
	ErrEndDateWithoutRecurring = errors.New("end date requires a recurring entry")
	ErrEndBeforeStart          = errors.New("end date must not be before the entry date")
	ErrNoteTooLong             = errors.New("note too long (max 500 characters)")
)

const maxNoteLength = 500

// NewEntry validates params and returns an entry with a fresh ID.
func NewEntry(p EntryParams) (Entry, error) {
	e := Entry{
		ID:        uuid.NewString(),
		Date:      p.Date,
		Kind:      p.Kind,
		Amount:    p.Amount,
		Note:      strings.TrimSpace(p.Note),
		Recurring: p.Recurring,
		EndDate:   normalizeEndDate(p.EndDate),
	}
	if err := e.Validate(); err != nil {
		return Entry{}, err
	}
	return e, nil
}

// Validate checks the entry invariants.
func (e Entry) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrMissingID
	}
	if !e.Kind.Valid() {
		return fmt.Errorf("%w: %q", ErrUnknownKind, string(e.Kind))
	}
	// Planned expenses may be noted down before their date is known.
	if e.Date.IsZero() && !e.Kind.IsPlanned() {
		return ErrMissingDate
	}
	if e.Amount < 0 {
		return ErrNegativeAmount
	}
	if len(e.Note) > maxNoteLength {
		return ErrNoteTooLong
	}
	if e.Kind == KindFutureLarge && e.Recurring {
		return ErrRecurringPlanned
	}
	if e.Recurring && e.Date.IsZero() {
		return ErrMissingDate
	}
	if e.EndDate != nil {
		if !e.Recurring {
			return ErrEndDateWithoutRecurring
		}
		if e.EndDate.Before(e.Date) {
			return ErrEndBeforeStart
		}
	}
	return nil
}

// Clone returns a deep copy of the entry.
func (e Entry) Clone() Entry {
	c := e
	if e.EndDate != nil {
		end := *e.EndDate
		c.EndDate = &end
	}
	if e.UIOrder != nil {
		order := *e.UIOrder
		c.UIOrder = &order
	}
	return c
}

// Apply returns a validated copy of e with the patch applied. Turning
// recurrence off drops the end date.
func (p EntryPatch) Apply(e Entry) (Entry, error) {
	out := e.Clone()
	if p.Date != nil {
		out.Date = *p.Date
	}
	if p.Kind != nil {
		out.Kind = *p.Kind
	}
	if p.Amount != nil {
		out.Amount = *p.Amount
	}
	if p.Note != nil {
		out.Note = strings.TrimSpace(*p.Note)
	}
	if p.Recurring != nil {
		out.Recurring = *p.Recurring
	}
	if p.EndDate != nil {
		out.EndDate = normalizeEndDate(p.EndDate)
	}
	if !out.Recurring {
		out.EndDate = nil
	}
	if err := out.Validate(); err != nil {
		return Entry{}, err
	}
	return out, nil
}

// OccurrenceOf copies e onto the given date.
func OccurrenceOf(e Entry, on Date, generated bool) Occurrence {
	c := e.Clone()
	c.Date = on
	return Occurrence{Entry: c, Generated: generated}
}

func normalizeEndDate(d *Date) *Date {
	if d == nil || d.IsZero() {
		return nil
	}
	end := *d
	return &end
}
