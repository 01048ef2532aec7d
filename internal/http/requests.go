package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"zandaka/internal/core"
)

// errInvalidInput marks request values that parse as JSON but are not
// acceptable; it maps to 422.
var errInvalidInput = errors.New("invalid input")

// entryRequest is the body of entry create and update calls. Amount may be a
// number or a string such as "300,000". EndDate is raw so that an absent
// field can be told apart from null.
type entryRequest struct {
	Date      *string         `json:"date"`
	Kind      *string         `json:"kind"`
	Amount    json.RawMessage `json:"amount"`
	Note      *string         `json:"note"`
	Recurring *bool           `json:"recurring"`
	EndDate   json.RawMessage `json:"endDate"`
}

type settingsRequest struct {
	BaseDate                *string         `json:"baseDate"`
	BaseAmount              json.RawMessage `json:"baseAmount"`
	RangeStart              *string         `json:"rangeStart"`
	RangeEnd                *string         `json:"rangeEnd"`
	Lang                    *string         `json:"lang"`
	ShowRecurringInMonthly  *bool           `json:"showRecurringInMonthly"`
	TimelineCollapsedMonths []string        `json:"timelineCollapsedMonths"`
}

type reorderRequest struct {
	IDs []string `json:"ids"`
}

// decodeJSON reads a size-limited JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return errors.New("empty request body")
	}
	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("malformed JSON: %w", err)
	}
	return nil
}

// optionalDate parses s; "" is the zero date.
func optionalDate(field, s string) (core.Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return core.Date{}, nil
	}
	d, err := core.ParseDate(s)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %s: %v", errInvalidInput, field, err)
	}
	return d, nil
}

// rawEndDate decodes an endDate field. present is false when the field was
// absent; a null or "" value yields the zero date.
func rawEndDate(raw json.RawMessage) (d core.Date, present bool, err error) {
	if len(raw) == 0 {
		return core.Date{}, false, nil
	}
	if string(raw) == "null" {
		return core.Date{}, true, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return core.Date{}, true, fmt.Errorf("%w: endDate must be a string or null", errInvalidInput)
	}
	d, err = optionalDate("endDate", s)
	return d, true, err
}

func (req entryRequest) params() (core.EntryParams, error) {
	var p core.EntryParams
	if req.Kind == nil {
		return p, fmt.Errorf("%w: kind is required", errInvalidInput)
	}
	kind, err := core.ParseKind(*req.Kind)
	if err != nil {
		return p, err
	}
	p.Kind = kind
	if req.Date != nil {
		if p.Date, err = optionalDate("date", *req.Date); err != nil {
			return p, err
		}
	}
	p.Amount = core.AmountFromJSON(req.Amount)
	if req.Note != nil {
		p.Note = *req.Note
	}
	if req.Recurring != nil {
		p.Recurring = *req.Recurring
	}
	end, present, err := rawEndDate(req.EndDate)
	if err != nil {
		return p, err
	}
	if present && !end.IsZero() {
		p.EndDate = &end
	}
	return p, nil
}

func (req entryRequest) patch() (core.EntryPatch, error) {
	var p core.EntryPatch
	if req.Date != nil {
		d, err := optionalDate("date", *req.Date)
		if err != nil {
			return p, err
		}
		p.Date = &d
	}
	if req.Kind != nil {
		k, err := core.ParseKind(*req.Kind)
		if err != nil {
			return p, err
		}
		p.Kind = &k
	}
	if len(req.Amount) > 0 {
		amount := core.AmountFromJSON(req.Amount)
		p.Amount = &amount
	}
	p.Note = req.Note
	p.Recurring = req.Recurring
	end, present, err := rawEndDate(req.EndDate)
	if err != nil {
		return p, err
	}
	if present {
		// The zero date clears the end date.
		p.EndDate = &end
	}
	return p, nil
}

func (req settingsRequest) patch() (core.SettingsPatch, error) {
	var p core.SettingsPatch
	dates := []struct {
		name string
		in   *string
		out  **core.Date
	}{
		{"baseDate", req.BaseDate, &p.BaseDate},
		{"rangeStart", req.RangeStart, &p.RangeStart},
		{"rangeEnd", req.RangeEnd, &p.RangeEnd},
	}
	for _, f := range dates {
		if f.in == nil {
			continue
		}
		d, err := optionalDate(f.name, *f.in)
		if err != nil {
			return p, err
		}
		if d.IsZero() {
			return p, fmt.Errorf("%w: %s must not be empty", errInvalidInput, f.name)
		}
		*f.out = &d
	}
	if len(req.BaseAmount) > 0 {
		amount := core.AmountFromJSON(req.BaseAmount)
		p.BaseAmount = &amount
	}
	if req.Lang != nil {
		lang := strings.TrimSpace(*req.Lang)
		if lang == "" {
			return p, fmt.Errorf("%w: lang must not be empty", errInvalidInput)
		}
		p.Lang = &lang
	}
	p.ShowRecurringInMonthly = req.ShowRecurringInMonthly
	p.TimelineCollapsedMonths = req.TimelineCollapsedMonths
	return p, nil
}
