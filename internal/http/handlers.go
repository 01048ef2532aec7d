package http

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"zandaka/internal/core"
	"zandaka/internal/holiday"
	applog "zandaka/internal/log"
	"zandaka/internal/services"
	"zandaka/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

// validationErrors map to 422.
var validationErrors = []error{
	errInvalidInput,
	core.ErrMissingID,
	core.ErrMissingDate,
	core.ErrUnknownKind,
	core.ErrNegativeAmount,
	core.ErrRecurringPlanned,
	core.ErrEndDateWithoutRecurring,
	core.ErrEndBeforeStart,
	core.ErrNoteTooLong,
}

// statusFor maps service errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, core.ErrUnknownEntry):
		return http.StatusNotFound
	case errors.Is(err, services.ErrNotConfirmed):
		return http.StatusPreconditionRequired
	}
	for _, target := range validationErrors {
		if errors.Is(err, target) {
			return http.StatusUnprocessableEntity
		}
	}
	return http.StatusInternalServerError
}

// writeError writes err as JSON. Internal errors are logged and hidden.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, op string, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.events.LogError(r.Context(), "Request failed", err, applog.ComponentHTTP, op, nil)
		msg = "internal error"
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeBadRequest(w http.ResponseWriter, err error) {
	writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.State(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	st.Entries = core.SortEntries(st.Entries)
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req settingsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	settings, err := s.ledger.UpdateSettings(r.Context(), patch)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.ledger.Entries(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	params, err := req.params()
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	e, err := s.ledger.CreateEntry(r.Context(), params)
	if err != nil {
		s.writeError(w, r, applog.OpCreate, err)
		return
	}
	w.Header().Set("Location", "/api/entries/"+e.ID)
	writeJSON(w, http.StatusCreated, e)
}

func (s *Server) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var req entryRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	patch, err := req.patch()
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	e, err := s.ledger.UpdateEntry(r.Context(), id, patch)
	if err != nil {
		s.writeError(w, r, applog.OpUpdate, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

func (s *Server) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	if err := s.ledger.DeleteEntry(r.Context(), r.PathValue("id")); err != nil {
		s.writeError(w, r, applog.OpDelete, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearEntries deletes everything; it needs ?confirm=yes.
func (s *Server) handleClearEntries(w http.ResponseWriter, r *http.Request) {
	confirmed := strings.EqualFold(r.URL.Query().Get("confirm"), "yes")
	n, err := s.ledger.ClearEntries(r.Context(), confirmed)
	if err != nil {
		s.writeError(w, r, applog.OpClear, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"deleted": n})
}

func (s *Server) handleReorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeBadRequest(w, err)
		return
	}
	entries, err := s.ledger.Reorder(r.Context(), req.IDs)
	if err != nil {
		s.writeError(w, r, applog.OpReorder, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

func (s *Server) handleProjection(w http.ResponseWriter, r *http.Request) {
	report, err := s.projections.Compute(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpProject, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleHolidays lists the holidays of ?year=, defaulting to this year.
func (s *Server) handleHolidays(w http.ResponseWriter, r *http.Request) {
	year := s.today().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil || y < holiday.MinYear || y > holiday.MaxYear {
			writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
				Error: fmt.Sprintf("year must be a number between %d and %d", holiday.MinYear, holiday.MaxYear),
			})
			return
		}
		year = y
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"year":     year,
		"holidays": s.projections.Holidays(year),
	})
}

// handleExport downloads the state as an indented JSON file.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	st, err := s.ledger.State(r.Context())
	if err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	st.Entries = core.SortEntries(st.Entries)
	var buf bytes.Buffer
	if err := st.Export(&buf); err != nil {
		s.writeError(w, r, applog.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", core.ExportFileName(s.today())))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
