package http

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"kharcha/internal/auth"
	"kharcha/internal/core"
	applog "kharcha/internal/log"
)

// parseFilter builds the query filter from URL parameters. Unknown enum
// values are caught by the service's filter validation.
func parseFilter(r *http.Request) (core.Filter, *core.ValidationError) {
	q := r.URL.Query()
	verr := &core.ValidationError{}

	f := core.Filter{
		Category: core.Category(strings.TrimSpace(q.Get("category"))),
		Mode:     core.PaymentMode(strings.TrimSpace(q.Get("mode"))),
		Search:   strings.TrimSpace(q.Get("search")),
		Sort:     core.SortOrder(strings.TrimSpace(q.Get("sort"))),
	}

	if v := strings.TrimSpace(q.Get("start_date")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			verr.Add("start_date", "date must be in YYYY-MM-DD format")
		} else {
			f.StartDate = t.UTC()
		}
	}
	if v := strings.TrimSpace(q.Get("end_date")); v != "" {
		t, err := time.Parse(dateLayout, v)
		if err != nil {
			verr.Add("end_date", "date must be in YYYY-MM-DD format")
		} else {
			f.EndDate = t.UTC()
		}
	}

	if !verr.Empty() {
		return core.Filter{}, verr
	}
	return f, nil
}

// parseYearMonth reads year and month query parameters, defaulting to the
// current calendar month.
func parseYearMonth(r *http.Request) (year, month int, verr *core.ValidationError) {
	now := time.Now()
	year = now.Year()
	month = int(now.Month())
	verr = &core.ValidationError{}

	q := r.URL.Query()
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			verr.Add("year", "year must be a number")
		} else {
			year = y
		}
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		m, err := strconv.Atoi(v)
		if err != nil {
			verr.Add("month", "month must be a number")
		} else {
			month = m
		}
	}

	if !verr.Empty() {
		return 0, 0, verr
	}
	return year, month, nil
}

func parseID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerFromContext(r.Context())

	f, verr := parseFilter(r)
	if verr != nil {
		respondError(w, r, verr)
		return
	}

	expenses, err := s.service.List(r.Context(), ownerID, f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "Expenses retrieved successfully", toExpenseList(expenses))
}

func (s *Server) handleMonthExpenses(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerFromContext(r.Context())

	year, month, verr := parseYearMonth(r)
	if verr != nil {
		respondError(w, r, verr)
		return
	}

	expenses, err := s.service.ListMonth(r.Context(), ownerID, year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, "Expenses retrieved successfully", toExpenseList(expenses))
}

func (s *Server) handleMonthSummary(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerFromContext(r.Context())

	year, month, verr := parseYearMonth(r)
	if verr != nil {
		respondError(w, r, verr)
		return
	}

	key := summaryKey(ownerID, year, month)
	if summary, found := s.summaryCache.Get(key); found {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Summary cache hit", "year", year, "month", month)
		respondJSON(w, http.StatusOK, "Summary retrieved successfully", toSummaryResponse(year, month, summary))
		return
	}

	summary, err := s.service.MonthSummary(r.Context(), ownerID, year, month)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.summaryCache.Set(key, summary)
	respondJSON(w, http.StatusOK, "Summary retrieved successfully", toSummaryResponse(year, month, summary))
}

func (s *Server) handleYearSeries(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerFromContext(r.Context())

	year := time.Now().Year()
	if v := strings.TrimSpace(r.URL.Query().Get("year")); v != "" {
		y, err := strconv.Atoi(v)
		if err != nil {
			verr := &core.ValidationError{}
			verr.Add("year", "year must be a number")
			respondError(w, r, verr)
			return
		}
		year = y
	}

	key := seriesKey(ownerID, year)
	if series, found := s.seriesCache.Get(key); found {
		applog.FromContext(r.Context()).DebugContext(r.Context(), "Series cache hit", "year", year)
		respondJSON(w, http.StatusOK, "Year series retrieved successfully", toSeriesResponse(year, series))
		return
	}

	series, err := s.service.YearSeries(r.Context(), ownerID, year)
	if err != nil {
		respondError(w, r, err)
		return
	}
	s.seriesCache.Set(key, series)
	respondJSON(w, http.StatusOK, "Year series retrieved successfully", toSeriesResponse(year, series))
}

// handleMeta lists the closed category and payment-mode sets so clients can
// render pickers without hardcoding them.
func (s *Server) handleMeta(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, "Metadata retrieved successfully", map[string]any{
		"categories":    core.Categories(),
		"payment_modes": core.PaymentModes(),
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerFromContext(r.Context())

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}

	draft, verr := req.toDraft()
	if verr != nil {
		respondError(w, r, verr)
		return
	}

	saved, err := s.service.Create(r.Context(), ownerID, draft)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidate(ownerID, saved.OccurredOn)
	respondJSON(w, http.StatusCreated, "Expense created successfully", toExpenseResponse(saved))
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerFromContext(r.Context())

	id, ok := parseID(r)
	if !ok {
		respondError(w, r, core.ErrNotFound)
		return
	}

	var req expenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondJSON(w, http.StatusBadRequest, "Invalid JSON body", nil)
		return
	}

	draft, verr := req.toDraft()
	if verr != nil {
		respondError(w, r, verr)
		return
	}

	// Look up the record first so the aggregates of its previous month are
	// invalidated when the date moves.
	previous, err := s.service.Get(r.Context(), ownerID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	updated, err := s.service.Update(r.Context(), ownerID, id, draft)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidate(ownerID, previous.OccurredOn)
	s.invalidate(ownerID, updated.OccurredOn)
	respondJSON(w, http.StatusOK, "Expense updated successfully", toExpenseResponse(updated))
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerFromContext(r.Context())

	id, ok := parseID(r)
	if !ok {
		respondError(w, r, core.ErrNotFound)
		return
	}

	existing, err := s.service.Get(r.Context(), ownerID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	if err := s.service.Delete(r.Context(), ownerID, id); err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidate(ownerID, existing.OccurredOn)
	respondJSON(w, http.StatusOK, "Expense deleted successfully", nil)
}

func (s *Server) handleDuplicateExpense(w http.ResponseWriter, r *http.Request) {
	ownerID := auth.OwnerFromContext(r.Context())

	id, ok := parseID(r)
	if !ok {
		respondError(w, r, core.ErrNotFound)
		return
	}

	copied, err := s.service.Duplicate(r.Context(), ownerID, id)
	if err != nil {
		respondError(w, r, err)
		return
	}

	s.invalidate(ownerID, copied.OccurredOn)
	respondJSON(w, http.StatusCreated, "Expense duplicated successfully", toExpenseResponse(copied))
}
