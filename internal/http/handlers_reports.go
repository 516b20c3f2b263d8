package http

import (
	"net/http"
)

// handleMonthReport serves one month's aggregation, cached per user+month.
func (s *Server) handleMonthReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	month, err := parseYearMonth(r)
	if err != nil {
		s.fail(w, r, "Month report failed", err)
		return
	}
	report, err := s.getMonthReport(r.Context(), userID(r), month)
	if err != nil {
		s.fail(w, r, "Month report failed", err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// handleMonthsReport serves the whole per-month series, oldest first.
func (s *Server) handleMonthsReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	months, err := s.reports.Months(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, "Months report failed", err)
		return
	}
	writeJSON(w, http.StatusOK, months)
}

// handleBalancesReport serves the end-of-day balance series, narrowed by
// from, to, and accounts query parameters.
func (s *Server) handleBalancesReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		s.fail(w, r, "Balances report failed", err)
		return
	}
	snaps, err := s.reports.Balances(r.Context(), userID(r), f)
	if err != nil {
		s.fail(w, r, "Balances report failed", err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

// handleBudgetsReport serves budget progress rows for one month.
func (s *Server) handleBudgetsReport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	month, err := parseYearMonth(r)
	if err != nil {
		s.fail(w, r, "Budgets report failed", err)
		return
	}
	budgets, err := s.reports.Budgets(r.Context(), userID(r), month)
	if err != nil {
		s.fail(w, r, "Budgets report failed", err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}
