package http

import (
	"net/http"

	"conti/internal/core"
	"conti/internal/log"
)

func (s *Server) handleBudgets(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listBudgets(w, r)
	case http.MethodPost:
		s.createBudget(w, r)
	case http.MethodDelete:
		s.deleteBudget(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// listBudgets returns one month's budgets, or every budget when no month is
// given.
func (s *Server) listBudgets(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var month core.Date
	if q.Get("year") != "" || q.Get("month") != "" {
		m, err := parseYearMonth(r)
		if err != nil {
			s.fail(w, r, "List budgets failed", err)
			return
		}
		month = m
	}

	budgets, err := s.ledger.ListBudgets(r.Context(), userID(r), month)
	if err != nil {
		s.fail(w, r, "List budgets failed", err)
		return
	}
	writeJSON(w, http.StatusOK, budgets)
}

func (s *Server) createBudget(w http.ResponseWriter, r *http.Request) {
	var b core.Budget
	if err := decodeInto(r, &b); err != nil {
		s.fail(w, r, "Create budget failed", err)
		return
	}
	b.ID = 0
	b.UserID = userID(r)

	created, err := s.ledger.CreateBudget(r.Context(), b)
	if err != nil {
		s.fail(w, r, "Create budget failed", err)
		return
	}

	s.logger.InfoContext(r.Context(), "Budget created",
		"budget_id", created.ID,
		log.FieldCategoryID, created.CategoryID,
		log.FieldUserID, created.UserID,
		log.FieldOperation, log.OpCreate)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteBudget(w http.ResponseWriter, r *http.Request) {
	id, err := decodeID(r)
	if err != nil {
		s.fail(w, r, "Delete budget failed", err)
		return
	}
	uid := userID(r)
	if err := s.ledger.DeleteBudget(r.Context(), uid, id); err != nil {
		s.fail(w, r, "Delete budget failed", err)
		return
	}

	s.logger.InfoContext(r.Context(), "Budget deleted",
		"budget_id", id,
		log.FieldUserID, uid,
		log.FieldOperation, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}
