package http

import (
	"net/http"
	"time"

	"conti/internal/core"
	"conti/internal/log"
)

func (s *Server) handleRecurring(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listRecurring(w, r)
	case http.MethodPost:
		s.createRecurring(w, r)
	case http.MethodDelete:
		s.deleteRecurring(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listRecurring(w http.ResponseWriter, r *http.Request) {
	templates, err := s.ledger.ListRecurring(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, "List recurring failed", err)
		return
	}
	writeJSON(w, http.StatusOK, templates)
}

// recurringRequest shadows Active with a pointer so an absent field can
// default to true. A template someone bothers to create should run;
// pausing is the explicit choice.
type recurringRequest struct {
	core.RecurringTransaction
	Active *bool `json:"active"`
}

func (s *Server) createRecurring(w http.ResponseWriter, r *http.Request) {
	var req recurringRequest
	if err := decodeInto(r, &req); err != nil {
		s.fail(w, r, "Create recurring failed", err)
		return
	}
	rec := req.RecurringTransaction
	rec.Active = true
	if req.Active != nil {
		rec.Active = *req.Active
	}
	rec.ID = 0
	rec.UserID = userID(r)
	rec.Description = sanitizeInput(rec.Description)
	// The application clock belongs to the worker, not the client.
	rec.LastApplied = time.Time{}
	rec.CreatedAt = time.Time{}
	if rec.StartDate.IsZero() {
		rec.StartDate = core.Today()
	}

	created, err := s.ledger.CreateRecurring(r.Context(), rec)
	if err != nil {
		s.fail(w, r, "Create recurring failed", err)
		return
	}

	s.logger.InfoContext(r.Context(), "Recurring template created",
		"recurring_id", created.ID,
		log.FieldUserID, created.UserID,
		"frequency", created.Frequency,
		log.FieldAmount, created.Amount.String(),
		log.FieldOperation, log.OpCreate)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteRecurring(w http.ResponseWriter, r *http.Request) {
	id, err := decodeID(r)
	if err != nil {
		s.fail(w, r, "Delete recurring failed", err)
		return
	}
	uid := userID(r)
	if err := s.ledger.DeleteRecurring(r.Context(), uid, id); err != nil {
		s.fail(w, r, "Delete recurring failed", err)
		return
	}

	s.logger.InfoContext(r.Context(), "Recurring template deleted",
		"recurring_id", id,
		log.FieldUserID, uid,
		log.FieldOperation, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}
