package http

import (
	"net/http"

	"conti/internal/core"
	"conti/internal/log"
)

func (s *Server) handleAccounts(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listAccounts(w, r)
	case http.MethodPost:
		s.createAccount(w, r)
	case http.MethodDelete:
		s.deleteAccount(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// listAccounts returns every account with its balance as of today.
func (s *Server) listAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.reports.Accounts(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, "List accounts failed", err)
		return
	}
	writeJSON(w, http.StatusOK, accounts)
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request) {
	var a core.Account
	if err := decodeInto(r, &a); err != nil {
		s.fail(w, r, "Create account failed", err)
		return
	}
	a.ID = 0
	a.UserID = userID(r)
	a.Name = sanitizeInput(a.Name)
	a.Institution = sanitizeInput(a.Institution)

	created, err := s.ledger.CreateAccount(r.Context(), a)
	if err != nil {
		s.fail(w, r, "Create account failed", err)
		return
	}

	s.logger.InfoContext(r.Context(), "Account created",
		log.FieldAccountID, created.ID,
		log.FieldUserID, created.UserID,
		"account_type", created.Type,
		log.FieldOperation, log.OpCreate)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteAccount(w http.ResponseWriter, r *http.Request) {
	id, err := decodeID(r)
	if err != nil {
		s.fail(w, r, "Delete account failed", err)
		return
	}
	uid := userID(r)
	if err := s.ledger.DeleteAccount(r.Context(), uid, id); err != nil {
		s.fail(w, r, "Delete account failed", err)
		return
	}
	// The cascade can remove transactions from any month.
	s.invalidateAll()

	s.logger.InfoContext(r.Context(), "Account deleted",
		log.FieldAccountID, id,
		log.FieldUserID, uid,
		log.FieldOperation, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}
