package http

import (
	"net/http"
	"sync/atomic"
	"time"

	"conti/internal/core"
	"conti/internal/log"
)

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTransactions(w, r)
	case http.MethodPost:
		s.createTransaction(w, r)
	case http.MethodDelete:
		s.deleteTransaction(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// listTransactions returns the display list: transfer pairs collapsed to
// one row each, filters applied to output only.
func (s *Server) listTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r)
	if err != nil {
		s.fail(w, r, "List transactions failed", err)
		return
	}
	txs, err := s.reports.Transactions(r.Context(), userID(r), f)
	if err != nil {
		s.fail(w, r, "List transactions failed", err)
		return
	}
	writeJSON(w, http.StatusOK, txs)
}

func (s *Server) createTransaction(w http.ResponseWriter, r *http.Request) {
	var tx core.Transaction
	if err := decodeInto(r, &tx); err != nil {
		s.fail(w, r, "Create transaction failed", err)
		return
	}
	// Identity and pairing are assigned by the store, never by the client.
	tx.ID = 0
	tx.UserID = userID(r)
	tx.TransferPairID = nil
	tx.CreatedAt = time.Time{}
	tx.Description = sanitizeInput(tx.Description)
	tx.Notes = sanitizeInput(tx.Notes)
	if tx.Date.IsZero() {
		tx.Date = core.Today()
	}

	created, err := s.ledger.CreateTransaction(r.Context(), tx)
	if err != nil {
		s.fail(w, r, "Create transaction failed", err)
		return
	}
	atomic.AddInt64(&s.metrics.transactionsCreated, 1)
	s.invalidateMonth(created.UserID, created.Date)

	s.logger.InfoContext(r.Context(), "Transaction created",
		log.FieldTransactionID, created.ID,
		log.FieldUserID, created.UserID,
		"transaction_type", created.Type,
		log.FieldAmount, created.Amount.String(),
		log.FieldOperation, log.OpCreate)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := decodeID(r)
	if err != nil {
		s.fail(w, r, "Delete transaction failed", err)
		return
	}
	uid := userID(r)
	if err := s.ledger.DeleteTransaction(r.Context(), uid, id); err != nil {
		s.fail(w, r, "Delete transaction failed", err)
		return
	}
	// The request carries only the id, so the affected month is unknown.
	s.invalidateAll()

	s.logger.InfoContext(r.Context(), "Transaction deleted",
		log.FieldTransactionID, id,
		log.FieldUserID, uid,
		log.FieldOperation, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}

// txTagRequest is the body of the tag attach and detach routes.
type txTagRequest struct {
	TransactionID int64 `json:"transaction_id"`
	TagID         int64 `json:"tag_id"`
}

func (s *Server) handleTransactionTags(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.attachTag(w, r)
	case http.MethodDelete:
		s.detachTag(w, r)
	default:
		w.Header().Set("Allow", "POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) attachTag(w http.ResponseWriter, r *http.Request) {
	var req txTagRequest
	if err := decodeInto(r, &req); err != nil {
		s.fail(w, r, "Attach tag failed", err)
		return
	}
	if err := s.ledger.TagTransaction(r.Context(), userID(r), req.TransactionID, req.TagID); err != nil {
		s.fail(w, r, "Attach tag failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) detachTag(w http.ResponseWriter, r *http.Request) {
	var req txTagRequest
	if err := decodeInto(r, &req); err != nil {
		s.fail(w, r, "Detach tag failed", err)
		return
	}
	if err := s.ledger.UntagTransaction(r.Context(), userID(r), req.TransactionID, req.TagID); err != nil {
		s.fail(w, r, "Detach tag failed", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
