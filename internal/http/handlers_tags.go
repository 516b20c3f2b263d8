package http

import (
	"net/http"

	"conti/internal/core"
	"conti/internal/log"
)

func (s *Server) handleTags(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listTags(w, r)
	case http.MethodPost:
		s.createTag(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listTags(w http.ResponseWriter, r *http.Request) {
	tags, err := s.ledger.ListTags(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, "List tags failed", err)
		return
	}
	writeJSON(w, http.StatusOK, tags)
}

func (s *Server) createTag(w http.ResponseWriter, r *http.Request) {
	var t core.Tag
	if err := decodeInto(r, &t); err != nil {
		s.fail(w, r, "Create tag failed", err)
		return
	}
	t.ID = 0
	t.UserID = userID(r)
	t.Name = sanitizeInput(t.Name)
	t.Color = sanitizeInput(t.Color)

	created, err := s.ledger.CreateTag(r.Context(), t)
	if err != nil {
		s.fail(w, r, "Create tag failed", err)
		return
	}

	s.logger.InfoContext(r.Context(), "Tag created",
		"tag_id", created.ID,
		log.FieldUserID, created.UserID,
		log.FieldOperation, log.OpCreate)
	writeJSON(w, http.StatusCreated, created)
}
