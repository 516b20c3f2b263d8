package http

import (
	"net/http"

	"conti/internal/core"
	"conti/internal/log"
)

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listCategories(w, r)
	case http.MethodPost:
		s.createCategory(w, r)
	case http.MethodDelete:
		s.deleteCategory(w, r)
	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) listCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.ledger.ListCategories(r.Context(), userID(r))
	if err != nil {
		s.fail(w, r, "List categories failed", err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) createCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := decodeInto(r, &c); err != nil {
		s.fail(w, r, "Create category failed", err)
		return
	}
	c.ID = 0
	c.UserID = userID(r)
	c.Name = sanitizeInput(c.Name)

	created, err := s.ledger.CreateCategory(r.Context(), c)
	if err != nil {
		s.fail(w, r, "Create category failed", err)
		return
	}

	s.logger.InfoContext(r.Context(), "Category created",
		log.FieldCategoryID, created.ID,
		log.FieldUserID, created.UserID,
		log.FieldOperation, log.OpCreate)
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) deleteCategory(w http.ResponseWriter, r *http.Request) {
	id, err := decodeID(r)
	if err != nil {
		s.fail(w, r, "Delete category failed", err)
		return
	}
	uid := userID(r)
	if err := s.ledger.DeleteCategory(r.Context(), uid, id); err != nil {
		s.fail(w, r, "Delete category failed", err)
		return
	}
	// Cached month reports carry this category's name and rows.
	s.invalidateAll()

	s.logger.InfoContext(r.Context(), "Category deleted",
		log.FieldCategoryID, id,
		log.FieldUserID, uid,
		log.FieldOperation, log.OpDelete)
	w.WriteHeader(http.StatusNoContent)
}
