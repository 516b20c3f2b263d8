package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"conti/internal/core"
	"conti/internal/ledger"
	"conti/internal/log"
)

// errorBody is the JSON shape of every non-2xx response.
type errorBody struct {
	Error string `json:"error"`
}

// writeJSON encodes v with the given status. An encoding failure cannot be
// reported to the client; headers are already out.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError sends the JSON error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// validationErrs are the domain rejections surfaced as 422s.
var validationErrs = []error{
	core.ErrInvalidAmount,
	core.ErrEmptyDescription,
	core.ErrDescriptionTooLong,
	core.ErrEmptyName,
	core.ErrNameTooLong,
	core.ErrInvalidAccountType,
	core.ErrInvalidType,
	core.ErrMissingDestination,
	core.ErrUnexpectedDestination,
	core.ErrSameAccount,
	core.ErrInvalidDate,
	core.ErrInvalidMonth,
	core.ErrMissingCategory,
	core.ErrInvalidFrequency,
}

// statusFor maps an error to its response status: malformed requests to 400,
// missing entities to 404, domain validation to 422, the rest to 500.
func statusFor(err error) int {
	switch {
	case errors.Is(err, errMalformedRequest):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return http.StatusNotFound
	default:
		for _, v := range validationErrs {
			if errors.Is(err, v) {
				return http.StatusUnprocessableEntity
			}
		}
		return http.StatusInternalServerError
	}
}

// fail logs the error and writes the mapped error response. Client errors
// carry the error text; server errors stay opaque.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, msg string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.ErrorContext(r.Context(), msg,
			log.FieldError, err,
			log.FieldRequestID, requestIDFrom(r.Context()),
			log.FieldPath, r.URL.Path)
		writeError(w, status, "internal error")
		return
	}
	s.logger.WarnContext(r.Context(), msg,
		log.FieldError, err,
		log.FieldRequestID, requestIDFrom(r.Context()),
		log.FieldPath, r.URL.Path)
	writeError(w, status, err.Error())
}
