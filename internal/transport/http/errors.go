package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"mcq-contest-service/internal/domain"
)

type errorBody struct {
	Error   string       `json:"error"`
	Code    string       `json:"code"`
	Field   string       `json:"field,omitempty"`
	Attempt *attemptView `json:"attempt,omitempty"`
}

// statusFor maps domain outcomes onto HTTP status codes and stable codes.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, domain.ErrContestNotOpen):
		return http.StatusConflict, "contest_not_open"
	case errors.Is(err, domain.ErrAlreadySubmitted):
		return http.StatusConflict, "already_submitted"
	case errors.Is(err, domain.ErrExpired):
		return http.StatusGone, "expired"
	case errors.Is(err, domain.ErrValidationFailed):
		return http.StatusUnprocessableEntity, "validation_failed"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	s.writeErrorWith(w, r, err, nil)
}

// writeErrorWith reports err and, for attempt outcomes, the attempt as stored.
func (s *Server) writeErrorWith(w http.ResponseWriter, r *http.Request, err error, attempt *attemptView) {
	status, code := statusFor(err)
	body := errorBody{Error: err.Error(), Code: code, Attempt: attempt}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", requestFields(r, err)...)
		body.Error = "internal error"
	}
	var verr *domain.ValidationError
	if errors.As(err, &verr) {
		body.Field = verr.Field
	}
	writeJSON(w, status, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeBadRequest(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusBadRequest, errorBody{Error: msg, Code: "bad_request"})
}
