package http

import (
	"errors"
	"net/http"

	"tracker/internal/core"
	"tracker/internal/log"
)

// errorResponse is the body of every error reply.
type errorResponse struct {
	Detail string `json:"detail"`
}

// statusFor maps domain errors onto HTTP status codes. Anything
// unrecognized is a server error.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrValidation), errors.Is(err, core.ErrConflict):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError renders err as {"detail": ...}. Server errors are logged with
// the request's logger and never leak their text.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	detail := core.PublicMessage(err)

	switch status {
	case http.StatusUnauthorized:
		w.Header().Set("WWW-Authenticate", "Bearer")
	case http.StatusInternalServerError:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path,
			log.FieldMethod, r.Method,
			log.FieldError, err.Error(),
			log.FieldErrorType, log.ErrorTypeInternal)
		detail = "Internal server error"
	}
	writeJSON(w, status, errorResponse{Detail: detail})
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, errorResponse{Detail: detail})
}
