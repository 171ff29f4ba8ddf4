package handlers

import (
	"encoding/json"
	"net/http"

	"good-morning-backend/internal/apperr"

	"github.com/rs/zerolog/log"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// MessageResponse is the body of mutations that return no resource
type MessageResponse struct {
	Message string `json:"message"`
}

var errInvalidBody = apperr.New(apperr.KindValidation, "INVALID_BODY", "Invalid request body")

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, message, code string, statusCode int) {
	respondJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// respondErr maps err to a status code. Unclassified errors are logged and
// reported as a generic internal error.
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	appErr, ok := apperr.As(err)
	if !ok {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Msg("Request failed")
		respondError(w, "Internal server error", "INTERNAL", http.StatusInternalServerError)
		return
	}

	status := appErr.Kind.Status()
	if status >= http.StatusInternalServerError {
		log.Error().
			Err(err).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("code", appErr.Code).
			Msg("Request failed")
	}
	respondError(w, appErr.Message, appErr.Code, status)
}

// decodeJSON reads the request body into dst
func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return apperr.Wrap(errInvalidBody, err)
	}
	return nil
}
