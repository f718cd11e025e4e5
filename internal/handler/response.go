package handler

// Every error response has the same shape:
//
//	{"error": "not_found", "message": "word not found with id 42"}
//
// and validation errors add the offending field:
//
//	{"error": "validation_error", "message": "word is required", "field": "word"}

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/lingoread/internal/apperror"
	"github.com/sakif/lingoread/internal/auth"
)

// maxBodyBytes caps every JSON request body.
const maxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// writeJSON sets headers, then the status, then encodes the body. Headers
// set after the first Write are ignored, hence the order.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("failed to encode JSON response", slog.String("error", err.Error()))
		}
	}
}

// errorStatus maps a domain error to its HTTP status and machine-readable
// code.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, apperror.ErrValidation):
		return http.StatusBadRequest, "validation_error"
	case errors.Is(err, apperror.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, apperror.ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, apperror.ErrNoCandidates):
		return http.StatusNotFound, "no_candidates"
	case errors.Is(err, apperror.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.Is(err, apperror.ErrDuplicateWord):
		return http.StatusConflict, "duplicate_word"
	case errors.Is(err, apperror.ErrEmptyBank):
		return http.StatusConflict, "empty_bank"
	case errors.Is(err, apperror.ErrConflict):
		return http.StatusConflict, "conflict"
	case errors.Is(err, apperror.ErrTranslationUnavailable):
		return http.StatusServiceUnavailable, "translation_unavailable"
	}
	return http.StatusInternalServerError, "internal_error"
}

// writeError maps a domain error to HTTP. Unknown errors become a generic
// 500; their text can carry SQL or file paths and is only logged.
func writeError(w http.ResponseWriter, err error) {
	status, code := errorStatus(err)

	var appErr *apperror.AppError
	if status == http.StatusInternalServerError || !errors.As(err, &appErr) {
		slog.Error("unhandled error", slog.String("error", err.Error()))
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
		return
	}

	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: appErr.Message,
		Field:   appErr.Field,
	})
}

// decodeJSON reads a single JSON object from the body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperror.ValidationFailed("body", fmt.Sprintf("request body must be %d bytes or less", maxBodyBytes))
		}
		return apperror.ValidationFailed("body", "request body must be valid JSON")
	}
	return nil
}

// pathID parses the {name} URL parameter as a positive integer id.
func pathID(r *http.Request, name string) (int64, error) {
	raw := chi.URLParam(r, name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperror.ValidationFailed(name, fmt.Sprintf("%s must be a positive integer", name))
	}
	return id, nil
}

// userID returns the authenticated caller. Routes using it sit behind
// auth.RequireAuth, so a miss means the router is mis-wired.
func userID(r *http.Request) (int64, error) {
	id, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		return 0, apperror.Unauthorized("valid authentication required")
	}
	return id, nil
}
