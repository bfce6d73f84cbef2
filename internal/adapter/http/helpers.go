package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/mblcrm/lendgate/internal/domain/call"
)

// readJSON decodes a JSON request body with a size limit.
func readJSON[T any](w http.ResponseWriter, r *http.Request, bodyLimit int64) (T, bool) {
	var v T
	r.Body = http.MaxBytesReader(w, r.Body, bodyLimit)
	if err := json.NewDecoder(r.Body).Decode(&v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
		} else {
			writeError(w, http.StatusBadRequest, "invalid request body")
		}
		return v, false
	}
	return v, true
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to write JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeCallError maps the call error taxonomy to HTTP statuses: validation
// errors become 400, upstream rejections keep their original status, and
// everything else (simulation defects included) is a 500.
func writeCallError(w http.ResponseWriter, err error) {
	var httpErr *call.HTTPError
	switch {
	case errors.Is(err, call.ErrValidation):
		msg := strings.TrimPrefix(err.Error(), call.ErrValidation.Error()+": ")
		writeError(w, http.StatusBadRequest, msg)
	case errors.As(err, &httpErr):
		writeError(w, httpErr.Status, httpErr.Body)
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
