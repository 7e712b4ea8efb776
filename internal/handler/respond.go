package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/santaswishlist/internal/errs"
)

const maxBodyBytes = 64 << 10

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{Success: true, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, envelope{Success: false, Error: msg})
}

// writeServiceError maps service errors onto status codes. Anything
// unrecognised is logged and reported generically.
func writeServiceError(w http.ResponseWriter, logger *slog.Logger, op string, err error) {
	var verr *errs.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, errs.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "Unauthorized")
	case errors.Is(err, errs.ErrForbidden):
		writeError(w, http.StatusForbidden, "You do not have access to this wishlist")
	case errors.Is(err, errs.ErrNotFound):
		writeError(w, http.StatusNotFound, "Wishlist not found")
	default:
		logger.Error(op, "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong, please try again")
	}
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(v)
}
