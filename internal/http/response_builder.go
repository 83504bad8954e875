package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/noobzdxz-gif/Tracking-App/internal/core"
	"github.com/noobzdxz-gif/Tracking-App/internal/storage"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}

// writeQueryError handles failures from range and date query parameters:
// domain sentinels keep their service mapping, anything else is a malformed
// query and gets a 400 with the message intact.
func writeQueryError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrInvalidDate),
		errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrParseFailure):
		writeServiceError(w, err)
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

// writeServiceError maps domain failures onto HTTP statuses. Validation
// failures carry their message through so the client can show the specific
// problem ("end time must be after start time") instead of a generic one.
func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, core.ErrParseFailure),
		errors.Is(err, core.ErrInvalidRange),
		errors.Is(err, core.ErrEmptyTask),
		errors.Is(err, core.ErrEmptyDescription),
		errors.Is(err, core.ErrInvalidAmount):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, core.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		writeError(w, http.StatusNotFound, "entry not found")
	default:
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}
