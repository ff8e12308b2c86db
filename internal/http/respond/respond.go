// Package respond writes JSON bodies and maps domain errors to statuses.
package respond

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/MrJamesThe3rd/oficina/internal/apperr"
	"github.com/MrJamesThe3rd/oficina/internal/ledger"
	"github.com/MrJamesThe3rd/oficina/internal/mirror"
	"github.com/MrJamesThe3rd/oficina/internal/workorder"
	"github.com/MrJamesThe3rd/oficina/internal/workshop"
)

type errorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// Error writes err with the status its kind implies.
func Error(w http.ResponseWriter, err error) {
	var ve *apperr.ValidationError

	switch {
	case errors.As(err, &ve):
		JSON(w, http.StatusUnprocessableEntity, errorResponse{Error: ve.Message, Field: ve.Field})
	case errors.Is(err, apperr.ErrNotFound):
		JSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, mirror.ErrUnavailable):
		JSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error()})
	default:
		slog.Error("request failed", "error", err)
		JSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

func BadRequest(w http.ResponseWriter, msg string) {
	JSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

// Decode reads a JSON body into v, writing a 400 on failure. An empty body
// leaves v untouched.
func Decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		BadRequest(w, err.Error())
		return false
	}

	return true
}

type commandResponse struct {
	Order    *workorder.Order `json:"order,omitempty"`
	Entries  []ledger.Entry   `json:"entries,omitempty"`
	Changed  bool             `json:"changed"`
	Declined bool             `json:"declined"`

	Conflicts []ledger.Conflict `json:"conflicts,omitempty"`
}

// Command writes the outcome of a dispatched command. A declined
// confirmation is not an error; the body says what happened.
func Command(w http.ResponseWriter, status int, res workshop.Result) {
	JSON(w, status, commandResponse{
		Order:    res.Order,
		Entries:  res.Entries,
		Changed:  res.Changed,
		Declined: res.Declined,

		Conflicts: res.Conflicts,
	})
}
