package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/AdamBeresnev/knockout/internal/bracket"
)

type errorResponse struct {
	Error string `json:"error"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, errorResponse{Error: msg})
}

func InternalServerError(w http.ResponseWriter, msg string, err error) {
	slog.Error(msg, "error", err)
	writeError(w, http.StatusInternalServerError, "Internal Server Error")
}

func BadRequest(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("bad request", "message", msg, "error", err)
	} else {
		slog.Warn("bad request", "message", msg)
	}
	writeError(w, http.StatusBadRequest, msg)
}

func NotFound(w http.ResponseWriter, msg string, err error) {
	if err != nil {
		slog.Warn("not found", "message", msg, "error", err)
	} else {
		slog.Warn("not found", "message", msg)
	}
	writeError(w, http.StatusNotFound, msg)
}

func Unauthorized(w http.ResponseWriter, msg string) {
	slog.Warn("unauthorized", "message", msg)
	writeError(w, http.StatusUnauthorized, msg)
}

func TooManyRequests(w http.ResponseWriter, ip string) {
	slog.Warn("rate limited", "ip", ip)
	writeError(w, http.StatusTooManyRequests, "Too many requests. Please slow down.")
}

// StatusFor maps an engine error to the HTTP status reported to the client.
func StatusFor(err error) int {
	switch {
	case bracket.IsNotFound(err):
		return http.StatusNotFound
	case bracket.IsForbidden(err):
		return http.StatusForbidden
	case bracket.IsConflict(err):
		return http.StatusConflict
	case bracket.IsStateMismatch(err):
		return http.StatusUnprocessableEntity
	case bracket.IsValidation(err):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// EngineError writes err with the status of its family. Anything unrecognised is logged
// and hidden behind a 500.
func EngineError(w http.ResponseWriter, msg string, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		InternalServerError(w, msg, err)
		return
	}
	slog.Warn(msg, "status", status, "error", err)
	writeError(w, status, err.Error())
}
