package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/xavierca1/ontriq-site/internal/board"
	"github.com/xavierca1/ontriq-site/internal/entity"
	"github.com/xavierca1/ontriq-site/internal/usecase"
)

// Response is the envelope of the form and admin endpoints.
type Response struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter, data any) {
	writeJSON(w, http.StatusOK, Response{OK: true, Data: data})
}

func writeFail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Response{OK: false, Error: msg})
}

// statusFor maps board and usecase errors onto HTTP statuses.
func statusFor(err error) int {
	if errors.Is(err, board.ErrBusy) || errors.Is(err, board.ErrStageHasLeads) {
		return http.StatusConflict
	}
	if errors.Is(err, entity.ErrNotFound) {
		return http.StatusNotFound
	}
	var de *usecase.DomainError
	if errors.As(err, &de) {
		switch de.Code {
		case usecase.CodeNotFound:
			return http.StatusNotFound
		default:
			return http.StatusBadRequest
		}
	}
	return http.StatusInternalServerError
}
