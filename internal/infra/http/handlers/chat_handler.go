package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/ontriq-site/internal/concierge"
	"github.com/xavierca1/ontriq-site/internal/infra/http/middleware"
)

// Limiter is satisfied by *ratelimit.Limiter.
type Limiter interface {
	Check(limit int, token string) error
}

type ChatHandler struct {
	Concierge *concierge.Service
	Limiter   Limiter
	Limit     int
	Logger    *zap.Logger
}

func NewChatHandler(svc *concierge.Service, limiter Limiter, limit int, logger *zap.Logger) *ChatHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChatHandler{Concierge: svc, Limiter: limiter, Limit: limit, Logger: logger}
}

type chatRequest struct {
	Messages json.RawMessage `json:"messages"`
}

type chatResponse struct {
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

func (h *ChatHandler) Handle(w http.ResponseWriter, r *http.Request) {
	if err := h.Limiter.Check(h.Limit, ClientIP(r)); err != nil {
		middleware.RecordChat("rate_limited")
		writeJSON(w, http.StatusTooManyRequests, chatResponse{Error: "Too many requests. Please try again later."})
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.RecordChat("invalid")
		writeJSON(w, http.StatusBadRequest, chatResponse{Error: "Invalid JSON"})
		return
	}

	var wire []concierge.WireMessage
	if len(req.Messages) == 0 || json.Unmarshal(req.Messages, &wire) != nil || wire == nil {
		middleware.RecordChat("invalid")
		writeJSON(w, http.StatusBadRequest, chatResponse{Error: "messages must be an array"})
		return
	}

	messages, err := concierge.Normalize(wire)
	if err != nil {
		middleware.RecordChat("invalid")
		writeJSON(w, http.StatusBadRequest, chatResponse{Error: err.Error()})
		return
	}

	reply, err := h.Concierge.Reply(r.Context(), messages)
	if errors.Is(err, concierge.ErrNotConfigured) {
		middleware.RecordChat("not_configured")
		h.Logger.Error("chat requested without a configured provider")
		writeJSON(w, http.StatusInternalServerError, chatResponse{Error: concierge.ErrNotConfigured.Error()})
		return
	}
	if err != nil {
		middleware.RecordChat("failed")
		writeJSON(w, http.StatusInternalServerError, chatResponse{Error: "Internal server error"})
		return
	}

	middleware.RecordChat("ok")
	writeJSON(w, http.StatusOK, chatResponse{Content: reply})
}
