package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/xavierca1/ontriq-site/internal/board"
	"github.com/xavierca1/ontriq-site/internal/entity"
	"github.com/xavierca1/ontriq-site/internal/infra/export"
	"github.com/xavierca1/ontriq-site/internal/infra/http/middleware"
)

// BoardSource is satisfied by *board.Registry.
type BoardSource interface {
	Get(ctx context.Context, sessionID string) *board.Board
}

type AdminHandler struct {
	Boards BoardSource
	Logger *zap.Logger
	Now    func() time.Time
}

func NewAdminHandler(boards BoardSource, logger *zap.Logger) *AdminHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AdminHandler{Boards: boards, Logger: logger, Now: time.Now}
}

// Routes mounts the board API. The caller applies the admin guard.
func (h *AdminHandler) Routes(r chi.Router) {
	r.Get("/board", h.GetBoard)
	r.Post("/board/refresh", h.Refresh)
	r.Post("/board/drag", h.BeginDrag)
	r.Post("/board/drop", h.Drop)

	r.Post("/stages", h.AddStage)
	r.Patch("/stages/{id}", h.RenameStage)
	r.Delete("/stages/{id}", h.DeleteStage)

	r.Post("/leads", h.CreateLead)
	r.Patch("/leads/{id}", h.UpdateLead)
	r.Delete("/leads/{id}", h.DeleteLead)

	r.Post("/inquiries/{id}/convert", h.ConvertInquiry)
	r.Delete("/inquiries/{id}", h.DeleteInquiry)
	r.Get("/inquiries/export", h.ExportInquiries)

	r.Get("/dashboard", h.Dashboard)
}

func (h *AdminHandler) board(w http.ResponseWriter, r *http.Request) (*board.Board, bool) {
	sess, ok := middleware.SessionFrom(r.Context())
	if !ok {
		writeFail(w, http.StatusUnauthorized, "Unauthorized")
		return nil, false
	}
	return h.Boards.Get(r.Context(), sess.ID), true
}

// fail answers with the error and the board as it stands after it.
func (h *AdminHandler) fail(w http.ResponseWriter, b *board.Board, err error) {
	writeJSON(w, statusFor(err), Response{OK: false, Error: err.Error(), Data: b.Snapshot()})
}

func (h *AdminHandler) GetBoard(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	writeOK(w, b.Snapshot())
}

func (h *AdminHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.Refresh(r.Context()); err != nil {
		h.fail(w, b, err)
		return
	}
	writeOK(w, b.Snapshot())
}

type dragRequest struct {
	LeadID   string  `json:"lead_id"`
	Distance float64 `json:"distance"`
}

// BeginDrag answers dragging=false for gestures under the activation
// distance; the client treats those as clicks.
func (h *AdminHandler) BeginDrag(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	var req dragRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	err := b.BeginDrag(req.LeadID, req.Distance)
	switch {
	case errors.Is(err, board.ErrBelowActivation):
		writeOK(w, map[string]bool{"dragging": false})
	case errors.Is(err, board.ErrUnknownLead):
		writeFail(w, http.StatusNotFound, err.Error())
	case err != nil:
		writeFail(w, http.StatusInternalServerError, err.Error())
	default:
		writeOK(w, map[string]bool{"dragging": true})
	}
}

type dropRequest struct {
	LeadID string `json:"lead_id"`
	OverID string `json:"over_id"`
}

type actionView struct {
	LeadID    string            `json:"lead_id"`
	FromStage string            `json:"from_stage,omitempty"`
	ToStage   string            `json:"to_stage,omitempty"`
	State     board.ActionState `json:"state"`
	Error     string            `json:"error,omitempty"`
}

type dropResponse struct {
	Action actionView     `json:"action"`
	Board  board.Snapshot `json:"board"`
}

// Drop applies the move optimistically and answers 202 while the write is
// in flight. With ?wait=1 it answers once the action has settled.
func (h *AdminHandler) Drop(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	var req dropRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	a := b.Drop(r.Context(), req.LeadID, req.OverID)
	if r.URL.Query().Get("wait") == "1" {
		if _, err := a.Wait(r.Context()); err != nil {
			writeFail(w, http.StatusGatewayTimeout, err.Error())
			return
		}
	}

	view := actionView{
		LeadID:    a.LeadID,
		FromStage: a.FromStage,
		ToStage:   a.ToStage,
		State:     a.State(),
	}
	if err := a.Err(); err != nil {
		view.Error = err.Error()
	}

	status := http.StatusOK
	if view.State == board.ActionOptimistic {
		status = http.StatusAccepted
	}
	writeJSON(w, status, Response{OK: view.State != board.ActionReconciling, Data: dropResponse{Action: view, Board: b.Snapshot()}, Error: view.Error})
}

type stageRequest struct {
	Name string `json:"name"`
}

func (h *AdminHandler) AddStage(w http.ResponseWriter, r *http.Request) {
	h.withStage(w, r, func(b *board.Board, name string) error {
		return b.AddStage(r.Context(), name)
	})
}

func (h *AdminHandler) RenameStage(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.withStage(w, r, func(b *board.Board, name string) error {
		return b.RenameStage(r.Context(), id, name)
	})
}

func (h *AdminHandler) withStage(w http.ResponseWriter, r *http.Request, op func(*board.Board, string) error) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	var req stageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := op(b, req.Name); err != nil {
		h.fail(w, b, err)
		return
	}
	writeOK(w, b.Snapshot())
}

func (h *AdminHandler) DeleteStage(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.DeleteStage(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, b, err)
		return
	}
	writeOK(w, b.Snapshot())
}

func (h *AdminHandler) CreateLead(w http.ResponseWriter, r *http.Request) {
	h.withLead(w, r, func(b *board.Board, f entity.LeadFields) error {
		return b.CreateLead(r.Context(), f)
	})
}

func (h *AdminHandler) UpdateLead(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	h.withLead(w, r, func(b *board.Board, f entity.LeadFields) error {
		return b.UpdateLead(r.Context(), id, f)
	})
}

func (h *AdminHandler) withLead(w http.ResponseWriter, r *http.Request, op func(*board.Board, entity.LeadFields) error) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	var fields entity.LeadFields
	if err := json.NewDecoder(r.Body).Decode(&fields); err != nil {
		writeFail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := op(b, fields); err != nil {
		h.fail(w, b, err)
		return
	}
	writeOK(w, b.Snapshot())
}

func (h *AdminHandler) DeleteLead(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.DeleteLead(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, b, err)
		return
	}
	writeOK(w, b.Snapshot())
}

func (h *AdminHandler) ConvertInquiry(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	out, err := b.ConvertInquiry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, b, err)
		return
	}
	writeOK(w, map[string]any{"conversion": out, "board": b.Snapshot()})
}

func (h *AdminHandler) DeleteInquiry(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	if err := b.DeleteInquiry(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, b, err)
		return
	}
	writeOK(w, b.Snapshot())
}

func (h *AdminHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	writeOK(w, b.Dashboard())
}

// ExportInquiries streams the session's cached inquiries as XLSX.
func (h *AdminHandler) ExportInquiries(w http.ResponseWriter, r *http.Request) {
	b, ok := h.board(w, r)
	if !ok {
		return
	}
	now := h.Now()

	var buf bytes.Buffer
	if err := export.WriteInquiries(&buf, b.Snapshot().Inquiries, now.Location()); err != nil {
		h.Logger.Error("inquiry export failed", zap.Error(err))
		writeFail(w, http.StatusInternalServerError, "Export failed")
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="`+export.FileName(now)+`"`)
	w.WriteHeader(http.StatusOK)
	buf.WriteTo(w)
}
