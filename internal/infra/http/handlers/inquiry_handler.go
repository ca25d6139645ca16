package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/xavierca1/ontriq-site/internal/infra/http/middleware"
	"github.com/xavierca1/ontriq-site/internal/usecase"
)

type InquiryHandler struct {
	CreateInquiryUC *usecase.CreateInquiryUseCase
	Logger          *zap.Logger
}

func NewInquiryHandler(uc *usecase.CreateInquiryUseCase, logger *zap.Logger) *InquiryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InquiryHandler{CreateInquiryUC: uc, Logger: logger}
}

// Create stores a contact-form submission. Validation and store failures
// both answer 400 with the message.
func (h *InquiryHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input usecase.CreateInquiryInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		middleware.RecordInquiry("invalid")
		writeFail(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if _, err := h.CreateInquiryUC.Execute(r.Context(), input); err != nil {
		if usecase.IsDomainError(err) {
			middleware.RecordInquiry("invalid")
		} else {
			middleware.RecordInquiry("failed")
			h.Logger.Error("inquiry insert failed", zap.Error(err))
		}
		writeFail(w, http.StatusBadRequest, err.Error())
		return
	}

	middleware.RecordInquiry("accepted")
	writeJSON(w, http.StatusOK, Response{OK: true})
}
