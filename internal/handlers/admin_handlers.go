package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/payportal/payportal/internal/models"
	"github.com/payportal/payportal/internal/service"
	"github.com/sirupsen/logrus"
)

// AdminHandlers serves the approver-facing API. Authorization of the
// caller is handled upstream; these handlers assume a trusted admin.
type AdminHandlers struct {
	approval *service.ApprovalService
	logger   *logrus.Logger
}

func NewAdminHandlers(approval *service.ApprovalService, logger *logrus.Logger) *AdminHandlers {
	return &AdminHandlers{
		approval: approval,
		logger:   logger,
	}
}

type adminActionRequest struct {
	TransactionID string `json:"transaction_id"`
}

// ListTransactions returns every transaction, newest first.
func (h *AdminHandlers) ListTransactions(w http.ResponseWriter, r *http.Request) {
	list, err := h.approval.List(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to list transactions")
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, Response{Success: true, Data: list})
}

// ManualVerify sets the admin-verified flag without changing the status.
func (h *AdminHandlers) ManualVerify(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, h.approval.ManualVerify, "Transaction verified by admin")
}

// Approve moves the transaction to approved regardless of its current
// status; the approver has override authority.
func (h *AdminHandlers) Approve(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, h.approval.Approve, "Transaction approved successfully")
}

// Reject moves the transaction to rejected.
func (h *AdminHandlers) Reject(w http.ResponseWriter, r *http.Request) {
	h.handleAction(w, r, h.approval.Reject, "Transaction rejected")
}

func (h *AdminHandlers) handleAction(
	w http.ResponseWriter,
	r *http.Request,
	action func(ctx context.Context, id string) (*models.Transaction, error),
	message string,
) {
	var req adminActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.TransactionID) == "" {
		respondWithError(w, http.StatusBadRequest, "Transaction id is required")
		return
	}

	txn, err := action(r.Context(), req.TransactionID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data:    txn,
	})
}
