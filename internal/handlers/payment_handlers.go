package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/payportal/payportal/internal/models"
	"github.com/payportal/payportal/internal/repository"
	"github.com/payportal/payportal/internal/service"
	"github.com/sirupsen/logrus"
)

// PaymentHandlers serves the requester-facing API: open a transaction,
// verify the code, resend it, and query state.
type PaymentHandlers struct {
	verification *service.VerificationService
	approval     *service.ApprovalService
	transactions repository.TransactionStore
	logger       *logrus.Logger
}

func NewPaymentHandlers(
	verification *service.VerificationService,
	approval *service.ApprovalService,
	transactions repository.TransactionStore,
	logger *logrus.Logger,
) *PaymentHandlers {
	return &PaymentHandlers{
		verification: verification,
		approval:     approval,
		transactions: transactions,
		logger:       logger,
	}
}

type verifyCodeRequest struct {
	Contact       string `json:"contact"`
	Code          string `json:"code"`
	TransactionID string `json:"transaction_id"`
}

type resendCodeRequest struct {
	Contact       string `json:"contact"`
	TransactionID string `json:"transaction_id"`
}

type checkApprovalRequest struct {
	TransactionID string `json:"transaction_id"`
}

// CreateTransaction opens a pending transaction and sends the code. The
// response carries the identifiers and a masked contact, never the code.
func (h *PaymentHandlers) CreateTransaction(w http.ResponseWriter, r *http.Request) {
	var payload models.PaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	result, err := h.verification.Request(r.Context(), payload)
	if err != nil {
		h.logger.WithError(err).Error("Failed to create transaction")
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Transaction created, code sent to contact",
		Data: map[string]string{
			"transaction_id": result.TransactionID,
			"session_id":     result.SessionID,
			"masked_contact": result.MaskedContact,
		},
	})
}

// VerifyCode checks the presented code and, on success, moves the
// transaction to verified.
func (h *PaymentHandlers) VerifyCode(w http.ResponseWriter, r *http.Request) {
	var req verifyCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Contact) == "" || strings.TrimSpace(req.Code) == "" || strings.TrimSpace(req.TransactionID) == "" {
		respondWithError(w, http.StatusBadRequest, "Contact, code and transaction id are required")
		return
	}

	status, err := h.verification.Verify(r.Context(), req.Contact, req.Code, req.TransactionID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "Code verified successfully",
		Data: map[string]interface{}{
			"transaction_id": req.TransactionID,
			"status":         status,
		},
	})
}

// ResendCode issues a fresh code for an existing transaction, replacing
// the previous credential.
func (h *PaymentHandlers) ResendCode(w http.ResponseWriter, r *http.Request) {
	var req resendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Contact) == "" || strings.TrimSpace(req.TransactionID) == "" {
		respondWithError(w, http.StatusBadRequest, "Contact and transaction id are required")
		return
	}

	if err := h.verification.Resend(r.Context(), req.Contact, req.TransactionID); err != nil {
		respondWithDomainError(w, err)
		return
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: "New code sent to contact",
	})
}

// CheckApproval reports whether a transaction is payment-eligible.
func (h *PaymentHandlers) CheckApproval(w http.ResponseWriter, r *http.Request) {
	var req checkApprovalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.TransactionID) == "" {
		respondWithError(w, http.StatusBadRequest, "Transaction id is required")
		return
	}

	eligible, status, err := h.approval.CheckApproval(r.Context(), req.TransactionID)
	if err != nil {
		respondWithDomainError(w, err)
		return
	}

	message := "Transaction pending admin approval"
	if eligible {
		message = "Transaction is approved by admin"
	}

	respondWithJSON(w, http.StatusOK, Response{
		Success: true,
		Message: message,
		Data: map[string]interface{}{
			"approved": eligible,
			"status":   status,
		},
	})
}

// GetTransaction returns a single transaction record. The record never
// contains credential material, so nothing needs stripping here.
func (h *PaymentHandlers) GetTransaction(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	txn, err := h.transactions.Get(r.Context(), id)
	if err != nil {
		h.logger.WithError(err).Error("Failed to get transaction")
		respondWithDomainError(w, err)
		return
	}
	if txn == nil {
		respondWithError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	respondWithJSON(w, http.StatusOK, Response{Success: true, Data: txn})
}
