package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/payportal/payportal/internal/repository"
	"github.com/payportal/payportal/internal/service"
)

// Response is the envelope every endpoint returns, matching the
// success/message/data shape the frontend consumes.
type Response struct {
	Success      bool        `json:"success"`
	Message      string      `json:"message,omitempty"`
	Data         interface{} `json:"data,omitempty"`
	AttemptsLeft *int        `json:"attempts_left,omitempty"`
}

func respondWithJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, status int, message string) {
	respondWithJSON(w, status, Response{Success: false, Message: message})
}

// respondWithDomainError maps domain error kinds to HTTP statuses.
// Anything unclassified is an internal fault and surfaces as a 500
// without leaking detail.
func respondWithDomainError(w http.ResponseWriter, err error) {
	var invalidCode *service.InvalidCodeError

	switch {
	case errors.Is(err, repository.ErrInvalidPayload):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, repository.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Transaction not found")
	case errors.Is(err, service.ErrNoCredential):
		respondWithError(w, http.StatusBadRequest, "No active code for this contact. Please request a new one.")
	case errors.As(err, &invalidCode):
		left := invalidCode.AttemptsLeft
		respondWithJSON(w, http.StatusBadRequest, Response{
			Success:      false,
			Message:      "Invalid code or transaction id",
			AttemptsLeft: &left,
		})
	case errors.Is(err, service.ErrNotificationFailed):
		respondWithError(w, http.StatusBadGateway, "Failed to deliver the code. Please try again.")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
