package models

import "time"

// Credential is the one-time-code record bound to a single requester
// identity and a single transaction. The code itself is never stored;
// only its bcrypt hash is kept.
type Credential struct {
	CodeHash      string    `json:"code_hash"`
	Identity      string    `json:"identity"`
	TransactionID string    `json:"transaction_id"`
	Attempts      int       `json:"attempts"`
	IssuedAt      time.Time `json:"issued_at"`
}
