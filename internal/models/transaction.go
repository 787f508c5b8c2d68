package models

import "time"

type TransactionStatus string

const (
	StatusPending  TransactionStatus = "pending"
	StatusVerified TransactionStatus = "verified"
	StatusApproved TransactionStatus = "approved"
	StatusRejected TransactionStatus = "rejected"
)

// PaymentRequest is the payload a requester submits to open a transaction.
type PaymentRequest struct {
	RequesterName    string  `json:"requester_name"`
	RequesterContact string  `json:"requester_contact"`
	RequesterPhone   string  `json:"requester_phone"`
	Amount           float64 `json:"amount"`
}

// Transaction is the payment-intent record. The id is assigned once and
// never reused; status moves through pending -> verified -> approved/rejected.
// The admin flags record that an admin acted and are independent of status:
// they carry their own timestamps and are never reset.
type Transaction struct {
	ID               string            `json:"transaction_id" dynamodbav:"transaction_id"`
	SessionID        string            `json:"session_id" dynamodbav:"session_id"`
	RequesterName    string            `json:"requester_name" dynamodbav:"requester_name"`
	RequesterContact string            `json:"requester_contact" dynamodbav:"requester_contact"`
	RequesterPhone   string            `json:"requester_phone" dynamodbav:"requester_phone"`
	Amount           float64           `json:"amount" dynamodbav:"amount"`
	Status           TransactionStatus `json:"status" dynamodbav:"status"`
	CreatedAt        time.Time         `json:"created_at" dynamodbav:"created_at"`

	// Seq preserves insertion order so listings are stable when two
	// transactions share a timestamp.
	Seq uint64 `json:"-" dynamodbav:"seq"`

	AdminVerified   bool       `json:"admin_verified" dynamodbav:"admin_verified"`
	AdminVerifiedAt *time.Time `json:"admin_verified_at,omitempty" dynamodbav:"admin_verified_at,omitempty"`
	AdminApproved   bool       `json:"admin_approved" dynamodbav:"admin_approved"`
	AdminApprovedAt *time.Time `json:"admin_approved_at,omitempty" dynamodbav:"admin_approved_at,omitempty"`
	AdminRejected   bool       `json:"admin_rejected" dynamodbav:"admin_rejected"`
	AdminRejectedAt *time.Time `json:"admin_rejected_at,omitempty" dynamodbav:"admin_rejected_at,omitempty"`
}

func (t *Transaction) GetPK() string {
	return "TXN!" + t.ID
}

func (t *Transaction) GetSK() string {
	return "METADATA"
}

// StatusUpdate describes one atomic mutation of a transaction record.
// An empty Status leaves the current status untouched; flags only ever
// flip to true, stamping the matching timestamp.
type StatusUpdate struct {
	Status        TransactionStatus
	AdminVerified bool
	AdminApproved bool
	AdminRejected bool
}
