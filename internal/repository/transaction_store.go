package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/payportal/payportal/internal/clock"
	"github.com/payportal/payportal/internal/identifier"
	"github.com/payportal/payportal/internal/models"
	"github.com/sirupsen/logrus"
)

var (
	// ErrInvalidPayload is returned by Create when a payload field is
	// missing or the amount is not positive.
	ErrInvalidPayload = errors.New("invalid payload")

	// ErrNotFound is returned when the transaction id is unknown.
	ErrNotFound = errors.New("transaction not found")
)

// TransactionStore owns payment transaction records keyed by their
// generated identifier. Records are never deleted in-process; they are
// retained for listing and audit.
type TransactionStore interface {
	// Create validates the payload, allocates a fresh transaction id and
	// session id, and stores the record with status pending.
	Create(ctx context.Context, payload models.PaymentRequest) (*models.Transaction, error)

	// Get returns the transaction, or (nil, nil) when the id is unknown.
	Get(ctx context.Context, id string) (*models.Transaction, error)

	// UpdateStatus applies update to the record as a single critical
	// section so concurrent requester and approver writes cannot
	// interleave. Fails with ErrNotFound for an unknown id.
	UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.Transaction, error)

	// List returns all transactions newest-first; records that share a
	// timestamp keep their insertion order.
	List(ctx context.Context) ([]models.Transaction, error)
}

// MemoryTransactionStore is the authoritative in-process TransactionStore.
type MemoryTransactionStore struct {
	mu           sync.Mutex
	transactions map[string]models.Transaction
	order        []string
	seq          uint64
	idPrefix     string
	clock        clock.Clock
	logger       *logrus.Logger
}

func NewMemoryTransactionStore(idPrefix string, clk clock.Clock, logger *logrus.Logger) *MemoryTransactionStore {
	return &MemoryTransactionStore{
		transactions: make(map[string]models.Transaction),
		idPrefix:     idPrefix,
		clock:        clk,
		logger:       logger,
	}
}

// ValidatePayment checks the request payload shared by every store backend.
func ValidatePayment(payload models.PaymentRequest) error {
	switch {
	case strings.TrimSpace(payload.RequesterName) == "":
		return fmt.Errorf("%w: requester name is required", ErrInvalidPayload)
	case strings.TrimSpace(payload.RequesterContact) == "":
		return fmt.Errorf("%w: requester contact is required", ErrInvalidPayload)
	case strings.TrimSpace(payload.RequesterPhone) == "":
		return fmt.Errorf("%w: requester phone is required", ErrInvalidPayload)
	case payload.Amount <= 0:
		return fmt.Errorf("%w: amount must be positive", ErrInvalidPayload)
	}
	return nil
}

func (s *MemoryTransactionStore) Create(ctx context.Context, payload models.PaymentRequest) (*models.Transaction, error) {
	if err := ValidatePayment(payload); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	id, err := identifier.NewTransactionID(s.idPrefix, now)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate transaction id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	txn := models.Transaction{
		ID:               id,
		SessionID:        identifier.NewSessionID(now),
		RequesterName:    payload.RequesterName,
		RequesterContact: payload.RequesterContact,
		RequesterPhone:   payload.RequesterPhone,
		Amount:           payload.Amount,
		Status:           models.StatusPending,
		CreatedAt:        now,
		Seq:              s.seq,
	}

	s.transactions[id] = txn
	s.order = append(s.order, id)

	out := txn
	return &out, nil
}

func (s *MemoryTransactionStore) Get(ctx context.Context, id string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.transactions[id]
	if !ok {
		return nil, nil
	}
	out := txn
	return &out, nil
}

func (s *MemoryTransactionStore) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, ok := s.transactions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	applyUpdate(&txn, update, s.clock)
	s.transactions[id] = txn

	out := txn
	return &out, nil
}

func (s *MemoryTransactionStore) List(ctx context.Context) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	list := make([]models.Transaction, 0, len(s.order))
	for _, id := range s.order {
		list = append(list, s.transactions[id])
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}

// applyUpdate mutates txn in place. Flags only flip to true and re-stamp
// their timestamp on repeated actions; they are never reset, so a record
// that was approved and later rejected keeps both flags.
func applyUpdate(txn *models.Transaction, update models.StatusUpdate, clk clock.Clock) {
	now := clk.Now()

	if update.Status != "" {
		txn.Status = update.Status
	}
	if update.AdminVerified {
		txn.AdminVerified = true
		at := now
		txn.AdminVerifiedAt = &at
	}
	if update.AdminApproved {
		txn.AdminApproved = true
		at := now
		txn.AdminApprovedAt = &at
	}
	if update.AdminRejected {
		txn.AdminRejected = true
		at := now
		txn.AdminRejectedAt = &at
	}
}
