package service

import (
	"context"
	"fmt"

	"github.com/payportal/payportal/internal/models"
	"github.com/payportal/payportal/internal/repository"
	"github.com/sirupsen/logrus"
)

// ApprovalService drives the admin side of the state machine. Approve and
// Reject are not gated on prior verification and freely overwrite each
// other (last write wins): the approver has deliberate override
// authority, and the admin flags keep a trace of every action taken.
type ApprovalService struct {
	transactions repository.TransactionStore
	logger       *logrus.Logger
}

func NewApprovalService(transactions repository.TransactionStore, logger *logrus.Logger) *ApprovalService {
	return &ApprovalService{
		transactions: transactions,
		logger:       logger,
	}
}

// ManualVerify records an admin verification override. The status is left
// untouched; only the flag and its timestamp are set.
func (s *ApprovalService) ManualVerify(ctx context.Context, id string) (*models.Transaction, error) {
	txn, err := s.transactions.UpdateStatus(ctx, id, models.StatusUpdate{AdminVerified: true})
	if err != nil {
		return nil, err
	}
	s.logger.WithField("transaction_id", id).Info("Admin verified transaction")
	return txn, nil
}

func (s *ApprovalService) Approve(ctx context.Context, id string) (*models.Transaction, error) {
	txn, err := s.transactions.UpdateStatus(ctx, id, models.StatusUpdate{
		Status:        models.StatusApproved,
		AdminApproved: true,
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithField("transaction_id", id).Info("Admin approved transaction")
	return txn, nil
}

func (s *ApprovalService) Reject(ctx context.Context, id string) (*models.Transaction, error) {
	txn, err := s.transactions.UpdateStatus(ctx, id, models.StatusUpdate{
		Status:        models.StatusRejected,
		AdminRejected: true,
	})
	if err != nil {
		return nil, err
	}
	s.logger.WithField("transaction_id", id).Info("Admin rejected transaction")
	return txn, nil
}

// CheckApproval reports whether the transaction is payment-eligible:
// status approved and the admin approval flag set.
func (s *ApprovalService) CheckApproval(ctx context.Context, id string) (bool, models.TransactionStatus, error) {
	txn, err := s.transactions.Get(ctx, id)
	if err != nil {
		return false, "", err
	}
	if txn == nil {
		return false, "", fmt.Errorf("%w: %s", repository.ErrNotFound, id)
	}

	eligible := txn.Status == models.StatusApproved && txn.AdminApproved
	return eligible, txn.Status, nil
}

// List returns every transaction newest-first for the admin dashboard.
func (s *ApprovalService) List(ctx context.Context) ([]models.Transaction, error) {
	return s.transactions.List(ctx)
}

// Get returns a single transaction, or nil when the id is unknown.
func (s *ApprovalService) Get(ctx context.Context, id string) (*models.Transaction, error) {
	return s.transactions.Get(ctx, id)
}
