package service

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/payportal/payportal/internal/identifier"
	"github.com/payportal/payportal/internal/models"
	"github.com/payportal/payportal/internal/notifier"
	"github.com/payportal/payportal/internal/repository"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

var contactRegex = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// VerificationService drives the requester side of the workflow: open a
// transaction, deliver a code, verify it. It holds no state of its own;
// the stores own all records.
type VerificationService struct {
	credentials  repository.CredentialStore
	transactions repository.TransactionStore
	notifier     notifier.Notifier
	codeLength   int
	logger       *logrus.Logger
}

func NewVerificationService(
	credentials repository.CredentialStore,
	transactions repository.TransactionStore,
	n notifier.Notifier,
	codeLength int,
	logger *logrus.Logger,
) *VerificationService {
	return &VerificationService{
		credentials:  credentials,
		transactions: transactions,
		notifier:     n,
		codeLength:   codeLength,
		logger:       logger,
	}
}

// RequestResult is what a requester gets back: identifiers plus a masked
// contact for display. The raw code never leaves through this path.
type RequestResult struct {
	TransactionID string
	SessionID     string
	MaskedContact string
}

// Request creates a pending transaction, issues a code bound to it and
// delivers the code. When delivery fails the transaction and credential
// already created are kept rather than rolled back; Resend recovers from
// that state.
func (s *VerificationService) Request(ctx context.Context, payload models.PaymentRequest) (*RequestResult, error) {
	contact := strings.TrimSpace(payload.RequesterContact)
	if contact != "" && !contactRegex.MatchString(contact) {
		return nil, fmt.Errorf("%w: invalid contact address", repository.ErrInvalidPayload)
	}
	payload.RequesterContact = contact

	txn, err := s.transactions.Create(ctx, payload)
	if err != nil {
		return nil, err
	}

	code, err := identifier.NewCode(s.codeLength)
	if err != nil {
		return nil, fmt.Errorf("failed to generate code: %w", err)
	}

	if err := s.credentials.Issue(ctx, contact, txn.ID, code); err != nil {
		return nil, err
	}

	if err := s.notifier.Send(ctx, contact, code, txn.ID, payload.RequesterName); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	s.logger.WithFields(logrus.Fields{
		"transaction_id": txn.ID,
		"contact":        MaskContact(contact),
	}).Info("Transaction created, code sent")

	return &RequestResult{
		TransactionID: txn.ID,
		SessionID:     txn.SessionID,
		MaskedContact: MaskContact(contact),
	}, nil
}

// Verify checks the presented code against the live credential for the
// identity. A mismatch of either the code or the transaction id counts as
// a failed attempt. On success the credential is consumed and the
// transaction moves to verified; a second call then fails with
// ErrNoCredential, which callers should expect rather than treat as a bug.
func (s *VerificationService) Verify(ctx context.Context, identity, code, transactionID string) (models.TransactionStatus, error) {
	cred, err := s.credentials.Peek(ctx, identity)
	if err != nil {
		return "", err
	}
	if cred == nil {
		return "", ErrNoCredential
	}

	codeMatches := bcrypt.CompareHashAndPassword([]byte(cred.CodeHash), []byte(code)) == nil
	if !codeMatches || cred.TransactionID != transactionID {
		left, err := s.credentials.RecordFailedAttempt(ctx, identity)
		if err != nil {
			return "", err
		}
		return "", &InvalidCodeError{AttemptsLeft: left}
	}

	if err := s.credentials.Consume(ctx, identity); err != nil {
		return "", err
	}

	txn, err := s.transactions.UpdateStatus(ctx, transactionID, models.StatusUpdate{Status: models.StatusVerified})
	if err != nil {
		return "", err
	}

	s.logger.WithField("transaction_id", transactionID).Info("Code verified")
	return txn.Status, nil
}

// Resend issues a fresh code for an existing transaction, replacing the
// prior credential (attempts reset, TTL extended). The old code stops
// working the instant the new one is issued. The prior credential does
// not need to still be live.
func (s *VerificationService) Resend(ctx context.Context, identity, transactionID string) error {
	txn, err := s.transactions.Get(ctx, transactionID)
	if err != nil {
		return err
	}
	if txn == nil {
		return fmt.Errorf("%w: %s", repository.ErrNotFound, transactionID)
	}

	code, err := identifier.NewCode(s.codeLength)
	if err != nil {
		return fmt.Errorf("failed to generate code: %w", err)
	}

	if err := s.credentials.Issue(ctx, identity, transactionID, code); err != nil {
		return err
	}

	if err := s.notifier.Send(ctx, identity, code, transactionID, txn.RequesterName); err != nil {
		return fmt.Errorf("%w: %v", ErrNotificationFailed, err)
	}

	s.logger.WithField("transaction_id", transactionID).Info("New code sent")
	return nil
}

// MaskContact renders a contact address for display: first characters,
// then ****, then the domain. The raw address never appears in responses.
func MaskContact(contact string) string {
	prefix := contact
	if len(prefix) > 3 {
		prefix = prefix[:3]
	}
	domain := ""
	if parts := strings.SplitN(contact, "@", 2); len(parts) == 2 {
		domain = parts[1]
	}
	return prefix + "****@" + domain
}
