package repository

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/payportal/payportal/internal/clock"
	"github.com/payportal/payportal/internal/models"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// CredentialStore owns one-time-code records, keyed by requester identity.
// At most one credential is live per identity; Issue replaces whatever was
// there before. Expiry is applied lazily at read time, so a credential past
// its TTL is indistinguishable from one that was never issued.
type CredentialStore interface {
	// Issue stores a fresh credential for identity bound to transactionID,
	// replacing any prior one. The code is bcrypt-hashed before storage.
	Issue(ctx context.Context, identity, transactionID, code string) error

	// Peek returns the live credential for identity, deleting and reporting
	// absent (nil, nil) when the record has outlived its TTL.
	Peek(ctx context.Context, identity string) (*models.Credential, error)

	// RecordFailedAttempt increments the failure counter and returns the
	// attempts remaining. Reaching the maximum deletes the credential, so
	// later reads see absent rather than a locked record.
	RecordFailedAttempt(ctx context.Context, identity string) (int, error)

	// Consume deletes the credential unconditionally.
	Consume(ctx context.Context, identity string) error
}

// MemoryCredentialStore is the authoritative in-process CredentialStore:
// one mutex guarding one map, held for the duration of each operation.
type MemoryCredentialStore struct {
	mu          sync.Mutex
	credentials map[string]models.Credential
	ttl         time.Duration
	maxAttempts int
	clock       clock.Clock
	logger      *logrus.Logger
}

func NewMemoryCredentialStore(ttl time.Duration, maxAttempts int, clk clock.Clock, logger *logrus.Logger) *MemoryCredentialStore {
	return &MemoryCredentialStore{
		credentials: make(map[string]models.Credential),
		ttl:         ttl,
		maxAttempts: maxAttempts,
		clock:       clk,
		logger:      logger,
	}
}

func (s *MemoryCredentialStore) Issue(ctx context.Context, identity, transactionID, code string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.credentials[identity] = models.Credential{
		CodeHash:      string(hash),
		Identity:      identity,
		TransactionID: transactionID,
		Attempts:      0,
		IssuedAt:      s.clock.Now(),
	}
	return nil
}

func (s *MemoryCredentialStore) Peek(ctx context.Context, identity string) (*models.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[identity]
	if !ok {
		return nil, nil
	}

	if s.clock.Now().Sub(cred.IssuedAt) > s.ttl {
		delete(s.credentials, identity)
		s.logger.WithField("identity", identity).Debug("Credential expired, removed on read")
		return nil, nil
	}

	out := cred
	return &out, nil
}

func (s *MemoryCredentialStore) RecordFailedAttempt(ctx context.Context, identity string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cred, ok := s.credentials[identity]
	if !ok {
		return 0, nil
	}

	cred.Attempts++
	if cred.Attempts >= s.maxAttempts {
		delete(s.credentials, identity)
		s.logger.WithField("identity", identity).Info("Credential removed after max failed attempts")
		return 0, nil
	}

	s.credentials[identity] = cred
	return s.maxAttempts - cred.Attempts, nil
}

func (s *MemoryCredentialStore) Consume(ctx context.Context, identity string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.credentials, identity)
	return nil
}
