package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/payportal/payportal/internal/clock"
	"github.com/payportal/payportal/internal/models"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
)

// RedisCredentialStore keeps credentials as JSON documents with a
// server-side TTL matching the credential TTL. The lazy expiry check in
// Peek is kept as well, so behavior is identical to the in-memory store
// even when Redis has not evicted the key yet.
type RedisCredentialStore struct {
	client      *redis.Client
	ttl         time.Duration
	maxAttempts int
	clock       clock.Clock
	logger      *logrus.Logger
}

func NewRedisCredentialStore(client *redis.Client, ttl time.Duration, maxAttempts int, clk clock.Clock, logger *logrus.Logger) *RedisCredentialStore {
	return &RedisCredentialStore{
		client:      client,
		ttl:         ttl,
		maxAttempts: maxAttempts,
		clock:       clk,
		logger:      logger,
	}
}

func credentialKey(identity string) string {
	return fmt.Sprintf("credential:%s", identity)
}

func (s *RedisCredentialStore) Issue(ctx context.Context, identity, transactionID, code string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash code: %w", err)
	}

	cred := models.Credential{
		CodeHash:      string(hash),
		Identity:      identity,
		TransactionID: transactionID,
		Attempts:      0,
		IssuedAt:      s.clock.Now(),
	}

	dataJSON, err := json.Marshal(cred)
	if err != nil {
		return fmt.Errorf("failed to marshal credential: %w", err)
	}

	if err := s.client.Set(ctx, credentialKey(identity), dataJSON, s.ttl).Err(); err != nil {
		s.logger.WithError(err).Error("Failed to store credential in Redis")
		return fmt.Errorf("failed to store credential: %w", err)
	}
	return nil
}

func (s *RedisCredentialStore) Peek(ctx context.Context, identity string) (*models.Credential, error) {
	dataJSON, err := s.client.Get(ctx, credentialKey(identity)).Result()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		s.logger.WithError(err).Error("Failed to get credential from Redis")
		return nil, fmt.Errorf("failed to get credential: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal([]byte(dataJSON), &cred); err != nil {
		return nil, fmt.Errorf("failed to unmarshal credential: %w", err)
	}

	if s.clock.Now().Sub(cred.IssuedAt) > s.ttl {
		s.client.Del(ctx, credentialKey(identity))
		return nil, nil
	}

	return &cred, nil
}

func (s *RedisCredentialStore) RecordFailedAttempt(ctx context.Context, identity string) (int, error) {
	cred, err := s.Peek(ctx, identity)
	if err != nil {
		return 0, err
	}
	if cred == nil {
		return 0, nil
	}

	cred.Attempts++
	if cred.Attempts >= s.maxAttempts {
		if err := s.client.Del(ctx, credentialKey(identity)).Err(); err != nil {
			return 0, fmt.Errorf("failed to delete credential: %w", err)
		}
		s.logger.WithField("identity", identity).Info("Credential removed after max failed attempts")
		return 0, nil
	}

	dataJSON, err := json.Marshal(cred)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal credential: %w", err)
	}

	remainingTTL := s.ttl - s.clock.Now().Sub(cred.IssuedAt)
	if remainingTTL < 0 {
		remainingTTL = 0
	}
	if err := s.client.Set(ctx, credentialKey(identity), dataJSON, remainingTTL).Err(); err != nil {
		return 0, fmt.Errorf("failed to update credential: %w", err)
	}

	return s.maxAttempts - cred.Attempts, nil
}

func (s *RedisCredentialStore) Consume(ctx context.Context, identity string) error {
	if err := s.client.Del(ctx, credentialKey(identity)).Err(); err != nil {
		return fmt.Errorf("failed to delete credential: %w", err)
	}
	return nil
}
