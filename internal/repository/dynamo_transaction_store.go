package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/payportal/payportal/internal/clock"
	"github.com/payportal/payportal/internal/identifier"
	"github.com/payportal/payportal/internal/models"
	"github.com/sirupsen/logrus"
)

// DynamoTransactionStore keeps transactions in a single DynamoDB table
// using the PK/SK item pattern. A process-local mutex serializes
// UpdateStatus so the read-modify-write of one record stays a single
// critical section; this assumes a single writer process, which holds
// for this service.
type DynamoTransactionStore struct {
	client    *dynamodb.Client
	tableName string
	idPrefix  string
	clock     clock.Clock
	logger    *logrus.Logger

	mu  sync.Mutex
	seq uint64
}

func NewDynamoTransactionStore(client *dynamodb.Client, tableName, idPrefix string, clk clock.Clock, logger *logrus.Logger) *DynamoTransactionStore {
	return &DynamoTransactionStore{
		client:    client,
		tableName: tableName,
		idPrefix:  idPrefix,
		clock:     clk,
		logger:    logger,
	}
}

func (s *DynamoTransactionStore) Create(ctx context.Context, payload models.PaymentRequest) (*models.Transaction, error) {
	if err := ValidatePayment(payload); err != nil {
		return nil, err
	}

	now := s.clock.Now()
	id, err := identifier.NewTransactionID(s.idPrefix, now)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate transaction id: %w", err)
	}

	s.mu.Lock()
	s.seq++
	seq := s.seq
	s.mu.Unlock()

	txn := models.Transaction{
		ID:               id,
		SessionID:        identifier.NewSessionID(now),
		RequesterName:    payload.RequesterName,
		RequesterContact: payload.RequesterContact,
		RequesterPhone:   payload.RequesterPhone,
		Amount:           payload.Amount,
		Status:           models.StatusPending,
		CreatedAt:        now,
		Seq:              seq,
	}

	if err := s.put(ctx, &txn); err != nil {
		return nil, err
	}

	out := txn
	return &out, nil
}

func (s *DynamoTransactionStore) Get(ctx context.Context, id string) (*models.Transaction, error) {
	txn := &models.Transaction{ID: id}

	result, err := s.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: aws.String(s.tableName),
		Key: map[string]types.AttributeValue{
			"PK": &types.AttributeValueMemberS{Value: txn.GetPK()},
			"SK": &types.AttributeValueMemberS{Value: txn.GetSK()},
		},
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to get transaction from DynamoDB")
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}

	if result.Item == nil {
		return nil, nil
	}

	var stored models.Transaction
	if err := attributevalue.UnmarshalMap(result.Item, &stored); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transaction: %w", err)
	}
	return &stored, nil
}

func (s *DynamoTransactionStore) UpdateStatus(ctx context.Context, id string, update models.StatusUpdate) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	applyUpdate(txn, update, s.clock)

	if err := s.put(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *DynamoTransactionStore) List(ctx context.Context) ([]models.Transaction, error) {
	result, err := s.client.Scan(ctx, &dynamodb.ScanInput{
		TableName:        aws.String(s.tableName),
		FilterExpression: aws.String("begins_with(PK, :prefix)"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":prefix": &types.AttributeValueMemberS{Value: "TXN!"},
		},
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to scan transactions from DynamoDB")
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}

	var list []models.Transaction
	if err := attributevalue.UnmarshalListOfMaps(result.Items, &list); err != nil {
		return nil, fmt.Errorf("failed to unmarshal transactions: %w", err)
	}

	sort.Slice(list, func(i, j int) bool {
		if !list[i].CreatedAt.Equal(list[j].CreatedAt) {
			return list[i].CreatedAt.After(list[j].CreatedAt)
		}
		return list[i].Seq < list[j].Seq
	})
	return list, nil
}

func (s *DynamoTransactionStore) put(ctx context.Context, txn *models.Transaction) error {
	item, err := attributevalue.MarshalMap(txn)
	if err != nil {
		s.logger.WithError(err).Error("Failed to marshal transaction for DynamoDB")
		return fmt.Errorf("failed to marshal transaction: %w", err)
	}

	item["PK"] = &types.AttributeValueMemberS{Value: txn.GetPK()}
	item["SK"] = &types.AttributeValueMemberS{Value: txn.GetSK()}

	_, err = s.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: aws.String(s.tableName),
		Item:      item,
	})
	if err != nil {
		s.logger.WithError(err).Error("Failed to store transaction in DynamoDB")
		return fmt.Errorf("failed to store transaction: %w", err)
	}
	return nil
}
