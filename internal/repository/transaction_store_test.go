package repository_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/payportal/payportal/internal/models"
	"github.com/payportal/payportal/internal/repository"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validPayload() models.PaymentRequest {
	return models.PaymentRequest{
		RequesterName:    "Alice",
		RequesterContact: "a@x.com",
		RequesterPhone:   "555",
		Amount:           100,
	}
}

func newTransactionStore(t *testing.T) (*repository.MemoryTransactionStore, *fakeClock) {
	t.Helper()
	clk := &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return repository.NewMemoryTransactionStore("TXN", clk, logger), clk
}

func TestCreateAssignsIdentifiersAndPendingStatus(t *testing.T) {
	store, _ := newTransactionStore(t)

	txn, err := store.Create(context.Background(), validPayload())
	require.NoError(t, err)

	assert.Regexp(t, `^TXN-`, txn.ID)
	assert.Regexp(t, `^SES-`, txn.SessionID)
	assert.Equal(t, models.StatusPending, txn.Status)
	assert.Equal(t, "Alice", txn.RequesterName)
	assert.False(t, txn.AdminVerified)
	assert.False(t, txn.AdminApproved)
	assert.False(t, txn.AdminRejected)
}

func TestCreateValidatesPayload(t *testing.T) {
	store, _ := newTransactionStore(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*models.PaymentRequest)
	}{
		{"missing name", func(p *models.PaymentRequest) { p.RequesterName = "" }},
		{"missing contact", func(p *models.PaymentRequest) { p.RequesterContact = "" }},
		{"missing phone", func(p *models.PaymentRequest) { p.RequesterPhone = "  " }},
		{"zero amount", func(p *models.PaymentRequest) { p.Amount = 0 }},
		{"negative amount", func(p *models.PaymentRequest) { p.Amount = -5 }},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			payload := validPayload()
			tc.mutate(&payload)

			_, err := store.Create(ctx, payload)
			assert.ErrorIs(t, err, repository.ErrInvalidPayload)
		})
	}
}

func TestGetUnknownID(t *testing.T) {
	store, _ := newTransactionStore(t)

	txn, err := store.Get(context.Background(), "TXN-MISSING")
	require.NoError(t, err)
	assert.Nil(t, txn)
}

func TestUpdateStatusUnknownID(t *testing.T) {
	store, _ := newTransactionStore(t)

	_, err := store.UpdateStatus(context.Background(), "TXN-MISSING", models.StatusUpdate{
		Status: models.StatusVerified,
	})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestUpdateStatusSetsFlagsAndTimestamps(t *testing.T) {
	store, clk := newTransactionStore(t)
	ctx := context.Background()

	txn, err := store.Create(ctx, validPayload())
	require.NoError(t, err)

	clk.Advance(time.Minute)
	updated, err := store.UpdateStatus(ctx, txn.ID, models.StatusUpdate{
		Status:        models.StatusApproved,
		AdminApproved: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusApproved, updated.Status)
	assert.True(t, updated.AdminApproved)
	require.NotNil(t, updated.AdminApprovedAt)
	assert.Equal(t, clk.Now(), *updated.AdminApprovedAt)
	assert.Nil(t, updated.AdminRejectedAt)
}

func TestFlagsAreIndependentAndNeverReset(t *testing.T) {
	store, _ := newTransactionStore(t)
	ctx := context.Background()

	txn, err := store.Create(ctx, validPayload())
	require.NoError(t, err)

	_, err = store.UpdateStatus(ctx, txn.ID, models.StatusUpdate{
		Status:        models.StatusApproved,
		AdminApproved: true,
	})
	require.NoError(t, err)

	// A later rejection flips the status but keeps the approval flag.
	updated, err := store.UpdateStatus(ctx, txn.ID, models.StatusUpdate{
		Status:        models.StatusRejected,
		AdminRejected: true,
	})
	require.NoError(t, err)

	assert.Equal(t, models.StatusRejected, updated.Status)
	assert.True(t, updated.AdminApproved)
	assert.True(t, updated.AdminRejected)
}

func TestUpdateStatusLeavesStatusWhenEmpty(t *testing.T) {
	store, _ := newTransactionStore(t)
	ctx := context.Background()

	txn, err := store.Create(ctx, validPayload())
	require.NoError(t, err)

	updated, err := store.UpdateStatus(ctx, txn.ID, models.StatusUpdate{AdminVerified: true})
	require.NoError(t, err)

	assert.Equal(t, models.StatusPending, updated.Status)
	assert.True(t, updated.AdminVerified)
}

func TestListNewestFirst(t *testing.T) {
	store, clk := newTransactionStore(t)
	ctx := context.Background()

	first, err := store.Create(ctx, validPayload())
	require.NoError(t, err)

	clk.Advance(time.Second)
	second, err := store.Create(ctx, validPayload())
	require.NoError(t, err)

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)
}

func TestConcurrentUpdatesDoNotLoseWrites(t *testing.T) {
	store, _ := newTransactionStore(t)
	ctx := context.Background()

	txn, err := store.Create(ctx, validPayload())
	require.NoError(t, err)

	// A requester verifying and an approver approving at the same
	// instant must not interleave partial writes: whichever status wins,
	// both flag writes survive.
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, err := store.UpdateStatus(ctx, txn.ID, models.StatusUpdate{Status: models.StatusVerified})
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, err := store.UpdateStatus(ctx, txn.ID, models.StatusUpdate{
				Status:        models.StatusApproved,
				AdminApproved: true,
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	final, err := store.Get(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, final.AdminApproved)
	assert.Contains(t, []models.TransactionStatus{models.StatusVerified, models.StatusApproved}, final.Status)
}

func TestListStableForEqualTimestamps(t *testing.T) {
	store, _ := newTransactionStore(t)
	ctx := context.Background()

	var ids []string
	for i := 0; i < 4; i++ {
		txn, err := store.Create(ctx, validPayload())
		require.NoError(t, err)
		ids = append(ids, txn.ID)
	}

	list, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 4)

	// Same CreatedAt for all four: insertion order is preserved.
	for i, txn := range list {
		assert.Equal(t, ids[i], txn.ID)
	}
}
