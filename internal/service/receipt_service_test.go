package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"testing"
	"time"

	"membership-iap-core/internal/dto"
	"membership-iap-core/internal/entity"
	"membership-iap-core/internal/pkg/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTransaction() *entity.StoreTransaction {
	return &entity.StoreTransaction{
		ID:           "1000000123",
		OriginalID:   "1000000100",
		ProductID:    "com.app.plus.monthly",
		PurchaseDate: time.Date(2025, 6, 1, 12, 30, 0, 0, time.UTC),
		Quantity:     1,
	}
}

// newTestReceiptService builds the service with an instant sleep that
// counts invocations instead of waiting.
func newTestReceiptService(tier entity.Environment, src *scriptedReceiptSource, med *fakeMedium) (*receiptService, *int) {
	svc := NewReceiptService(tier, src, med, logger.NopLogger{}, 15, 500*time.Millisecond).(*receiptService)
	sleeps := 0
	svc.sleep = func(ctx context.Context, d time.Duration) error {
		sleeps++
		return nil
	}
	return svc, &sleeps
}

func decodeFallback(t *testing.T, proof *entity.ProofMaterial) dto.FallbackReceipt {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(proof.ReceiptData)
	require.NoError(t, err)
	var payload dto.FallbackReceipt
	require.NoError(t, json.Unmarshal(raw, &payload))
	return payload
}

func TestAcquireProofExistingReceipt(t *testing.T) {
	blob := []byte("native-receipt-bytes")
	src := &scriptedReceiptSource{data: blob, availableOnRead: 1}
	svc, sleeps := newTestReceiptService(entity.EnvironmentSandbox, src, &fakeMedium{})

	proof, err := svc.AcquireProof(context.Background(), testTransaction())
	assert.NoError(t, err)
	assert.False(t, proof.Fallback)
	assert.Equal(t, base64.StdEncoding.EncodeToString(blob), proof.ReceiptData)
	assert.Equal(t, 0, *sleeps, "no polling when the blob already exists")
}

func TestAcquireProofPollingEventuallySucceeds(t *testing.T) {
	blob := []byte("late-receipt")
	// Read 1 is the direct check; reads 2-4 are polls, so the blob shows
	// up on the 3rd poll.
	src := &scriptedReceiptSource{data: blob, availableOnRead: 4}
	med := &fakeMedium{}
	svc, sleeps := newTestReceiptService(entity.EnvironmentSandbox, src, med)

	proof, err := svc.AcquireProof(context.Background(), testTransaction())
	assert.NoError(t, err)
	assert.False(t, proof.Fallback, "real receipt wins over fallback")
	assert.Equal(t, base64.StdEncoding.EncodeToString(blob), proof.ReceiptData)
	assert.Equal(t, 2, *sleeps)
	assert.Equal(t, 0, med.syncCalls, "no resync when polling succeeds")
}

func TestAcquireProofResyncMaterializesReceipt(t *testing.T) {
	blob := []byte("post-sync-receipt")
	src := &scriptedReceiptSource{}
	med := &fakeMedium{}
	med.onSync = func() {
		src.data = blob
		src.availableOnRead = src.reads + 1
	}
	svc, _ := newTestReceiptService(entity.EnvironmentSandbox, src, med)

	proof, err := svc.AcquireProof(context.Background(), testTransaction())
	assert.NoError(t, err)
	assert.False(t, proof.Fallback)
	assert.Equal(t, 1, med.syncCalls)
	assert.Equal(t, base64.StdEncoding.EncodeToString(blob), proof.ReceiptData)
}

func TestAcquireProofExhaustionFallsBack(t *testing.T) {
	src := &scriptedReceiptSource{} // never materializes
	med := &fakeMedium{syncErr: assert.AnError}
	svc, sleeps := newTestReceiptService(entity.EnvironmentSandbox, src, med)

	tx := testTransaction()
	proof, err := svc.AcquireProof(context.Background(), tx)
	assert.NoError(t, err)
	assert.True(t, proof.Fallback)
	assert.Equal(t, entity.EnvironmentSandbox, proof.Environment)
	assert.Equal(t, 15, *sleeps, "full polling budget spent before degrading")

	payload := decodeFallback(t, proof)
	assert.Equal(t, "sandbox", payload.Environment)
	assert.Equal(t, "1000000123", payload.TransactionID)
	assert.Equal(t, "1000000100", payload.OriginalTransactionID)
	assert.Equal(t, "com.app.plus.monthly", payload.ProductID)
	assert.Equal(t, "2025-06-01T12:30:00Z", payload.PurchaseDate)
	assert.Equal(t, 1, payload.Quantity)
	assert.NotEmpty(t, payload.Note)
}

func TestAcquireProofReadErrorDegradesToFallback(t *testing.T) {
	src := &scriptedReceiptSource{readErr: assert.AnError}
	med := &fakeMedium{}
	svc, _ := newTestReceiptService(entity.EnvironmentSandbox, src, med)

	tx := testTransaction()
	proof, err := svc.AcquireProof(context.Background(), tx)
	assert.NoError(t, err, "an unreadable blob must not fail the purchase")
	assert.True(t, proof.Fallback)
	assert.Equal(t, 1, med.syncCalls, "every attempt runs before degrading")

	payload := decodeFallback(t, proof)
	assert.Equal(t, "sandbox", payload.Environment)
	assert.Equal(t, tx.ID, payload.TransactionID)
}

func TestAcquireProofSimulatedTierSkipsReceiptMachinery(t *testing.T) {
	src := &scriptedReceiptSource{data: []byte("should-not-be-read"), availableOnRead: 1}
	med := &fakeMedium{}
	svc, sleeps := newTestReceiptService(entity.EnvironmentSimulated, src, med)

	proof, err := svc.AcquireProof(context.Background(), testTransaction())
	assert.NoError(t, err)
	assert.True(t, proof.Fallback)
	assert.Equal(t, entity.EnvironmentSimulated, proof.Environment)
	assert.Equal(t, 0, src.reads)
	assert.Equal(t, 0, med.syncCalls)
	assert.Equal(t, 0, *sleeps)

	payload := decodeFallback(t, proof)
	assert.Equal(t, "simulated", payload.Environment)
	assert.Empty(t, payload.Note)
}

func TestAcquireProofPollingStopsOnCancelledContext(t *testing.T) {
	src := &scriptedReceiptSource{}
	svc := NewReceiptService(entity.EnvironmentSandbox, src, &fakeMedium{}, logger.NopLogger{}, 15, 500*time.Millisecond).(*receiptService)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := svc.AcquireProof(ctx, testTransaction())
	assert.Error(t, err)
	assert.Equal(t, entity.ErrKindNetworkError, entity.KindOf(err))
}
