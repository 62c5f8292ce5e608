// FILE: internal/service/receipt_service.go
package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"membership-iap-core/internal/dto"
	"membership-iap-core/internal/entity"
	"membership-iap-core/internal/medium"
	"membership-iap-core/internal/pkg/logger"
)

type IReceiptService interface {
	// AcquireProof obtains proof-of-purchase material for a completed
	// transaction. It degrades from the medium's native receipt blob to a
	// transaction-derived fallback payload rather than failing, so the
	// purchase flow never deadlocks on a missing receipt.
	AcquireProof(ctx context.Context, tx *entity.StoreTransaction) (*entity.ProofMaterial, error)
}

// proofAttempt returns a proof, or (nil, nil) to signal "try the next one".
type proofAttempt struct {
	name string
	run  func(ctx context.Context, tx *entity.StoreTransaction) (*entity.ProofMaterial, error)
}

type receiptService struct {
	receipts medium.ReceiptSource
	medium   medium.Medium
	log      logger.ILogger

	tier         entity.Environment
	pollAttempts int
	pollInterval time.Duration

	// sleep is swappable so polling tests don't wait on the wall clock.
	sleep func(ctx context.Context, d time.Duration) error

	attempts []proofAttempt
}

func NewReceiptService(
	tier entity.Environment,
	receipts medium.ReceiptSource,
	med medium.Medium,
	log logger.ILogger,
	pollAttempts int,
	pollInterval time.Duration,
) IReceiptService {
	s := &receiptService{
		receipts:     receipts,
		medium:       med,
		log:          log,
		tier:         tier,
		pollAttempts: pollAttempts,
		pollInterval: pollInterval,
		sleep:        sleepWithContext,
	}

	// The attempt order is fixed at construction by the environment tier,
	// so each branch is testable on its own.
	if tier == entity.EnvironmentSimulated {
		// No receipt mechanism exists at all in the simulated tier.
		s.attempts = []proofAttempt{
			{name: "simulated_fallback", run: s.simulatedFallback},
		}
	} else {
		s.attempts = []proofAttempt{
			{name: "existing_receipt", run: s.existingReceipt},
			{name: "poll_receipt", run: s.pollReceipt},
			{name: "sync_and_recheck", run: s.syncAndRecheck},
			{name: "sandbox_fallback", run: s.sandboxFallback},
		}
	}
	return s
}

func (s *receiptService) AcquireProof(ctx context.Context, tx *entity.StoreTransaction) (*entity.ProofMaterial, error) {
	for _, attempt := range s.attempts {
		proof, err := attempt.run(ctx, tx)
		if err != nil {
			return nil, fmt.Errorf("proof attempt %s: %w", attempt.name, err)
		}
		if proof != nil {
			s.log.Info("receipt", "Proof material acquired", map[string]interface{}{
				"attempt":        attempt.name,
				"transaction_id": tx.ID,
				"fallback":       proof.Fallback,
			})
			return proof, nil
		}
	}
	// Unreachable: the last attempt always constructs a fallback payload.
	return nil, entity.NewUnknown("no proof attempt produced material")
}

func (s *receiptService) existingReceipt(ctx context.Context, tx *entity.StoreTransaction) (*entity.ProofMaterial, error) {
	return s.readReceipt()
}

// pollReceipt re-checks for the blob on a fixed budget. The medium is
// expected to materialize it asynchronously shortly after a purchase.
func (s *receiptService) pollReceipt(ctx context.Context, tx *entity.StoreTransaction) (*entity.ProofMaterial, error) {
	for attempt := 1; attempt <= s.pollAttempts; attempt++ {
		proof, err := s.readReceipt()
		if err != nil {
			return nil, err
		}
		if proof != nil {
			s.log.Info("receipt", "Receipt materialized while polling", map[string]interface{}{
				"attempt": attempt,
			})
			return proof, nil
		}
		if err := s.sleep(ctx, s.pollInterval); err != nil {
			return nil, entity.NewNetworkError("receipt polling interrupted", err)
		}
	}
	return nil, nil
}

// syncAndRecheck issues one explicit resync, which may prompt the user to
// re-authenticate. A resync failure is not terminal; the fallback payload
// still follows.
func (s *receiptService) syncAndRecheck(ctx context.Context, tx *entity.StoreTransaction) (*entity.ProofMaterial, error) {
	if err := s.medium.Sync(ctx); err != nil {
		s.log.Warn("receipt", "Medium resync failed", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	}
	return s.readReceipt()
}

func (s *receiptService) sandboxFallback(ctx context.Context, tx *entity.StoreTransaction) (*entity.ProofMaterial, error) {
	return s.buildFallback(tx, entity.EnvironmentSandbox, "Receipt not available, using transaction data")
}

func (s *receiptService) simulatedFallback(ctx context.Context, tx *entity.StoreTransaction) (*entity.ProofMaterial, error) {
	return s.buildFallback(tx, entity.EnvironmentSimulated, "")
}

func (s *receiptService) readReceipt() (*entity.ProofMaterial, error) {
	data, err := s.receipts.Read()
	if err != nil {
		// An unreadable blob is treated the same as an absent one; the
		// attempt chain degrades to the fallback payload instead of
		// stranding a completed transaction on an environment quirk.
		s.log.Warn("receipt", "Receipt blob read failed, treating as absent", map[string]interface{}{
			"error": err.Error(),
		})
		return nil, nil
	}
	if len(data) == 0 {
		return nil, nil
	}
	return &entity.ProofMaterial{
		ReceiptData: base64.StdEncoding.EncodeToString(data),
		Environment: s.tier,
	}, nil
}

func (s *receiptService) buildFallback(tx *entity.StoreTransaction, env entity.Environment, note string) (*entity.ProofMaterial, error) {
	payload := dto.FallbackReceipt{
		Environment:           string(env),
		TransactionID:         tx.ID,
		OriginalTransactionID: tx.OriginalID,
		ProductID:             tx.ProductID,
		PurchaseDate:          tx.PurchaseDate.UTC().Format(time.RFC3339),
		Quantity:              tx.Quantity,
		Note:                  note,
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode fallback receipt: %w", err)
	}
	return &entity.ProofMaterial{
		ReceiptData: base64.StdEncoding.EncodeToString(raw),
		Environment: env,
		Fallback:    true,
	}, nil
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
