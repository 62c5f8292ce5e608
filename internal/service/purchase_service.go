// FILE: internal/service/purchase_service.go
package service

import (
	"context"
	"sync/atomic"
	"time"

	"membership-iap-core/internal/dto"
	"membership-iap-core/internal/entity"
	"membership-iap-core/internal/medium"
	"membership-iap-core/internal/pkg/logger"
	"membership-iap-core/pkg/events"
	pktNats "membership-iap-core/pkg/nats"

	"github.com/google/uuid"
)

type IPurchaseService interface {
	// Purchase drives one purchase attempt end-to-end for a plan code.
	// The returned membership snapshot is whatever the ledger echoed with
	// its verdict; it may be nil.
	Purchase(ctx context.Context, planCode string) (*dto.MembershipStatus, error)

	// Restore re-synchronizes the medium's transaction ledger and then asks
	// the backend to recompute membership from it. It is the designated
	// recovery path for transactions that completed on the medium but were
	// never finalized. Restore does not contend for the purchase lock; a
	// caller wanting mutual exclusion serializes at the facade.
	Restore(ctx context.Context) (*dto.RefreshData, error)

	GetStatus(ctx context.Context) (*dto.MembershipStatus, error)
	GetHistory(ctx context.Context) ([]dto.TransactionRecord, error)
}

type purchaseService struct {
	catalog  ICatalogService
	receipts IReceiptService
	medium   medium.Medium
	ledger   LedgerGateway
	log      logger.ILogger
	events   *pktNats.Publisher

	// inFlight is the single-flight purchase lock. Instance-owned so tests
	// can build independent orchestrators.
	inFlight atomic.Bool
}

func NewPurchaseService(
	catalog ICatalogService,
	receipts IReceiptService,
	med medium.Medium,
	ledgerClient LedgerGateway,
	log logger.ILogger,
	eventPublisher *pktNats.Publisher,
) IPurchaseService {
	return &purchaseService{
		catalog:  catalog,
		receipts: receipts,
		medium:   med,
		ledger:   ledgerClient,
		log:      log,
		events:   eventPublisher,
	}
}

func (s *purchaseService) Purchase(ctx context.Context, planCode string) (*dto.MembershipStatus, error) {
	// Fast synchronous rejection of a duplicate attempt, before any I/O.
	if !s.inFlight.CompareAndSwap(false, true) {
		s.log.Warn("purchase", "Duplicate purchase attempt ignored", map[string]interface{}{
			"plan_code": planCode,
		})
		return nil, entity.ErrPurchaseInProgress
	}
	defer s.inFlight.Store(false)

	s.log.Info("purchase", "Purchase flow started", map[string]interface{}{
		"plan_code": planCode,
	})

	if s.catalog.IsEmpty() {
		// One reload only; an unresolvable plan after it fails below.
		if _, err := s.catalog.LoadCatalog(ctx); err != nil {
			s.log.Warn("purchase", "Catalog reload failed before resolve", map[string]interface{}{
				"error": err.Error(),
			})
		}
	}

	handle, ok := s.catalog.Resolve(planCode)
	if !ok {
		return nil, entity.ErrProductNotFound
	}

	outcome, err := s.medium.Purchase(ctx, handle.ID)
	if err != nil {
		return nil, entity.NewUnknown("purchase failed: " + err.Error())
	}

	switch outcome.State {
	case medium.StateCancelled:
		s.log.Info("purchase", "User cancelled at the store dialog", map[string]interface{}{
			"plan_code": planCode,
		})
		return nil, entity.ErrUserCancelled
	case medium.StateDeferred:
		// May complete later out of band; the next restore reconciles it.
		return nil, entity.NewUnknown("pending")
	case medium.StateCompleted:
		// continue below
	default:
		return nil, entity.NewUnknown("unrecognized purchase outcome")
	}

	tx := outcome.Transaction
	membership, err := s.verifyAndFinalize(ctx, tx)
	if err != nil {
		s.publish(ctx, "PURCHASE_FAILED", map[string]interface{}{
			"plan_code":      planCode,
			"transaction_id": tx.ID,
			"reason":         err.Error(),
		})
		return nil, err
	}

	s.publish(ctx, "PURCHASE_FINALIZED", map[string]interface{}{
		"plan_code":      planCode,
		"transaction_id": tx.ID,
		"product_id":     tx.ProductID,
	})
	return membership, nil
}

// verifyAndFinalize is the only code path that acknowledges a transaction to
// the medium, and it does so strictly after an accepted verdict. On any
// failure the transaction stays un-finalized so the medium redelivers it on
// the next launch or restore.
func (s *purchaseService) verifyAndFinalize(ctx context.Context, tx *entity.StoreTransaction) (*dto.MembershipStatus, error) {
	proof, err := s.receipts.AcquireProof(ctx, tx)
	if err != nil {
		return nil, err
	}

	resp, err := s.ledger.Verify(ctx, proof.ReceiptData, tx.ID)
	if err != nil {
		return nil, entity.NewNetworkError("verification call failed", err)
	}
	if !resp.Success {
		reason := resp.Message
		if reason == "" {
			reason = "receipt rejected"
		}
		s.log.Warn("purchase", "Ledger rejected the proof", map[string]interface{}{
			"transaction_id": tx.ID,
			"reason":         reason,
		})
		return nil, entity.NewReceiptVerificationFailed(reason)
	}

	if err := s.medium.Finish(ctx, tx.ID); err != nil {
		// Entitlement is already granted; the medium will redeliver and the
		// backend treats a re-verified transaction as idempotent.
		s.log.Warn("purchase", "Finalize failed after accepted verdict", map[string]interface{}{
			"transaction_id": tx.ID,
			"error":          err.Error(),
		})
	}

	s.log.Info("purchase", "Transaction verified and finalized", map[string]interface{}{
		"transaction_id": tx.ID,
		"product_id":     tx.ProductID,
		"fallback_proof": proof.Fallback,
	})
	return resp.Membership, nil
}

func (s *purchaseService) Restore(ctx context.Context) (*dto.RefreshData, error) {
	s.log.Info("restore", "Restore started", nil)

	if err := s.medium.Sync(ctx); err != nil {
		// Restore is not partially applied: no refresh after a failed sync.
		return nil, entity.NewNetworkError("store ledger resync failed", err)
	}

	resp, err := s.ledger.Refresh(ctx)
	if err != nil {
		return nil, entity.NewNetworkError("membership refresh failed", err)
	}
	if !resp.Success {
		reason := resp.Message
		if reason == "" {
			reason = "membership refresh rejected"
		}
		return nil, entity.NewReceiptVerificationFailed(reason)
	}

	s.publish(ctx, "RESTORE_COMPLETED", map[string]interface{}{})
	s.log.Info("restore", "Restore completed", nil)
	return resp.Data, nil
}

func (s *purchaseService) GetStatus(ctx context.Context) (*dto.MembershipStatus, error) {
	status, err := s.ledger.GetStatus(ctx)
	if err != nil {
		return nil, entity.NewNetworkError("status query failed", err)
	}
	return status, nil
}

func (s *purchaseService) GetHistory(ctx context.Context) ([]dto.TransactionRecord, error) {
	history, err := s.ledger.GetSubscriptions(ctx)
	if err != nil {
		return nil, entity.NewNetworkError("history query failed", err)
	}
	return history, nil
}

func (s *purchaseService) publish(ctx context.Context, eventType string, data map[string]interface{}) {
	if s.events == nil {
		return
	}
	data["event_id"] = uuid.NewString()
	data["occurred_at"] = time.Now()
	evt := events.BaseEvent{
		Type:       eventType,
		Data:       data,
		OccurredAt: time.Now(),
	}
	if err := s.events.Publish(ctx, evt); err != nil {
		s.log.Warn("purchase", "Failed to publish event", map[string]interface{}{
			"event": eventType,
			"error": err.Error(),
		})
	}
}
