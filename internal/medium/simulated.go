package medium

import (
	"context"
	"fmt"
	"sync"
	"time"

	"membership-iap-core/internal/entity"

	"github.com/google/uuid"
)

// SimulatedMedium is the purchase medium used in the simulated tier, where
// no platform store exists at all. Every purchase auto-completes with a
// generated transaction and no receipt blob is ever produced.
type SimulatedMedium struct {
	mu       sync.Mutex
	prices   map[string]string
	finished map[string]bool
}

// Ensure SimulatedMedium implements Medium
var _ Medium = &SimulatedMedium{}

func NewSimulatedMedium() *SimulatedMedium {
	return &SimulatedMedium{
		prices:   make(map[string]string),
		finished: make(map[string]bool),
	}
}

// SetPrice registers a display price for a product id so Products can
// resolve it. Unregistered ids resolve with a placeholder price.
func (m *SimulatedMedium) SetPrice(productID, displayPrice string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prices[productID] = displayPrice
}

func (m *SimulatedMedium) Products(ctx context.Context, ids []string) ([]entity.ProductHandle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	handles := make([]entity.ProductHandle, 0, len(ids))
	for _, id := range ids {
		price, ok := m.prices[id]
		if !ok {
			price = "$0.00"
		}
		handles = append(handles, entity.ProductHandle{
			ID:           id,
			DisplayName:  id,
			DisplayPrice: price,
		})
	}
	return handles, nil
}

func (m *SimulatedMedium) Purchase(ctx context.Context, productID string) (*Outcome, error) {
	txID := fmt.Sprintf("sim-%s", uuid.NewString())
	return &Outcome{
		State: StateCompleted,
		Transaction: &entity.StoreTransaction{
			ID:           txID,
			OriginalID:   txID,
			ProductID:    productID,
			PurchaseDate: time.Now().UTC(),
			Quantity:     1,
		},
	}, nil
}

func (m *SimulatedMedium) Finish(ctx context.Context, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finished[transactionID] = true
	return nil
}

// Finished reports whether a transaction was acknowledged. Used by the
// simulated tier's smoke checks.
func (m *SimulatedMedium) Finished(transactionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.finished[transactionID]
}

func (m *SimulatedMedium) Sync(ctx context.Context) error {
	return nil
}

// EmptyReceiptSource never yields a blob. It backs the simulated tier,
// which skips straight to fallback proof construction anyway.
type EmptyReceiptSource struct{}

func (EmptyReceiptSource) Read() ([]byte, error) {
	return nil, nil
}
