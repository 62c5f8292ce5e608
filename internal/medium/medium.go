// Package medium is the boundary to the platform purchase medium: the
// on-device store that executes purchases and issues signed transactions.
// The medium's internals are a black box; this package only names the
// operations the reconciliation core needs from it.
package medium

import (
	"context"

	"membership-iap-core/internal/entity"
)

type OutcomeState string

const (
	// StateCompleted means the medium produced a signed transaction.
	StateCompleted OutcomeState = "completed"
	// StateCancelled means the user backed out of the purchase dialog.
	StateCancelled OutcomeState = "cancelled"
	// StateDeferred means the platform parked the purchase (e.g. pending
	// parental approval); it may complete later out of band.
	StateDeferred OutcomeState = "deferred"
)

// Outcome is the terminal result of a single medium purchase call.
// Transaction is set only when State is StateCompleted.
type Outcome struct {
	State       OutcomeState
	Transaction *entity.StoreTransaction
}

type Medium interface {
	// Products resolves handles for the given product ids. Ids unknown to
	// the medium are simply absent from the result, not an error.
	Products(ctx context.Context, ids []string) ([]entity.ProductHandle, error)

	// Purchase runs the medium's purchase dialog for one product and blocks
	// until the user completes, cancels, or the platform defers.
	Purchase(ctx context.Context, productID string) (*Outcome, error)

	// Finish acknowledges a transaction so the medium stops redelivering it.
	// Must only be called after the ledger accepted the proof for it.
	Finish(ctx context.Context, transactionID string) error

	// Sync asks the medium to re-synchronize its full transaction ledger.
	// May prompt the user to re-authenticate and block for as long as the
	// platform allows.
	Sync(ctx context.Context) error
}

// ReceiptSource reads the medium's native receipt blob. A nil or empty
// result means the blob has not materialized yet, which is normal right
// after a purchase.
type ReceiptSource interface {
	Read() ([]byte, error)
}
