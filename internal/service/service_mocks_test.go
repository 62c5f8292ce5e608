package service

import (
	"context"
	"sync"

	"membership-iap-core/internal/dto"
	"membership-iap-core/internal/entity"
	"membership-iap-core/internal/medium"
)

// Hand-written fakes for the two external collaborators. Fields are plain
// so each test scripts exactly the behavior it needs.

type fakeLedger struct {
	products      []dto.ProductItem
	productsErr   error
	productsCalls int

	verifyResp  *dto.VerifyResponse
	verifyErr   error
	verifyCalls int
	lastReceipt string
	lastTxID    string

	status    *dto.MembershipStatus
	statusErr error

	history    []dto.TransactionRecord
	historyErr error

	refreshResp  *dto.RefreshResponse
	refreshErr   error
	refreshCalls int
}

func (f *fakeLedger) GetProducts(ctx context.Context) ([]dto.ProductItem, error) {
	f.productsCalls++
	return f.products, f.productsErr
}

func (f *fakeLedger) Verify(ctx context.Context, receiptData, transactionID string) (*dto.VerifyResponse, error) {
	f.verifyCalls++
	f.lastReceipt = receiptData
	f.lastTxID = transactionID
	return f.verifyResp, f.verifyErr
}

func (f *fakeLedger) GetStatus(ctx context.Context) (*dto.MembershipStatus, error) {
	return f.status, f.statusErr
}

func (f *fakeLedger) GetSubscriptions(ctx context.Context) ([]dto.TransactionRecord, error) {
	return f.history, f.historyErr
}

func (f *fakeLedger) Refresh(ctx context.Context) (*dto.RefreshResponse, error) {
	f.refreshCalls++
	return f.refreshResp, f.refreshErr
}

type fakeMedium struct {
	mu sync.Mutex

	handles     []entity.ProductHandle
	productsErr error

	outcome         *medium.Outcome
	purchaseErr     error
	purchaseCalls   int
	purchaseGate    chan struct{} // when set, Purchase blocks until closed
	purchaseStarted chan struct{} // closed once the first Purchase begins
	startOnce       sync.Once

	finishCalls int
	finishedIDs []string
	finishErr   error

	syncErr   error
	syncCalls int
	onSync    func()
}

func (f *fakeMedium) Products(ctx context.Context, ids []string) ([]entity.ProductHandle, error) {
	return f.handles, f.productsErr
}

func (f *fakeMedium) Purchase(ctx context.Context, productID string) (*medium.Outcome, error) {
	f.mu.Lock()
	f.purchaseCalls++
	gate := f.purchaseGate
	f.mu.Unlock()

	if f.purchaseStarted != nil {
		f.startOnce.Do(func() { close(f.purchaseStarted) })
	}
	if gate != nil {
		<-gate
	}
	return f.outcome, f.purchaseErr
}

func (f *fakeMedium) Finish(ctx context.Context, transactionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finishCalls++
	f.finishedIDs = append(f.finishedIDs, transactionID)
	return f.finishErr
}

func (f *fakeMedium) Sync(ctx context.Context) error {
	f.mu.Lock()
	f.syncCalls++
	hook := f.onSync
	f.mu.Unlock()
	if hook != nil {
		hook()
	}
	return f.syncErr
}

// fakeReceipts stands in for the acquisition strategy when a purchase test
// doesn't care how proof material is produced.
type fakeReceipts struct {
	proof *entity.ProofMaterial
	err   error
	calls int
}

func (f *fakeReceipts) AcquireProof(ctx context.Context, tx *entity.StoreTransaction) (*entity.ProofMaterial, error) {
	f.calls++
	return f.proof, f.err
}

// scriptedReceiptSource yields data starting from a given read index.
// availableOnRead == 0 means the blob never materializes. A readErr makes
// every read fail instead.
type scriptedReceiptSource struct {
	data            []byte
	availableOnRead int
	readErr         error
	reads           int
}

func (s *scriptedReceiptSource) Read() ([]byte, error) {
	s.reads++
	if s.readErr != nil {
		return nil, s.readErr
	}
	if s.availableOnRead > 0 && s.reads >= s.availableOnRead {
		return s.data, nil
	}
	return nil, nil
}
