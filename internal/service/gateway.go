// FILE: internal/service/gateway.go
package service

import (
	"context"

	"membership-iap-core/internal/dto"
	"membership-iap-core/internal/gateway/ledger"
)

// LedgerGateway is the slice of the entitlement backend the services need.
// ledger.Client is the production implementation.
type LedgerGateway interface {
	GetProducts(ctx context.Context) ([]dto.ProductItem, error)
	Verify(ctx context.Context, receiptData, transactionID string) (*dto.VerifyResponse, error)
	GetStatus(ctx context.Context) (*dto.MembershipStatus, error)
	GetSubscriptions(ctx context.Context) ([]dto.TransactionRecord, error)
	Refresh(ctx context.Context) (*dto.RefreshResponse, error)
}

var _ LedgerGateway = &ledger.Client{}
