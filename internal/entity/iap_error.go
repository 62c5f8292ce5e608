package entity

import (
	"errors"
	"fmt"
)

type IAPErrorKind string

const (
	ErrKindUserCancelled             IAPErrorKind = "user_cancelled"
	ErrKindPurchaseInProgress        IAPErrorKind = "purchase_in_progress"
	ErrKindProductNotFound           IAPErrorKind = "product_not_found"
	ErrKindReceiptVerificationFailed IAPErrorKind = "receipt_verification_failed"
	ErrKindNetworkError              IAPErrorKind = "network_error"
	ErrKindUnknown                   IAPErrorKind = "unknown"
)

// IAPError is the closed error set of the purchase flow. Handlers switch on
// Kind; the six kinds above are the only ones the core produces.
type IAPError struct {
	Kind   IAPErrorKind
	Reason string
	Err    error
}

func (e *IAPError) Error() string {
	if e.Reason == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Reason)
}

func (e *IAPError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match on kind: errors.Is(err, ErrUserCancelled).
func (e *IAPError) Is(target error) bool {
	t, ok := target.(*IAPError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Kind sentinels for errors.Is checks.
var (
	ErrUserCancelled      = &IAPError{Kind: ErrKindUserCancelled}
	ErrPurchaseInProgress = &IAPError{Kind: ErrKindPurchaseInProgress}
	ErrProductNotFound    = &IAPError{Kind: ErrKindProductNotFound}
)

func NewReceiptVerificationFailed(reason string) *IAPError {
	return &IAPError{Kind: ErrKindReceiptVerificationFailed, Reason: reason}
}

func NewNetworkError(reason string, err error) *IAPError {
	return &IAPError{Kind: ErrKindNetworkError, Reason: reason, Err: err}
}

func NewUnknown(reason string) *IAPError {
	return &IAPError{Kind: ErrKindUnknown, Reason: reason}
}

// KindOf extracts the taxonomy kind from any error in a wrap chain.
// Errors produced outside the purchase flow classify as unknown.
func KindOf(err error) IAPErrorKind {
	var iapErr *IAPError
	if errors.As(err, &iapErr) {
		return iapErr.Kind
	}
	return ErrKindUnknown
}
