package entity

import "time"

// StoreTransaction is the purchase medium's signed record of a completed
// purchase. The core only reads it; the medium keeps redelivering it until
// Finish is called for its id.
type StoreTransaction struct {
	ID           string
	OriginalID   string
	ProductID    string
	PurchaseDate time.Time
	Quantity     int
}

// ProofMaterial is what gets submitted to the entitlement ledger to justify
// granting an entitlement. ReceiptData is always base64: either the medium's
// native receipt blob, or a JSON fallback built from transaction fields.
type ProofMaterial struct {
	ReceiptData string
	Environment Environment
	Fallback    bool
}
