// FILE: internal/dto/iap_dto.go
package dto

// --- Ledger wire DTOs (entitlement backend contract) ---

type ProductsResponse struct {
	Success bool          `json:"success"`
	Message string        `json:"message,omitempty"`
	Data    []ProductItem `json:"data"`
}

type ProductItem struct {
	ID             int      `json:"id"`
	ProductID      string   `json:"product_id"`
	ProductName    string   `json:"product_name"`
	Description    string   `json:"product_description,omitempty"`
	DisplayPrice   float64  `json:"display_price,omitempty"`
	Price          float64  `json:"price,omitempty"`
	Currency       string   `json:"currency,omitempty"`
	IsRecommended  bool     `json:"is_recommended,omitempty"`
	MembershipPlan *PlanRef `json:"membership_plan,omitempty"`
}

type PlanRef struct {
	ID       int     `json:"id,omitempty"`
	PlanCode string  `json:"plan_code"`
	PlanName string  `json:"plan_name,omitempty"`
	Price    float64 `json:"price,omitempty"`
}

type VerifyRequest struct {
	ReceiptData   string `json:"receiptData"`
	TransactionID string `json:"transactionId,omitempty"`
}

type VerifyResponse struct {
	Success    bool              `json:"success"`
	Message    string            `json:"message,omitempty"`
	Membership *MembershipStatus `json:"membership,omitempty"`
}

// MembershipStatus is the ledger-owned snapshot. The core reads it and passes
// it upward; it is never cached or derived client-side.
type MembershipStatus struct {
	HasMembership bool     `json:"hasMembership"`
	CurrentPlan   *PlanRef `json:"currentPlan,omitempty"`
	Status        string   `json:"status,omitempty"` // free/active/expired/cancelled
	StartDate     string   `json:"startDate,omitempty"`
	EndDate       string   `json:"endDate,omitempty"`
	DaysRemaining int      `json:"daysRemaining,omitempty"`
	AutoRenew     bool     `json:"autoRenew,omitempty"`
	Source        string   `json:"source,omitempty"`
}

type StatusResponse struct {
	Success bool              `json:"success"`
	Message string            `json:"message,omitempty"`
	Data    *MembershipStatus `json:"data,omitempty"`
}

type SubscriptionsResponse struct {
	Success      bool                `json:"success"`
	Message      string              `json:"message,omitempty"`
	Transactions []TransactionRecord `json:"transactions"`
}

type TransactionRecord struct {
	TransactionID         string   `json:"transaction_id"`
	OriginalTransactionID string   `json:"original_transaction_id,omitempty"`
	ProductID             string   `json:"product_id"`
	PurchaseDate          string   `json:"purchase_date,omitempty"`
	ExpiresDate           string   `json:"expires_date,omitempty"`
	IsActive              bool     `json:"is_active"`
	Membership            *PlanRef `json:"membership,omitempty"`
}

type RefreshResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message,omitempty"`
	Data    *RefreshData `json:"data,omitempty"`
}

type RefreshData struct {
	IsActive          bool               `json:"isActive"`
	ExpiresDate       string             `json:"expires_date,omitempty"`
	AutoRenewStatus   bool               `json:"auto_renew_status,omitempty"`
	Membership        *MembershipStatus  `json:"membership,omitempty"`
	LatestTransaction *TransactionRecord `json:"latest_transaction,omitempty"`
}

// FallbackReceipt is the reduced-trust proof payload built from transaction
// fields when the medium's native receipt blob cannot be obtained. It is
// base64-encoded as a whole before being placed in VerifyRequest.ReceiptData.
type FallbackReceipt struct {
	Environment           string `json:"environment"`
	TransactionID         string `json:"transaction_id"`
	OriginalTransactionID string `json:"original_transaction_id"`
	ProductID             string `json:"product_id"`
	PurchaseDate          string `json:"purchase_date"`
	Quantity              int    `json:"quantity"`
	Note                  string `json:"note,omitempty"`
}

// --- Facade DTOs (UI layer) ---

type PurchaseRequest struct {
	PlanCode string `json:"plan_code" validate:"required"`
}

type PurchaseResponse struct {
	Success    bool              `json:"success"`
	Status     string            `json:"status"`
	Message    string            `json:"message,omitempty"`
	Membership *MembershipStatus `json:"membership,omitempty"`
}

type CatalogEntryResponse struct {
	PlanCode      string  `json:"plan_code"`
	PlanName      string  `json:"plan_name"`
	ProductID     string  `json:"product_id"`
	Price         float64 `json:"price"`
	Currency      string  `json:"currency,omitempty"`
	DisplayPrice  string  `json:"display_price,omitempty"`
	IsRecommended bool    `json:"is_recommended"`
	Available     bool    `json:"available"`
}
