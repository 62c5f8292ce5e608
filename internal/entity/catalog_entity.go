package entity

type Environment string

const (
	EnvironmentProduction Environment = "production"
	EnvironmentSandbox    Environment = "sandbox"
	EnvironmentSimulated  Environment = "simulated"
)

// ProductHandle is the purchase medium's view of a product, resolved by id.
type ProductHandle struct {
	ID           string
	DisplayName  string
	DisplayPrice string
}

// CatalogEntry pairs a backend plan with its purchase-medium product.
// Entries are replaced wholesale on every catalog load, never merged.
type CatalogEntry struct {
	PlanCode      string
	ProductID     string
	PlanName      string
	Description   string
	Price         float64
	Currency      string
	IsRecommended bool

	// Resolved is false when the purchase medium did not return a handle
	// for ProductID. The entry stays in the catalog so the pricing UI can
	// still render backend metadata.
	Resolved bool
}
