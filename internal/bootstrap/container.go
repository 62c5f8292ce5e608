package bootstrap

import (
	"log"

	"membership-iap-core/internal/config"
	"membership-iap-core/internal/controller"
	"membership-iap-core/internal/entity"
	"membership-iap-core/internal/gateway/ledger"
	"membership-iap-core/internal/medium"
	"membership-iap-core/internal/pkg/logger"
	"membership-iap-core/internal/service"

	pktNats "membership-iap-core/pkg/nats"
)

type Container struct {
	// Controllers
	PurchaseController controller.IPurchaseController

	// Services (exposed for library embedding)
	PurchaseService service.IPurchaseService
	CatalogService  service.ICatalogService

	Logger logger.ILogger
}

// NewContainer wires the purchase core. med is the platform purchase
// medium; pass nil to run against the simulated store (development tier).
func NewContainer(cfg *config.Config, med medium.Medium) *Container {
	// 1. Core Facades
	sysLogger := logger.NewZapLogger(cfg.App.LogFilePath, cfg.App.Environment == "production")

	tier := entity.Environment(cfg.Receipt.Tier)

	var receipts medium.ReceiptSource
	if med == nil {
		log.Printf("[INFO] No purchase medium injected, using simulated store")
		med = medium.NewSimulatedMedium()
		tier = entity.EnvironmentSimulated
		receipts = medium.EmptyReceiptSource{}
	} else {
		receipts = medium.NewFileReceiptSource(cfg.Receipt.Path)
	}

	// 2. Event Bus (optional)
	var natsPub *pktNats.Publisher
	if cfg.App.NatsURL != "" {
		pub, err := pktNats.NewPublisher(cfg.App.NatsURL)
		if err != nil {
			log.Printf("[WARN] Failed to connect to NATS Publisher: %v", err)
		} else {
			natsPub = pub
		}
	}

	// 3. Gateways
	ledgerClient := ledger.NewClient(cfg.Ledger.BaseURL, cfg.Ledger.APIToken)

	// 4. Services
	catalogService := service.NewCatalogService(ledgerClient, med, sysLogger)
	receiptService := service.NewReceiptService(
		tier,
		receipts,
		med,
		sysLogger,
		cfg.Receipt.PollAttempts,
		cfg.Receipt.PollInterval,
	)
	purchaseService := service.NewPurchaseService(
		catalogService,
		receiptService,
		med,
		ledgerClient,
		sysLogger,
		natsPub,
	)

	// 5. Controllers
	purchaseController := controller.NewPurchaseController(purchaseService, catalogService)

	return &Container{
		PurchaseController: purchaseController,
		PurchaseService:    purchaseService,
		CatalogService:     catalogService,
		Logger:             sysLogger,
	}
}
