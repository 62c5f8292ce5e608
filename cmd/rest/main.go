package main

import (
	"context"
	"log"

	"membership-iap-core/internal/bootstrap"
	"membership-iap-core/internal/config"
	"membership-iap-core/internal/server"
	"membership-iap-core/internal/tracer"
)

func main() {
	// 0. Initialize Tracer (no-op unless OTEL_ENABLED=true)
	shutdownTracer := tracer.InitTracer()
	defer shutdownTracer(context.Background())

	// 1. Load Configuration
	cfg := config.Load()

	// 2. Bootstrap Dependencies (Container)
	// No medium injected here: the rest facade runs against the simulated
	// store. A platform shell embeds the container with its own medium.
	container := bootstrap.NewContainer(cfg, nil)
	defer container.Logger.Sync()

	// 3. Initialize Server
	srv := server.New(cfg, container)

	// 4. Run Server
	log.Fatal(srv.Run())
}
