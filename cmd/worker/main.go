package main

import (
	"log"
	"time"

	"hookgate/internal/pkg/logger"
	"hookgate/internal/platform/config"
	"hookgate/internal/platform/database"
	"hookgate/internal/platform/repositories"
	"hookgate/internal/workers"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	maintenance := workers.NewMaintenance(
		repositories.NewEndpointRepository(db),
		repositories.NewDeliveryRepository(db),
		repositories.NewRejectionRepository(db),
		cfg.Retention,
	)

	log.Println("Starting hookgate maintenance workers...")

	go runPruneWorker(maintenance, cfg.Retention.PruneInterval)
	go runSecretExpiryWorker(maintenance)

	// Keep process alive
	select {}
}

func runPruneWorker(m *workers.Maintenance, interval time.Duration) {
	if interval <= 0 {
		interval = time.Hour
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		m.PruneStored()
	}
}

func runSecretExpiryWorker(m *workers.Maintenance) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		m.ExpireRetiredSecrets()
	}
}
