package main

import (
	"fmt"
	"log"
	"net/http"

	"hookgate/internal/api"
	"hookgate/internal/api/handlers"
	"hookgate/internal/api/middleware"
	"hookgate/internal/pkg/logger"
	"hookgate/internal/platform/audit"
	"hookgate/internal/platform/auth"
	"hookgate/internal/platform/config"
	"hookgate/internal/platform/database"
	"hookgate/internal/platform/repositories"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)
	middleware.Configure(cfg.RateLimit)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	// Repositories
	endpointRepo := repositories.NewEndpointRepository(db)
	deliveryRepo := repositories.NewDeliveryRepository(db)
	rejectionRepo := repositories.NewRejectionRepository(db)
	userRepo := repositories.NewUserRepository(db)
	apiKeyRepo := repositories.NewAPIKeyRepository(db)

	// Services
	tokenSvc := auth.NewTokenService(cfg.Auth)
	auditLogger := audit.NewLogger(db)

	// Handlers
	ingestHandler := handlers.NewIngestHandler(endpointRepo, deliveryRepo, rejectionRepo, auditLogger, cfg.Webhooks)
	endpointHandler := handlers.NewEndpointHandler(endpointRepo, auditLogger)
	deliveryHandler := handlers.NewDeliveryHandler(deliveryRepo, rejectionRepo)
	authHandler := handlers.NewAuthHandler(userRepo, tokenSvc)
	apiKeyHandler := handlers.NewAPIKeyHandler(apiKeyRepo, auditLogger)
	healthHandler := handlers.NewHealthHandler(db)
	metricsHandler := handlers.NewMetricsHandler(deliveryRepo, rejectionRepo)
	auditHandler := handlers.NewAuditHandler(auditLogger)

	// Middleware
	authMiddleware := middleware.NewAuthMiddleware(tokenSvc, apiKeyRepo)

	// Router
	deps := &api.Dependencies{
		IngestHandler:   ingestHandler,
		EndpointHandler: endpointHandler,
		DeliveryHandler: deliveryHandler,
		AuthHandler:     authHandler,
		APIKeyHandler:   apiKeyHandler,
		HealthHandler:   healthHandler,
		MetricsHandler:  metricsHandler,
		AuditHandler:    auditHandler,
		AuthMiddleware:  authMiddleware,
	}
	router := api.NewRouter(deps)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	log.Printf("Server starting on %s", addr)
	if err := server.ListenAndServe(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}
