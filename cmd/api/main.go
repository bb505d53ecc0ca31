package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/buildflow/subcontractor-api/docs"
	"github.com/buildflow/subcontractor-api/internal/auth"
	"github.com/buildflow/subcontractor-api/internal/config"
	"github.com/buildflow/subcontractor-api/internal/database"
	"github.com/buildflow/subcontractor-api/internal/erp"
	"github.com/buildflow/subcontractor-api/internal/http/handler"
	"github.com/buildflow/subcontractor-api/internal/http/middleware"
	"github.com/buildflow/subcontractor-api/internal/http/router"
	"github.com/buildflow/subcontractor-api/internal/jobs"
	"github.com/buildflow/subcontractor-api/internal/logger"
	"github.com/buildflow/subcontractor-api/internal/repository"
	"github.com/buildflow/subcontractor-api/internal/service"
	"github.com/buildflow/subcontractor-api/internal/storage"
)

// @title BuildFlow Subcontractor API
// @version 1.0
// @description Wizard-driven API for drafting and managing construction subcontractor contracts and variation orders

// @contact.name API Support
// @contact.email support@buildflow.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT Bearer token

// @securityDefinitions.apikey ApiKeyAuth
// @in header
// @name x-api-key
// @description API Key for system operations

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()

	// Load basic configuration first (for logging setup)
	basicCfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	log, err := logger.NewLogger(&basicCfg.Logging, &basicCfg.App)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting application",
		zap.String("app", basicCfg.App.Name),
		zap.String("env", basicCfg.App.Environment),
		zap.Int("port", basicCfg.App.Port),
	)

	// Configure Swagger host based on environment
	switch basicCfg.App.Environment {
	case "staging":
		docs.SwaggerInfo.Host = "subcontractor-api-staging.buildflow.io"
	case "production":
		docs.SwaggerInfo.Host = "api.buildflow.io"
	default:
		docs.SwaggerInfo.Host = fmt.Sprintf("localhost:%d", basicCfg.App.Port)
	}

	// Load full configuration with secrets
	// In development: uses environment variables
	// In staging/production: fetches from Azure Key Vault
	cfg, err := config.LoadWithSecrets(ctx, log)
	if err != nil {
		return fmt.Errorf("failed to load secrets: %w", err)
	}

	// Connect to database
	db, err := database.NewDatabase(&cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := database.AutoMigrate(db); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize storage
	fileStorage, err := storage.NewStorage(&cfg.Storage, log)
	if err != nil {
		return fmt.Errorf("failed to initialize storage: %w", err)
	}

	log.Info("Storage initialized", zap.String("mode", cfg.Storage.Mode))

	// Connect to the ERP budget warehouse. The connection is optional:
	// budget BOQ copies fall back to the local tables without it.
	erpClient, err := erp.NewClient(&cfg.ERP, log)
	if err != nil {
		log.Warn("ERP connection failed, continuing with local budget tables", zap.Error(err))
	}

	// Initialize repositories
	projectRepo := repository.NewProjectRepository(db)
	subcontractorRepo := repository.NewSubcontractorRepository(db)
	catalogRepo := repository.NewCatalogRepository(db)
	unitRepo := repository.NewUnitRepository(db)
	draftRepo := repository.NewDraftRepository(db)
	contractRepo := repository.NewContractRepository(db)
	variationOrderRepo := repository.NewVariationOrderRepository(db)
	budgetBOQRepo := repository.NewBudgetBOQRepository(db)
	attachmentRepo := repository.NewAttachmentRepository(db)
	numberSequenceRepo := repository.NewNumberSequenceRepository(db)

	// Initialize services
	draftService := service.NewDraftService(draftRepo, contractRepo, variationOrderRepo, subcontractorRepo, attachmentRepo, numberSequenceRepo, log)
	boqService := service.NewBOQService(draftRepo, projectRepo, budgetBOQRepo, unitRepo, erpClient, log)
	importService := service.NewImportService(log)
	contractService := service.NewContractService(contractRepo)
	variationOrderService := service.NewVariationOrderService(variationOrderRepo, contractRepo, log)
	projectService := service.NewProjectService(projectRepo)
	subcontractorService := service.NewSubcontractorService(subcontractorRepo)
	catalogService := service.NewCatalogService(catalogRepo)
	unitService := service.NewUnitService(unitRepo, log)
	attachmentService := service.NewAttachmentService(attachmentRepo, draftRepo, fileStorage, log)

	// Initialize middleware
	authMiddleware := auth.NewMiddleware(cfg, log)
	rateLimiter := middleware.NewRateLimiter(&cfg.RateLimit, log)

	// Initialize handlers
	draftHandler := handler.NewDraftHandler(draftService, log)
	boqHandler := handler.NewBOQHandler(boqService, importService, log)
	contractHandler := handler.NewContractHandler(contractService, variationOrderService, log)
	variationOrderHandler := handler.NewVariationOrderHandler(variationOrderService, log)
	projectHandler := handler.NewProjectHandler(projectService, log)
	subcontractorHandler := handler.NewSubcontractorHandler(subcontractorService, log)
	catalogHandler := handler.NewCatalogHandler(catalogService, log)
	unitHandler := handler.NewUnitHandler(unitService, log)
	attachmentHandler := handler.NewAttachmentHandler(attachmentService, log)

	// Setup router
	rt := router.NewRouter(
		cfg,
		log,
		db,
		erpClient,
		authMiddleware,
		rateLimiter,
		draftHandler,
		boqHandler,
		contractHandler,
		variationOrderHandler,
		projectHandler,
		subcontractorHandler,
		catalogHandler,
		unitHandler,
		attachmentHandler,
	)

	// Start the background scheduler with the draft cleanup job
	scheduler := jobs.NewScheduler(log)
	if err := jobs.RegisterDraftCleanupJob(
		scheduler,
		draftService,
		log,
		cfg.Drafts.CleanupSchedule,
		cfg.Drafts.IdleTTLDuration(),
	); err != nil {
		log.Error("Failed to register draft cleanup job", zap.Error(err))
	} else {
		scheduler.Start()
		log.Info("Scheduler started with draft cleanup job",
			zap.String("cron_expr", cfg.Drafts.CleanupSchedule),
			zap.Duration("idle_ttl", cfg.Drafts.IdleTTLDuration()),
		)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.App.Port),
		Handler:      rt.Setup(),
		ReadTimeout:  cfg.Server.ReadTimeoutDuration(),
		WriteTimeout: cfg.Server.WriteTimeoutDuration(),
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		serverErrors <- srv.ListenAndServe()
	}()

	// Wait for interrupt signal
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Info("Shutdown signal received", zap.String("signal", sig.String()))

		if scheduler != nil {
			ctx := scheduler.Stop()
			<-ctx.Done()
			log.Info("Scheduler stopped")
		}

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			log.Error("Failed to shutdown gracefully", zap.Error(err))
			return err
		}

		if erpClient.IsEnabled() {
			if err := erpClient.Close(); err != nil {
				log.Warn("Error closing ERP connection", zap.Error(err))
			}
		}

		log.Info("Server stopped gracefully")
	}

	return nil
}
