package router

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/buildflow/subcontractor-api/internal/auth"
	"github.com/buildflow/subcontractor-api/internal/config"
	"github.com/buildflow/subcontractor-api/internal/database"
	"github.com/buildflow/subcontractor-api/internal/erp"
	"github.com/buildflow/subcontractor-api/internal/http/handler"
	"github.com/buildflow/subcontractor-api/internal/http/middleware"

	_ "github.com/buildflow/subcontractor-api/docs" // Import generated swagger docs
)

type Router struct {
	cfg                  *config.Config
	logger               *zap.Logger
	db                   *gorm.DB
	erpClient            *erp.Client
	authMiddleware       *auth.Middleware
	rateLimiter          *middleware.RateLimiter
	draftHandler         *handler.DraftHandler
	boqHandler           *handler.BOQHandler
	contractHandler      *handler.ContractHandler
	voHandler            *handler.VariationOrderHandler
	projectHandler       *handler.ProjectHandler
	subcontractorHandler *handler.SubcontractorHandler
	catalogHandler       *handler.CatalogHandler
	unitHandler          *handler.UnitHandler
	attachmentHandler    *handler.AttachmentHandler
}

func NewRouter(
	cfg *config.Config,
	logger *zap.Logger,
	db *gorm.DB,
	erpClient *erp.Client,
	authMiddleware *auth.Middleware,
	rateLimiter *middleware.RateLimiter,
	draftHandler *handler.DraftHandler,
	boqHandler *handler.BOQHandler,
	contractHandler *handler.ContractHandler,
	voHandler *handler.VariationOrderHandler,
	projectHandler *handler.ProjectHandler,
	subcontractorHandler *handler.SubcontractorHandler,
	catalogHandler *handler.CatalogHandler,
	unitHandler *handler.UnitHandler,
	attachmentHandler *handler.AttachmentHandler,
) *Router {
	return &Router{
		cfg:                  cfg,
		logger:               logger,
		db:                   db,
		erpClient:            erpClient,
		authMiddleware:       authMiddleware,
		rateLimiter:          rateLimiter,
		draftHandler:         draftHandler,
		boqHandler:           boqHandler,
		contractHandler:      contractHandler,
		voHandler:            voHandler,
		projectHandler:       projectHandler,
		subcontractorHandler: subcontractorHandler,
		catalogHandler:       catalogHandler,
		unitHandler:          unitHandler,
		attachmentHandler:    attachmentHandler,
	}
}

func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.Recovery(rt.logger))
	r.Use(middleware.Logging(rt.logger))
	r.Use(middleware.SecurityHeaders(&rt.cfg.Security))
	r.Use(middleware.CORS(&rt.cfg.CORS, rt.cfg.App.Environment, rt.logger))
	r.Use(rt.rateLimiter.LimitByIP)

	// Health check (basic liveness probe)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Database health check (readiness probe with detailed stats)
	r.Get("/health/db", func(w http.ResponseWriter, r *http.Request) {
		stats, err := database.HealthCheckWithStats(r.Context(), rt.db)
		if err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"status":  "unhealthy",
				"error":   err.Error(),
				"service": "database",
			})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "healthy",
			"service": "database",
			"stats":   stats,
		})
	})

	// Combined readiness check. The ERP connection is reported but never
	// fails readiness: budget copies fall back to the local tables.
	r.Get("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		checks := make(map[string]interface{})
		allHealthy := true

		if err := database.HealthCheck(r.Context(), rt.db); err != nil {
			rt.logger.Error("Database health check failed", zap.Error(err))
			checks["database"] = map[string]interface{}{
				"status": "unhealthy",
				"error":  err.Error(),
			}
			allHealthy = false
		} else {
			checks["database"] = map[string]interface{}{
				"status": "healthy",
			}
		}

		checks["erp"] = rt.erpClient.HealthCheck(r.Context())

		w.Header().Set("Content-Type", "application/json")
		if allHealthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": statusWord(allHealthy),
			"checks": checks,
		})
	})

	// Swagger documentation
	if rt.cfg.Server.EnableSwagger {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(rt.authMiddleware.Authenticate)

			// Contracts and wizard drafts
			r.Route("/contracts", func(r chi.Router) {
				r.Route("/drafts", func(r chi.Router) {
					r.Get("/", rt.draftHandler.List)
					r.Post("/", rt.draftHandler.Create)
					r.Get("/{id}", rt.draftHandler.GetByID)
					r.Patch("/{id}", rt.draftHandler.Update)
					r.Delete("/{id}", rt.draftHandler.Delete)

					// Step navigation
					r.Post("/{id}/steps/next", rt.draftHandler.Next)
					r.Post("/{id}/steps/previous", rt.draftHandler.Previous)
					r.Post("/{id}/steps/{step}", rt.draftHandler.GoToStep)
					r.Post("/{id}/submit", rt.draftHandler.Submit)

					// BOQ grid
					r.Get("/{id}/boq", rt.boqHandler.GetGrid)
					r.Post("/{id}/boq/items", rt.boqHandler.AddItem)
					r.Put("/{id}/boq/items/{index}", rt.boqHandler.UpdateItem)
					r.Delete("/{id}/boq/items/{index}", rt.boqHandler.DeleteItem)
					r.Post("/{id}/boq/copy-budget", rt.boqHandler.CopyBudget)
					r.Post("/{id}/boq/import", rt.boqHandler.ImportPreview)

					r.Get("/{id}/attachments", rt.attachmentHandler.ListByDraft)
				})

				r.Get("/", rt.contractHandler.List)
				r.Get("/{id}", rt.contractHandler.GetByID)
				r.Patch("/{id}/status", rt.contractHandler.UpdateStatus)
				r.Put("/{id}/buildings/{buildingId}/items", rt.contractHandler.UpdateBuildingItems)
				r.Get("/{id}/variation-orders", rt.contractHandler.ListVariationOrders)
				r.Get("/{id}/attachments", rt.attachmentHandler.ListByContract)
			})

			// Variation orders
			r.Route("/variation-orders", func(r chi.Router) {
				r.Get("/{id}", rt.voHandler.GetByID)
				r.Post("/{id}/approve", rt.voHandler.Approve)
				r.Post("/{id}/reject", rt.voHandler.Reject)
			})

			// Projects
			r.Route("/projects", func(r chi.Router) {
				r.Get("/", rt.projectHandler.List)
				r.Get("/{id}", rt.projectHandler.GetByID)
				r.Get("/{id}/buildings", rt.projectHandler.ListBuildings)
			})

			// Subcontractors
			r.Route("/subcontractors", func(r chi.Router) {
				r.Get("/", rt.subcontractorHandler.List)
				r.Get("/{id}", rt.subcontractorHandler.GetByID)
			})

			// Reference data
			r.Get("/trades", rt.catalogHandler.ListTrades)
			r.Get("/cost-codes", rt.catalogHandler.ListCostCodes)
			r.Get("/currencies", rt.catalogHandler.ListCurrencies)

			// Units
			r.Route("/units", func(r chi.Router) {
				r.Get("/", rt.unitHandler.List)
				r.Post("/", rt.unitHandler.Create)
				r.Post("/match", rt.unitHandler.Match)
			})

			// Attachments
			r.Route("/attachments", func(r chi.Router) {
				r.Post("/upload", rt.attachmentHandler.Upload)
				r.Get("/{id}/download", rt.attachmentHandler.Download)
				r.Delete("/{id}", rt.attachmentHandler.Delete)
			})
		})
	})

	return r
}

func statusWord(healthy bool) string {
	if healthy {
		return "healthy"
	}
	return "unhealthy"
}
