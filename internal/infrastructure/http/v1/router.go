// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	"stockbook/internal/domain/alert"
	"stockbook/internal/domain/dashboard"
	"stockbook/internal/domain/lot"
	"stockbook/internal/domain/movement"
	"stockbook/internal/domain/product"
	"stockbook/internal/domain/stock"
	"stockbook/internal/domain/transfer"
	"stockbook/internal/infrastructure/http/v1/handlers"
	"stockbook/internal/infrastructure/http/v1/middleware"
	"stockbook/internal/infrastructure/storage/postgres"
	"stockbook/internal/infrastructure/storage/postgres/movement_repo"
	"stockbook/internal/infrastructure/storage/postgres/product_repo"
	"stockbook/internal/infrastructure/storage/postgres/transfer_repo"
	"stockbook/pkg/logger"
)

// RouterConfig holds router configuration.
type RouterConfig struct {
	// Pool is the database connection pool
	Pool *postgres.Pool

	// TxManager carries transactions through context
	TxManager *postgres.TxManager

	// Logger for request logging
	Logger *logger.Logger

	// JWTSecret enables actor token validation when non-empty
	JWTSecret []byte

	// AlertRules are compiled custom alert rules, may be nil
	AlertRules *alert.RuleSet

	// DashboardTopN sizes the top-products widget (0 = default)
	DashboardTopN int

	// AuditEnabled records the movement audit trail
	AuditEnabled bool
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())
	router.Use(middleware.Actor(cfg.JWTSecret))

	// Health endpoints
	healthHandler := handlers.NewHealthHandler(cfg.Pool)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	// Repositories
	movementRepo := movement_repo.NewMovementRepo(cfg.TxManager)
	productRepo := product_repo.NewProductRepo(cfg.TxManager)
	transferRepo := transfer_repo.NewTransferRepo(cfg.TxManager)

	var audit *postgres.AuditService
	if cfg.AuditEnabled {
		var err error
		audit, err = postgres.NewAuditService(cfg.TxManager)
		if err != nil {
			return nil, err
		}
	}

	// Services. The transfer repo doubles as the ledger's period guard.
	productService := product.NewService(productRepo, cfg.TxManager)
	var auditor movement.Auditor
	if audit != nil {
		auditor = audit
	}
	movementService := movement.NewService(movementRepo, productRepo, transferRepo, auditor, cfg.TxManager)
	projector := stock.NewProjector(movementRepo, productRepo)
	tracker := lot.NewTracker(movementRepo)
	alertEngine := alert.NewEngine(productRepo, tracker, movementRepo, cfg.AlertRules)
	transferService := transfer.NewService(productRepo, movementRepo, transferRepo, cfg.TxManager)
	aggregator := dashboard.NewAggregator(movementRepo, productRepo, alertEngine, cfg.DashboardTopN)

	// API v1
	base := handlers.NewBaseHandler()
	api := router.Group("/api/v1")
	{
		handlers.NewProductHandler(base, productService).RegisterRoutes(api.Group("/products"))
		handlers.NewMovementHandler(base, movementService, audit).RegisterRoutes(api.Group("/movements"))
		handlers.NewStockHandler(base, projector).RegisterRoutes(api.Group("/stock"))
		handlers.NewLotHandler(base, tracker).RegisterRoutes(api.Group("/lots"))
		handlers.NewAlertHandler(base, alertEngine).RegisterRoutes(api.Group("/alerts"))
		handlers.NewTransferHandler(base, transferService).RegisterRoutes(api.Group("/transfers"))
		handlers.NewDashboardHandler(base, aggregator).RegisterRoutes(api.Group("/dashboard"))
	}

	return router, nil
}
