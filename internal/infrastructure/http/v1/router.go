// Package v1 provides HTTP API version 1.
package v1

import (
	"github.com/gin-gonic/gin"

	appctx "stockroom/internal/core/context"
	"stockroom/internal/core/entity"
	"stockroom/internal/core/security"
	"stockroom/internal/domain/auth"
	"stockroom/internal/domain/catalog"
	"stockroom/internal/domain/expenditure"
	"stockroom/internal/domain/inventory"
	"stockroom/internal/domain/invoice"
	"stockroom/internal/domain/reports"
	"stockroom/internal/domain/ticket"
	"stockroom/internal/infrastructure/http/v1/handlers"
	"stockroom/internal/infrastructure/http/v1/middleware"
	"stockroom/pkg/logger"
)

// RouterConfig holds the services behind the API.
type RouterConfig struct {
	// Logger for request logging
	Logger *logger.Logger

	// JWTValidator for token validation
	JWTValidator middleware.JWTValidator

	Auth         *auth.Service
	Catalog      *catalog.Service
	Inventory    *inventory.Service
	Invoices     *invoice.Service
	Tickets      *ticket.Service
	Expenditures *expenditure.Service
	Reports      *reports.Service

	// Idempotency guards invoice creation. Nil disables the middleware.
	Idempotency middleware.IdempotencyStore

	// DB is pinged by /health/ready. Nil in memory mode.
	DB handlers.Pinger

	Version string
}

// NewRouter creates and configures the Gin router.
func NewRouter(cfg RouterConfig) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Global middleware (order matters!)
	router.Use(middleware.Recovery())
	router.Use(middleware.Trace())
	router.Use(middleware.Logger(cfg.Logger))
	router.Use(middleware.ErrorHandler())

	healthHandler := handlers.NewHealthHandler(cfg.DB, cfg.Version)
	health := router.Group("/health")
	{
		health.GET("/live", healthHandler.Live)
		health.GET("/ready", healthHandler.Ready)
		health.GET("/info", healthHandler.Info)
	}

	v1 := router.Group("/api/v1")
	base := handlers.NewBaseHandler()

	authHandler := handlers.NewAuthHandler(base, cfg.Auth)
	v1.POST("/auth/login", authHandler.Login)

	protected := v1.Group("")
	protected.Use(middleware.Auth(cfg.JWTValidator))

	protected.GET("/auth/me", authHandler.Me)
	registerUserRoutes(protected, authHandler)
	registerCatalogRoutes(protected, handlers.NewCatalogHandler(base, cfg.Catalog))
	registerInventoryRoutes(protected, handlers.NewInventoryHandler(base, cfg.Inventory))
	registerInvoiceRoutes(protected, handlers.NewInvoiceHandler(base, cfg.Invoices), idempotent(cfg.Idempotency))
	registerTicketRoutes(protected, handlers.NewTicketHandler(base, cfg.Tickets))
	registerExpenditureRoutes(protected, handlers.NewExpenditureHandler(base, cfg.Expenditures))
	registerReportRoutes(protected, handlers.NewReportsHandler(base, cfg.Reports))

	return router
}

// idempotent returns the idempotency middleware, or a pass-through
// when no store is configured.
func idempotent(store middleware.IdempotencyStore) gin.HandlerFunc {
	if store == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return middleware.Idempotency(store)
}

var requireAdmin = middleware.RequireRole(appctx.RoleSuperadmin, appctx.RoleAdmin)

func registerUserRoutes(rg *gin.RouterGroup, h *handlers.AuthHandler) {
	users := rg.Group("/users", middleware.RequirePermission(security.PermManageUsers))
	users.GET("", h.ListUsers)
	users.POST("", h.CreateUser)
}

func registerCatalogRoutes(rg *gin.RouterGroup, h *handlers.CatalogHandler) {
	manageStores := middleware.RequirePermission(security.PermManageStores)

	stores := rg.Group("/stores")
	stores.GET("", h.ListStores)
	stores.POST("", manageStores, h.CreateStore)
	stores.GET("/:id", h.GetStore)
	stores.PUT("/:id", manageStores, h.UpdateStore)
	stores.PUT("/:id/manager", manageStores, requireAdmin, h.AssignManager)

	for path, kind := range map[string]entity.LocationKind{
		"/:id/rooms":    entity.LocationRoom,
		"/:id/racks":    entity.LocationRack,
		"/:id/freezers": entity.LocationFreezer,
	} {
		stores.GET(path, h.ListLocations(kind))
		stores.POST(path, manageStores, h.CreateLocation(kind))
	}
	stores.GET("/:id/outlets", h.ListOutlets)
	stores.POST("/:id/outlets", manageStores, h.CreateOutlet)

	outlets := rg.Group("/outlets")
	outlets.PUT("/:id", manageStores, h.UpdateOutlet)
	outlets.PATCH("/:id/status", manageStores, h.SetOutletStatus)

	categories := rg.Group("/categories")
	categories.GET("", h.ListCategories)
	categories.POST("", middleware.RequirePermission(security.PermManageCategories), h.CreateCategory)

	manageProducts := middleware.RequirePermission(security.PermManageProducts)
	products := rg.Group("/products")
	products.GET("", h.ListProducts)
	products.POST("", manageProducts, h.CreateProduct)
	products.GET("/:id", h.GetProduct)
	products.PUT("/:id", manageProducts, h.UpdateProduct)
}

func registerInventoryRoutes(rg *gin.RouterGroup, h *handlers.InventoryHandler) {
	manage := middleware.RequirePermission(security.PermManageInventory)

	inv := rg.Group("/inventory")
	inv.GET("", h.List)
	inv.POST("/receive", manage, h.Receive)
	inv.POST("/bulk", middleware.RequirePermission(security.PermBulkUpdate), h.Bulk)
	inv.POST("/audit", middleware.RequirePermission(security.PermPerformAudit), h.Audit)
	inv.GET("/alerts", h.ListAlerts)
	inv.POST("/alerts/:id/resolve", middleware.RequirePermission(security.PermResolveAlerts), h.ResolveAlert)
	inv.GET("/:id", h.Get)
	inv.GET("/:id/history", h.History)
	inv.POST("/:id/adjust", manage, h.Adjust)
	inv.POST("/:id/move", manage, h.Move)
}

func registerInvoiceRoutes(rg *gin.RouterGroup, h *handlers.InvoiceHandler, idem gin.HandlerFunc) {
	invoices := rg.Group("/invoices")
	invoices.GET("", h.List)
	invoices.POST("/distribution", middleware.RequirePermission(security.PermDistribute), idem, h.CreateDistribution)
	invoices.POST("/outlet-sale", middleware.RequirePermission(security.PermCreateSale), idem, h.CreateOutletSale)
	invoices.GET("/:id", h.Get)
	invoices.PUT("/:id/status", middleware.RequirePermission(security.PermManageInvoices), h.UpdateStatus)
}

func registerTicketRoutes(rg *gin.RouterGroup, h *handlers.TicketHandler) {
	manage := middleware.RequirePermission(security.PermManageTickets)

	tickets := rg.Group("/tickets")
	tickets.GET("", h.List)
	tickets.POST("", manage, h.Create)
	tickets.GET("/:id", h.Get)
	tickets.PUT("/:id", manage, h.Update)
	tickets.POST("/:id/acknowledge", manage, h.Acknowledge)
	tickets.POST("/:id/resolve", manage, h.Resolve)
	tickets.POST("/:id/reopen", manage, h.Reopen)
	tickets.GET("/:id/comments", h.Comments)
	tickets.POST("/:id/comments", manage, h.AddComment)

	rg.GET("/stores/:id/ticket-stats", h.Stats)
}

func registerExpenditureRoutes(rg *gin.RouterGroup, h *handlers.ExpenditureHandler) {
	expenditures := rg.Group("/expenditures", requireAdmin, middleware.RequirePermission(security.PermManageExpenses))
	expenditures.GET("", h.List)
	expenditures.POST("", h.Create)
	expenditures.GET("/:id", h.Get)
	expenditures.POST("/:id/verify", middleware.RequireRole(appctx.RoleSuperadmin), h.Verify)
}

func registerReportRoutes(rg *gin.RouterGroup, h *handlers.ReportsHandler) {
	view := middleware.RequirePermission(security.PermViewReports)

	r := rg.Group("/reports", view)
	r.GET("/inventory", h.InventorySummary)
	r.GET("/credit", h.Credit)
	r.GET("/sales", h.Sales)

	rg.GET("/stores/:id/occupancy", view, h.Occupancy)
}
