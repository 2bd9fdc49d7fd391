// Package routes wires repositories, services, handlers and middleware
// into the fiber application.
package routes

import (
	"merx/internal/config"
	"merx/internal/handlers"
	"merx/internal/middleware"
	"merx/internal/models"
	"merx/internal/repositories"
	"merx/internal/repositories/cache"
	"merx/internal/services/audit"
	"merx/internal/services/auth"
	"merx/internal/services/merchant"
	"merx/internal/services/tenant"
	"merx/internal/services/transaction"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// SetupRoutes builds the dependency graph and registers every route.
// cacheSvc may be nil; tenant caching and velocity counters then degrade
// to storage lookups.
func SetupRoutes(app *fiber.App, db *gorm.DB, cacheSvc *cache.CacheService) {
	tenantRepo := repositories.NewTenantRepository(db)
	userRepo := repositories.NewUserRepository(db)
	merchantRepo := repositories.NewMerchantRepository(db)
	transactionRepo := repositories.NewTransactionRepository(db)
	auditRepo := repositories.NewAuditRepository(db)
	txm := repositories.NewTransactionManager(db)

	// A nil *CacheService must stay a nil interface, otherwise the
	// services would call methods on a nil client.
	var tenantCache tenant.Cache
	var velocity transaction.Counters
	var loginCounters auth.Counters
	if cacheSvc != nil {
		tenantCache = cacheSvc
		velocity = cacheSvc
		loginCounters = cacheSvc
	}

	auditService := audit.NewService(auditRepo)
	tenantService := tenant.NewService(tenantRepo, userRepo, auditService, tenantCache, txm, config.BaseDomain())
	merchantService := merchant.NewService(merchantRepo, tenantRepo, auditService, txm)
	transactionService := transaction.NewService(
		transactionRepo,
		merchantRepo,
		tenantRepo,
		auditService,
		velocity,
		txm,
		transaction.NewFeeCalculator(config.FeeRate(), config.FeeFixed()),
	)
	authService := auth.NewService(userRepo, tenantRepo, auditService, loginCounters, txm)

	healthHandler := handlers.NewHealthHandler(db, redisClient(cacheSvc))
	tenantHandler := handlers.NewTenantHandler(tenantService)
	merchantHandler := handlers.NewMerchantHandler(merchantService)
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	auditHandler := handlers.NewAuditHandler(auditService)
	authHandler := handlers.NewAuthHandler(authService, tenantService)

	app.Get("/health", healthHandler.Check)

	api := app.Group("/api/v1")

	// Public endpoints: signup and the token endpoints resolve their
	// tenant themselves.
	api.Post("/tenants/signup", tenantHandler.Signup)
	api.Post("/auth/login", authHandler.Login)
	api.Post("/auth/refresh", authHandler.Refresh)

	tenantMiddleware := middleware.NewTenantMiddleware(tenantService)
	authMiddleware := middleware.NewAuthMiddleware(userRepo, auditService)
	protected := api.Use(tenantMiddleware.Handler).Use(authMiddleware.Handler)

	protected.Post("/auth/logout", authHandler.Logout)
	protected.Post("/auth/change-password", authHandler.ChangePassword)

	setupTenantRoutes(protected, tenantHandler)
	setupMerchantRoutes(protected, merchantHandler)
	setupTransactionRoutes(protected, transactionHandler)
	setupAuditRoutes(protected, auditHandler)
}

func setupTenantRoutes(router fiber.Router, h *handlers.TenantHandler) {
	tenants := router.Group("/tenants")
	tenants.Get("/me", middleware.HasPermission(models.PermissionTenantRead), h.Me)
	tenants.Put("/me/plan", middleware.RequireAdmin, h.UpdatePlan)
	tenants.Post("/me/rotate-key", middleware.RequireAdmin, h.RotateAPIKey)
}

func setupMerchantRoutes(router fiber.Router, h *handlers.MerchantHandler) {
	merchants := router.Group("/merchants")
	merchants.Post("/", middleware.HasPermission(models.PermissionMerchantWrite), h.Create)
	merchants.Get("/", middleware.HasPermission(models.PermissionMerchantRead), h.List)
	merchants.Get("/:id", middleware.HasPermission(models.PermissionMerchantRead), h.Get)
	merchants.Delete("/:id", middleware.RequireAdmin, h.Delete)

	merchants.Post("/:id/kyc/start", middleware.HasPermission(models.PermissionMerchantWrite), h.StartKyc)
	merchants.Post("/:id/kyc/documents", middleware.HasPermission(models.PermissionMerchantWrite), h.UploadKycDocument)
	merchants.Post("/:id/kyc/approve", middleware.HasPermission(models.PermissionMerchantReview), h.ApproveKyc)
	merchants.Post("/:id/kyc/reject", middleware.HasPermission(models.PermissionMerchantReview), h.RejectKyc)

	merchants.Post("/:id/activate", middleware.RequireAdmin, h.Activate)
	merchants.Post("/:id/suspend", middleware.RequireAdmin, h.Suspend)
	merchants.Post("/:id/reactivate", middleware.RequireAdmin, h.Reactivate)
}

func setupTransactionRoutes(router fiber.Router, h *handlers.TransactionHandler) {
	transactions := router.Group("/transactions")
	transactions.Post("/", middleware.HasPermission(models.PermissionTransactionWrite), h.Create)
	transactions.Get("/", middleware.HasPermission(models.PermissionTransactionRead), h.List)
	transactions.Get("/:id", middleware.HasPermission(models.PermissionTransactionRead), h.Get)
	transactions.Put("/:id", middleware.HasPermission(models.PermissionTransactionAdmin), h.Update)
	transactions.Post("/:id/refund", middleware.HasPermission(models.PermissionTransactionWrite), h.Refund)
	transactions.Post("/:id/cancel", middleware.HasPermission(models.PermissionTransactionWrite), h.Cancel)
	transactions.Post("/:id/chargeback", middleware.HasPermission(models.PermissionTransactionAdmin), h.Chargeback)
}

func setupAuditRoutes(router fiber.Router, h *handlers.AuditHandler) {
	logs := router.Group("/audit-logs", middleware.RequireAdmin)
	logs.Get("/", h.List)
	logs.Get("/export", h.Export)
	logs.Get("/entity/:type/:id", h.ListByEntity)
}

// redisClient unwraps the raw client for health checks.
func redisClient(cacheSvc *cache.CacheService) *redis.Client {
	if cacheSvc == nil {
		return nil
	}
	return cacheSvc.Client()
}
