package router

import (
	"pastel24h/internal/config"
	"pastel24h/internal/handler"
	"pastel24h/internal/middleware"
	"pastel24h/internal/model"
	"pastel24h/internal/repository"
	"pastel24h/internal/service"
	"pastel24h/internal/worker"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// New wires all dependencies and returns a configured Gin engine.
// Dependency graph: Handler ← Service ← Repository ← DB/Redis.
// rdb may be nil: caches are skipped and PDF jobs are not queued.
func New(cfg *config.Config, db *gorm.DB, rdb *redis.Client, rules service.ShiftRules) *gin.Engine {
	if cfg.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	// Global middleware chain (order matters)
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger())
	r.Use(middleware.Recovery())
	r.Use(middleware.CORS())
	r.Use(middleware.ErrorHandler())
	r.Use(middleware.RateLimiter(cfg.APIRateLimit, cfg.RateLimitWindow))

	loc := cfg.Location()

	// ── Repositories ─────────────────────────────────────────────────────────
	userRepo := repository.NewUserRepository(db)
	transportRepo := repository.NewTransportModeRepository(db)
	productRepo := repository.NewProductRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	adjustmentRepo := repository.NewCashAdjustmentRepository(db)
	timelineRepo := repository.NewTimelineRepository(db)
	reportRepo := repository.NewWeeklyReportRepository(db)

	// Worker dispatcher, injected into services that enqueue async jobs
	var dispatcher *worker.Dispatcher
	if rdb != nil {
		dispatcher = worker.NewDispatcher(rdb)
	}

	// ── Services ─────────────────────────────────────────────────────────────
	authSvc := service.NewAuthService(userRepo, transportRepo, cfg)
	transportSvc := service.NewTransportModeService(transportRepo, userRepo)
	productSvc := service.NewProductService(productRepo, rdb)
	inventorySvc := service.NewInventoryService(shiftRepo, productRepo)
	shiftSvc := service.NewShiftService(shiftRepo, adjustmentRepo, timelineRepo, userRepo, inventorySvc, rules, rdb, cfg.CurrentShiftCacheTTL, loc)
	cashSvc := service.NewCashService(adjustmentRepo, shiftRepo, timelineRepo)
	payrollSvc := service.NewPayrollService(shiftRepo, userRepo, reportRepo, timelineRepo, dispatcher, loc)
	reportSvc := service.NewReportService(shiftRepo, rules.ProfitMargin, rules.DivergenceTolerance, loc)
	timelineSvc := service.NewTimelineService(timelineRepo)

	// ── Handlers ─────────────────────────────────────────────────────────────
	authH := handler.NewAuthHandler(authSvc)
	usersH := handler.NewUsersHandler(authSvc)
	transportH := handler.NewTransportModesHandler(transportSvc)
	productsH := handler.NewProductsHandler(productSvc)
	shiftsH := handler.NewShiftsHandler(shiftSvc, inventorySvc)
	cashH := handler.NewCashHandler(cashSvc)
	payrollH := handler.NewPayrollHandler(payrollSvc)
	reportsH := handler.NewReportsHandler(reportSvc, timelineSvc)

	// ── Routes ───────────────────────────────────────────────────────────────

	// Public
	r.GET("/health", handler.Health(db, rdb))
	r.GET("/v1/menu", productsH.Menu)

	auth := r.Group("/v1/auth")
	{
		auth.POST("/login", middleware.LoginRateLimiter(cfg.LoginRateLimit, cfg.RateLimitWindow), authH.Login)
	}

	// Protected routes
	jwtMW := middleware.JWTAuth(cfg.JWTSecret)
	anyRole := middleware.RequireRole(model.RoleEmployee, model.RoleAdmin)
	adminOnly := middleware.RequireRole(model.RoleAdmin)

	v1 := r.Group("/v1", jwtMW)
	{
		v1.GET("/auth/me", authH.Me)

		// Catalog: everyone reads, admin writes
		v1.GET("/products", anyRole, productsH.List)
		v1.GET("/products/:id", anyRole, productsH.Get)
		v1.GET("/products/:id/price-history", adminOnly, productsH.PriceHistory)
		prods := v1.Group("/products", adminOnly)
		{
			prods.POST("", productsH.Create)
			prods.PUT("/:id", productsH.Update)
			prods.DELETE("/:id", productsH.Delete)
		}

		// Shift lifecycle and inventory records (operators)
		shifts := v1.Group("/shifts", anyRole)
		{
			shifts.POST("", shiftsH.Open)
			shifts.GET("/current", shiftsH.Current)
			shifts.GET("/:id", shiftsH.Get)
			shifts.POST("/:id/close", shiftsH.Close)
			shifts.PUT("/:id/payment", shiftsH.UpsertPayment)
			shifts.PATCH("/:id/draft", shiftsH.SaveDraft)
			shifts.GET("/:id/records", shiftsH.ListRecords)
			shifts.PUT("/:id/records", shiftsH.UpsertRecord)
			shifts.GET("/:id/snapshot", shiftsH.Snapshot)
		}
		v1.GET("/shifts", adminOnly, shiftsH.List)
		v1.GET("/inventory/low-stock", anyRole, shiftsH.LowStock)

		cash := v1.Group("/cash-adjustments", anyRole)
		{
			cash.POST("", cashH.CreateAdjustment)
			cash.GET("", cashH.List)
			cash.GET("/pending-withdrawals", cashH.PendingWithdrawals)
		}

		payroll := v1.Group("/payroll", adminOnly)
		{
			payroll.POST("/calculate", payrollH.Calculate)
			payroll.POST("/reports", payrollH.Save)
			payroll.GET("/reports", payrollH.ListReports)
			payroll.GET("/reports/:id", payrollH.GetReport)
			payroll.GET("/reports/:id/pdf", payrollH.DownloadPDF)
		}

		v1.GET("/reports/stats", adminOnly, reportsH.Stats)
		v1.GET("/timeline", adminOnly, reportsH.Timeline)

		users := v1.Group("/users", adminOnly)
		{
			users.POST("", usersH.Create)
			users.GET("", usersH.List)
			users.PUT("/:id", usersH.Update)
			users.DELETE("/:id", usersH.Delete)
		}

		v1.GET("/transport-modes", anyRole, transportH.List)
		modes := v1.Group("/transport-modes", adminOnly)
		{
			modes.POST("", transportH.Create)
			modes.PUT("/:id", transportH.Update)
			modes.DELETE("/:id", transportH.Delete)
		}
	}

	// Swagger UI, only outside production
	if cfg.Env != "production" {
		r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	return r
}
