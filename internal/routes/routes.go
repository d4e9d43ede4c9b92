package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"billing-backend/internal/config"
	handler "billing-backend/internal/handlers"
	"billing-backend/internal/middleware"
	"billing-backend/internal/pdf"
	"billing-backend/internal/repository"
	"billing-backend/internal/services/billing"
	"billing-backend/internal/services/mailer"
	"billing-backend/internal/services/phonepe"
	"billing-backend/internal/services/reports"
	"billing-backend/internal/services/scheduler"
)

// RegisterRoutes wires repositories, services and handlers together and
// mounts everything under /api. The returned scheduler is started by main.
func RegisterRoutes(r *gin.Engine, db *gorm.DB, cfg *config.Config) *scheduler.Scheduler {
	customerRepo := repository.NewCustomerRepository(db)
	productRepo := repository.NewProductRepository(db)
	invoiceRepo := repository.NewInvoiceRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	userRepo := repository.NewUserRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	settingsRepo := repository.NewNotificationSettingsRepository(db)

	billingSvc := billing.NewService(invoiceRepo, customerRepo, productRepo, paymentRepo)
	phonepeClient := phonepe.NewClient(cfg.PhonePe)
	mail := mailer.New(cfg.SMTP, cfg.Company, settingsRepo)
	reportsSvc := reports.NewService(db)
	sched := scheduler.New(invoiceRepo, mail)
	pdfGen := pdf.NewInvoiceGenerator(cfg.Company)

	auth := middleware.NewAuth(cfg.JWTSecret, userRepo)

	authHandler := handler.NewAuthHandler(auth, userRepo, activityRepo)
	customerHandler := handler.NewCustomerHandler(customerRepo, activityRepo)
	productHandler := handler.NewProductHandler(productRepo, activityRepo)
	invoiceHandler := handler.NewInvoiceHandler(billingSvc, invoiceRepo, customerRepo, phonepeClient, mail, pdfGen, activityRepo)
	paymentHandler := handler.NewPaymentHandler(billingSvc, paymentRepo, invoiceRepo, customerRepo, mail, activityRepo)
	webhookHandler := handler.NewWebhookHandler(billingSvc, phonepeClient, paymentRepo, invoiceRepo, customerRepo, mail, activityRepo)
	userHandler := handler.NewUserHandler(userRepo, activityRepo)
	permissionHandler := handler.NewPermissionHandler(userRepo, activityRepo)
	activityHandler := handler.NewActivityHandler(activityRepo)
	notificationHandler := handler.NewNotificationHandler(settingsRepo)
	reportHandler := handler.NewReportHandler(reportsSvc, sched)

	api := r.Group("/api")

	// Health check with a database round trip.
	api.GET("/health", func(c *gin.Context) {
		sqlDB, err := db.DB()
		if err != nil || sqlDB.Ping() != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "database": "down"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "database": "up"})
	})

	// Public: gateway callbacks authenticate via X-VERIFY, not JWT.
	api.POST("/webhooks/phonepe", webhookHandler.PhonePe)

	authGroup := api.Group("/auth")
	{
		authGroup.POST("/sign-in", authHandler.SignIn)
		authGroup.POST("/refresh", auth.RequireRefresh(), authHandler.Refresh)
		authGroup.POST("/sign-out", auth.RequireAuth(), authHandler.SignOut)
		authGroup.GET("/me", auth.RequireAuth(), authHandler.Me)
		authGroup.POST("/register", auth.RequireAuth(), auth.RequireAdmin(), authHandler.Register)
	}

	protected := api.Group("")
	protected.Use(auth.RequireAuth())

	customers := protected.Group("/customers")
	{
		customers.GET("", auth.RequirePermission("customers.list"), customerHandler.List)
		customers.GET("/:id", auth.RequirePermission("customers.view"), customerHandler.Get)
		customers.POST("", auth.RequirePermission("customers.create"), customerHandler.Create)
		customers.PUT("/:id", auth.RequirePermission("customers.update"), customerHandler.Update)
		customers.POST("/bulk-delete", auth.RequirePermission("customers.delete"), customerHandler.BulkDelete)
		customers.POST("/bulk-restore", auth.RequirePermission("customers.restore"), customerHandler.BulkRestore)
	}

	products := protected.Group("/products")
	{
		products.GET("", auth.RequirePermission("products.list"), productHandler.List)
		products.GET("/:id", auth.RequirePermission("products.view"), productHandler.Get)
		products.POST("", auth.RequirePermission("products.create"), productHandler.Create)
		products.PUT("/:id", auth.RequirePermission("products.update"), productHandler.Update)
		products.POST("/bulk-delete", auth.RequirePermission("products.delete"), productHandler.BulkDelete)
		products.POST("/bulk-restore", auth.RequirePermission("products.restore"), productHandler.BulkRestore)
	}

	invoices := protected.Group("/invoices")
	{
		invoices.GET("", auth.RequirePermission("invoices.list"), invoiceHandler.List)
		invoices.GET("/:id", auth.RequirePermission("invoices.view"), invoiceHandler.Get)
		invoices.POST("", auth.RequirePermission("invoices.create"), invoiceHandler.Create)
		invoices.PUT("/:id", auth.RequirePermission("invoices.update"), invoiceHandler.Update)
		invoices.POST("/bulk-delete", auth.RequirePermission("invoices.delete"), invoiceHandler.BulkDelete)
		invoices.POST("/bulk-restore", auth.RequirePermission("invoices.restore"), invoiceHandler.BulkRestore)
		invoices.POST("/:id/mark-paid", auth.RequirePermission("payments.create"), invoiceHandler.MarkPaid)
		invoices.GET("/:id/pdf", auth.RequirePermission("invoices.view"), invoiceHandler.DownloadPDF)
		invoices.GET("/:id/payments", auth.RequirePermission("payments.list"), paymentHandler.ListByInvoice)
		invoices.POST("/:id/pay", auth.RequirePermission("payments.create"), invoiceHandler.InitiatePayment)
	}

	payments := protected.Group("/payments")
	{
		payments.GET("", auth.RequirePermission("payments.list"), paymentHandler.List)
		payments.GET("/:id", auth.RequirePermission("payments.view"), paymentHandler.Get)
		payments.POST("", auth.RequirePermission("payments.create"), paymentHandler.Create)
		payments.GET("/status/:transaction_id", auth.RequirePermission("payments.view"), invoiceHandler.PaymentStatus)
	}

	users := protected.Group("/users")
	{
		users.PUT("/me/profile", userHandler.UpdateProfile)
		users.PUT("/me/password", userHandler.ChangePassword)
		users.PUT("/me/billing", userHandler.UpdateBilling)

		users.GET("", auth.RequirePermission("users.list"), userHandler.List)
		users.GET("/:id", auth.RequirePermission("users.view"), userHandler.Get)
		users.PUT("/:id", auth.RequirePermission("users.update"), userHandler.Update)
		users.DELETE("/:id", auth.RequirePermission("users.delete"), userHandler.Delete)

		users.GET("/:id/permissions", auth.RequirePermission("users.permissions"), permissionHandler.GetUserPermissions)
		users.PUT("/:id/permissions", auth.RequirePermission("users.permissions"), permissionHandler.Sync)
		users.POST("/:id/permissions/grant", auth.RequirePermission("users.permissions"), permissionHandler.Grant)
		users.POST("/:id/permissions/revoke", auth.RequirePermission("users.permissions"), permissionHandler.Revoke)
	}

	protected.GET("/permissions", auth.RequirePermission("users.permissions"), permissionHandler.Catalogue)

	activity := protected.Group("/activity-logs")
	{
		activity.GET("", auth.RequireAdmin(), activityHandler.List)
		activity.GET("/me", activityHandler.Mine)
		activity.GET("/:entity_type/:id", auth.RequireAdmin(), activityHandler.ByEntity)
	}

	notifications := protected.Group("/notification-settings")
	{
		notifications.GET("", notificationHandler.Get)
		notifications.PUT("", notificationHandler.Update)
	}

	protected.GET("/dashboard/stats", auth.RequirePermission("dashboard.view"), reportHandler.Dashboard)

	reportsGroup := protected.Group("/reports")
	reportsGroup.Use(auth.RequirePermission("reports.view"))
	{
		reportsGroup.GET("/sales", reportHandler.Sales)
		reportsGroup.GET("/payments", reportHandler.Payments)
		reportsGroup.GET("/customer-aging", reportHandler.Aging)
		reportsGroup.GET("/top-products", reportHandler.TopProducts)
		reportsGroup.GET("/summary", reportHandler.Summary)
		reportsGroup.GET("/sales/export", reportHandler.ExportSales)
	}

	protected.POST("/scheduler/check-overdue", auth.RequireAdmin(), reportHandler.TriggerOverdueCheck)

	return sched
}
