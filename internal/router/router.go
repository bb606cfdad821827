package router

import (
	"net/http"

	"tumaini/config"
	"tumaini/internal/domain"
	"tumaini/internal/handler"
	"tumaini/internal/middleware"
	"tumaini/internal/repository"
	"tumaini/internal/service"
	"tumaini/internal/store"
	"tumaini/internal/ws"
	"tumaini/pkg/cloudinary"
	"tumaini/pkg/payment"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, cloud cloudinary.Client, kv store.KV, feed *ws.Feed) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	// Skip gin.Logger() to reduce log noise; use gin.Default() if you need request logging
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(cfg.Server.RateLimit)))

	// Repositories
	userRepo := repository.NewUserRepository(db)
	donationRepo := repository.NewDonationRepository(db)
	productRepo := repository.NewProductRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	contactRepo := repository.NewContactRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	couponRepo := repository.NewCouponRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Payment providers. Unconfigured providers are simply absent from the
	// map; initiating with one answers 503.
	providers := make(map[string]payment.Provider)
	if cfg.Mpesa.Configured() {
		providers[domain.MethodMpesa] = payment.NewMpesaProvider(
			cfg.Mpesa.BaseURL(), cfg.Mpesa.ConsumerKey, cfg.Mpesa.ConsumerSecret,
			cfg.Mpesa.ShortCode, cfg.Mpesa.Passkey)
	}
	if cfg.PayPal.Configured() {
		providers[domain.MethodPayPal] = payment.NewPayPalProvider(
			cfg.PayPal.BaseURL(), cfg.PayPal.ClientID, cfg.PayPal.ClientSecret)
	}

	// Services
	authSvc := service.NewAuthService(cfg, userRepo)
	cartSvc := service.NewCartService(couponRepo)
	donationSvc := service.NewDonationService(cfg, donationRepo, providers, feed)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc, auditRepo)
	donationHandler := handler.NewDonationHandler(donationSvc, donationRepo)
	mpesaHandler := handler.NewMpesaHandler(donationSvc, donationRepo)
	mpesaWebhookHandler := handler.NewMpesaWebhookHandler(donationSvc, donationRepo, orderRepo)
	paypalHandler := handler.NewPayPalHandler(donationSvc, donationRepo, orderRepo)
	paypalWebhookHandler := handler.NewPayPalWebhookHandler(donationSvc, donationRepo, orderRepo)
	contactHandler := handler.NewContactHandler(contactRepo)
	applicationHandler := handler.NewApplicationHandler(applicationRepo)
	productHandler := handler.NewProductHandler(productRepo)
	orderHandler := handler.NewOrderHandler(orderRepo, productRepo, cartSvc, donationSvc)
	cartHandler := handler.NewCartHandler(kv, productRepo, cartSvc, cfg.Payment.CartTTL)
	uploadHandler := handler.NewUploadHandler(cloud)
	adminHandler := handler.NewAdminHandler(donationRepo, orderRepo, contactRepo, applicationRepo, authSvc)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	{
		api.POST("/donations", donationHandler.Create)
		api.GET("/donations/:reference", donationHandler.Get)
		api.POST("/mpesa/stk-push", mpesaHandler.StkPush)
		api.GET("/mpesa/status/:checkoutRequestID", mpesaHandler.Status)
		api.POST("/paypal/orders/:reference/capture", paypalHandler.Capture)

		api.POST("/webhooks/mpesa", mpesaWebhookHandler.Handle)
		api.POST("/webhooks/paypal", paypalWebhookHandler.Handle)

		api.POST("/contact", contactHandler.Create)
		api.POST("/applications", applicationHandler.Create)

		api.GET("/products", productHandler.List)
		api.GET("/products/:slug", productHandler.Get)
		api.POST("/orders", orderHandler.Create)
		api.GET("/orders/:reference", orderHandler.Get)
		api.GET("/cart", cartHandler.Get)
		api.PUT("/cart", cartHandler.Put)

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.PATCH("/change-password", middleware.AuthRequired(&cfg.JWT), authHandler.ChangePassword)
		}

		admin := api.Group("/admin")
		admin.Use(middleware.AuthRequired(&cfg.JWT), middleware.AdminRequired())
		{
			admin.GET("/dashboard", adminHandler.Dashboard)
			admin.GET("/donations", adminHandler.ListDonations)
			admin.GET("/orders", adminHandler.ListOrders)
			admin.PATCH("/orders/:id/status", adminHandler.UpdateOrderStatus)
			admin.GET("/contacts", adminHandler.ListContacts)
			admin.PUT("/contacts/:id/read", adminHandler.MarkContactRead)
			admin.GET("/applications", adminHandler.ListApplications)
			admin.POST("/products", productHandler.Create)
			admin.PUT("/products/:id", productHandler.Update)
			admin.DELETE("/products/:id", productHandler.Delete)
			admin.POST("/users", adminHandler.CreateUser)
		}

		upload := api.Group("/upload")
		upload.Use(middleware.AuthRequired(&cfg.JWT), middleware.AdminRequired())
		{
			upload.POST("/multiple", uploadHandler.UploadMultiple)
		}
	}

	r.GET("/ws/donations", feed.Upgrade())

	return r
}
