package router

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/yeremiapane/cleanmate-app/config"
	"github.com/yeremiapane/cleanmate-app/controllers"
	"github.com/yeremiapane/cleanmate-app/hub"
	"github.com/yeremiapane/cleanmate-app/middlewares"
	"github.com/yeremiapane/cleanmate-app/models"
	"github.com/yeremiapane/cleanmate-app/services"
	"github.com/yeremiapane/cleanmate-app/utils"
	"github.com/yeremiapane/cleanmate-app/web"
	"gorm.io/gorm"
)

type Options struct {
	Config *config.Config
	DB     *gorm.DB
	// Redis backs console sessions; the console is not mounted without it.
	Redis    *redis.Client
	Verifier services.IdentityVerifier
	// Monitor is created unstarted when nil.
	Monitor *services.PaymentMonitor
}

func SetupRouter(opts Options) (*gin.Engine, error) {
	cfg := opts.Config

	tokens := utils.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.TokenTTL)
	feed := hub.NewBookingHub()

	authService := services.NewAuthService(opts.DB, tokens, opts.Verifier)
	bookingService := services.NewBookingService(opts.DB, feed)
	cleanerService := services.NewCleanerService(opts.DB)
	paymentService := services.NewPaymentService(opts.DB, cfg.Momo)
	monitor := opts.Monitor
	if monitor == nil {
		monitor = services.NewPaymentMonitor(opts.DB, cfg.PaymentTimeout)
	}

	userCtrl := controllers.NewUserController(authService, cleanerService)
	cleanerCtrl := controllers.NewCleanerController(cleanerService, bookingService)
	orderCtrl := controllers.NewOrderController(bookingService)
	paymentCtrl := controllers.NewPaymentController(paymentService, monitor)

	r := gin.New()
	r.Use(middlewares.RecoveryMiddleware())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(cfg.CORSOrigins))
	r.Use(limiter(cfg.RateLimitPerSecond, middlewares.NewPerSecondLimiter))

	r.GET("/ping", func(c *gin.Context) {
		utils.RespondJSON(c, http.StatusOK, "pong", nil)
	})

	auth := middlewares.AuthMiddleware(authService)
	credentialLimit := limiter(cfg.AuthRatePerMinute, middlewares.NewPerMinuteLimiter)

	api := r.Group("/api")
	{
		api.GET("/cleaners", cleanerCtrl.ListCleaners)

		authGroup := api.Group("/auth", credentialLimit)
		{
			authGroup.POST("/register", userCtrl.Register)
			authGroup.POST("/login", userCtrl.Login)
			authGroup.POST("/google", userCtrl.GoogleLogin)
		}

		api.GET("/me", auth, userCtrl.Me)

		bookings := api.Group("/bookings", auth)
		{
			bookings.POST("", middlewares.RequireRole(models.RoleCustomer, models.RoleAdmin), orderCtrl.CreateBooking)
			bookings.GET("/open", middlewares.RequireRole(models.RoleCleaner, models.RoleAdmin), orderCtrl.OpenBookings)
			bookings.GET("/:id", orderCtrl.GetBooking)
			bookings.PUT("/:id/accept", middlewares.RequireRole(models.RoleCleaner), orderCtrl.AcceptBooking)
			bookings.PUT("/:id/complete", middlewares.RequireRole(models.RoleCleaner, models.RoleAdmin), orderCtrl.CompleteBooking)
			bookings.PUT("/:id/cancel", orderCtrl.CancelBooking)
		}

		orders := api.Group("/orders", auth)
		{
			orders.GET("", orderCtrl.ListOrders)
			orders.PUT("/:id", orderCtrl.UpdateOrder)
			orders.DELETE("/:id", orderCtrl.DeleteOrder)
			orders.GET("/:id/receipt", middlewares.ReceiptLoggerMiddleware(), paymentCtrl.Receipt)
		}

		cleaner := api.Group("/cleaner", auth, middlewares.RequireRole(models.RoleCleaner))
		{
			cleaner.GET("/jobs", cleanerCtrl.Jobs)
			cleaner.PUT("/profile", cleanerCtrl.UpdateProfile)
		}

		payment := api.Group("/payment", middlewares.PaymentSecurityHeaders(), middlewares.LogPaymentRequest())
		{
			payment.POST("/momo", auth, paymentCtrl.CreateMomoPayment)
			payment.POST("/momo-callback", paymentCtrl.MomoCallback)
		}

		api.GET("/admin/payments/metrics", auth, middlewares.RequireRole(models.RoleAdmin), paymentCtrl.Metrics)
	}

	r.GET("/ws/bookings", middlewares.WebSocketAuthMiddleware(authService), controllers.BookingFeedHandler(feed, cfg.CORSOrigins))

	if opts.Redis == nil {
		r.GET("/", func(c *gin.Context) {
			utils.RespondJSON(c, http.StatusOK, "CleanMate API is running", nil)
		})
		utils.InfoLogger.Info("REDIS_URL not set, cleaner console disabled")
		return r, nil
	}

	tmpl, err := web.Templates()
	if err != nil {
		return nil, fmt.Errorf("parse console templates: %w", err)
	}
	r.SetHTMLTemplate(tmpl)

	sessions := services.NewSessionStore(opts.Redis, cfg.SessionTTL)
	consoleCtrl := &controllers.ConsoleController{
		Auth:         authService,
		Bookings:     bookingService,
		Cleaners:     cleanerService,
		Sessions:     sessions,
		SecureCookie: cfg.GinMode == gin.ReleaseMode,
	}

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/console/login")
	})

	console := r.Group("/console")
	{
		console.GET("/login", consoleCtrl.LoginPage)
		console.POST("/login", credentialLimit, consoleCtrl.Login)
		console.GET("/register", consoleCtrl.RegisterPage)
		console.POST("/register", credentialLimit, consoleCtrl.Register)
		console.GET("/logout", consoleCtrl.Logout)

		private := console.Group("", middlewares.SessionMiddleware(sessions, "/console/login"), middlewares.RequireRole(models.RoleCleaner))
		{
			private.GET("/dashboard", consoleCtrl.Dashboard)
			private.GET("/profile", consoleCtrl.ProfilePage)
			private.POST("/profile", consoleCtrl.UpdateProfile)
			private.POST("/bookings/:id/accept", consoleCtrl.AcceptBooking)
			private.POST("/bookings/:id/complete", consoleCtrl.CompleteBooking)
		}
	}

	return r, nil
}

// limiter returns a per-IP limiter of n requests per unit, or a pass-through
// when n is 0.
func limiter(n int, build func(int) *middlewares.RateLimiter) gin.HandlerFunc {
	if n <= 0 {
		return middlewares.Noop()
	}
	return build(n).RateLimit()
}
