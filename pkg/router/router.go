// Package router assembles the gin engine: middleware chain, versioned
// API groups and the legacy chat endpoints older clients still call.
package router

import (
	"context"
	"net/http"
	"time"

	"immigration-case-portal/backend/internal/api"
	"immigration-case-portal/backend/pkg/config"
	"immigration-case-portal/backend/pkg/di"
	"immigration-case-portal/backend/pkg/errors"
	"immigration-case-portal/backend/pkg/health"
	"immigration-case-portal/backend/pkg/jwt"
	"immigration-case-portal/backend/pkg/logger"
	"immigration-case-portal/backend/pkg/middleware"
	"immigration-case-portal/backend/pkg/validator"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// Router is the main router for the application
type Router struct {
	Engine    *gin.Engine
	Container *di.Container
	Logger    *logger.Logger
	Config    *config.Config
	Health    *health.Checker
}

// New creates a router around the given container
func New(container *di.Container) *Router {
	logger.SetGlobal(container.Logger)
	cfg := container.Config

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(logger.Middleware(container.Logger))
	engine.Use(errors.ErrorHandler())
	engine.Use(errors.RecoveryWithLogger())

	rateLimiter := middleware.NewRateLimiter(container.Logger, middleware.RateLimiterOptions{
		Limit:          rate.Limit(cfg.Security.RateLimit),
		Burst:          cfg.Security.RateLimitBurst,
		ExpiryDuration: time.Hour,
		KeyFunc: func(c *gin.Context) string {
			return c.ClientIP()
		},
	})
	engine.Use(rateLimiter.Middleware())

	checker := health.NewChecker(container.Logger, 30*time.Second)
	if container.DB != nil {
		checker.RegisterDatabaseCheck(func() error {
			return config.TestConnection(container.DB)
		})
	}
	checker.RegisterExternalStoreCheck(func() error {
		timeout := cfg.ExternalStore.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		return container.Store.Ping(ctx)
	})

	return &Router{
		Engine:    engine,
		Container: container,
		Logger:    container.Logger,
		Config:    cfg,
		Health:    checker,
	}
}

// AddOpenAPIValidation plugs schema validation in front of the API routes
func (r *Router) AddOpenAPIValidation(schemaPath string) error {
	v, err := validator.NewOpenAPIValidator(schemaPath)
	if err != nil {
		return err
	}
	r.Engine.Use(v.Middleware())
	return nil
}

// SetupRoutes registers all application routes
func (r *Router) SetupRoutes() {
	r.Engine.Use(corsMiddleware(r.Config.Security.AllowedOrigins))

	jwtAuth := middleware.JWTAuthMiddleware(r.Container.JWTService, r.Logger)

	authHandler := api.NewAuthHandler(r.Container.UserService)
	caseHandler := api.NewCaseHandler(r.Container.CaseService, r.Container.UserService)
	documentHandler := api.NewDocumentHandler(r.Container.DocumentService)
	appointmentHandler := api.NewAppointmentHandler(r.Container.AppointmentService)
	notificationHandler := api.NewNotificationHandler(r.Container.NotificationService)
	chatHandler := api.NewChatHandler(r.Container.ChatService, r.Container.Migrator, r.Container.ReadSyncer)
	reportHandler := api.NewReportHandler(r.Container.ReportService)

	r.Engine.GET("/health", gin.WrapF(r.Health.HTTPHandler()))

	v1 := r.Engine.Group("/api/v1")

	authRoutes := v1.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.GET("/me", jwtAuth, authHandler.Me)
	}

	protected := v1.Group("/")
	protected.Use(jwtAuth)
	{
		caseRoutes := protected.Group("/cases")
		{
			caseRoutes.POST("", middleware.RequireAnyRole(jwt.RoleClient, jwt.RoleAdmin), caseHandler.Create)
			caseRoutes.GET("", caseHandler.List)
			caseRoutes.GET("/:id", caseHandler.Get)
			caseRoutes.PUT("/:id/status", middleware.RequireAnyRole(jwt.RoleAgent, jwt.RoleAdmin), caseHandler.UpdateStatus)
			caseRoutes.PUT("/:id/assign", middleware.RequireRole(jwt.RoleAdmin), caseHandler.Assign)
			caseRoutes.POST("/:id/documents", documentHandler.Register)
			caseRoutes.GET("/:id/documents", documentHandler.ListByCase)
		}

		protected.GET("/agents", middleware.RequireRole(jwt.RoleAdmin), caseHandler.ListAgents)
		protected.PUT("/documents/:id/review", middleware.RequireAnyRole(jwt.RoleAgent, jwt.RoleAdmin), documentHandler.Review)

		appointmentRoutes := protected.Group("/appointments")
		{
			appointmentRoutes.POST("", appointmentHandler.Create)
			appointmentRoutes.GET("", appointmentHandler.List)
			appointmentRoutes.PUT("/:id/cancel", appointmentHandler.Cancel)
		}

		notificationRoutes := protected.Group("/notifications")
		{
			notificationRoutes.GET("", notificationHandler.List)
			notificationRoutes.PUT("/read-all", notificationHandler.MarkAllRead)
			notificationRoutes.PUT("/:id/read", notificationHandler.MarkRead)
		}

		chatRoutes := protected.Group("/chat")
		{
			chatRoutes.POST("/messages", chatHandler.Send)
			chatRoutes.GET("/messages", chatHandler.History)
			chatRoutes.GET("/unread-count", chatHandler.UnreadCount)
			chatRoutes.POST("/migrate", middleware.RequireRole(jwt.RoleAdmin), chatHandler.Migrate)
			chatRoutes.PUT("/messages/mark-read", chatHandler.MarkRead)
			chatRoutes.PUT("/messages/sync-firebase-read", chatHandler.SyncExternalRead)
		}

		reportRoutes := protected.Group("/reports")
		reportRoutes.Use(middleware.RequireRole(jwt.RoleAdmin))
		{
			reportRoutes.GET("/overview", reportHandler.Overview)
		}
	}

	// Legacy chat paths, kept until the mobile clients move to /api/v1
	legacyChat := r.Engine.Group("/api/chat")
	legacyChat.Use(jwtAuth)
	{
		legacyChat.POST("/migrate", middleware.RequireRole(jwt.RoleAdmin), chatHandler.Migrate)
		legacyChat.PUT("/messages/mark-read", chatHandler.MarkRead)
		legacyChat.PUT("/messages/sync-firebase-read", chatHandler.SyncExternalRead)
	}

	// Notification push socket
	r.Engine.GET("/ws", jwtAuth, func(c *gin.Context) {
		claims, ok := middleware.ClaimsFromContext(c)
		if !ok {
			c.AbortWithStatus(http.StatusUnauthorized)
			return
		}
		if err := r.Container.Hub.Serve(c.Writer, c.Request, claims.UserID); err != nil {
			r.Logger.Warn("websocket upgrade failed", "error", err.Error())
		}
	})
}

func corsMiddleware(allowedOrigins []string) gin.HandlerFunc {
	allowAll := len(allowedOrigins) == 0
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowAll {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else if _, ok := allowed[origin]; ok {
			c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
			c.Writer.Header().Set("Vary", "Origin")
		}

		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept, Accept-Encoding, X-CSRF-Token, Authorization, Origin, Upgrade, Connection, Cache-Control")
		c.Writer.Header().Set("Access-Control-Max-Age", "86400")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
