package main

import (
	"context"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"immigration-case-portal/backend/internal/models"
	"immigration-case-portal/backend/internal/rtdb"
	"immigration-case-portal/backend/pkg/config"
	"immigration-case-portal/backend/pkg/di"
	"immigration-case-portal/backend/pkg/logger"
	"immigration-case-portal/backend/pkg/observability"
	"immigration-case-portal/backend/pkg/router"
	"immigration-case-portal/backend/pkg/secrets"

	"github.com/joho/godotenv"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Println("No .env file found")
	}

	cfg := config.New()

	logConfig := logger.DefaultConfig()
	logConfig.Level = cfg.Logging.Level
	logConfig.JSON = cfg.Logging.Format != "text"
	log := logger.New(logConfig)
	logger.SetGlobal(log)

	log.Info("Starting case portal API", "env", cfg.Server.Env)

	// Resolve sensitive settings through the secrets manager, which falls
	// back to the environment when Vault is not configured
	sm, err := secrets.NewVaultManager(log)
	if err != nil {
		log.Warn("Secrets manager unavailable, using environment", "error", err.Error())
	} else {
		secretCtx, cancelSecrets := context.WithTimeout(context.Background(), 5*time.Second)
		cfg.JWT.Secret = sm.GetSecretWithDefault(secretCtx, "JWT_SECRET", cfg.JWT.Secret)
		cfg.Database.Password = sm.GetSecretWithDefault(secretCtx, "DB_PASSWORD", cfg.Database.Password)
		cancelSecrets()
	}

	db, err := config.NewDB()
	if err != nil {
		log.LogError(err, "Failed to initialize database")
		os.Exit(1)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.Case{},
		&models.Document{},
		&models.Appointment{},
		&models.Notification{},
		&models.ChatMessage{},
	); err != nil {
		log.LogError(err, "Failed to migrate database")
		os.Exit(1)
	}

	store := rtdb.NewRedisClient()
	pingCtx, cancelPing := context.WithTimeout(context.Background(), cfg.ExternalStore.Timeout)
	if err := store.Ping(pingCtx); err != nil {
		// Chat degrades gracefully; the health checker keeps watching
		log.Warn("External store unreachable at startup", "error", err.Error())
	}
	cancelPing()

	shutdownTracing := observability.SetupTracing("case-portal-api")
	defer shutdownTracing()
	if metricsAddr := os.Getenv("METRICS_ADDR"); metricsAddr != "" {
		observability.SetupPrometheusMetrics(metricsAddr)
	}

	container := di.New(cfg, db, store, log)

	r := router.New(container)
	r.SetupRoutes()
	r.Health.Start()

	if schemaPath := os.Getenv("OPENAPI_SCHEMA_PATH"); schemaPath != "" {
		if err := r.AddOpenAPIValidation(schemaPath); err != nil {
			log.Warn("OpenAPI validation disabled", "error", err.Error())
		}
	}

	// No write timeout: the notification websocket holds connections open
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r.Engine,
		ReadHeaderTimeout: cfg.Server.Timeout,
	}

	go func() {
		log.Info("Server starting", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.LogError(err, "Server failed to start")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.LogError(err, "Forced shutdown")
	}

	log.Info("Server stopped")
}
