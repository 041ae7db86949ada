package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/oktoeat/api/internal/config"
	"github.com/oktoeat/api/internal/database"
	"github.com/oktoeat/api/internal/handlers"
	"github.com/oktoeat/api/internal/importer"
	"github.com/oktoeat/api/internal/logger"
	"github.com/oktoeat/api/internal/middleware"
	"github.com/oktoeat/api/internal/repository"
	"github.com/oktoeat/api/internal/scheduler"
	"github.com/oktoeat/api/internal/services"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load .env if present, then configuration from environment variables
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize structured logger
	log := logger.New(cfg.Server.Env)
	log.Info("Starting import API", map[string]interface{}{
		"version":     "0.1.0",
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	// Create database connection pool
	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		log.Fatal("Failed to bootstrap schema", err, nil)
	}

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	// Setup Gin router
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Add middleware in order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	// Register health check routes
	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Wire the import pipeline: store -> orchestrator -> service
	store := repository.NewPgStore(db)
	imp := importer.New(store, log, importer.Options{
		SourceURL: cfg.Import.SourceURL,
		BatchSize: cfg.Import.BatchSize,
	})
	metaRepo := repository.NewMetadataRepository(db)
	importService := services.NewImportService(imp, metaRepo, log)

	// Register import routes
	importHandler := handlers.NewImportHandler(importService, cfg.Import.Secret)
	v1 := router.Group("/api/v1")
	{
		v1.POST("/import", importHandler.Trigger)
		v1.GET("/import/status", importHandler.Status)
	}

	// Start the scheduled import unless disabled
	var sched *scheduler.Scheduler
	if cfg.Import.Schedule != "" {
		sched = scheduler.New(importService, log, cfg.Import.Schedule)
		if err := sched.Start(); err != nil {
			log.Fatal("Failed to start import scheduler", err, map[string]interface{}{
				"schedule": cfg.Import.Schedule,
			})
		}
	} else {
		log.Warn("Import scheduler disabled", nil)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	// Start server in goroutine
	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	// Wait for interrupt signal (SIGINT or SIGTERM)
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	// Graceful shutdown
	log.Info("Shutting down server...", nil)

	if sched != nil {
		sched.Stop()
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
