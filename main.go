package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/onurcolak/call-scheduler/environments"
	"github.com/onurcolak/call-scheduler/handlers"
	"github.com/onurcolak/call-scheduler/internal/repository"
	"github.com/onurcolak/call-scheduler/internal/scheduler"
	"github.com/onurcolak/call-scheduler/internal/service"
	"github.com/onurcolak/call-scheduler/pkg/callapi"
	"github.com/onurcolak/call-scheduler/pkg/database"
	"github.com/onurcolak/call-scheduler/pkg/logger"
	"github.com/onurcolak/call-scheduler/pkg/redis"
	"github.com/onurcolak/call-scheduler/pkg/validator"
	"github.com/onurcolak/call-scheduler/routes"

	_ "github.com/onurcolak/call-scheduler/docs" // swagger docs
)

// @title Call Scheduler API
// @version 1.0
// @description Schedules outbound phone calls and tracks their lifecycle against the Call API

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /

// @schemes http https
func main() {
	logger.Init()

	// Load config
	cfg := environments.Load()

	logger.Infof("Starting Call Scheduler Service...")

	// Init DB
	db, err := database.NewMySQLDB(cfg.Database)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Seed data
	if os.Getenv("SEED_DATA") == "true" {
		if err := database.SeedTestData(db); err != nil {
			logger.Warnf("Failed to seed test data: %v", err)
		}
	}

	// Init redis
	var redisClient *redis.Client
	redisClient, err = redis.NewRedisClient(cfg.Redis)
	if err != nil {
		logger.Warnf("Redis not available, caching disabled: %v", err)
		redisClient = nil
	}

	// Initialize Call API client
	callAPIClient := callapi.NewClient(cfg.CallAPI)
	logger.Infof("Call API configured: %s", callAPIClient.GetURL())

	// Initialize repository
	callRepo := repository.NewCallRepository(db)

	// Initialize service. A typed nil *redis.Client must not reach the
	// service's cache interface, so the nil case passes an untyped nil.
	var callService *service.CallService
	if redisClient != nil {
		callService = service.NewCallService(callRepo, callAPIClient, redisClient)
	} else {
		callService = service.NewCallService(callRepo, callAPIClient, nil)
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize background runtime: dispatcher promotes due pending calls,
	// poller converges in-progress calls with the Call API.
	dispatcher := scheduler.NewJob("dispatcher", cfg.Scheduler.DispatchInterval, func(ctx context.Context) (int, error) {
		results, err := callService.DispatchDueCalls(ctx)
		return len(results), err
	})
	poller := scheduler.NewJob("poller", cfg.Scheduler.PollInterval, func(ctx context.Context) (int, error) {
		results, err := callService.PollInProgressCalls(ctx)
		return len(results), err
	})
	runtime := scheduler.NewRuntime(dispatcher, poller)

	// Initialize handlers
	healthHandler := handlers.NewHealthHandler(db, redisClient)
	callHandler := handlers.NewCallHandler(callService)
	schedulerHandler := handlers.NewSchedulerHandler(runtime, ctx)

	// Auto-start runtime
	if os.Getenv("AUTO_START_SCHEDULER") != "false" {
		logger.Infof("Auto-starting scheduler runtime...")
		if err := runtime.Start(ctx); err != nil {
			logger.Warnf("Failed to auto-start scheduler runtime: %v", err)
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.Validator = validator.New()

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.RequestID())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{
			echo.HeaderOrigin,
			echo.HeaderContentType,
			echo.HeaderAccept,
			echo.HeaderAuthorization,
			"x-api-key",
		},
	}))

	// Setup routes
	routes.RegisterRoutes(e, healthHandler, callHandler, schedulerHandler, cfg)

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Infof("Server starting on http://localhost%s", addr)
		logger.Infof("Swagger docs available at http://localhost%s/swagger/index.html", addr)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Infof("Shutting down gracefully...")

	// Cancel context to signal all goroutines to stop
	cancel()

	// Stop runtime first (with timeout); Stop waits for in-flight ticks, and
	// the atomic claim in the repository keeps state consistent even if the
	// wait is cut short.
	if runtime.IsRunning() {
		logger.Infof("Stopping scheduler runtime...")
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()

		done := make(chan error, 1)
		go func() {
			done <- runtime.Stop()
		}()

		select {
		case err := <-done:
			if err != nil {
				logger.Errorf("Error stopping scheduler runtime: %v", err)
			} else {
				logger.Infof("Scheduler runtime stopped successfully")
			}
		case <-stopCtx.Done():
			logger.Warnf("Scheduler runtime stop timeout, forcing shutdown")
		}
	}

	// Shutdown HTTP server (with timeout)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	logger.Infof("Shutting down HTTP server...")
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("Server forced to shutdown: %v", err)
	} else {
		logger.Infof("HTTP server stopped successfully")
	}

	// Close database connection
	logger.Infof("Closing database connection...")
	if err := db.Close(); err != nil {
		logger.Errorf("Error closing database: %v", err)
	}

	// Close Redis connection
	if redisClient != nil {
		logger.Infof("Closing Redis connection...")
		if err := redisClient.Close(); err != nil {
			logger.Errorf("Error closing Redis: %v", err)
		}
	}

	logger.Infof("Graceful shutdown completed")
}
