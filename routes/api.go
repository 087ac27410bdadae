package routes

import (
	"github.com/labstack/echo/v4"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/onurcolak/call-scheduler/environments"
	"github.com/onurcolak/call-scheduler/handlers"
	"github.com/onurcolak/call-scheduler/internal/middlewares"
)

// RegisterRoutes registers all API routes with middleware
func RegisterRoutes(
	e *echo.Echo,
	healthHandler *handlers.HealthHandler,
	callHandler *handlers.CallHandler,
	schedulerHandler *handlers.SchedulerHandler,
	cfg *environments.Config,
) {
	e.GET("/health", healthHandler.Health)
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	api.POST("/schedule", callHandler.ScheduleCall)
	api.POST("/call-now", callHandler.CallNow)

	api.GET("/calls", callHandler.GetAllCalls)
	// Static routes before /calls/:id so "stats" and "cached" are not
	// swallowed by the id parameter.
	api.GET("/calls/stats", callHandler.GetStats)
	api.GET("/calls/cached", callHandler.GetCachedCalls)
	api.GET("/calls/:id", callHandler.GetCall)
	api.DELETE("/calls/:id", callHandler.DeleteCall)

	// Scheduler admin routes; guarded only when a key is configured.
	schedulerGroup := api.Group("/scheduler")
	if cfg.Auth.SchedulerAPIKey != "" {
		schedulerGroup.Use(middlewares.APIKeyAuth(cfg.Auth.SchedulerAPIKey))
	}

	schedulerGroup.POST("/start", schedulerHandler.StartScheduler)
	schedulerGroup.POST("/stop", schedulerHandler.StopScheduler)
	schedulerGroup.GET("/status", schedulerHandler.GetSchedulerStatus)
}
