package handlers

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/call-scheduler/internal/scheduler"
	"github.com/onurcolak/call-scheduler/pkg/response"
)

// SchedulerHandler exposes start/stop/status for the background runtime.
type SchedulerHandler struct {
	runtime *scheduler.Runtime
	ctx     context.Context
}

func NewSchedulerHandler(runtime *scheduler.Runtime, ctx context.Context) *SchedulerHandler {
	return &SchedulerHandler{
		runtime: runtime,
		ctx:     ctx,
	}
}

// StartScheduler godoc
// @Summary Start the background runtime
// @Description Starts the dispatcher and poller jobs
// @Tags scheduler
// @Accept json
// @Produce json
// @Param x-api-key header string false "Scheduler API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/scheduler/start [post]
func (h *SchedulerHandler) StartScheduler(c echo.Context) error {
	if h.runtime.IsRunning() {
		return response.OkWithMessage(c, "Scheduler is already running", h.runtime.Status())
	}

	if err := h.runtime.Start(h.ctx); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Scheduler started successfully", h.runtime.Status())
}

// StopScheduler godoc
// @Summary Stop the background runtime
// @Description Stops the dispatcher and poller jobs; waits for in-flight ticks
// @Tags scheduler
// @Accept json
// @Produce json
// @Param x-api-key header string false "Scheduler API key"
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/scheduler/stop [post]
func (h *SchedulerHandler) StopScheduler(c echo.Context) error {
	if !h.runtime.IsRunning() {
		return response.OkWithMessage(c, "Scheduler is already stopped", h.runtime.Status())
	}

	if err := h.runtime.Stop(); err != nil {
		return response.InternalServerError(c, err)
	}

	return response.OkWithMessage(c, "Scheduler stopped successfully", h.runtime.Status())
}

// GetSchedulerStatus godoc
// @Summary Get runtime status
// @Description Returns run statistics for the dispatcher and poller jobs
// @Tags scheduler
// @Accept json
// @Produce json
// @Param x-api-key header string false "Scheduler API key"
// @Success 200 {object} response.SuccessResponse
// @Router /api/scheduler/status [get]
func (h *SchedulerHandler) GetSchedulerStatus(c echo.Context) error {
	return response.Ok(c, h.runtime.Status())
}
