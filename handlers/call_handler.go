package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/onurcolak/call-scheduler/internal/domain"
	"github.com/onurcolak/call-scheduler/internal/service"
	"github.com/onurcolak/call-scheduler/pkg/response"
	"github.com/onurcolak/call-scheduler/pkg/validator"
)

type CallHandler struct {
	service *service.CallService
}

func NewCallHandler(service *service.CallService) *CallHandler {
	return &CallHandler{service: service}
}

type ScheduleCallRequest struct {
	PhoneNumber   string `json:"phone_number" validate:"required,min=10"`
	ScheduledTime string `json:"scheduled_time" validate:"required"`
}

type CallNowRequest struct {
	PhoneNumber string `json:"phone_number" validate:"required,min=10"`
}

// scheduledTimeLayouts accepts RFC3339 as well as the timezone-less form the
// UI sends (YYYY-MM-DDTHH:MM:SS).
var scheduledTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
}

func parseScheduledTime(value string) (time.Time, error) {
	for _, layout := range scheduledTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid datetime format, use ISO format (YYYY-MM-DDTHH:MM:SS)")
}

// ScheduleCall godoc
// @Summary Schedule a call
// @Description Creates a pending call to be dispatched at the scheduled time
// @Tags calls
// @Accept json
// @Produce json
// @Param call body ScheduleCallRequest true "Call to schedule"
// @Success 201 {object} response.CallResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/schedule [post]
func (h *CallHandler) ScheduleCall(c echo.Context) error {
	var req ScheduleCallRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	scheduledTime, err := parseScheduledTime(req.ScheduledTime)
	if err != nil {
		return response.BadRequest(c, err)
	}

	call, err := h.service.ScheduleCall(c.Request().Context(), req.PhoneNumber, scheduledTime)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Call(c, http.StatusCreated, call)
}

// GetAllCalls godoc
// @Summary Get all scheduled calls
// @Description Retrieves all calls ordered by scheduled time, newest first
// @Tags calls
// @Accept json
// @Produce json
// @Success 200 {object} response.CallListResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/calls [get]
func (h *CallHandler) GetAllCalls(c echo.Context) error {
	calls, err := h.service.GetAllCalls(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	if calls == nil {
		calls = []domain.ScheduledCall{}
	}

	return response.Calls(c, calls)
}

// GetCall godoc
// @Summary Get a scheduled call
// @Description Retrieves a single call by id
// @Tags calls
// @Accept json
// @Produce json
// @Param id path int true "Call ID"
// @Success 200 {object} response.CallResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/calls/{id} [get]
func (h *CallHandler) GetCall(c echo.Context) error {
	id, err := parseCallID(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	call, err := h.service.GetCall(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrCallNotFound) {
			return response.NotFound(c, "Call not found")
		}
		return response.InternalServerError(c, err)
	}

	return response.Call(c, http.StatusOK, call)
}

// DeleteCall godoc
// @Summary Delete a scheduled call
// @Description Cancels a call; only pending calls can be deleted
// @Tags calls
// @Accept json
// @Produce json
// @Param id path int true "Call ID"
// @Success 200 {object} response.SuccessResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 404 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/calls/{id} [delete]
func (h *CallHandler) DeleteCall(c echo.Context) error {
	id, err := parseCallID(c)
	if err != nil {
		return response.BadRequest(c, err)
	}

	if err := h.service.DeleteCall(c.Request().Context(), id); err != nil {
		switch {
		case errors.Is(err, domain.ErrCallNotFound):
			return response.NotFound(c, "Call not found")
		case errors.Is(err, domain.ErrCallNotPending):
			return response.BadRequestWithMessage(c, "Can only delete pending calls")
		default:
			return response.InternalServerError(c, err)
		}
	}

	return response.Deleted(c, "Call deleted")
}

// CallNow godoc
// @Summary Initiate a call immediately
// @Description Places the call right away and stores it already in-progress
// @Tags calls
// @Accept json
// @Produce json
// @Param call body CallNowRequest true "Call to place"
// @Success 201 {object} response.CallResponse
// @Failure 400 {object} response.ErrorResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/call-now [post]
func (h *CallHandler) CallNow(c echo.Context) error {
	var req CallNowRequest
	if err := c.Bind(&req); err != nil {
		return response.BadRequest(c, err)
	}

	if err := c.Validate(&req); err != nil {
		return validator.HandleValidationError(c, err)
	}

	call, err := h.service.CallNow(c.Request().Context(), req.PhoneNumber)
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Call(c, http.StatusCreated, call)
}

// GetStats godoc
// @Summary Get call statistics
// @Description Returns count of calls by lifecycle status
// @Tags calls
// @Accept json
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/calls/stats [get]
func (h *CallHandler) GetStats(c echo.Context) error {
	pending, inProgress, completed, failed, err := h.service.GetStats(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, map[string]any{
		"pending":     pending,
		"in-progress": inProgress,
		"completed":   completed,
		"failed":      failed,
		"total":       pending + inProgress + completed + failed,
	})
}

// GetCachedCalls godoc
// @Summary Get cached completed calls
// @Description Returns recently completed calls cached in Redis
// @Tags calls
// @Accept json
// @Produce json
// @Success 200 {object} response.SuccessResponse
// @Failure 500 {object} response.ErrorResponse
// @Router /api/calls/cached [get]
func (h *CallHandler) GetCachedCalls(c echo.Context) error {
	cached, err := h.service.GetCachedCalls(c.Request().Context())
	if err != nil {
		return response.InternalServerError(c, err)
	}

	return response.Ok(c, cached)
}

func parseCallID(c echo.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid call id")
	}
	return id, nil
}
