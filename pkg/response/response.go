package response

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// CallResponse wraps a single call record: {"success": true, "call": {...}}.
type CallResponse struct {
	Success bool `json:"success"`
	Call    any  `json:"call"`
}

// CallListResponse wraps a list of call records: {"success": true, "calls": [...]}.
type CallListResponse struct {
	Success bool `json:"success"`
	Calls   any  `json:"calls"`
}

func Ok(c echo.Context, data any) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Data:    data,
	})
}

func OkWithMessage(c echo.Context, message string, data any) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: message,
		Data:    data,
	})
}

func Call(c echo.Context, code int, call any) error {
	return c.JSON(code, CallResponse{
		Success: true,
		Call:    call,
	})
}

func Calls(c echo.Context, calls any) error {
	return c.JSON(http.StatusOK, CallListResponse{
		Success: true,
		Calls:   calls,
	})
}

func Deleted(c echo.Context, message string) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: message,
	})
}

func BadRequest(c echo.Context, err error) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   err.Error(),
	})
}

func BadRequestWithMessage(c echo.Context, message string) error {
	return c.JSON(http.StatusBadRequest, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

func Unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, ErrorResponse{
		Success: false,
		Error:   "Invalid or missing API key",
	})
}

func NotFound(c echo.Context, message string) error {
	return c.JSON(http.StatusNotFound, ErrorResponse{
		Success: false,
		Error:   message,
	})
}

func InternalServerError(c echo.Context, err error) error {
	return c.JSON(http.StatusInternalServerError, ErrorResponse{
		Success: false,
		Error:   err.Error(),
	})
}
