package validator

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

type sampleRequest struct {
	PhoneNumber   string `json:"phone_number" validate:"required,min=10"`
	ScheduledTime string `json:"scheduled_time" validate:"required"`
}

func TestCustomValidator_ValidateReturnsValidationError(t *testing.T) {
	cv := New()

	req := sampleRequest{
		// Both fields left empty to trigger validation errors
	}

	err := cv.Validate(req)
	if err == nil {
		t.Fatalf("expected validation error, got nil")
	}

	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}

	if len(ve.Errors) == 0 {
		t.Fatalf("expected at least one validation error, got none")
	}

	if _, exists := ve.Errors["phone_number"]; !exists {
		t.Errorf("expected 'phone_number' to be in validation errors")
	}
	if _, exists := ve.Errors["scheduled_time"]; !exists {
		t.Errorf("expected 'scheduled_time' to be in validation errors")
	}
}

func TestCustomValidator_MinLengthIsEnforced(t *testing.T) {
	cv := New()

	err := cv.Validate(sampleRequest{
		PhoneNumber:   "12345",
		ScheduledTime: "2026-09-01T10:00:00",
	})
	if err == nil {
		t.Fatalf("expected validation error for short phone number, got nil")
	}

	ve, ok := err.(*ValidationError)
	if !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}

	if _, exists := ve.Errors["phone_number"]; !exists {
		t.Errorf("expected 'phone_number' to be in validation errors, got %v", ve.Errors)
	}
}

func TestHandleValidationError_Returns400WithDetails(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/test", nil)
	c := e.NewContext(req, rec)

	cv := New()
	err := cv.Validate(sampleRequest{})

	if err == nil {
		t.Fatalf("expected validation error, got nil")
	}

	if err := HandleValidationError(c, err); err != nil {
		t.Fatalf("HandleValidationError returned error: %v", err)
	}

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}

	var body ValidationErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if body.Success {
		t.Errorf("expected Success=false, got true")
	}
	if body.Error != "Validation failed" {
		t.Errorf("expected error='Validation failed', got %q", body.Error)
	}
	if len(body.Details) == 0 {
		t.Fatalf("expected details in validation response, got none")
	}
}

func TestCustomValidator_ValidRequestPasses(t *testing.T) {
	cv := New()

	err := cv.Validate(sampleRequest{
		PhoneNumber:   "+1234567890",
		ScheduledTime: "2026-09-01T10:00:00",
	})
	if err != nil {
		t.Fatalf("expected valid request to pass, got %v", err)
	}
}
