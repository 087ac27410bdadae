package response

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func newEchoContext(t *testing.T) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()

	e := echo.New()
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/test", nil)
	return e.NewContext(req, rec), rec
}

func TestCall_WrapsRecordUnderCallKey(t *testing.T) {
	c, rec := newEchoContext(t)

	record := map[string]any{"id": 1, "status": "pending"}
	if err := Call(c, http.StatusCreated, record); err != nil {
		t.Fatalf("Call returned error: %v", err)
	}

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if body["success"] != true {
		t.Errorf("expected success=true, got %v", body["success"])
	}
	call, ok := body["call"].(map[string]any)
	if !ok {
		t.Fatalf("expected 'call' object in response, got %v", body["call"])
	}
	if call["status"] != "pending" {
		t.Errorf("expected call.status=pending, got %v", call["status"])
	}
}

func TestCalls_WrapsListUnderCallsKey(t *testing.T) {
	c, rec := newEchoContext(t)

	records := []map[string]any{{"id": 1}, {"id": 2}}
	if err := Calls(c, records); err != nil {
		t.Fatalf("Calls returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	calls, ok := body["calls"].([]any)
	if !ok {
		t.Fatalf("expected 'calls' array in response, got %v", body["calls"])
	}
	if len(calls) != 2 {
		t.Errorf("expected 2 calls, got %d", len(calls))
	}
}

func TestNotFound_SetsErrorMessage(t *testing.T) {
	c, rec := newEchoContext(t)

	if err := NotFound(c, "Call not found"); err != nil {
		t.Fatalf("NotFound returned error: %v", err)
	}

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if body.Success {
		t.Errorf("expected Success=false, got true")
	}
	if body.Error != "Call not found" {
		t.Errorf("expected error='Call not found', got %q", body.Error)
	}
}

func TestDeleted_OmitsDataField(t *testing.T) {
	c, rec := newEchoContext(t)

	if err := Deleted(c, "Call deleted"); err != nil {
		t.Fatalf("Deleted returned error: %v", err)
	}

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}

	if body["success"] != true {
		t.Errorf("expected success=true, got %v", body["success"])
	}
	if _, exists := body["data"]; exists {
		t.Errorf("expected data field to be omitted, got %v", body["data"])
	}
}
