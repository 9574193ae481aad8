package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthCheckHandler(t *testing.T) {
	rec := httptest.NewRecorder()
	HealthCheckHandler()(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}

	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if status.Status != "healthy" {
		t.Errorf("Expected status 'healthy', got '%s'", status.Status)
	}
}

func TestReadinessHandler_AllHealthy(t *testing.T) {
	ok := func(ctx context.Context) (bool, error) { return true, nil }

	rec := httptest.NewRecorder()
	ReadinessHandler(DependencyCheck{Name: "stt", Check: ok})(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", rec.Code)
	}
}

func TestReadinessHandler_Unhealthy(t *testing.T) {
	ok := func(ctx context.Context) (bool, error) { return true, nil }
	failing := func(ctx context.Context) (bool, error) { return false, errors.New("model not loaded") }

	rec := httptest.NewRecorder()
	handler := ReadinessHandler(
		DependencyCheck{Name: "capture", Check: ok},
		DependencyCheck{Name: "stt", Check: failing},
	)
	handler(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("Expected status 503, got %d", rec.Code)
	}

	var status HealthStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("Failed to decode body: %v", err)
	}
	if status.Status != "not_ready" {
		t.Errorf("Expected status 'not_ready', got '%s'", status.Status)
	}
	if status.Dependencies["stt"].Message != "model not loaded" {
		t.Errorf("Expected stt message 'model not loaded', got '%s'", status.Dependencies["stt"].Message)
	}
	if status.Dependencies["capture"].Status != "healthy" {
		t.Errorf("Expected capture healthy, got '%s'", status.Dependencies["capture"].Status)
	}
}
