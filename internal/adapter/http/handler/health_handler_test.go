package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestHealthHandler_Liveness(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler().Liveness(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestHealthHandler_Readiness(t *testing.T) {
	ok := func(ctx context.Context) error { return nil }

	rec := httptest.NewRecorder()
	NewHealthHandler(
		HealthCheck{Name: "postgres", Check: ok},
		HealthCheck{Name: "redis", Check: ok},
	).Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body["postgres"] != "ok" || body["redis"] != "ok" {
		t.Fatalf("unexpected body %v", body)
	}
}

func TestHealthHandler_ReadinessReportsFailingDependency(t *testing.T) {
	rec := httptest.NewRecorder()
	NewHealthHandler(
		HealthCheck{Name: "postgres", Check: func(ctx context.Context) error { return nil }},
		HealthCheck{Name: "redis", Check: func(ctx context.Context) error { return errors.New("refused") }},
	).Readiness(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Error != "redis unhealthy" {
		t.Fatalf("unexpected error %+v", resp)
	}
}
