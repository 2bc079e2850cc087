package controllers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/tableside-backend/pkg/config"
)

func TestHealthLive(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	resp := httptest.NewRecorder()
	HealthLive(cfg).ServeHTTP(resp, newRequest(http.MethodGet, "/health/live", "", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}
	if resp.Header().Get("X-Tableside-Env") != "dev" {
		t.Fatalf("expected env header")
	}
}

func TestHealthReady(t *testing.T) {
	cfg := &config.Config{App: config.AppConfig{Env: "dev"}}
	ok := ReadinessCheck{Name: "db", Ping: func(context.Context) error { return nil }}
	down := ReadinessCheck{Name: "redis", Ping: func(context.Context) error { return errors.New("dial tcp: refused") }}

	resp := httptest.NewRecorder()
	HealthReady(cfg, nil, ok).ServeHTTP(resp, newRequest(http.MethodGet, "/health/ready", "", nil))
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", resp.Code)
	}

	resp = httptest.NewRecorder()
	HealthReady(cfg, nil, ok, down).ServeHTTP(resp, newRequest(http.MethodGet, "/health/ready", "", nil))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", resp.Code)
	}
	if code := decodeErrorCode(t, resp); code != "DEPENDENCY_ERROR" {
		t.Fatalf("expected DEPENDENCY_ERROR got %s", code)
	}
}
