package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/routelens/routelens/internal/config"
	apperrors "github.com/routelens/routelens/internal/errors"
)

func TestServerUsesStandardErrorHandlers(t *testing.T) {
	srv := New(Config{Server: config.ServerConfig{Host: "127.0.0.1"}})

	req := httptest.NewRequest(http.MethodGet, "/does-not-exist", nil)
	rec := httptest.NewRecorder()

	srv.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", rec.Code)
	}

	var body apperrors.HTTPErrorResponse
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}

	if body.Error.Code != "NOT_FOUND" {
		t.Fatalf("expected error code NOT_FOUND, got %s", body.Error.Code)
	}
}

func TestRelayRoutesNeedDispatcher(t *testing.T) {
	srv := New(Config{Server: config.ServerConfig{Host: "127.0.0.1"}})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ors/geocode/search?text=x", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 without a dispatcher, got %d", rec.Code)
	}
}
