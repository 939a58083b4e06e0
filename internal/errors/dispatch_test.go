package errors

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/routelens/routelens/internal/core/engine"
	"github.com/routelens/routelens/internal/ors"
)

func TestFromDispatchError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		code   string
		status int
	}{
		{"invalid", fmt.Errorf("%w: need two coordinates", ors.ErrInvalidRequest), "INVALID_INPUT", http.StatusBadRequest},
		{"config", &engine.ConfigurationError{Message: "no api key"}, "CONFIG_INVALID", http.StatusInternalServerError},
		{"quota", &engine.QuotaExceededError{APIError: engine.APIError{StatusCode: 429, Body: "{}"}}, "RATE_LIMITED", http.StatusTooManyRequests},
		{"api", &engine.APIError{StatusCode: 404, Body: "missing"}, "UPSTREAM_ERROR", http.StatusBadGateway},
		{"timeout", fmt.Errorf("%w: retry budget spent", engine.ErrTimeout), "TIMEOUT", http.StatusGatewayTimeout},
		{"transport", &engine.TransportError{Cause: fmt.Errorf("dial tcp: refused")}, "EXTERNAL_SERVICE_ERROR", http.StatusBadGateway},
		{"other", fmt.Errorf("boom"), "INTERNAL_ERROR", http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := FromDispatchError(context.Background(), tt.err)
			require.Equal(t, tt.code, env.Code)
			require.Equal(t, tt.status, HTTPStatusFromEnvelope(env))
			require.NotEmpty(t, env.CorrelationID)
		})
	}
}

func TestFromDispatchErrorCarriesUpstreamDetails(t *testing.T) {
	env := FromDispatchError(context.Background(), &engine.APIError{StatusCode: 400, Body: `{"error":"bad"}`})
	details := ResponseDetails(env)
	require.Equal(t, 400, details["upstream_status"])
	require.Equal(t, `{"error":"bad"}`, details["upstream_body"])
}

func TestRespondWithEnvelopeWritesDispatchEnvelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ors/geocode/search", nil)

	RespondWithEnvelope(rec, req, FromDispatchError(req.Context(), fmt.Errorf("%w", engine.ErrTimeout)))

	require.Equal(t, http.StatusGatewayTimeout, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.Contains(t, rec.Body.String(), `"code":"TIMEOUT"`)
}
