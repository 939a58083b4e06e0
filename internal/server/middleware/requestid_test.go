package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRequestIDKeepsOrReplacesCallerID(t *testing.T) {
	tests := []struct {
		name   string
		header string
		keep   bool
	}{
		{name: "plain token", header: "batch-42.step_7", keep: true},
		{name: "uuid", header: "0f8fad5b-d9cb-469f-a165-70867728950e", keep: true},
		{name: "missing", header: ""},
		{name: "header injection", header: "abc\r\nX-Api-Key: stolen"},
		{name: "spaces", header: "two words"},
		{name: "too long", header: strings.Repeat("a", maxRequestIDLen+1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			handler := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seen = GetRequestID(r.Context())
			}))

			req := httptest.NewRequest(http.MethodGet, "/ors/geocode/search", nil)
			if tt.header != "" {
				req.Header[RequestIDHeader] = []string{tt.header}
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			require.Equal(t, seen, rec.Header().Get(RequestIDHeader))
			if tt.keep {
				require.Equal(t, tt.header, seen)
				return
			}
			require.NotEqual(t, tt.header, seen)
			require.Len(t, seen, 36)
			require.True(t, ValidRequestID(seen))
		})
	}
}
