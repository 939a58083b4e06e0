package server

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/routelens/routelens/internal/core"
	"github.com/routelens/routelens/internal/core/engine"
	apperrors "github.com/routelens/routelens/internal/errors"
	"github.com/routelens/routelens/internal/observability"
	servermw "github.com/routelens/routelens/internal/server/middleware"
)

// forwardedHeaders are copied from the caller onto the upstream request.
var forwardedHeaders = []string{"Accept", "Accept-Language"}

// RelayHandler forwards /ors/{path} to the upstream API through the shared
// dispatcher, so every local client draws from one quota and one API key.
func (s *Server) RelayHandler(w http.ResponseWriter, r *http.Request) {
	path := "/" + strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	if path == "/" {
		HandleError(w, r, apperrors.NewInvalidInputError("An upstream path is required after /ors/"))
		return
	}

	params, err := relayParams(r.URL.RawQuery)
	if err != nil {
		HandleError(w, r, apperrors.WrapInvalidInput(r.Context(), err, "Malformed query string"))
		return
	}

	var body any
	if r.Method == http.MethodPost {
		raw, err := s.readBody(r)
		if err != nil {
			HandleError(w, r, apperrors.WrapInvalidInput(r.Context(), err, err.Error()))
			return
		}
		body = raw
	}

	header := http.Header{}
	for _, name := range forwardedHeaders {
		if value := r.Header.Get(name); value != "" {
			header.Set(name, value)
		}
	}
	if requestID := servermw.GetRequestID(r.Context()); requestID != "" {
		header.Set(servermw.RequestIDHeader, requestID)
	}

	start := time.Now()
	result, err := s.dispatch.Send(r.Context(), path, params, body, engine.WithHeaders(header))
	if err != nil {
		s.relayError(w, r, path, err)
		return
	}

	if observability.ServerLogger != nil {
		observability.ServerLogger.Debug("Relayed request",
			zap.String("path", path),
			zap.String("method", r.Method),
			zap.Duration("duration", time.Since(start)),
			zap.String("requestID", servermw.GetRequestID(r.Context())))
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}

// relayError passes upstream API responses through unchanged and maps local
// failures onto error envelopes.
func (s *Server) relayError(w http.ResponseWriter, r *http.Request, path string, err error) {
	var apiErr *engine.APIError
	var quotaErr *engine.QuotaExceededError
	switch {
	case stderrors.As(err, &quotaErr):
		apiErr = &quotaErr.APIError
	case stderrors.As(err, &apiErr):
	}

	if apiErr != nil {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Info("Upstream rejected relayed request",
				zap.String("path", path),
				zap.Int("status", apiErr.StatusCode))
		}
		contentType := "text/plain; charset=utf-8"
		if json.Valid([]byte(apiErr.Body)) {
			contentType = "application/json"
		}
		w.Header().Set("Content-Type", contentType)
		w.WriteHeader(apiErr.StatusCode)
		_, _ = io.WriteString(w, apiErr.Body)
		return
	}

	apperrors.RespondWithEnvelope(w, r, apperrors.FromDispatchError(r.Context(), err))
}

func (s *Server) readBody(r *http.Request) (json.RawMessage, error) {
	limit := s.relay.MaxBodyBytes
	if limit <= 0 {
		limit = 1 << 20
	}

	raw, err := io.ReadAll(io.LimitReader(r.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("request body exceeds %d bytes", limit)
	}
	if len(raw) == 0 {
		return nil, stderrors.New("POST requests need a JSON body")
	}
	if !json.Valid(raw) {
		return nil, stderrors.New("request body is not valid JSON")
	}
	return raw, nil
}

// relayParams decodes a raw query string keeping the caller's order. Any
// api_key supplied by the caller is dropped; the relay signs with its own.
func relayParams(rawQuery string) (core.Params, error) {
	params := core.Params{}
	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		rawKey, rawValue, _ := strings.Cut(pair, "=")
		key, err := url.QueryUnescape(rawKey)
		if err != nil {
			return nil, err
		}
		value, err := url.QueryUnescape(rawValue)
		if err != nil {
			return nil, err
		}
		if key == "api_key" {
			continue
		}
		params = params.Add(key, value)
	}
	return params, nil
}

// QuotaResponse describes the relay's view of the upstream quota.
type QuotaResponse struct {
	Scope     string      `json:"scope"`
	Capacity  int         `json:"capacity"`
	InWindow  int         `json:"in_window"`
	NextSlot  *time.Time  `json:"next_slot,omitempty"`
	Sent      []time.Time `json:"sent"`
	CheckedAt time.Time   `json:"checked_at"`
}

// QuotaHandler reports the in-memory send window of the relay's dispatcher.
func (s *Server) QuotaHandler(w http.ResponseWriter, r *http.Request) {
	now := time.Now().UTC()
	state := s.dispatch.QuotaState()

	response := QuotaResponse{
		Scope:     state.Scope,
		Capacity:  state.Capacity,
		InWindow:  state.InWindow(now),
		Sent:      state.Sent,
		CheckedAt: now,
	}
	if response.Sent == nil {
		response.Sent = []time.Time{}
	}
	if next := state.NextSlot(now); !next.IsZero() {
		response.NextSlot = &next
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(response)
}
