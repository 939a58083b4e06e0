package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/routelens/routelens/internal/core"
)

// Check results reported per checker.
const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	statusTimeout   = "timeout"
)

// HealthResponse represents the aggregate health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
	Quota     *QuotaSummary     `json:"quota,omitempty"`
}

// QuotaSummary is the relay's current use of the upstream quota.
type QuotaSummary struct {
	Scope    string `json:"scope"`
	Capacity int    `json:"capacity"`
	InWindow int    `json:"in_window"`
	Full     bool   `json:"full"`
}

// ProbeResponse represents individual probe response
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker defines interface for health checkable components
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// QuotaReporter exposes the dispatcher's send window.
type QuotaReporter interface {
	QuotaState() core.QuotaState
}

// HealthManager runs registered checks for the health endpoints.
type HealthManager struct {
	checkers map[string]HealthChecker
	optional map[string]bool
	quota    QuotaReporter
	version  string
}

// NewHealthManager creates a new health manager
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		optional: make(map[string]bool),
		version:  version,
	}
}

// RegisterChecker registers a check whose failure makes the relay unhealthy.
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.checkers[name] = checker
	delete(hm.optional, name)
}

// RegisterOptional registers a check whose failure only degrades the relay,
// such as the quota store: without it sends fall back to the in-process
// window.
func (hm *HealthManager) RegisterOptional(name string, checker HealthChecker) {
	hm.checkers[name] = checker
	hm.optional[name] = true
}

// SetQuotaReporter adds the dispatcher's window to /health responses.
func (hm *HealthManager) SetQuotaReporter(reporter QuotaReporter) {
	hm.quota = reporter
}

// runHealthChecks executes the registered checks in name order and returns
// their results plus the error text of every failed check.
func (hm *HealthManager) runHealthChecks(ctx context.Context) (map[string]string, map[string]string) {
	names := make([]string, 0, len(hm.checkers))
	for name := range hm.checkers {
		names = append(names, name)
	}
	sort.Strings(names)

	checks := make(map[string]string, len(names))
	failures := make(map[string]string)
	for _, name := range names {
		if ctx.Err() != nil {
			checks[name] = statusTimeout
			continue
		}
		err := hm.checkers[name].CheckHealth(ctx)
		switch {
		case err == nil:
			checks[name] = statusHealthy
		case hm.optional[name]:
			checks[name] = statusDegraded
			failures[name] = err.Error()
		default:
			checks[name] = statusUnhealthy
			failures[name] = err.Error()
		}
	}
	return checks, failures
}

// determineOverallStatus determines overall health status
func (hm *HealthManager) determineOverallStatus(checks map[string]string) string {
	degraded := false
	for _, status := range checks {
		switch status {
		case statusUnhealthy:
			return statusUnhealthy
		case statusDegraded, statusTimeout:
			degraded = true
		}
	}
	if degraded {
		return statusDegraded
	}
	return statusHealthy
}

func (hm *HealthManager) quotaSummary() *QuotaSummary {
	if hm.quota == nil {
		return nil
	}
	state := hm.quota.QuotaState()
	inWindow := state.InWindow(time.Now())
	return &QuotaSummary{
		Scope:    state.Scope,
		Capacity: state.Capacity,
		InWindow: inWindow,
		Full:     state.Capacity > 0 && inWindow >= state.Capacity,
	}
}

// evaluate runs the checks within timeout. When the relay is unhealthy it
// writes the error envelope and returns ok=false.
func (hm *HealthManager) evaluate(w http.ResponseWriter, r *http.Request, probe string, timeout time.Duration) (map[string]string, string, bool) {
	checkCtx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	checks, failures := hm.runHealthChecks(checkCtx)
	status := hm.determineOverallStatus(checks)
	if status != statusUnhealthy {
		return checks, status, true
	}

	label := probe
	if label == "" {
		label = "aggregate health check"
	} else {
		label += " probe"
	}
	envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", label+" failed")
	respondWithError(w, r, enrichHealthEnvelope(envelope, probe, status, checks, failures))
	return nil, "", false
}

// HealthHandler reports every check and the current quota window.
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	checks, status, ok := hm.evaluate(w, r, "", 5*time.Second)
	if !ok {
		return
	}
	writeJSON(w, HealthResponse{
		Status:    status,
		Version:   hm.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Quota:     hm.quotaSummary(),
	})
}

// LivenessHandler handles liveness probe requests
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, "live", 2*time.Second)
}

// ReadinessHandler reports whether the relay can forward requests.
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, "ready", 5*time.Second)
}

// StartupHandler handles startup probe requests
func (hm *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, "startup", 3*time.Second)
}

func (hm *HealthManager) serveProbe(w http.ResponseWriter, r *http.Request, probe string, timeout time.Duration) {
	_, status, ok := hm.evaluate(w, r, probe, timeout)
	if !ok {
		return
	}
	writeJSON(w, ProbeResponse{Status: status, Timestamp: time.Now().UTC()})
}

func writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(body)
}

func enrichHealthEnvelope(envelope *errors.ErrorEnvelope, probe, status string, checks, failures map[string]string) *errors.ErrorEnvelope {
	if envelope == nil {
		return nil
	}

	details := map[string]interface{}{
		"status": status,
	}
	if len(checks) > 0 {
		details["checks"] = checks
	}
	if len(failures) > 0 {
		details["errors"] = failures
	}
	if probe != "" {
		details["probe"] = probe
	}
	envelope = envelope.WithDetails(details)

	contextData := map[string]interface{}{
		"status": status,
	}
	if probe != "" {
		contextData["probe"] = probe
	}

	var unhealthy []string
	for name, result := range checks {
		if result != statusHealthy {
			unhealthy = append(unhealthy, name)
		}
	}
	if len(unhealthy) > 0 {
		sort.Strings(unhealthy)
		contextData["unhealthy_checks"] = unhealthy
	}

	envelope, _ = envelope.WithContext(contextData)
	return envelope
}

var globalHealthManager *HealthManager

// InitHealthManager initializes the global health manager
func InitHealthManager(version string) {
	globalHealthManager = NewHealthManager(version)
}

// GetHealthManager returns the global health manager
func GetHealthManager() *HealthManager {
	return globalHealthManager
}

func withGlobal(probe string, serve func(*HealthManager, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if globalHealthManager != nil {
			serve(globalHealthManager, w, r)
			return
		}
		envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", "health manager not initialized")
		respondWithError(w, r, enrichHealthEnvelope(envelope, probe, "unknown", nil, nil))
	}
}

// Handlers bound to the global manager, as mounted by the server.
var (
	LivenessHandler  = withGlobal("live", (*HealthManager).LivenessHandler)
	ReadinessHandler = withGlobal("ready", (*HealthManager).ReadinessHandler)
	StartupHandler   = withGlobal("startup", (*HealthManager).StartupHandler)
	HealthHandler    = withGlobal("aggregate", (*HealthManager).HealthHandler)
)
