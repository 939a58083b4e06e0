package metrics

import (
	"time"

	"github.com/routelens/routelens/internal/observability"
)

// Dispatch metrics following Prometheus conventions
var (
	// DispatchRequestsTotal counts HTTP attempts sent upstream
	DispatchRequestsTotal = "dispatch_requests_total"

	// DispatchRetriesTotal counts retries by reason (server_error, quota)
	DispatchRetriesTotal = "dispatch_retries_total"

	// DispatchQuotaWait is the time spent waiting for a quota slot
	DispatchQuotaWait = "dispatch_quota_wait_ms"

	// DispatchDuration is the latency of a single upstream attempt
	DispatchDuration = "dispatch_duration_ms"

	// DispatchOutcomesTotal counts terminal outcomes of Send
	DispatchOutcomesTotal = "dispatch_outcomes_total"

	// RelayRequestsTotal counts requests forwarded by the relay server
	RelayRequestsTotal = "relay_requests_total"

	// Server lifecycle metrics
	ServerStartTime = "app_server_start_time_seconds"
	ServerUptime    = "app_server_uptime_seconds"
)

// RecordDispatch records one upstream attempt and its latency.
func RecordDispatch(method string, status int, duration time.Duration) {
	if observability.TelemetrySystem != nil {
		tags := map[string]string{
			"method": method,
			"status": statusLabel(status),
		}
		_ = observability.TelemetrySystem.Counter(DispatchRequestsTotal, 1, tags)
		_ = observability.TelemetrySystem.Histogram(DispatchDuration, duration, map[string]string{"method": method})
	}
}

// RecordRetry records a retry triggered by reason.
func RecordRetry(reason string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			DispatchRetriesTotal,
			1,
			map[string]string{"reason": reason},
		)
	}
}

// RecordQuotaWait records time spent blocked on the per-minute quota.
func RecordQuotaWait(wait time.Duration) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Histogram(DispatchQuotaWait, wait, nil)
	}
}

// RecordOutcome records the terminal outcome of a dispatch (success, timeout,
// transport_error, configuration_error, api_error, quota_exceeded, canceled).
func RecordOutcome(outcome string) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			DispatchOutcomesTotal,
			1,
			map[string]string{"outcome": outcome},
		)
	}
}

// RecordRelayRequest records a request handled by the relay server.
func RecordRelayRequest(allowed bool) {
	status := "forwarded"
	if !allowed {
		status = "throttled"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(
			RelayRequestsTotal,
			1,
			map[string]string{"status": status},
		)
	}
}

// SetServerStartTime records the server start time (Unix timestamp)
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerStartTime,
			float64(timestamp),
			nil,
		)
	}
}

// SetServerUptime records the server uptime in seconds
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(
			ServerUptime,
			float64(seconds),
			nil,
		)
	}
}

func statusLabel(status int) string {
	switch {
	case status == 0:
		return "none"
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		if status == 429 {
			return "429"
		}
		return "4xx"
	default:
		if status == 503 {
			return "503"
		}
		return "5xx"
	}
}
