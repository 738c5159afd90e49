package metrics

import (
	"time"

	"github.com/blocktrail/blocktrail-go/internal/core/engine"
	"github.com/blocktrail/blocktrail-go/internal/observability"
)

// Metric names, Prometheus style.
const (
	APICallsTotal       = "blocktrail_api_calls_total"
	APICallDuration     = "blocktrail_api_call_duration_ms"
	APIRetriesTotal     = "blocktrail_api_retries_total"
	QuotaWaitsTotal     = "blocktrail_quota_waits_total"
	QuotaWaitDuration   = "blocktrail_quota_wait_duration_ms"
	RateWindowCount     = "blocktrail_rate_window_requests"
	CacheLookupsTotal   = "blocktrail_cache_lookups_total"
	HealthCheckTotal    = "app_health_check_total"
	HealthCheckDuration = "app_health_check_duration_ms"
	ServerStartTime     = "app_server_start_time_seconds"
	ServerUptime        = "app_server_uptime_seconds"
)

// RecordAttempt records one dispatched API attempt.
func RecordAttempt(a engine.Attempt) {
	RecordDispatch(a.Label, a.Outcome, a.Duration)
	if a.Outcome.Retryable() {
		RecordRetry(a.Label, a.Outcome)
	}
	if a.QuotaWait > 0 {
		RecordQuotaWait(a.Label, a.QuotaWait)
	}
}

// RecordDispatch counts an attempt and its duration by call and outcome.
func RecordDispatch(call string, outcome engine.Outcome, duration time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}
	tags := map[string]string{
		"call":    call,
		"outcome": string(outcome),
	}
	_ = observability.TelemetrySystem.Counter(APICallsTotal, 1, tags)
	_ = observability.TelemetrySystem.Histogram(APICallDuration, duration, tags)
}

// RecordRetry counts an attempt that will be retried.
func RecordRetry(call string, outcome engine.Outcome) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(APIRetriesTotal, 1, map[string]string{
			"call":    call,
			"outcome": string(outcome),
		})
	}
}

// RecordQuotaWait records time spent waiting out an exhausted quota.
func RecordQuotaWait(call string, wait time.Duration) {
	if observability.TelemetrySystem == nil {
		return
	}
	tags := map[string]string{"call": call}
	_ = observability.TelemetrySystem.Counter(QuotaWaitsTotal, 1, tags)
	_ = observability.TelemetrySystem.Histogram(QuotaWaitDuration, wait, tags)
}

// DispatchObserver returns an engine observer that records every attempt and
// then forwards it to next, if any.
func DispatchObserver(next engine.Observer) engine.Observer {
	return func(a engine.Attempt) {
		RecordAttempt(a)
		if next != nil {
			next(a)
		}
	}
}

// SetRateWindowCount publishes the request count of the current window.
func SetRateWindowCount(count int) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(RateWindowCount, float64(count), nil)
	}
}

// RecordCacheLookup records a response cache hit or miss for kind.
func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(CacheLookupsTotal, 1, map[string]string{
			"kind":   kind,
			"result": result,
		})
	}
}

// RecordHealthCheck records a health check execution.
func RecordHealthCheck(checkName string, healthy bool, duration time.Duration) {
	status := "healthy"
	if !healthy {
		status = "unhealthy"
	}

	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Counter(HealthCheckTotal, 1, map[string]string{
			"check":  checkName,
			"status": status,
		})
		_ = observability.TelemetrySystem.Histogram(HealthCheckDuration, duration, map[string]string{
			"check": checkName,
		})
	}
}

// SetServerStartTime records the gateway start time as a Unix timestamp.
func SetServerStartTime(timestamp int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(ServerStartTime, float64(timestamp), nil)
	}
}

// SetServerUptime records gateway uptime in seconds.
func SetServerUptime(seconds int64) {
	if observability.TelemetrySystem != nil {
		_ = observability.TelemetrySystem.Gauge(ServerUptime, float64(seconds), nil)
	}
}
