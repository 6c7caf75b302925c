package internaldefs

import (
	"github.com/hydrovia/waterdesk"
)

// CounterDef binds one console counter to its exported name.
type CounterDef struct {
	ID   waterdesk.MetricID
	Name string
	Help string
}

// HistogramDef binds one console histogram to its exported name.
type HistogramDef struct {
	ID   waterdesk.MetricID
	Name string
	Help string
}

// CounterDefs lists every exported counter in a stable order.
var CounterDefs = []CounterDef{
	{ID: waterdesk.MetricLoginSuccess, Name: "waterdesk_login_success_total", Help: "Successful login attempts."},
	{ID: waterdesk.MetricLoginFailure, Name: "waterdesk_login_failure_total", Help: "Failed login attempts."},
	{ID: waterdesk.MetricLoginRejectedInFlight, Name: "waterdesk_login_rejected_in_flight_total", Help: "Logins rejected because another login on the scope was still running."},
	{ID: waterdesk.MetricSessionRestored, Name: "waterdesk_session_restored_total", Help: "Sessions rehydrated from the persisted store."},
	{ID: waterdesk.MetricSessionDropped, Name: "waterdesk_session_dropped_total", Help: "Persisted sessions discarded as expired, corrupt, or rejected."},
	{ID: waterdesk.MetricLogout, Name: "waterdesk_logout_total", Help: "Explicit logouts."},
	{ID: waterdesk.MetricGuardRender, Name: "waterdesk_guard_render_total", Help: "Route evaluations that allowed rendering."},
	{ID: waterdesk.MetricGuardRedirectLogin, Name: "waterdesk_guard_redirect_login_total", Help: "Route evaluations redirected to the login view."},
	{ID: waterdesk.MetricGuardRedirectFallback, Name: "waterdesk_guard_redirect_fallback_total", Help: "Route evaluations redirected to the fallback destination."},
	{ID: waterdesk.MetricGuardLoading, Name: "waterdesk_guard_loading_total", Help: "Route evaluations suspended while session state was loading."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: waterdesk.MetricLoginLatency, Name: "waterdesk_login_latency_seconds", Help: "Login round-trip latency histogram."},
}

// HistogramBounds are the upper bounds of the console's fixed latency
// buckets, in seconds. The final bucket is +Inf.
var HistogramBounds = []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5}

// NormalizeBuckets pads or truncates a raw snapshot slice to the fixed
// bucket count.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into the cumulative form
// Prometheus histograms use.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
