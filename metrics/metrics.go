// Package metrics exposes Prometheus metrics for the HTTP server and for the
// compatibility engine.
//
// HTTP:
//   - http_request_total: counter with method, path and status labels
//   - http_request_duration_seconds: histogram with method and path labels
//   - http_request_in_flight: gauge
//   - rate_limiter_buckets_total: gauge of tracked client buckets
//
// Domain:
//   - compatibility_checks_total: counter with overall and policy labels
//   - unrecognized_drug_total: counter
//   - registry_reloads_total: counter with a result label
//   - registry_drugs, registry_rules: gauges for the active snapshot
//
// Everything is registered with the default registry during package
// initialization.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Reload results
const (
	ReloadSuccess   = "success"
	ReloadUnchanged = "unchanged"
	ReloadFailure   = "failure"
)

var (
	HTTPRequestTotals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_request_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"method", "path"},
	)

	HTTPRequestInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_request_in_flight",
			Help: "Current in-flight requests",
		},
	)

	RateLimiterBucketsTotal = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "rate_limiter_buckets_total",
			Help: "Number of rate limiter buckets (clients seen since the last sweep)",
		},
	)

	CompatibilityChecksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "compatibility_checks_total",
			Help: "Compatibility checks by overall result and policy",
		},
		[]string{"overall", "policy"},
	)

	UnrecognizedDrugTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "unrecognized_drug_total",
			Help: "Drug names that did not resolve to a registry entry",
		},
	)

	RegistryReloadsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "registry_reloads_total",
			Help: "Registry reload attempts by result",
		},
		[]string{"result"},
	)

	RegistryDrugs = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_drugs",
			Help: "Drugs in the active registry",
		},
	)

	RegistryRules = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "registry_rules",
			Help: "Pair rules in the active registry",
		},
	)
)

func init() {
	prometheus.MustRegister(HTTPRequestTotals)
	prometheus.MustRegister(HTTPRequestDuration)
	prometheus.MustRegister(HTTPRequestInFlight)
	prometheus.MustRegister(RateLimiterBucketsTotal)
	prometheus.MustRegister(CompatibilityChecksTotal)
	prometheus.MustRegister(UnrecognizedDrugTotal)
	prometheus.MustRegister(RegistryReloadsTotal)
	prometheus.MustRegister(RegistryDrugs)
	prometheus.MustRegister(RegistryRules)
}

// Handler serves the default registry in the Prometheus text format.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordCheck counts one compatibility evaluation.
func RecordCheck(overall, policy string) {
	CompatibilityChecksTotal.WithLabelValues(overall, policy).Inc()
}

// RecordReload counts a reload attempt and, on success, publishes the new
// registry size.
func RecordReload(result string, drugs, rules int) {
	RegistryReloadsTotal.WithLabelValues(result).Inc()
	if result == ReloadSuccess {
		SetRegistrySize(drugs, rules)
	}
}

func SetRegistrySize(drugs, rules int) {
	RegistryDrugs.Set(float64(drugs))
	RegistryRules.Set(float64(rules))
}
