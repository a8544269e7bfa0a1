// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	LabelMethod = "method"
	LabelPath   = "path"
	LabelStatus = "status"
	LabelFamily = "family"
	LabelResult = "result"
	LabelKind   = "kind"
)

// Craft results.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

var httpLatencyBuckets = []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5}

// HTTP
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: httpLatencyBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "http_requests_in_flight",
			Help: "Current number of HTTP requests being served",
		},
	)
)

// Crafting
var (
	CraftsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crafts_total",
			Help: "Total number of craft attempts by item family and result",
		},
		[]string{LabelFamily, LabelResult},
	)

	CraftErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "craft_errors_total",
			Help: "Total number of failed crafts by error kind",
		},
		[]string{LabelKind},
	)

	CraftDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "craft_duration_seconds",
			Help:    "Time spent resolving a craft, including persistence",
			Buckets: prometheus.DefBuckets,
		},
		[]string{LabelFamily},
	)

	CatalogMaterials = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_materials",
			Help: "Number of materials in the loaded catalog",
		},
	)
)

// RecordCraft counts one craft attempt. errKind is ignored on success.
func RecordCraft(family string, seconds float64, errKind string) {
	CraftDuration.WithLabelValues(family).Observe(seconds)
	if errKind == "" {
		CraftsTotal.WithLabelValues(family, ResultOK).Inc()
		return
	}
	CraftsTotal.WithLabelValues(family, ResultError).Inc()
	CraftErrors.WithLabelValues(errKind).Inc()
}
