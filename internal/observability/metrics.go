package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus counters, histograms, and gauges for the service.
type Metrics struct {
	// Upstream fetch metrics.
	FetchRequests *prometheus.CounterVec // labels: outcome={success,timeout,network,remote}
	FetchDuration prometheus.Histogram
	FetchCache    *prometheus.CounterVec // labels: result={hit,miss}

	// Inference metrics.
	Predictions      *prometheus.CounterVec // labels: category
	PredictionErrors *prometheus.CounterVec // labels: reason={unavailable,invalid,internal}
	ArtifactsLoaded  *prometheus.GaugeVec   // labels: artifact={model,scaler}

	// HTTP metrics.
	HTTPRequests        *prometheus.CounterVec   // labels: route, code
	HTTPRequestDuration *prometheus.HistogramVec // labels: route

	// Event sink metrics.
	EventsPublished *prometheus.CounterVec // labels: outcome={success,error}
}

// NewMetrics creates and registers all service metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newMetrics()
	prometheus.MustRegister(
		m.FetchRequests,
		m.FetchDuration,
		m.FetchCache,
		m.Predictions,
		m.PredictionErrors,
		m.ArtifactsLoaded,
		m.HTTPRequests,
		m.HTTPRequestDuration,
		m.EventsPublished,
	)
	return m
}

// NewMetricsForTesting creates Metrics without registering them to avoid
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newMetrics()
}

func newMetrics() *Metrics {
	return &Metrics{
		FetchRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi",
			Name:      "fetch_requests_total",
			Help:      "WAQI feed requests by outcome.",
		}, []string{"outcome"}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "aqi",
			Name:      "fetch_duration_seconds",
			Help:      "WAQI feed request duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		FetchCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi",
			Name:      "fetch_cache_total",
			Help:      "Sample cache lookups by result.",
		}, []string{"result"}),
		Predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi",
			Name:      "predictions_total",
			Help:      "Successful predictions by AQI category.",
		}, []string{"category"}),
		PredictionErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi",
			Name:      "prediction_errors_total",
			Help:      "Failed predictions by reason.",
		}, []string{"reason"}),
		ArtifactsLoaded: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "aqi",
			Name:      "artifacts_loaded",
			Help:      "1 when the artifact was loaded at startup, 0 otherwise.",
		}, []string{"artifact"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "code"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "aqi",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5, 10},
		}, []string{"route"}),
		EventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "aqi",
			Name:      "events_published_total",
			Help:      "Events written to the sink topic by outcome.",
		}, []string{"outcome"}),
	}
}
