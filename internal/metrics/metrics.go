// Package metrics exposes offline cache observations to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/mmcdole/wanderlist/internal/offline"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CacheMetrics is the Prometheus implementation of offline.Metrics.
type CacheMetrics struct {
	requests        *prometheus.CounterVec
	fills           *prometheus.CounterVec
	installs        *prometheus.CounterVec
	installDuration prometheus.Histogram
	manifestAssets  prometheus.Gauge
	deletions       *prometheus.CounterVec
}

// NewCacheMetrics registers the cache collectors on reg.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	f := promauto.With(reg)
	return &CacheMetrics{
		requests: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wanderlist_cache_requests_total",
				Help: "Intercepted requests by class and outcome",
			},
			[]string{"class", "outcome"}, // class: api|static, outcome: network|hit|miss|error
		),
		fills: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wanderlist_cache_fills_total",
				Help: "Opportunistic cache writes after a static miss",
			},
			[]string{"result"},
		),
		installs: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wanderlist_cache_installs_total",
				Help: "Cache generation install attempts",
			},
			[]string{"result"},
		),
		installDuration: f.NewHistogram(
			prometheus.HistogramOpts{
				Name: "wanderlist_cache_install_duration_seconds",
				Help: "Time to fetch and store the static asset manifest",
				Buckets: []float64{
					0.05, // warm local origin
					0.1,
					0.5,
					1,
					5,
					30, // slow upstream
				},
			},
		),
		manifestAssets: f.NewGauge(
			prometheus.GaugeOpts{
				Name: "wanderlist_cache_manifest_assets",
				Help: "Number of assets in the last installed manifest",
			},
		),
		deletions: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wanderlist_cache_generation_deletions_total",
				Help: "Stale cache generations removed at activation",
			},
			[]string{"result"},
		),
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (m *CacheMetrics) ObserveRequest(class offline.RequestClass, outcome string) {
	m.requests.WithLabelValues(class.String(), outcome).Inc()
}

func (m *CacheMetrics) ObserveFill(err error) {
	m.fills.WithLabelValues(result(err)).Inc()
}

func (m *CacheMetrics) ObserveInstall(assets int, duration time.Duration, err error) {
	m.installs.WithLabelValues(result(err)).Inc()
	if err != nil {
		return
	}
	m.installDuration.Observe(duration.Seconds())
	m.manifestAssets.Set(float64(assets))
}

func (m *CacheMetrics) ObserveActivate(deleted, failed int) {
	m.deletions.WithLabelValues("ok").Add(float64(deleted))
	m.deletions.WithLabelValues("error").Add(float64(failed))
}

// Handler serves the registry in the Prometheus exposition format
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

var _ offline.Metrics = (*CacheMetrics)(nil)
