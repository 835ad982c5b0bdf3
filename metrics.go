package main

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type metricsManager struct {
	CounterRequests   *prometheus.CounterVec
	CounterPanics     prometheus.Counter
	CounterAIRequests *prometheus.CounterVec

	GaugeRequests prometheus.Gauge

	HistRequestDuration prometheus.Histogram

	gatherer prometheus.Gatherer
}

func newTestMetricsManager() *metricsManager {
	return newMetricsManager("fittrack", "api", prometheus.NewRegistry())
}

func newMetricsManager(namespace, subsystem string, reg *prometheus.Registry) *metricsManager {
	factory := promauto.With(reg)

	return &metricsManager{
		CounterRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "The total number of incoming requests",
		}, []string{"method", "status"}),
		CounterPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "handler_panics_total",
			Help:      "The total number of recovered handler panics",
		}),
		CounterAIRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "ai_requests_total",
			Help:      "Generation requests sent upstream, by kind and outcome",
		}, []string{"kind", "outcome"}),
		GaugeRequests: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "current_requests",
			Help:      "Requests currently being served",
		}),
		HistRequestDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "request_duration_seconds",
			Help:      "Request latency",
			Buckets:   prometheus.DefBuckets,
		}),
		gatherer: reg,
	}
}

// handler exposes the manager's registry in the Prometheus text format.
func (m *metricsManager) handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{}))
}

// observeAI records one upstream generation call.
func (m *metricsManager) observeAI(kind string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.CounterAIRequests.WithLabelValues(kind, outcome).Inc()
}
