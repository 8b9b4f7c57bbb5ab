package server

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hupe1980/segmento"
)

// PrometheusCollector implements segmento.MetricsCollector.
type PrometheusCollector struct {
	registry     *prometheus.Registry
	opLatency    *prometheus.HistogramVec
	batchRecords *prometheus.CounterVec
	loads        *prometheus.CounterVec
	lastLoad     prometheus.Gauge
}

var _ segmento.MetricsCollector = (*PrometheusCollector)(nil)

// NewPrometheusCollector registers the segmento metrics on a fresh registry
// together with the Go runtime and process collectors.
func NewPrometheusCollector() *PrometheusCollector {
	c := &PrometheusCollector{
		registry: prometheus.NewRegistry(),
		opLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "segmento_operation_latency_seconds",
			Help:    "Latency of engine operations",
			Buckets: prometheus.DefBuckets,
		}, []string{"op", "status"}),
		batchRecords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segmento_batch_records_total",
			Help: "Records evaluated by batch predictions",
		}, []string{"status"}),
		loads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "segmento_bundle_loads_total",
			Help: "Bundle load attempts",
		}, []string{"status"}),
		lastLoad: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "segmento_bundle_load_timestamp_seconds",
			Help: "Unix time of the last successful bundle load",
		}),
	}

	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		c.opLatency,
		c.batchRecords,
		c.loads,
		c.lastLoad,
	)
	return c
}

// Registry returns the registry the metrics live in.
func (c *PrometheusCollector) Registry() *prometheus.Registry { return c.registry }

// Handler serves the registry in the Prometheus exposition format.
func (c *PrometheusCollector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{Registry: c.registry})
}

func (c *PrometheusCollector) RecordLoad(d time.Duration, err error) {
	s := status(err)
	c.opLatency.WithLabelValues("load", s).Observe(d.Seconds())
	c.loads.WithLabelValues(s).Inc()
	if err == nil {
		c.lastLoad.SetToCurrentTime()
	}
}

func (c *PrometheusCollector) RecordPredict(d time.Duration, err error) {
	c.opLatency.WithLabelValues("predict", status(err)).Observe(d.Seconds())
}

func (c *PrometheusCollector) RecordBatchPredict(count, failed int, d time.Duration) {
	s := "success"
	if failed > 0 {
		s = "partial"
	}
	c.opLatency.WithLabelValues("predict_batch", s).Observe(d.Seconds())
	c.batchRecords.WithLabelValues("success").Add(float64(count - failed))
	c.batchRecords.WithLabelValues("error").Add(float64(failed))
}

func (c *PrometheusCollector) RecordAnalytics(op string, d time.Duration, err error) {
	c.opLatency.WithLabelValues(op, status(err)).Observe(d.Seconds())
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
