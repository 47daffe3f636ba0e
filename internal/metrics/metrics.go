// Package metrics exposes prometheus collectors for snapshot loads and report
// computations.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder owns a private registry so tests and multiple servers never clash
// on the default one.
type Recorder struct {
	registry *prometheus.Registry

	datasetLoads    *prometheus.CounterVec
	loadDuration    prometheus.Histogram
	datasetRecords  prometheus.Gauge
	reportsComputed *prometheus.CounterVec
	reportRows      *prometheus.HistogramVec
	cacheLookups    *prometheus.CounterVec
}

// NewRecorder creates and registers every collector.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		datasetLoads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_dataset_loads_total",
				Help: "Snapshot load attempts by outcome",
			},
			[]string{"outcome"},
		),
		loadDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "balance_dataset_load_duration_seconds",
				Help:    "Time spent reading and parsing a snapshot",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
			},
		),
		datasetRecords: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "balance_dataset_records",
				Help: "Records in the currently loaded snapshot",
			},
		),
		reportsComputed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_reports_computed_total",
				Help: "Report computations by kind",
			},
			[]string{"report"},
		),
		reportRows: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "balance_report_rows",
				Help:    "Rows produced per report computation",
				Buckets: prometheus.ExponentialBuckets(1, 4, 10),
			},
			[]string{"report"},
		),
		cacheLookups: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "balance_cache_lookups_total",
				Help: "Cache lookups by cache and result",
			},
			[]string{"cache", "result"},
		),
	}

	r.registry.MustRegister(
		r.datasetLoads,
		r.loadDuration,
		r.datasetRecords,
		r.reportsComputed,
		r.reportRows,
		r.cacheLookups,
	)
	return r
}

// ObserveLoad records one snapshot load.
func (r *Recorder) ObserveLoad(d time.Duration, records int, err error) {
	if r == nil {
		return
	}
	if err != nil {
		r.datasetLoads.WithLabelValues("error").Inc()
		return
	}
	r.datasetLoads.WithLabelValues("ok").Inc()
	r.loadDuration.Observe(d.Seconds())
	r.datasetRecords.Set(float64(records))
}

// ObserveReport records one report computation and its size.
func (r *Recorder) ObserveReport(report string, rows int) {
	if r == nil {
		return
	}
	r.reportsComputed.WithLabelValues(report).Inc()
	r.reportRows.WithLabelValues(report).Observe(float64(rows))
}

// ObserveCache records a cache hit or miss.
func (r *Recorder) ObserveCache(cache string, hit bool) {
	if r == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheLookups.WithLabelValues(cache, result).Inc()
}

// Handler serves the registry in the prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
