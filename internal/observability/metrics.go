// Package observability provides Prometheus metrics for monitoring.
package observability

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	// Pipeline metrics
	PipelineRunsTotal  *prometheus.CounterVec
	PipelineDuration   *prometheus.HistogramVec
	RowsUpserted       *prometheus.CounterVec
	CellsImputed       *prometheus.CounterVec
	CompositeRowsBuilt prometheus.Counter

	// Quality metrics
	QualityWarnings *prometheus.CounterVec
	ImputationRate  *prometheus.GaugeVec
	SeriesStaleness *prometheus.GaugeVec

	// Storage metrics
	StoreQueryDuration *prometheus.HistogramVec
	StoreQueryErrors   *prometheus.CounterVec

	// Health metrics
	LastSuccessfulRun prometheus.Gauge
	LastCompositeDate prometheus.Gauge
}

// NewMetrics creates a new Metrics instance with all metrics registered.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "liquidity_lab"
	}

	return &Metrics{
		PipelineRunsTotal: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "runs_total",
			Help:      "Total number of pipeline runs by stage and status",
		}, []string{"stage", "status"}),
		PipelineDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "duration_seconds",
			Help:      "Pipeline stage duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"stage"}),
		RowsUpserted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "rows_upserted_total",
			Help:      "Total number of rows written to the store by table",
		}, []string{"table"}),
		CellsImputed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "cells_imputed_total",
			Help:      "Total number of forward-filled cells by field",
		}, []string{"field"}),
		CompositeRowsBuilt: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "pipeline",
			Name:      "composite_rows_built_total",
			Help:      "Total number of composite index rows computed",
		}),

		QualityWarnings: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "warnings_total",
			Help:      "Total number of data quality warnings by check",
		}, []string{"check"}),
		ImputationRate: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "imputation_rate_30d",
			Help:      "Share of imputed values over the trailing 30 days by field",
		}, []string{"field"}),
		SeriesStaleness: promauto.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "quality",
			Name:      "series_staleness_days",
			Help:      "Days since the last observed value by table",
		}, []string{"table"}),

		StoreQueryDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_duration_seconds",
			Help:      "Store operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"backend", "operation"}),
		StoreQueryErrors: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "storage",
			Name:      "query_errors_total",
			Help:      "Total number of store operation errors",
		}, []string{"backend", "operation"}),

		LastSuccessfulRun: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_successful_run_timestamp",
			Help:      "Unix timestamp of the last successful pipeline run",
		}),
		LastCompositeDate: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "health",
			Name:      "last_composite_date_timestamp",
			Help:      "Unix timestamp of the newest composite index row",
		}),
	}
}

// DefaultMetrics is the default metrics instance.
var DefaultMetrics = NewMetrics("")

// RecordPipelineRun records a pipeline stage run.
func RecordPipelineRun(stage, status string, durationSeconds float64) {
	DefaultMetrics.PipelineRunsTotal.WithLabelValues(stage, status).Inc()
	DefaultMetrics.PipelineDuration.WithLabelValues(stage).Observe(durationSeconds)
}

// RecordRowsUpserted adds to the upserted-row counter for a table.
func RecordRowsUpserted(table string, n int) {
	DefaultMetrics.RowsUpserted.WithLabelValues(table).Add(float64(n))
}

// RecordCellsImputed adds to the imputed-cell counter for a field.
func RecordCellsImputed(field string, n int) {
	DefaultMetrics.CellsImputed.WithLabelValues(field).Add(float64(n))
}

// RecordQualityWarning increments the warning counter for a check.
func RecordQualityWarning(check string) {
	DefaultMetrics.QualityWarnings.WithLabelValues(check).Inc()
}

// RecordStoreQuery records store operation metrics.
func RecordStoreQuery(backend, operation string, seconds float64, err error) {
	DefaultMetrics.StoreQueryDuration.WithLabelValues(backend, operation).Observe(seconds)
	if err != nil {
		DefaultMetrics.StoreQueryErrors.WithLabelValues(backend, operation).Inc()
	}
}

// Handler returns an HTTP handler for the /metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
