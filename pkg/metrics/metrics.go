package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Gauges and histograms backing the `stats` text/JSON path and the TUI's
// derived-rate bookkeeping. Unlike a long-running server, dbarena has no
// /metrics HTTP endpoint to scrape: these are read back in-process via
// Collector.Sample, with Prometheus's vector types reused purely as a
// convenient, already-battle-tested gauge/histogram storage shape.
var (
	CPUPercent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbarena_container_cpu_percent",
			Help: "Container CPU usage as a percentage of one core times NCPU",
		},
		[]string{"container_id"},
	)

	MemoryUsageBytes = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbarena_container_memory_usage_bytes",
			Help: "Container memory usage in bytes",
		},
		[]string{"container_id"},
	)

	NetworkRxBytesPerSec = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbarena_container_network_receive_bytes_per_second",
			Help: "Container network receive rate",
		},
		[]string{"container_id"},
	)

	NetworkTxBytesPerSec = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbarena_container_network_transmit_bytes_per_second",
			Help: "Container network transmit rate",
		},
		[]string{"container_id"},
	)

	BlockReadBytesPerSec = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbarena_container_block_read_bytes_per_second",
			Help: "Container block device read rate",
		},
		[]string{"container_id"},
	)

	BlockWriteBytesPerSec = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbarena_container_block_write_bytes_per_second",
			Help: "Container block device write rate",
		},
		[]string{"container_id"},
	)

	DatabaseConnections = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbarena_database_connections",
			Help: "Active database connections, labeled by container and limit",
		},
		[]string{"container_id", "bound"}, // bound = "active" | "max"
	)

	DatabaseQPS = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbarena_database_queries_per_second",
			Help: "Queries per second, defined strictly as (Δxact_commit + Δxact_rollback) / Δt",
		},
		[]string{"container_id"},
	)

	DatabaseTPS = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbarena_database_transactions_per_second",
			Help: "Committed transactions per second",
		},
		[]string{"container_id"},
	)

	DatabaseCacheHitPercent = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "dbarena_database_cache_hit_percent",
			Help: "Buffer/page cache hit ratio",
		},
		[]string{"container_id"},
	)

	SampleErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "dbarena_metrics_sample_errors_total",
			Help: "Total sampling errors by kind (resource, database)",
		},
		[]string{"container_id", "kind"},
	)

	WorkloadOperationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "dbarena_workload_operation_duration_seconds",
			Help:    "Workload operation latency, mirroring pkg/workload.Stats for JSON export",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"kind"},
	)
)

func init() {
	prometheus.MustRegister(
		CPUPercent,
		MemoryUsageBytes,
		NetworkRxBytesPerSec,
		NetworkTxBytesPerSec,
		BlockReadBytesPerSec,
		BlockWriteBytesPerSec,
		DatabaseConnections,
		DatabaseQPS,
		DatabaseTPS,
		DatabaseCacheHitPercent,
		SampleErrorsTotal,
		WorkloadOperationDuration,
	)
}

// Timer is a helper for timing operations.
type Timer struct {
	start time.Time
}

// NewTimer creates a new timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the duration to a histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}

// ObserveDurationVec records the duration to a histogram vec with labels.
func (t *Timer) ObserveDurationVec(histogram prometheus.ObserverVec, labels ...string) {
	histogram.WithLabelValues(labels...).Observe(time.Since(t.start).Seconds())
}

// Duration returns the elapsed time since the timer started.
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}
