// Package observability provides Prometheus metrics and the health
// endpoint for the watcher.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the watcher.
type Metrics struct {
	// Cycle metrics
	CyclesTotal   prometheus.Counter
	CycleDuration prometheus.Histogram
	LastCycleUnix prometheus.Gauge

	// Reconciliation metrics
	EventsEmitted    *prometheus.CounterVec // by event type
	RecordsProcessed prometheus.Counter
	TrackedTotal     prometheus.Gauge

	// Failure metrics
	FetchErrors   prometheus.Counter
	StoreErrors   prometheus.Counter
	PublishErrors prometheus.Counter

	// Alert metrics
	AlertsFired prometheus.Counter
}

// NewMetrics creates a Metrics instance with all metrics registered on
// the default registry.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = "mewatch"
	}

	return &Metrics{
		CyclesTotal: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycles_total",
			Help:      "Total number of completed poll cycles",
		}),
		CycleDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "cycle_duration_seconds",
			Help:      "Duration of poll cycles",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		LastCycleUnix: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "poller",
			Name:      "last_cycle_timestamp_seconds",
			Help:      "Unix time of the last completed cycle",
		}),
		EventsEmitted: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "events_emitted_total",
			Help:      "Total diff events emitted, by type",
		}, []string{"type"}),
		RecordsProcessed: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "records_processed_total",
			Help:      "Total activity records reconciled",
		}),
		TrackedTotal: promauto.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "tracked_collections",
			Help:      "Number of tracked collections",
		}),
		FetchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "fetch_errors_total",
			Help:      "Feed fetch failures (entity skipped for the cycle)",
		}),
		StoreErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "reconcile",
			Name:      "store_errors_total",
			Help:      "State store write failures (entity batch aborted)",
		}),
		PublishErrors: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notify",
			Name:      "publish_errors_total",
			Help:      "Event sink delivery failures",
		}),
		AlertsFired: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alerts",
			Name:      "fired_total",
			Help:      "Price alerts fired",
		}),
	}
}
