// Package metrics defines and registers all custom Prometheus metrics for the
// rider tracking engine. It is the single source of truth for metric names,
// labels, and help strings.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tracking"

// ── Ingest metrics ────────────────────────────────────────────────────────────

// PingsIngestedTotal counts pings that were durably stored.
// Label:
//   - path: "single" (synchronous API) or "batch" (dispatcher workers)
var PingsIngestedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pings_ingested_total",
		Help:      "Total number of position reports successfully stored.",
	},
	[]string{"path"},
)

// PingValidationErrorsTotal counts rejected ingest attempts.
// Label:
//   - field: the offending field (e.g. "latitude", "timestamp")
var PingValidationErrorsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ping_validation_errors_total",
		Help:      "Total number of pings rejected by validation, by offending field.",
	},
	[]string{"field"},
)

// IngestQueueDepth tracks the number of pings waiting in each batch worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var IngestQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "ingest_queue_depth",
		Help:      "Current number of pings pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// PingsPurgedTotal counts pings hard-deleted by the retention sweeper.
var PingsPurgedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "pings_purged_total",
		Help:      "Total number of position reports removed by retention sweeps.",
	},
)

// ── Read-path metrics ─────────────────────────────────────────────────────────

// LocationCacheTotal counts latest-location cache lookups.
// Label:
//   - result: "hit" or "miss"
var LocationCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "location_cache_total",
		Help:      "Total number of latest-location cache lookups, labelled by result.",
	},
	[]string{"result"},
)

// ── Presence metrics ──────────────────────────────────────────────────────────

// PresenceScanDuration measures how long a full offline-rider scan takes.
var PresenceScanDuration = promauto.NewHistogram(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "presence_scan_duration_seconds",
		Help:      "Duration of the latest-ping-per-rider presence aggregation.",
		Buckets:   prometheus.DefBuckets,
	},
)

// OfflineRiders tracks the offline rider count observed by the last periodic scan.
var OfflineRiders = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "offline_riders",
		Help:      "Number of riders whose latest active ping predates the configured cutoff.",
	},
)
