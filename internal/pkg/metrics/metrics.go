// Package metrics defines and registers all custom Prometheus metrics for the
// coupon service. It is the single source of truth for metric names, labels,
// and help strings.
//
// Metrics are registered with the default Prometheus registry on package
// initialisation; HTTP request metrics come from echoprometheus.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "coupons"

// ── Catalogue metrics ─────────────────────────────────────────────────────────

// CouponsCreatedTotal counts newly created coupons.
// Label:
//   - source: "single" or "upload"
var CouponsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "created_total",
		Help:      "Total number of coupons created, by source.",
	},
	[]string{"source"},
)

// ── Assignment metrics ────────────────────────────────────────────────────────

// AssignmentsCreatedTotal counts ledger rows written by the assignment engine.
// Label:
//   - mode: "pair", "bulk" or "title"
var AssignmentsCreatedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignments_created_total",
		Help:      "Total number of coupon assignments created, by mode.",
	},
	[]string{"mode"},
)

// AssignmentsSkippedTotal counts requested pairs that produced no assignment.
// Labels:
//   - mode: "bulk" or "title"
//   - reason: "ledger_duplicate", "batch_duplicate", "concurrent" or "surplus"
var AssignmentsSkippedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assignments_skipped_total",
		Help:      "Total number of requested assignments skipped, by mode and reason.",
	},
	[]string{"mode", "reason"},
)

// RedemptionsTotal counts assignments marked as used.
var RedemptionsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "redemptions_total",
		Help:      "Total number of coupon assignments marked as used.",
	},
)

// LoginAttemptsTotal counts login attempts.
// Labels:
//   - method: "password" or "directory"
//   - result: "ok", "rejected" or "throttled"
var LoginAttemptsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "login_attempts_total",
		Help:      "Total number of login attempts, by method and result.",
	},
	[]string{"method", "result"},
)

// ── Event pipeline metrics ────────────────────────────────────────────────────

// EventsDeliveredTotal counts event deliveries per sink.
// Labels:
//   - sink: sink name (e.g. "audit", "kafka")
//   - result: "ok" or "error"
var EventsDeliveredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_delivered_total",
		Help:      "Total number of coupon events delivered, by sink and result.",
	},
	[]string{"sink", "result"},
)

// EventsDroppedTotal counts events discarded because the dispatcher queue was full.
var EventsDroppedTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Total number of coupon events dropped on a full dispatcher queue.",
	},
)

// EventsQueueDepth tracks the current number of events waiting in each worker channel.
// Label:
//   - worker_id: numeric worker index (e.g. "0", "1", …)
var EventsQueueDepth = promauto.NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "events_queue_depth",
		Help:      "Current number of events pending in each dispatcher worker channel.",
	},
	[]string{"worker_id"},
)

// EventDeliveryDuration measures how long a sink takes to accept one event.
// Label:
//   - sink: sink name
var EventDeliveryDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "event_delivery_duration_seconds",
		Help:      "Duration of a single event delivery to a sink.",
		Buckets:   prometheus.DefBuckets,
	},
	[]string{"sink"},
)
