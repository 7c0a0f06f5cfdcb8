// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Repair directions reported by the reconciler
const (
	RepairMarkerSet     = "marker_set"
	RepairMarkerCleared = "marker_cleared"
)

type Metrics struct {
	ballotsCommitted prometheus.Counter
	ballotsRejected  *prometheus.CounterVec
	storeRetries     *prometheus.CounterVec
	reconcileRepairs *prometheus.CounterVec
	commitDuration   prometheus.Histogram
}

// New registers all collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		ballotsCommitted: factory.NewCounter(prometheus.CounterOpts{
			Name: "verivote_ballots_committed_total",
			Help: "Total number of ballots durably committed",
		}),
		ballotsRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verivote_ballots_rejected_total",
			Help: "Total number of rejected ballot submissions by error kind",
		}, []string{"kind"}),
		storeRetries: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verivote_store_retries_total",
			Help: "Total number of retried document store calls",
		}, []string{"op", "collection"}),
		reconcileRepairs: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "verivote_reconcile_repairs_total",
			Help: "Total number of voter markers repaired by reconciliation",
		}, []string{"direction"}),
		commitDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "verivote_commit_duration_seconds",
			Help:    "Time spent inside the per-voter commit critical section",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
	}
}

func (m *Metrics) BallotCommitted() {
	if m == nil {
		return
	}
	m.ballotsCommitted.Inc()
}

func (m *Metrics) BallotRejected(kind string) {
	if m == nil {
		return
	}
	if kind == "" {
		kind = "unknown"
	}
	m.ballotsRejected.WithLabelValues(kind).Inc()
}

// StoreRetry matches the docstore.OnRetry hook signature.
func (m *Metrics) StoreRetry(op, collection string) {
	if m == nil {
		return
	}
	m.storeRetries.WithLabelValues(op, collection).Inc()
}

func (m *Metrics) ReconcileRepair(direction string) {
	if m == nil {
		return
	}
	m.reconcileRepairs.WithLabelValues(direction).Inc()
}

func (m *Metrics) ObserveCommit(d time.Duration) {
	if m == nil {
		return
	}
	m.commitDuration.Observe(d.Seconds())
}
