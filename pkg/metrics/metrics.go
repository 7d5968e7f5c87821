// Package metrics holds the Prometheus collectors of the link graph
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fast_note_graph"

var (
	// EdgesInserted counts edges created by reconciliation
	EdgesInserted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconcile",
		Name:      "edges_inserted_total",
		Help:      "Link edges inserted by reconciliation.",
	})

	// EdgesDeleted counts edges removed by reconciliation and cascades
	EdgesDeleted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconcile",
		Name:      "edges_deleted_total",
		Help:      "Link edges deleted by reconciliation or note deletion.",
	})

	EdgesKept = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconcile",
		Name:      "edges_kept_total",
		Help:      "Link edges left untouched by reconciliation.",
	})

	UnresolvedTitles = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "resolve",
		Name:      "unresolved_titles_total",
		Help:      "Link titles that matched no note of the owner.",
	})

	// Reconciles counts reconcile runs by outcome ("ok" or "error")
	Reconciles = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "reconcile",
		Name:      "runs_total",
		Help:      "Reconcile runs by outcome.",
	}, []string{"outcome"})

	ReconcileDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Subsystem: "reconcile",
		Name:      "duration_seconds",
		Help:      "Time spent in tokenize, resolve and reconcile for one content write.",
		Buckets:   prometheus.DefBuckets,
	})

	// AuditRemoved counts edges removed by the integrity audit
	AuditRemoved = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Subsystem: "audit",
		Name:      "edges_removed_total",
		Help:      "Dangling or cross-owner edges removed by the audit.",
	})
)

// ObserveReconcile records one finished reconcile
func ObserveReconcile(inserted, deleted, kept, unresolved int, err error) {
	if err != nil {
		Reconciles.WithLabelValues("error").Inc()
		return
	}
	Reconciles.WithLabelValues("ok").Inc()
	EdgesInserted.Add(float64(inserted))
	EdgesDeleted.Add(float64(deleted))
	EdgesKept.Add(float64(kept))
	UnresolvedTitles.Add(float64(unresolved))
}
