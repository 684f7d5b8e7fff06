package loader

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	metricInstances = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semforge",
		Subsystem: "loader",
		Name:      "instances_total",
		Help:      "Typed instance records produced, by view.",
	}, []string{"view"})

	metricIssues = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "semforge",
		Subsystem: "loader",
		Name:      "issues_total",
		Help:      "Per-instance findings emitted, by severity.",
	}, []string{"severity"})

	metricTruncations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "semforge",
		Subsystem: "loader",
		Name:      "direct_relation_truncations_total",
		Help:      "Direct-relation lists capped at their declared limit.",
	})
)
