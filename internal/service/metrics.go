package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var versionConflicts = prometheus.NewCounter(
	prometheus.CounterOpts{
		Name: "task_version_conflicts_total",
		Help: "Total update commits rejected for a stale version token",
	},
)

func init() {
	prometheus.MustRegister(versionConflicts)
}
