package ws

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	wsObservers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ws_observers",
			Help: "Currently connected board observers",
		},
	)
	wsBroadcasts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ws_broadcasts_total",
			Help: "Total events fanned out to observers",
		},
	)
)

func init() {
	prometheus.MustRegister(wsObservers)
	prometheus.MustRegister(wsBroadcasts)
}
