package websocket

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "uttt_relay_connections_active",
		Help: "Open websocket connections on the relay",
	})

	relayedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uttt_relay_messages_total",
		Help: "Messages published to rooms by action",
	}, []string{"action"})

	rejectedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "uttt_relay_rejected_total",
		Help: "Client messages refused by the relay by reason",
	}, []string{"reason"})
)
