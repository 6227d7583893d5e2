// Package metrics exposes Prometheus collectors for the edge controller.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// ConnectedClients tracks currently open websocket connections.
	ConnectedClients = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "pibox",
		Subsystem: "ws",
		Name:      "connected_clients",
		Help:      "Number of currently connected websocket clients.",
	})

	// EventsRouted counts events delivered to client queues, by event kind.
	EventsRouted = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pibox",
		Subsystem: "ws",
		Name:      "events_routed_total",
		Help:      "Events enqueued for delivery to websocket clients.",
	}, []string{"kind"})

	// EventsDropped counts events discarded by the drop-oldest overflow policy.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pibox",
		Subsystem: "ws",
		Name:      "events_dropped_total",
		Help:      "Events dropped because a client outbound queue was full.",
	})

	// SlowClientDisconnects counts clients closed for persistent overflow.
	SlowClientDisconnects = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "pibox",
		Subsystem: "ws",
		Name:      "slow_client_disconnects_total",
		Help:      "Clients disconnected after repeated outbound queue overflow.",
	})

	// AccessDecisions counts access decisions by outcome.
	AccessDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pibox",
		Subsystem: "access",
		Name:      "decisions_total",
		Help:      "Access decisions made, by outcome.",
	}, []string{"outcome"})

	// RelayPulses counts barrier relay pulses by channel.
	RelayPulses = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "pibox",
		Subsystem: "relay",
		Name:      "pulses_total",
		Help:      "Relay pulse operations, by channel.",
	}, []string{"channel"})
)

// Handler returns the HTTP handler serving the Prometheus registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
