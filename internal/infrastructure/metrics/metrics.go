package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Gateway holds the realtime gateway collectors.
type Gateway struct {
	Connections prometheus.Gauge
	OnlineUsers prometheus.Gauge
	Events      *prometheus.CounterVec
}

// NewGateway creates and registers the gateway collectors on reg.
func NewGateway(reg prometheus.Registerer) *Gateway {
	g := &Gateway{
		Connections: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "projectsync",
			Name:      "ws_connections",
			Help:      "Live websocket connections.",
		}),
		OnlineUsers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "projectsync",
			Name:      "online_users",
			Help:      "Users with a live presence mapping.",
		}),
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "projectsync",
			Name:      "ws_events_total",
			Help:      "Inbound websocket events by name and outcome.",
		}, []string{"event", "outcome"}),
	}
	reg.MustRegister(g.Connections, g.OnlineUsers, g.Events)
	return g
}

// PresenceChanged implements realtime.Observer.
func (g *Gateway) PresenceChanged(connections, online int) {
	g.Connections.Set(float64(connections))
	g.OnlineUsers.Set(float64(online))
}

// Event counts one handled inbound event.
func (g *Gateway) Event(event, outcome string) {
	g.Events.WithLabelValues(event, outcome).Inc()
}
