package service

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	connections *prometheus.GaugeVec
	onlineUsers *prometheus.GaugeVec
	events      *prometheus.CounterVec
	outbound    *prometheus.CounterVec
	dropped     *prometheus.CounterVec
}

// NewMetrics registers the relay collectors with reg. A nil reg keeps them
// unregistered, which is what tests want.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		connections: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "relay_connections",
			Help: "Open websocket connections per namespace.",
		}, []string{"namespace"}),
		onlineUsers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "relay_online_users",
			Help: "Registered identities per namespace.",
		}, []string{"namespace"}),
		events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_inbound_events_total",
			Help: "Inbound events per namespace and event name.",
		}, []string{"namespace", "event"}),
		outbound: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_outbound_frames_total",
			Help: "Frames queued to clients per namespace and event name.",
		}, []string{"namespace", "event"}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "relay_outbound_dropped_total",
			Help: "Frames that could not be queued to a client.",
		}, []string{"namespace"}),
	}

	if reg != nil {
		reg.MustRegister(m.connections, m.onlineUsers, m.events, m.outbound, m.dropped)
	}

	return m
}
