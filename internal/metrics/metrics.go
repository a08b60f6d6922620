// Package metrics exposes Prometheus instrumentation for the realtime layer.
//
// All recording methods are safe on a nil *Metrics so components can be
// built without instrumentation in tests.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	// Connections is the number of live sockets.
	Connections prometheus.Gauge

	// OnlineUsers is the number of users with at least one live socket.
	OnlineUsers prometheus.Gauge

	// EventsPushed counts frames queued to sockets.
	// Labels: event (newMessage|userStatus|typing|...)
	EventsPushed *prometheus.CounterVec

	// Admissions counts handshake outcomes.
	// Labels: result (accepted|missing|expired|invalid|unknown_user|error)
	Admissions *prometheus.CounterVec

	// SlowConsumers counts sockets dropped because their send queue was full.
	SlowConsumers prometheus.Counter
}

// New registers the collectors with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Connections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "msgly",
			Subsystem: "ws",
			Name:      "connections",
			Help:      "Number of live websocket connections.",
		}),
		OnlineUsers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "msgly",
			Subsystem: "ws",
			Name:      "online_users",
			Help:      "Number of users with at least one live connection.",
		}),
		EventsPushed: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msgly",
			Subsystem: "ws",
			Name:      "events_pushed_total",
			Help:      "Frames queued to websocket connections by event type.",
		}, []string{"event"}),
		Admissions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "msgly",
			Subsystem: "ws",
			Name:      "admissions_total",
			Help:      "Websocket handshake outcomes.",
		}, []string{"result"}),
		SlowConsumers: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "msgly",
			Subsystem: "ws",
			Name:      "slow_consumers_total",
			Help:      "Connections dropped because their send queue was full.",
		}),
	}
}

func (m *Metrics) SetPresence(users, conns int) {
	if m == nil {
		return
	}
	m.OnlineUsers.Set(float64(users))
	m.Connections.Set(float64(conns))
}

func (m *Metrics) EventPushed(event string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.EventsPushed.WithLabelValues(event).Add(float64(n))
}

func (m *Metrics) Admission(result string) {
	if m == nil {
		return
	}
	m.Admissions.WithLabelValues(result).Inc()
}

func (m *Metrics) SlowConsumer() {
	if m == nil {
		return
	}
	m.SlowConsumers.Inc()
}
