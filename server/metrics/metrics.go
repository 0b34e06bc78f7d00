package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "sketchsphere"

type Metrics struct {
	rooms           prometheus.Gauge
	sessions        prometheus.Gauge
	members         prometheus.Gauge
	roomsCreated    prometheus.Counter
	operations      *prometheus.CounterVec
	chatMessages    prometheus.Counter
	requestsDropped *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
}

// New creates the collectors and registers them with reg. A nil reg leaves
// them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rooms: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Rooms that currently have at least one member.",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Open client connections.",
		}),
		members: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "members_active",
			Help:      "Connections currently joined to a room.",
		}),
		roomsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rooms_created_total",
			Help:      "Rooms allocated since start.",
		}),
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Board operations applied, by kind.",
		}, []string{"kind"}),
		chatMessages: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "chat_messages_total",
			Help:      "Chat messages relayed.",
		}),
		requestsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_dropped_total",
			Help:      "Client requests dropped without effect, by request and reason.",
		}, []string{"request", "reason"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Outbound events dropped because a connection queue was full.",
		}, []string{"event"}),
	}
	if reg != nil {
		reg.MustRegister(
			m.rooms,
			m.sessions,
			m.members,
			m.roomsCreated,
			m.operations,
			m.chatMessages,
			m.requestsDropped,
			m.eventsDropped,
		)
	}
	return m
}

func (m *Metrics) RoomCreated() {
	m.rooms.Inc()
	m.roomsCreated.Inc()
}

func (m *Metrics) RoomRemoved() {
	m.rooms.Dec()
}

func (m *Metrics) SessionOpened() {
	m.sessions.Inc()
}

func (m *Metrics) SessionClosed() {
	m.sessions.Dec()
}

func (m *Metrics) MemberJoined() {
	m.members.Inc()
}

func (m *Metrics) MemberLeft() {
	m.members.Dec()
}

func (m *Metrics) OperationApplied(kind string) {
	m.operations.WithLabelValues(kind).Inc()
}

func (m *Metrics) ChatRelayed() {
	m.chatMessages.Inc()
}

func (m *Metrics) RequestDropped(kind, reason string) {
	m.requestsDropped.WithLabelValues(kind, reason).Inc()
}

func (m *Metrics) EventDropped(kind string) {
	m.eventsDropped.WithLabelValues(kind).Inc()
}
