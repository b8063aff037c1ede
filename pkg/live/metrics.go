package live

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/attrsync/pkg/protocol"
	"github.com/vango-dev/attrsync/pkg/reconcile"
)

// Metrics holds live server counters. A nil *Metrics records nothing.
type Metrics struct {
	activeSessions prometheus.Gauge
	messagesTotal  *prometheus.CounterVec
	patchesSent    prometheus.Counter
	protocolErrors *prometheus.CounterVec
	wsErrors       *prometheus.CounterVec
}

// NewMetrics registers the live server metrics under the "live" subsystem
// unless opts name another:
//   - attrsync_live_active_sessions: open WebSocket sessions
//   - attrsync_live_messages_total{type}: desired-state and report messages
//   - attrsync_live_patches_sent_total: patches written to clients
//   - attrsync_live_protocol_errors_total{code}: error frames sent
//   - attrsync_live_websocket_errors_total{type}: read and write failures
func NewMetrics(opts ...reconcile.MetricsOption) *Metrics {
	config := reconcile.NewMetricsConfig(append([]reconcile.MetricsOption{reconcile.WithMetricsSubsystem("live")}, opts...)...)
	factory := promauto.With(config.Registry)

	return &Metrics{
		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of active WebSocket sessions",
			ConstLabels: config.ConstLabels,
		}),

		messagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "messages_total",
			Help:        "Total number of client messages by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),

		patchesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "patches_sent_total",
			Help:        "Total number of patches sent to clients",
			ConstLabels: config.ConstLabels,
		}),

		protocolErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "protocol_errors_total",
			Help:        "Total number of error frames sent by code",
			ConstLabels: config.ConstLabels,
		}, []string{"code"}),

		wsErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_errors_total",
			Help:        "Total WebSocket errors by type",
			ConstLabels: config.ConstLabels,
		}, []string{"type"}),
	}
}

func (m *Metrics) sessionOpened() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

func (m *Metrics) sessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

func (m *Metrics) message(kind string) {
	if m != nil {
		m.messagesTotal.WithLabelValues(kind).Inc()
	}
}

func (m *Metrics) patches(n int) {
	if m != nil {
		m.patchesSent.Add(float64(n))
	}
}

func (m *Metrics) protocolError(code protocol.ErrorCode) {
	if m != nil {
		m.protocolErrors.WithLabelValues(code.String()).Inc()
	}
}

func (m *Metrics) websocketError(kind string) {
	if m != nil {
		m.wsErrors.WithLabelValues(kind).Inc()
	}
}
