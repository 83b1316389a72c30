package livechannel

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// Frame kinds used as the "kind" label.
const (
	kindHeartbeat    = "heartbeat"
	kindConnected    = "connected"
	kindNotification = "notification"
	kindDuplicate    = "duplicate"
	kindMalformed    = "malformed"
)

// Metrics exposes live channel counters. A nil *Metrics records nothing.
type Metrics struct {
	frames     *prometheus.CounterVec
	reconnects *prometheus.CounterVec
	connected  *prometheus.GaugeVec
}

// NewMetrics registers the live channel collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		frames: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notifications",
			Subsystem: "live",
			Name:      "frames_total",
			Help:      "Frames received on the live channel by kind.",
		}, []string{"role", "kind"}),
		reconnects: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "notifications",
			Subsystem: "live",
			Name:      "reconnects_total",
			Help:      "Reconnection attempts scheduled after transport errors.",
		}, []string{"role"}),
		connected: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "notifications",
			Subsystem: "live",
			Name:      "connected",
			Help:      "1 while the live channel is open.",
		}, []string{"role"}),
	}
}

func (m *Metrics) frame(role notifications.Role, kind string) {
	if m == nil {
		return
	}
	m.frames.WithLabelValues(string(role), kind).Inc()
}

func (m *Metrics) reconnect(role notifications.Role) {
	if m == nil {
		return
	}
	m.reconnects.WithLabelValues(string(role)).Inc()
}

func (m *Metrics) setConnected(role notifications.Role, up bool) {
	if m == nil {
		return
	}
	v := 0.0
	if up {
		v = 1
	}
	m.connected.WithLabelValues(string(role)).Set(v)
}
