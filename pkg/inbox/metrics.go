package inbox

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/rendezvous-app/webclient/pkg/notifications"
)

// Metrics describes the dev backend. A nil *Metrics records nothing.
type Metrics struct {
	sentTotal *prometheus.CounterVec
	readTotal *prometheus.CounterVec
	streams   *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sentTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inbox",
			Name:      "notifications_sent_total",
			Help:      "Notifications stored, by role and type.",
		}, []string{"role", "type"}),
		readTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "inbox",
			Name:      "notifications_read_total",
			Help:      "Notifications switched to read, by role.",
		}, []string{"role"}),
		streams: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "inbox",
			Name:      "open_streams",
			Help:      "Live streams currently open, by role.",
		}, []string{"role"}),
	}
}

func (m *Metrics) sent(role notifications.Role, t notifications.Type) {
	if m == nil {
		return
	}
	m.sentTotal.WithLabelValues(string(role), string(t)).Inc()
}

func (m *Metrics) read(role notifications.Role, n int) {
	if m == nil || n == 0 {
		return
	}
	m.readTotal.WithLabelValues(string(role)).Add(float64(n))
}

func (m *Metrics) streamOpened(role notifications.Role) {
	if m == nil {
		return
	}
	m.streams.WithLabelValues(string(role)).Inc()
}

func (m *Metrics) streamClosed(role notifications.Role) {
	if m == nil {
		return
	}
	m.streams.WithLabelValues(string(role)).Dec()
}
