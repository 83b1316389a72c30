package readsync

import (
	"log/slog"
	"time"
)

// Option configures a Syncer.
type Option func(*Syncer)

func WithLogger(l *slog.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithTimeout bounds each request. Non-positive values keep DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Syncer) {
		if d > 0 {
			s.timeout = d
		}
	}
}

func WithMetrics(m *Metrics) Option {
	return func(s *Syncer) { s.metrics = m }
}
