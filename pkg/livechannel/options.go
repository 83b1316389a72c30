package livechannel

import (
	"log/slog"
	"time"
)

// Option configures a Channel.
type Option func(*Channel)

func WithLogger(l *slog.Logger) Option {
	return func(c *Channel) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithAlerter sets the arrival cue. Default is NopAlerter.
func WithAlerter(a Alerter) Option {
	return func(c *Channel) {
		if a != nil {
			c.alerter = a
		}
	}
}

// WithBackoff replaces the flat DefaultRetryDelay policy.
func WithBackoff(b Backoff) Option {
	return func(c *Channel) {
		if b != nil {
			c.backoff = b
		}
	}
}

// WithRetryDelay is shorthand for WithBackoff(FlatBackoff(d)).
func WithRetryDelay(d time.Duration) Option {
	if d <= 0 {
		panic("WithRetryDelay: delay must be > 0")
	}
	return WithBackoff(FlatBackoff(d))
}

func WithMetrics(m *Metrics) Option {
	return func(c *Channel) { c.metrics = m }
}

// WithClock overrides the time source used to stamp notifications without createdAt.
func WithClock(now func() time.Time) Option {
	return func(c *Channel) {
		if now != nil {
			c.now = now
		}
	}
}
