package livechannel

import "time"

// Config holds the reconnection settings.
type Config struct {
	RetryDelay    time.Duration `env:"NOTIFY_RETRY_DELAY" envDefault:"5s"`    // RetryDelay is the delay before each reconnect attempt.
	MaxRetryDelay time.Duration `env:"NOTIFY_MAX_RETRY_DELAY" envDefault:"0"` // MaxRetryDelay > RetryDelay switches to exponential backoff capped at this value.
}

// Backoff builds the retry policy described by the config.
func (c Config) Backoff() Backoff {
	delay := c.RetryDelay
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	if c.MaxRetryDelay > delay {
		return ExponentialBackoff(delay, c.MaxRetryDelay)
	}
	return FlatBackoff(delay)
}
